package openweather

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/crop-risk-service/internal/domain"
	"github.com/couchcryptid/crop-risk-service/internal/observability"
)

// CachedProvider wraps a WeatherProvider with per-endpoint in-memory LRU
// caches whose entries expire after a fixed TTL.
type CachedProvider struct {
	inner    domain.WeatherProvider
	current  *lruCache[domain.CurrentWeather]
	forecast *lruCache[domain.Forecast]
	metrics  *observability.Metrics
}

// NewCachedProvider creates a cache decorator around a weather provider.
// A nil clock uses real time.
func NewCachedProvider(inner domain.WeatherProvider, maxEntries int, ttl time.Duration, clock clockwork.Clock, metrics *observability.Metrics) *CachedProvider {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &CachedProvider{
		inner:    inner,
		current:  newLRUCache[domain.CurrentWeather](maxEntries, ttl, clock),
		forecast: newLRUCache[domain.Forecast](maxEntries, ttl, clock),
		metrics:  metrics,
	}
}

func (c *CachedProvider) CurrentWeather(ctx context.Context, city string) (domain.CurrentWeather, error) {
	key := cacheKey(city)
	if w, ok := c.current.get(key); ok {
		c.metrics.WeatherCache.WithLabelValues(endpointWeather, "hit").Inc()
		return w, nil
	}
	c.metrics.WeatherCache.WithLabelValues(endpointWeather, "miss").Inc()

	w, err := c.inner.CurrentWeather(ctx, city)
	if err != nil {
		return w, err
	}
	c.current.put(key, w)
	return w, nil
}

func (c *CachedProvider) Forecast(ctx context.Context, city string) (domain.Forecast, error) {
	key := cacheKey(city)
	if fc, ok := c.forecast.get(key); ok {
		c.metrics.WeatherCache.WithLabelValues(endpointForecast, "hit").Inc()
		return fc, nil
	}
	c.metrics.WeatherCache.WithLabelValues(endpointForecast, "miss").Inc()

	fc, err := c.inner.Forecast(ctx, city)
	if err != nil {
		return fc, err
	}
	// Only cache non-empty forecasts so a transient empty response can be retried.
	if len(fc.Points) > 0 {
		c.forecast.put(key, fc)
	}
	return fc, nil
}

// Refresh fetches fresh current weather and forecast for a city, bypassing
// and then repopulating the cache.
func (c *CachedProvider) Refresh(ctx context.Context, city string) error {
	key := cacheKey(city)
	var errs []error

	if w, err := c.inner.CurrentWeather(ctx, city); err != nil {
		errs = append(errs, err)
	} else {
		c.current.put(key, w)
	}

	if fc, err := c.inner.Forecast(ctx, city); err != nil {
		errs = append(errs, err)
	} else if len(fc.Points) > 0 {
		c.forecast.put(key, fc)
	}

	return errors.Join(errs...)
}

func cacheKey(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}

// lruCache is a small thread-safe LRU cache with per-entry expiry.
type lruCache[V any] struct {
	maxEntries int
	ttl        time.Duration
	clock      clockwork.Clock
	mu         sync.Mutex
	entries    map[string]*entry[V]
	head       *entry[V] // most recently used
	tail       *entry[V] // least recently used
}

type entry[V any] struct {
	key       string
	value     V
	expiresAt time.Time
	prev      *entry[V]
	next      *entry[V]
}

func newLRUCache[V any](maxEntries int, ttl time.Duration, clock clockwork.Clock) *lruCache[V] {
	return &lruCache[V]{
		maxEntries: maxEntries,
		ttl:        ttl,
		clock:      clock,
		entries:    make(map[string]*entry[V]),
	}
}

func (c *lruCache[V]) get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if !c.clock.Now().Before(e.expiresAt) {
		delete(c.entries, key)
		c.remove(e)
		return zero, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache[V]) put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.clock.Now().Add(c.ttl)
	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expiresAt = expiresAt
		c.moveToFront(e)
		return
	}

	e := &entry[V]{key: key, value: value, expiresAt: expiresAt}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache[V]) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache[V]) moveToFront(e *entry[V]) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache[V]) addToFront(e *entry[V]) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache[V]) remove(e *entry[V]) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
	e.prev, e.next = nil, nil
}

func (c *lruCache[V]) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
