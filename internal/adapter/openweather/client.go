package openweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/couchcryptid/crop-risk-service/internal/domain"
	"github.com/couchcryptid/crop-risk-service/internal/observability"
)

// DefaultBaseURL is the public OpenWeatherMap API host.
const DefaultBaseURL = "https://api.openweathermap.org"

// Endpoint names, used in paths and metric labels.
const (
	endpointWeather  = "weather"
	endpointForecast = "forecast"
)

// maxErrorBody caps how much of an error response is kept in APIError.
const maxErrorBody = 512

// APIError is a non-2xx response from OpenWeatherMap.
type APIError struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("openweather %s: status %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

// Temporary reports whether the failure is worth retrying later.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Client implements domain.WeatherProvider using the OpenWeatherMap 2.5 API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an OpenWeatherMap client. An empty baseURL means DefaultBaseURL.
func NewClient(apiKey, baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "openweather",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// Unknown cities and bad keys are caller problems, not an outage.
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return !apiErr.Temporary()
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return c
}

// CurrentWeather returns the current conditions for a city.
func (c *Client) CurrentWeather(ctx context.Context, city string) (domain.CurrentWeather, error) {
	var resp currentResponse
	if err := c.get(ctx, endpointWeather, city, &resp); err != nil {
		return domain.CurrentWeather{}, err
	}
	return resp.toDomain(), nil
}

// Forecast returns the 5 day / 3 hour forecast for a city.
func (c *Client) Forecast(ctx context.Context, city string) (domain.Forecast, error) {
	var resp forecastResponse
	if err := c.get(ctx, endpointForecast, city, &resp); err != nil {
		return domain.Forecast{}, err
	}
	return resp.toDomain(), nil
}

// DecodeCurrent parses a /data/2.5/weather response body.
func DecodeCurrent(data []byte) (domain.CurrentWeather, error) {
	var resp currentResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return domain.CurrentWeather{}, fmt.Errorf("decode %s response: %w", endpointWeather, err)
	}
	return resp.toDomain(), nil
}

// DecodeForecast parses a /data/2.5/forecast response body.
func DecodeForecast(data []byte) (domain.Forecast, error) {
	var resp forecastResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return domain.Forecast{}, fmt.Errorf("decode %s response: %w", endpointForecast, err)
	}
	return resp.toDomain(), nil
}

func (c *Client) get(ctx context.Context, endpoint, city string, out any) error {
	params := url.Values{
		"q":     {city},
		"appid": {c.apiKey},
		"units": {"metric"},
	}
	fullURL := fmt.Sprintf("%s/data/2.5/%s?%s", c.baseURL, endpoint, params.Encode())

	start := time.Now()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.fetch(ctx, endpoint, fullURL)
	})
	c.metrics.WeatherAPIDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	if err != nil {
		outcome := "error"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			outcome = "open"
			err = fmt.Errorf("openweather %s: %w", endpoint, err)
		}
		c.metrics.WeatherRequests.WithLabelValues(endpoint, outcome).Inc()
		c.logger.Debug("weather request failed", "endpoint", endpoint, "city", city, "error", err)
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		c.metrics.WeatherRequests.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	c.metrics.WeatherRequests.WithLabelValues(endpoint, "success").Inc()
	return nil
}

func (c *Client) fetch(ctx context.Context, endpoint, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", endpoint, err)
	}
	return body, nil
}

// errorMessage extracts the "message" field of an API error body, falling
// back to the raw body.
func errorMessage(raw []byte) string {
	var e errorResponse
	if err := json.Unmarshal(raw, &e); err == nil && e.Message != "" {
		return e.Message
	}
	return strings.TrimSpace(string(raw))
}

// titleCase turns "light rain" into "Light Rain".
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

// OpenWeatherMap API response types.

type errorResponse struct {
	Message string `json:"message"`
}

type condition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
}

type currentResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Weather []condition `json:"weather"`
}

type forecastResponse struct {
	City struct {
		Name string `json:"name"`
	} `json:"city"`
	List []forecastItem `json:"list"`
}

func (r currentResponse) toDomain() domain.CurrentWeather {
	w := domain.CurrentWeather{
		City:         r.Name,
		TemperatureC: r.Main.Temp,
		FeelsLikeC:   r.Main.FeelsLike,
		Humidity:     r.Main.Humidity,
		WindSpeed:    r.Wind.Speed,
	}
	if len(r.Weather) > 0 {
		w.Description = titleCase(r.Weather[0].Description)
		w.Main = r.Weather[0].Main
	}
	return w
}

func (r forecastResponse) toDomain() domain.Forecast {
	fc := domain.Forecast{
		City:   r.City.Name,
		Points: make([]domain.ForecastPoint, 0, len(r.List)),
	}
	for _, item := range r.List {
		p := domain.ForecastPoint{
			Time:         time.Unix(item.Dt, 0).UTC(),
			TemperatureC: item.Main.Temp,
			Humidity:     item.Main.Humidity,
		}
		if len(item.Weather) > 0 {
			p.Condition = titleCase(item.Weather[0].Description)
		}
		// A rain block marks a rainy interval even when the 3h volume is missing.
		if item.Rain != nil {
			mm := 0.0
			if item.Rain.ThreeHour != nil {
				mm = *item.Rain.ThreeHour
			}
			p.RainMM = &mm
		}
		fc.Points = append(fc.Points, p)
	}
	return fc
}

type forecastItem struct {
	Dt   int64 `json:"dt"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Weather []condition `json:"weather"`
	Rain    *struct {
		ThreeHour *float64 `json:"3h"`
	} `json:"rain,omitempty"`
}
