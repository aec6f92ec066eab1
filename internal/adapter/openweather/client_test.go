package openweather

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/crop-risk-service/internal/observability"
)

const (
	testAPIKey        = "test-key"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

const currentBody = `{
  "name": "Thane",
  "main": {"temp": 29.4, "feels_like": 33.1, "humidity": 84},
  "wind": {"speed": 4.6},
  "weather": [{"main": "Rain", "description": "light rain"}]
}`

const forecastBody = `{
  "city": {"name": "Thane"},
  "list": [
    {"dt": 1718010000, "main": {"temp": 28.1, "humidity": 82}, "weather": [{"description": "light rain"}], "rain": {"3h": 0.62}},
    {"dt": 1718020800, "main": {"temp": 27.5, "humidity": 86}, "weather": [{"description": "overcast clouds"}]},
    {"dt": 1718031600, "main": {"temp": 26.9, "humidity": 88}, "weather": [{"description": "moderate rain"}], "rain": {}}
  ]
}`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testClient(baseURL string) *Client {
	return NewClient(testAPIKey, baseURL, 5*time.Second, observability.NewMetricsForTesting(), testLogger())
}

func TestClient_CurrentWeather_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/2.5/weather", r.URL.Path)
		assert.Equal(t, "Thane", r.URL.Query().Get("q"))
		assert.Equal(t, testAPIKey, r.URL.Query().Get("appid"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))

		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = io.WriteString(w, currentBody)
	}))
	defer srv.Close()

	w, err := testClient(srv.URL).CurrentWeather(context.Background(), "Thane")
	require.NoError(t, err)

	assert.Equal(t, "Thane", w.City)
	assert.Equal(t, 29.4, w.TemperatureC)
	assert.Equal(t, 33.1, w.FeelsLikeC)
	assert.Equal(t, 84.0, w.Humidity)
	assert.Equal(t, 4.6, w.WindSpeed)
	assert.Equal(t, "Light Rain", w.Description)
	assert.Equal(t, "Rain", w.Main)
}

func TestClient_Forecast_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/2.5/forecast", r.URL.Path)
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = io.WriteString(w, forecastBody)
	}))
	defer srv.Close()

	fc, err := testClient(srv.URL).Forecast(context.Background(), "Thane")
	require.NoError(t, err)

	assert.Equal(t, "Thane", fc.City)
	require.Len(t, fc.Points, 3)

	first := fc.Points[0]
	assert.Equal(t, time.Unix(1718010000, 0).UTC(), first.Time)
	assert.Equal(t, 28.1, first.TemperatureC)
	assert.Equal(t, 82.0, first.Humidity)
	assert.Equal(t, "Light Rain", first.Condition)
	require.NotNil(t, first.RainMM)
	assert.Equal(t, 0.62, *first.RainMM)

	assert.Nil(t, fc.Points[1].RainMM)
	assert.Equal(t, "Overcast Clouds", fc.Points[1].Condition)

	require.NotNil(t, fc.Points[2].RainMM, "rain block without volume still counts as rain")
	assert.Equal(t, 0.0, *fc.Points[2].RainMM)
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"cod":"404","message":"city not found"}`)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).CurrentWeather(context.Background(), "Atlantis")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "city not found", apiErr.Message)
	assert.Equal(t, "weather", apiErr.Endpoint)
	assert.False(t, apiErr.Temporary())
}

func TestClient_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "not json")
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Forecast(context.Background(), "Thane")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode forecast response")
}

func TestClient_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, currentBody)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient(srv.URL).CurrentWeather(ctx, "Thane")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_BreakerOpensOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	for range 5 {
		_, err := c.CurrentWeather(context.Background(), "Thane")
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.True(t, apiErr.Temporary())
	}

	_, err := c.CurrentWeather(context.Background(), "Thane")
	require.Error(t, err)
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.Equal(t, int32(5), calls.Load(), "open breaker must not reach the server")
}

func TestClient_NotFoundDoesNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	for range 8 {
		_, err := c.CurrentWeather(context.Background(), "Atlantis")
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
	}
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Light Rain", titleCase("light rain"))
	assert.Equal(t, "Overcast Clouds", titleCase("overcast clouds"))
	assert.Empty(t, titleCase(""))
}

func TestDecodeForecast(t *testing.T) {
	fc, err := DecodeForecast([]byte(forecastBody))
	require.NoError(t, err)

	assert.Equal(t, "Thane", fc.City)
	require.Len(t, fc.Points, 3)
	assert.Equal(t, "Light Rain", fc.Points[0].Condition)
	require.NotNil(t, fc.Points[0].RainMM)
	assert.InDelta(t, 0.62, *fc.Points[0].RainMM, 1e-9)
	assert.Nil(t, fc.Points[1].RainMM)
	require.NotNil(t, fc.Points[2].RainMM)
	assert.Zero(t, *fc.Points[2].RainMM)
}

func TestDecodeCurrent_Invalid(t *testing.T) {
	_, err := DecodeCurrent([]byte("not-json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode weather response")
}
