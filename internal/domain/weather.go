package domain

import "context"

// WeatherObservation is the scoring unit: one reading of condition,
// temperature and humidity. Aggregated forecast days are scored the same way.
type WeatherObservation struct {
	Condition    string  `json:"condition"`
	TemperatureC float64 `json:"temperature"`
	Humidity     float64 `json:"humidity"` // percent, 0-100
}

// CurrentWeather is a provider's current conditions for a city.
type CurrentWeather struct {
	City         string  `json:"city"`
	TemperatureC float64 `json:"temperature"`
	FeelsLikeC   float64 `json:"feels_like"`
	Humidity     float64 `json:"humidity"`
	WindSpeed    float64 `json:"wind_speed"` // m/s
	Description  string  `json:"description"`
	Main         string  `json:"main"`
}

// Observation returns the current conditions as a scoring input.
func (w CurrentWeather) Observation() WeatherObservation {
	return WeatherObservation{
		Condition:    w.Description,
		TemperatureC: w.TemperatureC,
		Humidity:     w.Humidity,
	}
}

// Forecast is a provider's raw multi-day forecast for a city.
type Forecast struct {
	City   string          `json:"city"`
	Points []ForecastPoint `json:"points"`
}

// WeatherProvider fetches current conditions and forecasts by city name.
type WeatherProvider interface {
	// CurrentWeather returns the latest observed conditions.
	CurrentWeather(ctx context.Context, city string) (CurrentWeather, error)

	// Forecast returns the 3-hourly forecast samples for the next days.
	Forecast(ctx context.Context, city string) (Forecast, error)
}
