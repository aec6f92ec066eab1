package domain

import (
	"context"
	"errors"
	"time"
)

// ErrAssessmentNotFound is returned by assessment stores for unknown IDs.
var ErrAssessmentNotFound = errors.New("assessment not found")

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// Detection is a classifier verdict for one leaf image.
type Detection struct {
	ID           string    `json:"id,omitempty"`
	DiseaseClass string    `json:"disease_class"`
	Confidence   float64   `json:"confidence,omitempty"` // percent, 0-100
	City         string    `json:"city,omitempty"`
	DetectedAt   time.Time `json:"detected_at"`
}

// Assessment is a detection enriched with weather, risk and outlook.
type Assessment struct {
	ID        string          `json:"id"`
	Detection Detection       `json:"detection"`
	Plant     string          `json:"plant"`
	Disease   string          `json:"disease"`
	IsHealthy bool            `json:"is_healthy"`
	City      string          `json:"city"`
	Weather   *CurrentWeather `json:"weather,omitempty"`
	Tomorrow  *DailyForecast  `json:"tomorrow,omitempty"`
	Risk      *RiskResult     `json:"risk,omitempty"`
	Survival  *SurvivalReport `json:"survival,omitempty"`

	// WeatherError is set when current weather could not be fetched; the
	// assessment then carries no risk reading.
	WeatherError string `json:"weather_error,omitempty"`

	ProcessedAt time.Time `json:"processed_at"`
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
