// Command assess runs the risk engine offline over recorded weather fixtures
// and a batch of detections, printing the resulting assessments as JSON. It
// exercises the same decoders and assessment code the service uses, so it can
// check fixture changes before they reach the test suites.
//
// Usage:
//
//	go run ./cmd/assess \
//	  -weather data/mock/weather_thane.json \
//	  -forecast data/mock/forecast_thane.json \
//	  -detections data/mock/detections.json \
//	  -now 2024-06-10T06:00:00Z
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/crop-risk-service/internal/adapter/openweather"
	"github.com/couchcryptid/crop-risk-service/internal/domain"
)

// fileProvider serves one recorded current-weather and forecast response for
// every city.
type fileProvider struct {
	current  domain.CurrentWeather
	forecast domain.Forecast
}

func loadProvider(weatherPath, forecastPath string) (*fileProvider, error) {
	data, err := os.ReadFile(weatherPath)
	if err != nil {
		return nil, err
	}
	current, err := openweather.DecodeCurrent(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", weatherPath, err)
	}

	data, err = os.ReadFile(forecastPath)
	if err != nil {
		return nil, err
	}
	forecast, err := openweather.DecodeForecast(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", forecastPath, err)
	}
	return &fileProvider{current: current, forecast: forecast}, nil
}

func (p *fileProvider) CurrentWeather(_ context.Context, _ string) (domain.CurrentWeather, error) {
	return p.current, nil
}

func (p *fileProvider) Forecast(_ context.Context, _ string) (domain.Forecast, error) {
	return p.forecast, nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	weatherPath := flag.String("weather", "data/mock/weather_thane.json", "current weather fixture (OpenWeatherMap /weather response)")
	forecastPath := flag.String("forecast", "data/mock/forecast_thane.json", "forecast fixture (OpenWeatherMap /forecast response)")
	detectionsPath := flag.String("detections", "data/mock/detections.json", "JSON array of detections")
	tz := flag.String("tz", "UTC", "IANA time zone that defines forecast days")
	days := flag.Int("days", domain.DefaultDaysAhead, "survival projection window in days (1-5)")
	now := flag.String("now", "", "reference time in RFC 3339; defaults to the current time")
	out := flag.String("out", "", "output file; defaults to stdout")
	flag.Parse()

	if *days < 1 || *days > domain.DefaultDaysAhead {
		flag.Usage()
		return fmt.Errorf("-days must be between 1 and %d", domain.DefaultDaysAhead)
	}
	loc, err := time.LoadLocation(*tz)
	if err != nil {
		return fmt.Errorf("invalid -tz: %w", err)
	}
	if *now != "" {
		t, err := time.Parse(time.RFC3339, *now)
		if err != nil {
			return fmt.Errorf("invalid -now: %w", err)
		}
		domain.SetClock(clockwork.NewFakeClockAt(t))
		defer domain.SetClock(nil)
	}

	provider, err := loadProvider(*weatherPath, *forecastPath)
	if err != nil {
		return fmt.Errorf("loading weather fixtures: %w", err)
	}
	detections, err := loadDetections(*detectionsPath)
	if err != nil {
		return fmt.Errorf("loading detections: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	assessor := domain.NewAssessor(domain.DefaultProfileStore(), provider, domain.AssessorConfig{
		DefaultCity:  provider.current.City,
		ForecastDays: *days,
		Location:     loc,
	}, logger)

	ctx := context.Background()
	assessments := make([]domain.Assessment, 0, len(detections))
	for _, det := range detections {
		assessments = append(assessments, assessor.Assess(ctx, det))
	}

	w := io.Writer(os.Stdout)
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(assessments); err != nil {
		return fmt.Errorf("writing assessments: %w", err)
	}

	printSummary(assessments)
	return nil
}

// loadDetections parses every entry the way the pipeline parses Kafka
// messages, so malformed fixtures fail here first.
func loadDetections(path string) ([]domain.Detection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	out := make([]domain.Detection, 0, len(items))
	for i, raw := range items {
		det, err := domain.ParseRawEvent(domain.RawEvent{Value: raw})
		if err != nil {
			return nil, fmt.Errorf("detection %d: %w", i, err)
		}
		out = append(out, det)
	}
	return out, nil
}

func printSummary(assessments []domain.Assessment) {
	fmt.Fprintln(os.Stderr, "\n=== Assessment summary ===")
	for _, a := range assessments {
		risk, outlook := "-", "-"
		if a.Risk != nil {
			risk = fmt.Sprintf("%s/%d", a.Risk.Level, a.Risk.Score)
		}
		if a.Survival != nil {
			outlook = fmt.Sprintf("%s/%d high", a.Survival.Outlook, a.Survival.HighRiskDays)
		}
		fmt.Fprintf(os.Stderr, "%-40s risk=%-12s outlook=%s\n", a.Detection.DiseaseClass, risk, outlook)
	}
	fmt.Fprintf(os.Stderr, "%s\n", strings.Repeat("-", 60))
	fmt.Fprintf(os.Stderr, "total: %d\n", len(assessments))
}
