// Command genmock writes deterministic OpenWeatherMap-shaped weather fixtures
// and a batch of plant disease detections for the pipeline test suites. Every
// fixture is decoded back through the real weather client decoders, so the
// written data always matches what the service reads in production.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out-dir data/mock \
//	  -city Thane \
//	  -start 2024-06-10
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/crop-risk-service/internal/adapter/openweather"
	"github.com/couchcryptid/crop-risk-service/internal/domain"
)

const (
	forecastDays = 5
	slotsPerDay  = 8 // 3-hourly samples
)

// rainyDays are the forecast day indexes that carry rain.
var rainyDays = map[int]bool{1: true, 2: true, 3: true}

// detectionClasses cover every plant in the fixture set plus one class that
// is missing from the climate table.
var detectionClasses = []string{
	"Tomato___Late_blight",
	"Tomato___Early_blight",
	"Tomato___healthy",
	"Potato___Late_blight",
	"Potato___Early_blight",
	"Apple___Apple_scab",
	"Grape___Black_rot",
	"Corn_(maize)___Northern_Leaf_Blight",
	"Pepper,_bell___Bacterial_spot",
	"Strawberry___Leaf_scorch",
	"Squash___Powdery_mildew",
	"Mango___Anthracnose",
}

// OpenWeatherMap response shapes, limited to the fields the client reads.
type (
	owmCondition struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	}
	owmCurrent struct {
		Name string `json:"name"`
		Main struct {
			Temp      float64 `json:"temp"`
			FeelsLike float64 `json:"feels_like"`
			Humidity  float64 `json:"humidity"`
		} `json:"main"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Weather []owmCondition `json:"weather"`
	}
	owmForecastItem struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp     float64 `json:"temp"`
			Humidity float64 `json:"humidity"`
		} `json:"main"`
		Weather []owmCondition `json:"weather"`
		Rain    *owmRain       `json:"rain,omitempty"`
	}
	owmRain struct {
		ThreeHour float64 `json:"3h"`
	}
	owmForecast struct {
		City struct {
			Name string `json:"name"`
		} `json:"city"`
		List []owmForecastItem `json:"list"`
	}
)

type detection struct {
	DiseaseClass string    `json:"disease_class"`
	Confidence   float64   `json:"confidence"`
	City         string    `json:"city"`
	DetectedAt   time.Time `json:"detected_at"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out-dir", "data/mock", "directory to write fixtures into")
	city := flag.String("city", "Thane", "city name used in every fixture")
	startFlag := flag.String("start", "2024-06-10", "first forecast day (UTC, YYYY-MM-DD)")
	flag.Parse()

	start, err := time.Parse(domain.DateLayout, *startFlag)
	if err != nil {
		flag.Usage()
		return fmt.Errorf("invalid -start: %w", err)
	}
	if strings.TrimSpace(*city) == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -city")
	}

	slug := strings.ToLower(strings.ReplaceAll(*city, " ", "_"))
	forecastPath := filepath.Join(*outDir, "forecast_"+slug+".json")
	weatherPath := filepath.Join(*outDir, "weather_"+slug+".json")
	detectionsPath := filepath.Join(*outDir, "detections.json")

	forecast := buildForecast(*city, start)
	if err := writeChecked(forecastPath, forecast, func(data []byte) error {
		_, err := openweather.DecodeForecast(data)
		return err
	}); err != nil {
		return fmt.Errorf("writing forecast fixture: %w", err)
	}
	log.Printf("wrote forecast fixture: %s (%d samples)", forecastPath, len(forecast.List))

	if err := writeChecked(weatherPath, buildCurrent(*city), func(data []byte) error {
		_, err := openweather.DecodeCurrent(data)
		return err
	}); err != nil {
		return fmt.Errorf("writing weather fixture: %w", err)
	}
	log.Printf("wrote weather fixture: %s", weatherPath)

	detections := buildDetections(*city, start.Add(6*time.Hour))
	if err := writeChecked(detectionsPath, detections, func(data []byte) error {
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		for _, raw := range items {
			if _, err := domain.ParseRawEvent(domain.RawEvent{Value: raw}); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("writing detections fixture: %w", err)
	}
	log.Printf("wrote detections fixture: %s (%d detections)", detectionsPath, len(detections))

	return printStats(forecastPath)
}

func buildForecast(city string, start time.Time) owmForecast {
	var out owmForecast
	out.City.Name = city
	for day := range forecastDays {
		for slot := range slotsPerDay {
			var item owmForecastItem
			item.Dt = start.Add(time.Duration(day*slotsPerDay+slot) * 3 * time.Hour).Unix()
			wave := 3 * math.Sin(2*math.Pi*float64(slot)/slotsPerDay)

			if rainyDays[day] {
				item.Main.Temp = round2(23 + wave)
				item.Main.Humidity = float64(84 + slot)
				if slot%2 == 0 {
					item.Weather = []owmCondition{{Main: "Rain", Description: "light rain"}}
					item.Rain = &owmRain{ThreeHour: 0.5}
				} else {
					item.Weather = []owmCondition{{Main: "Rain", Description: "moderate rain"}}
					item.Rain = &owmRain{ThreeHour: 2.5}
				}
			} else {
				item.Main.Temp = round2(26 + wave)
				item.Main.Humidity = 60 + 1.5*float64(slot)
				if slot%2 == 0 {
					item.Weather = []owmCondition{{Main: "Clear", Description: "clear sky"}}
				} else {
					item.Weather = []owmCondition{{Main: "Clouds", Description: "scattered clouds"}}
				}
			}
			out.List = append(out.List, item)
		}
	}
	return out
}

func buildCurrent(city string) owmCurrent {
	var out owmCurrent
	out.Name = city
	out.Main.Temp = 27.2
	out.Main.FeelsLike = 30.4
	out.Main.Humidity = 88
	out.Wind.Speed = 3.6
	out.Weather = []owmCondition{{Main: "Rain", Description: "light rain"}}
	return out
}

func buildDetections(city string, first time.Time) []detection {
	out := make([]detection, 0, len(detectionClasses))
	for i, class := range detectionClasses {
		out = append(out, detection{
			DiseaseClass: class,
			Confidence:   97.5 - 2.25*float64(i),
			City:         city,
			DetectedAt:   first.Add(time.Duration(i) * 5 * time.Minute).UTC(),
		})
	}
	return out
}

// writeChecked marshals v, runs check over the bytes, and only then writes the file.
func writeChecked(path string, v any, check func([]byte) error) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := check(data); err != nil {
		return fmt.Errorf("fixture does not decode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

// printStats prints the daily aggregates the pipeline tests assert on.
func printStats(forecastPath string) error {
	data, err := os.ReadFile(forecastPath)
	if err != nil {
		return err
	}
	fc, err := openweather.DecodeForecast(data)
	if err != nil {
		return err
	}

	fmt.Println("\n=== Daily aggregates (UTC) for updating test assertions ===")
	for _, d := range domain.Aggregate(fc.Points, time.UTC) {
		fmt.Printf("%s: avg %.1f°C (%.2f-%.2f), humidity %.1f%%, %s, rain %.1f mm\n",
			d.Date, d.AvgTemp, d.MinTemp, d.MaxTemp, d.AvgHumidity, d.Condition, d.TotalRainMM)
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
