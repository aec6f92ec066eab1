package domain

import (
	"math"
	"sort"
	"time"
)

// DateLayout is the calendar date format used for forecast days.
const DateLayout = "2006-01-02"

// ForecastPoint is one raw forecast sample, typically covering 3 hours.
type ForecastPoint struct {
	Time         time.Time `json:"time"`
	TemperatureC float64   `json:"temperature"`
	Humidity     float64   `json:"humidity"`
	Condition    string    `json:"condition"`
	RainMM       *float64  `json:"rain_mm,omitempty"` // nil when the sample reported no rain
}

// DailyForecast summarizes all samples that fall on one calendar date.
type DailyForecast struct {
	Date        string  `json:"date"`
	MinTemp     float64 `json:"temp_min"`
	MaxTemp     float64 `json:"temp_max"`
	AvgTemp     float64 `json:"temp_avg"`
	AvgHumidity float64 `json:"humidity"`
	Condition   string  `json:"condition"`
	WillRain    bool    `json:"will_rain"`
	TotalRainMM float64 `json:"total_rain_mm"`
}

// Observation returns the day's averages as a scoring input.
func (d DailyForecast) Observation() WeatherObservation {
	return WeatherObservation{
		Condition:    d.Condition,
		TemperatureC: d.AvgTemp,
		Humidity:     d.AvgHumidity,
	}
}

type dayBucket struct {
	temps      []float64
	humidity   []float64
	conditions []string
	rain       []float64
}

// Aggregate groups forecast samples by their calendar date in loc and returns
// one summary per date, ascending. A nil loc means time.Local.
func Aggregate(points []ForecastPoint, loc *time.Location) []DailyForecast {
	if loc == nil {
		loc = time.Local
	}
	buckets := make(map[string]*dayBucket)
	for _, p := range points {
		date := p.Time.In(loc).Format(DateLayout)
		b, ok := buckets[date]
		if !ok {
			b = &dayBucket{}
			buckets[date] = b
		}
		b.temps = append(b.temps, p.TemperatureC)
		b.humidity = append(b.humidity, p.Humidity)
		b.conditions = append(b.conditions, p.Condition)
		if p.RainMM != nil {
			b.rain = append(b.rain, *p.RainMM)
		}
	}

	dates := make([]string, 0, len(buckets))
	for date := range buckets {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	days := make([]DailyForecast, 0, len(dates))
	for _, date := range dates {
		b := buckets[date]
		days = append(days, DailyForecast{
			Date:        date,
			MinTemp:     minOf(b.temps),
			MaxTemp:     maxOf(b.temps),
			AvgTemp:     round1(mean(b.temps)),
			AvgHumidity: round1(mean(b.humidity)),
			Condition:   dominantCondition(b.conditions),
			WillRain:    len(b.rain) > 0,
			TotalRainMM: round1(sum(b.rain)),
		})
	}
	return days
}

// Tomorrow returns the summary for the calendar date after now, in now's location.
func Tomorrow(days []DailyForecast, now time.Time) (DailyForecast, bool) {
	date := now.AddDate(0, 0, 1).Format(DateLayout)
	for _, d := range days {
		if d.Date == date {
			return d, true
		}
	}
	return DailyForecast{}, false
}

// dominantCondition returns the most frequent value; ties go to the value seen first.
func dominantCondition(conditions []string) string {
	counts := make(map[string]int, len(conditions))
	var order []string
	for _, c := range conditions {
		if counts[c] == 0 {
			order = append(order, c)
		}
		counts[c]++
	}
	best, bestCount := "", 0
	for _, c := range order {
		if counts[c] > bestCount {
			best, bestCount = c, counts[c]
		}
	}
	return best
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return sum(values) / float64(len(values))
}

func minOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		m = math.Min(m, v)
	}
	return m
}

func maxOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		m = math.Max(m, v)
	}
	return m
}
