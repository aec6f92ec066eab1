package domain

import "strings"

// Outlook is the multi-day projection bucket.
type Outlook string

const (
	OutlookExcellent  Outlook = "excellent"
	OutlookStable     Outlook = "stable"
	OutlookConcerning Outlook = "concerning"
	OutlookCritical   Outlook = "critical"
)

// DefaultDaysAhead is the projection window used when none is given.
const DefaultDaysAhead = 5

const (
	criticalHighRiskDays   = 3
	concerningHighRiskDays = 1

	criticalSurvivalDays   = 2
	concerningSurvivalDays = 4
)

const (
	msgExcellent  = "Plant is healthy and should thrive in current conditions"
	msgCritical   = "Disease will likely worsen significantly. Immediate treatment needed!"
	msgConcerning = "Some unfavorable conditions ahead. Monitor closely and treat if possible."
	msgStable     = "Weather conditions are relatively favorable. Continue current treatment."
)

// Recommendations, in the order they are emitted.
const (
	RecMonitor        = "Continue regular monitoring and good practices"
	RecDrainage       = "Wet conditions ahead - ensure good drainage"
	RecCovering       = "Rain expected - consider protective covering if possible"
	RecAirflow        = "High humidity ahead - improve air circulation"
	RecTreatNow       = "Apply fungicide/treatment IMMEDIATELY"
	RecInspect        = "Inspect plants daily for disease progression"
	RecRemoveInfected = "Remove and destroy infected plant material"
)

// DailyRisk is the risk reading for one forecast day.
type DailyRisk struct {
	Date      string    `json:"date"`
	Level     RiskLevel `json:"risk"`
	Score     int       `json:"risk_score"`
	Temp      float64   `json:"temp"`
	Humidity  float64   `json:"humidity"`
	Condition string    `json:"condition"`
	WillRain  bool      `json:"will_rain"`
	Factors   []string  `json:"factors"`
}

// SurvivalReport projects how a diseased plant fares over the coming days.
type SurvivalReport struct {
	Disease         string      `json:"disease"`
	SurvivalDays    int         `json:"survival_days"`
	Outlook         Outlook     `json:"outlook"`
	Message         string      `json:"message"`
	HighRiskDays    int         `json:"high_risk_days"`
	DailyRisks      []DailyRisk `json:"daily_risks"`
	Recommendations []string    `json:"recommendations"`
}

// SurvivalProjector runs the risk scorer across forecast days.
type SurvivalProjector struct {
	scorer *RiskScorer
}

// NewSurvivalProjector creates a projector backed by the given scorer.
func NewSurvivalProjector(scorer *RiskScorer) *SurvivalProjector {
	return &SurvivalProjector{scorer: scorer}
}

// Project scores the first daysAhead days and derives an outlook. Fewer days
// are used when the forecast is shorter; a negative daysAhead projects nothing.
// Callers choose the window, usually DefaultDaysAhead.
func (p *SurvivalProjector) Project(diseaseID string, days []DailyForecast, daysAhead int) SurvivalReport {
	daysAhead = max(daysAhead, 0)
	if len(days) > daysAhead {
		days = days[:daysAhead]
	}

	healthy := IsHealthy(diseaseID)
	report := SurvivalReport{
		Disease:    diseaseID,
		DailyRisks: make([]DailyRisk, 0, len(days)),
	}

	var hadRain, hadHumidity bool
	for _, day := range days {
		obs := day.Observation()
		risk := p.scorer.Score(diseaseID, obs)
		if risk.Level == RiskHigh {
			report.HighRiskDays++
		}
		if forecastsRain(day.Condition) {
			hadRain = true
		}
		if ObservedTags(obs).Has(TagHumidity) {
			hadHumidity = true
		}
		report.DailyRisks = append(report.DailyRisks, DailyRisk{
			Date:      day.Date,
			Level:     risk.Level,
			Score:     risk.Score,
			Temp:      day.AvgTemp,
			Humidity:  day.AvgHumidity,
			Condition: day.Condition,
			WillRain:  day.WillRain,
			Factors:   risk.Factors,
		})
	}

	switch {
	case healthy:
		report.SurvivalDays, report.Outlook, report.Message = daysAhead, OutlookExcellent, msgExcellent
	case report.HighRiskDays >= criticalHighRiskDays:
		report.SurvivalDays, report.Outlook, report.Message = criticalSurvivalDays, OutlookCritical, msgCritical
	case report.HighRiskDays >= concerningHighRiskDays:
		report.SurvivalDays, report.Outlook, report.Message = concerningSurvivalDays, OutlookConcerning, msgConcerning
	default:
		report.SurvivalDays, report.Outlook, report.Message = daysAhead, OutlookStable, msgStable
	}

	report.Recommendations = recommendations(healthy, hadRain, hadHumidity, report.HighRiskDays > 0)
	return report
}

// forecastsRain reports whether a day's condition calls for rain. It is
// narrower than the rain tag: drizzle and showers do not count, and neither
// does a rain total under a dry dominant condition.
func forecastsRain(condition string) bool {
	return strings.Contains(strings.ToLower(condition), "rain")
}

func recommendations(healthy, hadRain, hadHumidity, hadHighRisk bool) []string {
	if healthy {
		recs := []string{RecMonitor}
		if hadRain || hadHumidity {
			recs = append(recs, RecDrainage)
		}
		return recs
	}
	var recs []string
	if hadRain {
		recs = append(recs, RecCovering)
	}
	if hadHumidity {
		recs = append(recs, RecAirflow)
	}
	if hadHighRisk {
		recs = append(recs, RecTreatNow, RecInspect)
	}
	return append(recs, RecRemoveInfected)
}
