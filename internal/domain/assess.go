package domain

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// AssessorConfig holds the defaults applied to every assessment.
type AssessorConfig struct {
	DefaultCity  string
	ForecastDays int
	Location     *time.Location // calendar for forecast days; nil means time.Local
}

// Assessor turns detections into assessments using live weather.
type Assessor struct {
	scorer    *RiskScorer
	projector *SurvivalProjector
	weather   WeatherProvider
	cfg       AssessorConfig
	logger    *slog.Logger
}

// NewAssessor creates an Assessor. A nil weather provider yields assessments
// without weather, risk or outlook.
func NewAssessor(profiles *ProfileStore, weather WeatherProvider, cfg AssessorConfig, logger *slog.Logger) *Assessor {
	if cfg.ForecastDays <= 0 {
		cfg.ForecastDays = DefaultDaysAhead
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	scorer := NewRiskScorer(profiles)
	return &Assessor{
		scorer:    scorer,
		projector: NewSurvivalProjector(scorer),
		weather:   weather,
		cfg:       cfg,
		logger:    logger,
	}
}

// Scorer returns the risk scorer used by the assessor.
func (a *Assessor) Scorer() *RiskScorer { return a.scorer }

// Projector returns the survival projector used by the assessor.
func (a *Assessor) Projector() *SurvivalProjector { return a.projector }

// Assess fetches current weather and the forecast concurrently and scores the
// detection against both. Weather failures degrade the assessment instead of
// failing it: without current weather there is no risk reading, and without a
// forecast there is no survival report.
func (a *Assessor) Assess(ctx context.Context, det Detection) Assessment {
	city := det.City
	if city == "" {
		city = a.cfg.DefaultCity
	}
	if det.ID == "" {
		det.ID = DetectionID(det)
	}
	plant, disease := ParseDiseaseClass(det.DiseaseClass)
	out := Assessment{
		ID:        assessmentID(det.ID, city),
		Detection: det,
		Plant:     plant,
		Disease:   disease,
		IsHealthy: IsHealthy(det.DiseaseClass),
		City:      city,
	}

	if a.weather == nil {
		out.WeatherError = "weather provider not configured"
		out.ProcessedAt = clock.Now().UTC()
		return out
	}

	var (
		current           CurrentWeather
		forecast          Forecast
		currentErr, fcErr error
	)
	var wg sync.WaitGroup
	wg.Go(func() {
		current, currentErr = a.weather.CurrentWeather(ctx, city)
	})
	wg.Go(func() {
		forecast, fcErr = a.weather.Forecast(ctx, city)
	})
	wg.Wait()

	if currentErr != nil {
		a.logger.Warn("current weather unavailable",
			"assessment_id", out.ID,
			"city", city,
			"error", currentErr,
		)
		out.WeatherError = currentErr.Error()
	} else {
		out.Weather = &current
		risk := a.scorer.Score(det.DiseaseClass, current.Observation())
		out.Risk = &risk
	}

	if fcErr != nil {
		a.logger.Warn("forecast unavailable",
			"assessment_id", out.ID,
			"city", city,
			"error", fcErr,
		)
	} else {
		days := Aggregate(forecast.Points, a.cfg.Location)
		if tomorrow, ok := Tomorrow(days, clock.Now().In(a.cfg.Location)); ok {
			out.Tomorrow = &tomorrow
		}
		report := a.projector.Project(det.DiseaseClass, days, a.cfg.ForecastDays)
		out.Survival = &report
	}

	out.ProcessedAt = clock.Now().UTC()
	return out
}
