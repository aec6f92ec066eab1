package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/crop-risk-service/internal/domain"
)

// Assessor scores a detection against live weather.
type Assessor interface {
	Assess(ctx context.Context, det domain.Detection) domain.Assessment
}

// AssessmentTransformer implements Transformer by parsing the detection and
// running it through an Assessor.
type AssessmentTransformer struct {
	assessor Assessor
	logger   *slog.Logger
}

// NewTransformer creates an AssessmentTransformer.
func NewTransformer(assessor Assessor, logger *slog.Logger) *AssessmentTransformer {
	return &AssessmentTransformer{
		assessor: assessor,
		logger:   logger,
	}
}

// Transform fails only for malformed messages. Weather outages produce a
// degraded assessment rather than an error, so the detection is not retried.
func (t *AssessmentTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.Assessment, error) {
	det, err := domain.ParseRawEvent(raw)
	if err != nil {
		return domain.Assessment{}, err
	}

	a := t.assessor.Assess(ctx, det)
	t.logger.Debug("detection assessed",
		"detection", det.ID,
		"assessment_id", a.ID,
		"degraded", a.WeatherError != "",
	)
	return a, nil
}
