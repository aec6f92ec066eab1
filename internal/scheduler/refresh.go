package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/crop-risk-service/internal/observability"
)

// Warmer repopulates cached weather for a city.
type Warmer interface {
	Refresh(ctx context.Context, city string) error
}

// ForecastRefresher keeps cached weather warm for a fixed set of cities.
type ForecastRefresher struct {
	warmer  Warmer
	cities  []string
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewForecastRefresher creates a refresher for the given cities.
func NewForecastRefresher(warmer Warmer, cities []string, metrics *observability.Metrics, logger *slog.Logger) *ForecastRefresher {
	return &ForecastRefresher{
		warmer:  warmer,
		cities:  cities,
		metrics: metrics,
		logger:  logger,
	}
}

// RefreshAll refreshes every city in turn. A failing city does not stop the
// others; all failures are returned joined.
func (r *ForecastRefresher) RefreshAll(ctx context.Context) error {
	var errs []error
	for _, city := range r.cities {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := r.warmer.Refresh(ctx, city); err != nil {
			r.metrics.ForecastRefreshes.WithLabelValues("error").Inc()
			r.logger.Warn("forecast refresh failed", "city", city, "error", err)
			errs = append(errs, fmt.Errorf("refresh %s: %w", city, err))
			continue
		}
		r.metrics.ForecastRefreshes.WithLabelValues("success").Inc()
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	r.logger.Info("forecasts refreshed", "cities", len(r.cities))
	return nil
}
