package observability

import (
	"github.com/couchcryptid/crop-risk-service/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the risk service.
type Metrics struct {
	MessagesConsumed prometheus.Counter
	MessagesProduced prometheus.Counter
	TransformErrors  prometheus.Counter
	PipelineRunning  prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Assessment metrics.
	Assessments *prometheus.CounterVec // labels: risk={low,moderate,high,unknown,none}, outlook={excellent,stable,concerning,critical,none}

	// Weather provider metrics.
	WeatherRequests    *prometheus.CounterVec   // labels: endpoint={weather,forecast}, outcome={success,error,open}
	WeatherCache       *prometheus.CounterVec   // labels: endpoint={weather,forecast}, result={hit,miss}
	WeatherAPIDuration *prometheus.HistogramVec // labels: endpoint={weather,forecast}
	WeatherEnabled     prometheus.Gauge

	// Assistant and scheduler metrics.
	ChatRequests      *prometheus.CounterVec // labels: kind={chat,report}, outcome={success,error}
	ForecastRefreshes *prometheus.CounterVec // labels: outcome={success,error}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		MessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crop_risk",
			Name:      "messages_consumed_total",
			Help:      "Total detection messages read from the source topic.",
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crop_risk",
			Name:      "messages_produced_total",
			Help:      "Total assessments written to the sink.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crop_risk",
			Name:      "transform_errors_total",
			Help:      "Total detections that could not be parsed or assessed.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "crop_risk",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "crop_risk",
			Name:      "batch_size",
			Help:      "Number of messages per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "crop_risk",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch extract-assess-load cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		Assessments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crop_risk",
			Name:      "assessments_total",
			Help:      "Assessments produced by risk level and outlook.",
		}, []string{"risk", "outlook"}),
		WeatherRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crop_risk",
			Name:      "weather_requests_total",
			Help:      "OpenWeatherMap API requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		WeatherCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crop_risk",
			Name:      "weather_cache_total",
			Help:      "Weather cache lookups by endpoint and result.",
		}, []string{"endpoint", "result"}),
		WeatherAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "crop_risk",
			Name:      "weather_api_duration_seconds",
			Help:      "OpenWeatherMap API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"endpoint"}),
		WeatherEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "crop_risk",
			Name:      "weather_enabled",
			Help:      "1 when live weather lookups are enabled, 0 otherwise.",
		}),
		ChatRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crop_risk",
			Name:      "chat_requests_total",
			Help:      "Chat assistant completions by kind and outcome.",
		}, []string{"kind", "outcome"}),
		ForecastRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crop_risk",
			Name:      "forecast_refreshes_total",
			Help:      "Scheduled forecast cache refreshes by outcome.",
		}, []string{"outcome"}),
	}

	prometheus.MustRegister(
		m.MessagesConsumed,
		m.MessagesProduced,
		m.TransformErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.Assessments,
		m.WeatherRequests,
		m.WeatherCache,
		m.WeatherAPIDuration,
		m.WeatherEnabled,
		m.ChatRequests,
		m.ForecastRefreshes,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		MessagesConsumed:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "crop_risk", Name: "messages_consumed_total"}),
		MessagesProduced:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "crop_risk", Name: "messages_produced_total"}),
		TransformErrors:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "crop_risk", Name: "transform_errors_total"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "crop_risk", Name: "pipeline_running"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "crop_risk", Name: "batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "crop_risk", Name: "batch_processing_duration_seconds"}),
		Assessments:             prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "crop_risk", Name: "assessments_total"}, []string{"risk", "outlook"}),
		WeatherRequests:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "crop_risk", Name: "weather_requests_total"}, []string{"endpoint", "outcome"}),
		WeatherCache:            prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "crop_risk", Name: "weather_cache_total"}, []string{"endpoint", "result"}),
		WeatherAPIDuration:      prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "crop_risk", Name: "weather_api_duration_seconds"}, []string{"endpoint"}),
		WeatherEnabled:          prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "crop_risk", Name: "weather_enabled"}),
		ChatRequests:            prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "crop_risk", Name: "chat_requests_total"}, []string{"kind", "outcome"}),
		ForecastRefreshes:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "crop_risk", Name: "forecast_refreshes_total"}, []string{"outcome"}),
	}
}

// labelNone marks an assessment without a risk reading or outlook.
const labelNone = "none"

// ObserveAssessment counts an assessment by its risk level and outlook.
func (m *Metrics) ObserveAssessment(a domain.Assessment) {
	risk, outlook := labelNone, labelNone
	if a.Risk != nil {
		risk = string(a.Risk.Level)
	}
	if a.Survival != nil {
		outlook = string(a.Survival.Outlook)
	}
	m.Assessments.WithLabelValues(risk, outlook).Inc()
}
