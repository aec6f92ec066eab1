package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/crop-risk-service/internal/domain"
	"github.com/couchcryptid/crop-risk-service/internal/observability"
)

// BatchExtractor reads up to batchSize raw events from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Transformer turns a raw detection message into an assessment.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) (domain.Assessment, error)
}

// BatchLoader writes multiple assessments to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, assessments []domain.Assessment) error
}

// Pipeline orchestrates the extract-assess-load loop.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	batchSize   int
}

// Retry backoff doubles from initialBackoff up to maxRetryBackoff.
const (
	initialBackoff  = 200 * time.Millisecond
	maxRetryBackoff = 5 * time.Second
)

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// CheckReadiness returns nil if the pipeline has loaded at least one
// assessment, or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not assessed any detections yet")
	}
	return nil
}

// Run executes the batch loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	retry := newRetryBackoff()
	for ctx.Err() == nil {
		if !p.assessBatch(ctx, retry) {
			break
		}
	}
	p.logger.Info("pipeline stopping", "reason", context.Cause(ctx))
	return nil
}

// assessBatch pulls one batch of detections, assesses it and loads the
// results. It returns false once the pipeline should stop.
func (p *Pipeline) assessBatch(ctx context.Context, retry *retryBackoff) bool {
	start := time.Now()

	detections, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err, "retry_in", retry.delay)
		return retry.wait(ctx)
	}
	if len(detections) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.MessagesConsumed.Add(float64(len(detections)))
	p.metrics.BatchSize.Observe(float64(len(detections)))
	retry.reset()

	assessments, accepted := p.assessAll(ctx, detections)
	if len(assessments) == 0 {
		return true
	}

	if err := p.loader.LoadBatch(ctx, assessments); err != nil {
		// Offsets stay uncommitted so the batch is redelivered.
		p.logger.Error("load batch failed", "error", err, "batch_size", len(assessments), "retry_in", retry.delay)
		return retry.wait(ctx)
	}

	p.metrics.MessagesProduced.Add(float64(len(assessments)))
	for i := range assessments {
		p.metrics.ObserveAssessment(assessments[i])
	}
	p.commitAll(ctx, accepted)

	p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)
	return true
}

// assessAll transforms every detection in the batch. Malformed messages are
// committed and skipped at once; the rest are returned with their source
// messages for commit after a successful load.
func (p *Pipeline) assessAll(ctx context.Context, detections []domain.RawEvent) ([]domain.Assessment, []domain.RawEvent) {
	assessments := make([]domain.Assessment, 0, len(detections))
	accepted := make([]domain.RawEvent, 0, len(detections))

	for _, raw := range detections {
		a, err := p.transformer.Transform(ctx, raw)
		if err != nil {
			p.skipMalformed(ctx, raw, err)
			continue
		}
		assessments = append(assessments, a)
		accepted = append(accepted, raw)
	}
	if len(assessments) == 0 {
		return nil, nil
	}

	assessments = dedupeByID(assessments)
	if degraded := countDegraded(assessments); degraded > 0 {
		p.logger.Warn("assessed without current weather", "count", degraded, "batch_size", len(assessments))
	}
	return assessments, accepted
}

func (p *Pipeline) skipMalformed(ctx context.Context, raw domain.RawEvent, err error) {
	p.logger.Warn("malformed detection, skipping",
		"error", err,
		"topic", raw.Topic,
		"partition", raw.Partition,
		"offset", raw.Offset,
	)
	p.metrics.TransformErrors.Inc()
	p.commitAll(ctx, []domain.RawEvent{raw})
}

// commitAll commits source offsets. Commit failures are logged and left to
// redelivery, which the loaders tolerate.
func (p *Pipeline) commitAll(ctx context.Context, messages []domain.RawEvent) {
	for _, raw := range messages {
		if raw.Commit == nil {
			continue
		}
		if err := raw.Commit(ctx); err != nil {
			p.logger.Warn("commit offset failed", "error", err,
				"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
		}
	}
}

// retryBackoff doubles from initialBackoff up to maxRetryBackoff between
// failed extract or load attempts.
type retryBackoff struct {
	delay time.Duration
}

func newRetryBackoff() *retryBackoff {
	return &retryBackoff{delay: initialBackoff}
}

func (b *retryBackoff) reset() {
	b.delay = initialBackoff
}

// wait sleeps for the current delay and then doubles it. It returns false if
// ctx ends first.
func (b *retryBackoff) wait(ctx context.Context) bool {
	timer := time.NewTimer(b.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
	}
	b.delay = min(b.delay*2, maxRetryBackoff)
	return true
}

// dedupeByID keeps the last assessment for each ID, preserving first-seen
// order. Redelivered detections produce the same assessment ID.
func dedupeByID(batch []domain.Assessment) []domain.Assessment {
	index := make(map[string]int, len(batch))
	out := batch[:0:0]
	for _, a := range batch {
		if i, ok := index[a.ID]; ok {
			out[i] = a
			continue
		}
		index[a.ID] = len(out)
		out = append(out, a)
	}
	return out
}

func countDegraded(batch []domain.Assessment) int {
	n := 0
	for i := range batch {
		if batch[i].WeatherError != "" {
			n++
		}
	}
	return n
}
