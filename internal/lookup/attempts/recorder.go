// Package attempts records one audit entry per lookup orchestration. Writing
// an entry never fails the lookup: sink errors are logged and dropped.
package attempts

import (
	"context"
	"log/slog"

	"radar/internal/lookup/models"
	"radar/pkg/requestcontext"
)

// Sink persists or forwards attempt outcomes.
type Sink interface {
	Name() string
	Write(ctx context.Context, outcome models.AttemptOutcome) error
}

// Recorder fans an outcome out to every configured sink.
type Recorder struct {
	sinks   []Sink
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures a Recorder.
type Option func(*Recorder)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(r *Recorder) {
		r.metrics = m
	}
}

// NewRecorder builds a recorder over sinks. Nil sinks are skipped.
func NewRecorder(sinks []Sink, opts ...Option) *Recorder {
	r := &Recorder{logger: slog.Default()}
	for _, s := range sinks {
		if s != nil {
			r.sinks = append(r.sinks, s)
		}
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record stamps the outcome with request metadata from ctx and writes it to
// every sink. The caller's cancellation does not abort the write.
func (r *Recorder) Record(ctx context.Context, outcome models.AttemptOutcome) {
	if outcome.At.IsZero() {
		outcome.At = requestcontext.Now(ctx)
	}
	if outcome.RequestID == "" {
		outcome.RequestID = requestcontext.RequestID(ctx)
	}
	if outcome.Origin == "" {
		outcome.Origin = models.OriginUnknown
	}

	writeCtx := context.WithoutCancel(ctx)
	for _, sink := range r.sinks {
		if err := sink.Write(writeCtx, outcome); err != nil {
			r.metrics.incDropped(sink.Name())
			r.logger.WarnContext(ctx, "failed to record lookup attempt",
				"sink", sink.Name(),
				"cnpj", outcome.CNPJ.String(),
				"error", err,
			)
			continue
		}
		r.metrics.incWritten(sink.Name())
	}
}
