// Package service is the lookup orchestrator: cache-first retrieval, dual
// upstream fetch under bounded retries, reconciliation of partial failures,
// conditional persistence, the batch gate and the repair sweep.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"

	"radar/internal/lookup/batch"
	"radar/internal/lookup/metrics"
	"radar/internal/lookup/models"
	"radar/internal/lookup/retry"
	id "radar/pkg/domain"
)

var tracer = otel.Tracer("radar/internal/lookup/service")

// PrimarySource fetches the habilitation group.
type PrimarySource interface {
	FetchPrimary(ctx context.Context, cnpj id.CNPJ) (*models.PrimaryFields, error)
}

// SecondarySource fetches the registry profile group.
type SecondarySource interface {
	FetchSecondary(ctx context.Context, cnpj id.CNPJ) (*models.SecondaryFields, error)
}

// RecordStore owns lookup_records. FindFresh and RepairSecondary return
// sentinel.ErrNotFound when nothing matches.
type RecordStore interface {
	FindFresh(ctx context.Context, cnpj id.CNPJ) (*models.Record, error)
	UpsertToday(ctx context.Context, cnpj id.CNPJ, fields models.Fields, actor models.Actor) (*models.Record, error)
	MarkIncomplete(ctx context.Context, recordID int64, incomplete bool) error
	SweepRetention(ctx context.Context) (int64, error)
	ListIncomplete(ctx context.Context) ([]*models.Record, error)
	RepairSecondary(ctx context.Context, recordID int64, fields models.SecondaryFields) (*models.Record, error)
}

// AttemptRecorder writes one audit entry per orchestration. It must not fail
// the caller.
type AttemptRecorder interface {
	Record(ctx context.Context, outcome models.AttemptOutcome)
}

// BatchAuthorizer decides whether a user may run batch lookups. It returns a
// forbidden domain error for inactive, unknown or unauthorized users.
type BatchAuthorizer interface {
	AuthorizeBatch(ctx context.Context, userID int64) error
}

// TxRunner runs fn in a transaction carried on ctx.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// DefaultLookupPolicy is ten attempts five seconds apart.
var DefaultLookupPolicy = retry.Policy{MaxAttempts: 10, Delay: 5 * time.Second}

// DefaultRepairPolicy is ten attempts 900ms apart.
var DefaultRepairPolicy = retry.Policy{MaxAttempts: 10, Delay: 900 * time.Millisecond}

// DefaultLookupTimeout bounds the upstream fetch of one live lookup.
const DefaultLookupTimeout = 10 * time.Minute

type Service struct {
	primary    PrimarySource
	secondary  SecondarySource
	store      RecordStore
	attempts   AttemptRecorder
	authorizer BatchAuthorizer
	tx         TxRunner
	logger     *slog.Logger
	metrics    *metrics.Metrics
	location   *time.Location

	lookupPolicy      retry.Policy
	repairPolicy      retry.Policy
	lookupTimeout     time.Duration
	retentionOnLookup bool
	batchOptions      batch.Options
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAttemptRecorder(r AttemptRecorder) Option {
	return func(s *Service) {
		if r != nil {
			s.attempts = r
		}
	}
}

func WithBatchAuthorizer(a BatchAuthorizer) Option {
	return func(s *Service) {
		s.authorizer = a
	}
}

func WithTxRunner(tx TxRunner) Option {
	return func(s *Service) {
		if tx != nil {
			s.tx = tx
		}
	}
}

// WithLocation sets the time zone that decides the calendar day of a lookup.
// It must match the store's.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

func WithLookupPolicy(p retry.Policy) Option {
	return func(s *Service) {
		s.lookupPolicy = p
	}
}

// WithLookupTimeout bounds the upstream fetch of a live lookup. When both
// sources are still retrying at the deadline the lookup fails with
// CodeTimeout. Zero or negative keeps the default.
func WithLookupTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.lookupTimeout = d
		}
	}
}

func WithRepairPolicy(p retry.Policy) Option {
	return func(s *Service) {
		s.repairPolicy = p
	}
}

// WithRetentionOnLookup controls whether every live lookup starts with a
// retention sweep. It is on by default; turn it off when a scheduler owns
// the sweep.
func WithRetentionOnLookup(enabled bool) Option {
	return func(s *Service) {
		s.retentionOnLookup = enabled
	}
}

func WithBatchOptions(o batch.Options) Option {
	return func(s *Service) {
		s.batchOptions = o
	}
}

// New wires the orchestrator. The two sources and the store are required.
func New(primary PrimarySource, secondary SecondarySource, store RecordStore, opts ...Option) (*Service, error) {
	if primary == nil || secondary == nil {
		return nil, errors.New("both upstream sources are required")
	}
	if store == nil {
		return nil, errors.New("record store is required")
	}
	s := &Service{
		primary:           primary,
		secondary:         secondary,
		store:             store,
		attempts:          noopRecorder{},
		tx:                directRunner{},
		logger:            slog.Default(),
		location:          time.UTC,
		lookupPolicy:      DefaultLookupPolicy,
		repairPolicy:      DefaultRepairPolicy,
		lookupTimeout:     DefaultLookupTimeout,
		retentionOnLookup: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

type noopRecorder struct{}

func (noopRecorder) Record(context.Context, models.AttemptOutcome) {}

// directRunner runs fn without a transaction, for stores that have none.
type directRunner struct{}

func (directRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
