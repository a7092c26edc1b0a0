// Package service serves lookup history and export bookkeeping.
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"radar/internal/history/models"
	lookupmodels "radar/internal/lookup/models"
	dErrors "radar/pkg/domain-errors"
	"radar/pkg/platform/sentinel"
	"radar/pkg/requestcontext"
)

type Store interface {
	CountByDay(ctx context.Context) ([]models.DayCount, error)
	ListRecords(ctx context.Context, f models.Filter) ([]*lookupmodels.Record, error)
	MarkExported(ctx context.Context, f models.Filter, name string) (int64, error)
	CreateExport(ctx context.Context, b *models.ExportBatch) (*models.ExportBatch, error)
	ListExports(ctx context.Context, from, until time.Time) ([]*models.ExportBatch, error)
	FindExport(ctx context.Context, exportID int64) (*models.ExportBatch, error)
}

// TxRunner runs fn in one transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type directRunner struct{}

func (directRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type Service struct {
	store  Store
	tx     TxRunner
	logger *slog.Logger
	loc    *time.Location
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithTxRunner(tx TxRunner) Option {
	return func(s *Service) {
		if tx != nil {
			s.tx = tx
		}
	}
}

// WithLocation sets the zone used to bucket export creation times into days.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		tx:     directRunner{},
		logger: slog.Default(),
		loc:    time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dates lists query days with their record counts, newest first.
func (s *Service) Dates(ctx context.Context) ([]models.DayCount, error) {
	counts, err := s.store.CountByDay(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list history dates")
	}
	return counts, nil
}

// Records returns the records inside f. With markExported the rows are
// stamped with the actor's name first, so the returned rows carry it.
func (s *Service) Records(ctx context.Context, f models.Filter, markExported bool, actor lookupmodels.Actor) ([]*lookupmodels.Record, error) {
	var recs []*lookupmodels.Record
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if markExported && actor.Name != "" {
			if _, err := s.store.MarkExported(ctx, f, actor.Name); err != nil {
				return err
			}
		}
		var err error
		recs, err = s.store.ListRecords(ctx, f)
		return err
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load history")
	}
	return recs, nil
}

// CreateExport stamps the records inside f, records the batch and returns it
// with the exported rows.
func (s *Service) CreateExport(ctx context.Context, f models.Filter, fileName string, actor lookupmodels.Actor) (*models.ExportBatch, []*lookupmodels.Record, error) {
	var (
		batch *models.ExportBatch
		recs  []*lookupmodels.Record
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.store.MarkExported(ctx, f, actor.Name); err != nil {
			return err
		}
		var err error
		if recs, err = s.store.ListRecords(ctx, f); err != nil {
			return err
		}
		batch, err = s.store.CreateExport(ctx, &models.ExportBatch{
			UserID:   actor.ID,
			UserName: actor.Name,
			Kind:     f.Kind(),
			From:     f.From,
			To:       f.To,
			FileName: fileName,
			Total:    len(recs),
		})
		return err
	})
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create export")
	}
	s.logger.InfoContext(ctx, "export created",
		"export_id", batch.ID,
		"user_id", actor.ID,
		"kind", string(batch.Kind),
		"total", batch.Total,
		"request_id", requestcontext.RequestID(ctx),
	)
	return batch, recs, nil
}

// ListExports returns batches created on the calendar days inside f. A zero
// filter lists every batch.
func (s *Service) ListExports(ctx context.Context, f models.Filter) ([]*models.ExportBatch, error) {
	from, until := time.Unix(0, 0), time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)
	if !f.From.IsZero() {
		from = time.Date(f.From.Year(), f.From.Month(), f.From.Day(), 0, 0, 0, 0, s.loc)
		until = time.Date(f.To.Year(), f.To.Month(), f.To.Day()+1, 0, 0, 0, 0, s.loc)
	}
	batches, err := s.store.ListExports(ctx, from, until)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list exports")
	}
	return batches, nil
}

// Download re-queries an export's filter and writes the rows as CSV.
func (s *Service) Download(ctx context.Context, exportID int64, w io.Writer) (*models.ExportBatch, error) {
	batch, err := s.Export(ctx, exportID)
	if err != nil {
		return nil, err
	}
	recs, err := s.store.ListRecords(ctx, models.Filter{From: batch.From, To: batch.To})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load export rows")
	}
	if err := WriteCSV(w, recs); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to write export")
	}
	return batch, nil
}

// Export returns one batch.
func (s *Service) Export(ctx context.Context, exportID int64) (*models.ExportBatch, error) {
	batch, err := s.store.FindExport(ctx, exportID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "export not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load export")
	}
	return batch, nil
}
