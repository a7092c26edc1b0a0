// Package store reads lookup history and keeps export bookkeeping.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"radar/internal/history/models"
	lookupmodels "radar/internal/lookup/models"
	lookupstore "radar/internal/lookup/store"
	"radar/pkg/platform/sentinel"
	txcontext "radar/pkg/platform/tx"
)

// PostgresStore reads lookup_records and writes export_batches.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// CountByDay returns record totals per query day, newest first.
func (s *PostgresStore) CountByDay(ctx context.Context) ([]models.DayCount, error) {
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx, `
		SELECT query_date, COUNT(*)
		FROM lookup_records
		GROUP BY query_date
		ORDER BY query_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("count records by day: %w", err)
	}
	defer rows.Close()

	var out []models.DayCount
	for rows.Next() {
		var dc models.DayCount
		if err := rows.Scan(&dc.Day, &dc.Total); err != nil {
			return nil, fmt.Errorf("scan day count: %w", err)
		}
		out = append(out, dc)
	}
	return out, rows.Err()
}

// ListRecords returns the records inside f ordered by query day then CNPJ.
func (s *PostgresStore) ListRecords(ctx context.Context, f models.Filter) ([]*lookupmodels.Record, error) {
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx, `
		SELECT `+lookupstore.RecordColumns()+`
		FROM lookup_records
		WHERE query_date BETWEEN $1 AND $2
		ORDER BY query_date, cnpj`, f.From, f.To)
	if err != nil {
		return nil, fmt.Errorf("list history records: %w", err)
	}
	defer rows.Close()

	var out []*lookupmodels.Record
	for rows.Next() {
		rec, err := lookupstore.ScanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan history record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// MarkExported stamps exported_by on every record inside f.
func (s *PostgresStore) MarkExported(ctx context.Context, f models.Filter, name string) (int64, error) {
	res, err := txcontext.Executor(ctx, s.db).ExecContext(ctx, `
		UPDATE lookup_records
		SET exported_by = $1, updated_at = NOW()
		WHERE query_date BETWEEN $2 AND $3`, name, f.From, f.To)
	if err != nil {
		return 0, fmt.Errorf("mark records exported: %w", err)
	}
	return res.RowsAffected()
}

const exportColumns = `id, user_id, user_name, kind, from_date, to_date, file_name, total, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExport(row rowScanner) (*models.ExportBatch, error) {
	var (
		b      models.ExportBatch
		userID sql.NullInt64
		kind   string
	)
	if err := row.Scan(&b.ID, &userID, &b.UserName, &kind, &b.From, &b.To, &b.FileName, &b.Total, &b.CreatedAt); err != nil {
		return nil, err
	}
	b.UserID = userID.Int64
	b.Kind = models.Kind(kind)
	return &b, nil
}

func (s *PostgresStore) CreateExport(ctx context.Context, b *models.ExportBatch) (*models.ExportBatch, error) {
	var userID sql.NullInt64
	if b.UserID > 0 {
		userID = sql.NullInt64{Int64: b.UserID, Valid: true}
	}
	created, err := scanExport(txcontext.Executor(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO export_batches (user_id, user_name, kind, from_date, to_date, file_name, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+exportColumns,
		userID, b.UserName, string(b.Kind), b.From, b.To, b.FileName, b.Total,
	))
	if err != nil {
		return nil, fmt.Errorf("create export batch: %w", err)
	}
	return created, nil
}

// ListExports returns batches created in [from, until), newest first.
func (s *PostgresStore) ListExports(ctx context.Context, from, until time.Time) ([]*models.ExportBatch, error) {
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx, `
		SELECT `+exportColumns+`
		FROM export_batches
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at DESC, id DESC`, from, until)
	if err != nil {
		return nil, fmt.Errorf("list export batches: %w", err)
	}
	defer rows.Close()

	var out []*models.ExportBatch
	for rows.Next() {
		b, err := scanExport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan export batch: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *PostgresStore) FindExport(ctx context.Context, exportID int64) (*models.ExportBatch, error) {
	b, err := scanExport(txcontext.Executor(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+exportColumns+` FROM export_batches WHERE id = $1`, exportID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find export batch: %w", err)
	}
	return b, nil
}
