package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"radar/internal/lookup/models"
	id "radar/pkg/domain"
	"radar/pkg/platform/sentinel"
	txcontext "radar/pkg/platform/tx"
)

// PostgresStore persists records in lookup_records.
type PostgresStore struct {
	db *sql.DB
	settings
}

// NewPostgres creates a Postgres-backed record store.
func NewPostgres(db *sql.DB, opts ...Option) *PostgresStore {
	s := &PostgresStore{db: db, settings: defaultSettings()}
	for _, opt := range opts {
		opt(&s.settings)
	}
	return s
}

const recordColumns = `id, cnpj, query_date,
	contributor, status, status_date, sub_modality,
	legal_name, trade_name, municipality, state, incorporation_date,
	tax_regime, tax_regime_option_date, share_capital,
	queried_by_id, queried_by_name, exported_by, incomplete, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// ScanRecord reads one row selected with recordColumns.
func ScanRecord(row rowScanner) (*models.Record, error) {
	var (
		rec       models.Record
		cnpj      string
		queriedBy sql.NullInt64
	)
	err := row.Scan(
		&rec.ID, &cnpj, &rec.QueryDate,
		&rec.Primary.Contributor, &rec.Primary.Status, &rec.Primary.StatusDate, &rec.Primary.SubModality,
		&rec.Secondary.LegalName, &rec.Secondary.TradeName, &rec.Secondary.Municipality, &rec.Secondary.State, &rec.Secondary.IncorporationDate,
		&rec.Secondary.TaxRegime, &rec.Secondary.TaxRegimeOptionDate, &rec.Secondary.ShareCapital,
		&queriedBy, &rec.QueriedByName, &rec.ExportedBy, &rec.Incomplete, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.CNPJ = id.CNPJ(cnpj)
	rec.QueriedByID = queriedBy.Int64
	return &rec, nil
}

// RecordColumns is the select list ScanRecord expects.
func RecordColumns() string {
	return recordColumns
}

// FindFresh returns the newest record for cnpj inside the freshness window.
func (s *PostgresStore) FindFresh(ctx context.Context, cnpj id.CNPJ) (*models.Record, error) {
	query := `SELECT ` + recordColumns + `
		FROM lookup_records
		WHERE cnpj = $1 AND query_date >= $2
		ORDER BY query_date DESC
		LIMIT 1`
	rec, err := ScanRecord(txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query, cnpj.String(), s.freshCutoff(ctx)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find fresh lookup record: %w", err)
	}
	return rec, nil
}

// UpsertToday writes today's row for cnpj in one statement; the
// (cnpj, query_date) unique constraint turns a concurrent second insert into
// an update of the winner's row. The incomplete flag is left untouched.
func (s *PostgresStore) UpsertToday(ctx context.Context, cnpj id.CNPJ, fields models.Fields, actor models.Actor) (*models.Record, error) {
	query := `INSERT INTO lookup_records (
			cnpj, query_date,
			contributor, status, status_date, sub_modality,
			legal_name, trade_name, municipality, state, incorporation_date,
			tax_regime, tax_regime_option_date, share_capital,
			queried_by_id, queried_by_name
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (cnpj, query_date) DO UPDATE SET
			contributor = EXCLUDED.contributor,
			status = EXCLUDED.status,
			status_date = EXCLUDED.status_date,
			sub_modality = EXCLUDED.sub_modality,
			legal_name = EXCLUDED.legal_name,
			trade_name = EXCLUDED.trade_name,
			municipality = EXCLUDED.municipality,
			state = EXCLUDED.state,
			incorporation_date = EXCLUDED.incorporation_date,
			tax_regime = EXCLUDED.tax_regime,
			tax_regime_option_date = EXCLUDED.tax_regime_option_date,
			share_capital = EXCLUDED.share_capital,
			queried_by_id = EXCLUDED.queried_by_id,
			queried_by_name = EXCLUDED.queried_by_name,
			updated_at = NOW()
		RETURNING ` + recordColumns

	p, sec := fields.Primary, fields.Secondary
	rec, err := ScanRecord(txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query,
		cnpj.String(), s.today(ctx),
		p.Contributor, p.Status, p.StatusDate, p.SubModality,
		sec.LegalName, sec.TradeName, sec.Municipality, sec.State, sec.IncorporationDate,
		sec.TaxRegime, sec.TaxRegimeOptionDate, sec.ShareCapital,
		nullableID(actor.ID), actor.Name,
	))
	if err != nil {
		return nil, fmt.Errorf("upsert lookup record: %w", err)
	}
	return rec, nil
}

// MarkIncomplete sets the incomplete flag on one row.
func (s *PostgresStore) MarkIncomplete(ctx context.Context, recordID int64, incomplete bool) error {
	res, err := txcontext.Executor(ctx, s.db).ExecContext(ctx,
		`UPDATE lookup_records SET incomplete = $2, updated_at = NOW() WHERE id = $1`,
		recordID, incomplete)
	if err != nil {
		return fmt.Errorf("mark lookup record incomplete: %w", err)
	}
	return requireAffected(res)
}

// SweepRetention deletes rows matched by any retention rule and returns how
// many rows were removed. All rules run in one transaction.
func (s *PostgresStore) SweepRetention(ctx context.Context) (int64, error) {
	today := s.today(ctx)
	run := func(ctx context.Context, exec txcontext.DBTX) (int64, error) {
		var total int64
		for _, rule := range s.rules {
			query, args := retentionDelete(rule, today)
			if query == "" {
				continue
			}
			res, err := exec.ExecContext(ctx, query, args...)
			if err != nil {
				return 0, fmt.Errorf("retention rule %s: %w", rule.Name, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return 0, fmt.Errorf("retention rule %s: %w", rule.Name, err)
			}
			total += n
		}
		return total, nil
	}

	if tx, ok := txcontext.From(ctx); ok {
		return run(ctx, tx)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin retention sweep: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()
	total, err := run(ctx, tx)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit retention sweep: %w", err)
	}
	return total, nil
}

func retentionDelete(rule models.RetentionRule, today time.Time) (string, []any) {
	args := []any{today.AddDate(0, 0, -rule.MaxAgeDays)}
	var conds []string
	if rule.Status != "" {
		args = append(args, rule.Status)
		conds = append(conds, "status ILIKE $"+strconv.Itoa(len(args)))
	}
	if patterns := rule.LikePatterns(); len(patterns) > 0 {
		args = append(args, patterns)
		conds = append(conds, "sub_modality ILIKE ANY($"+strconv.Itoa(len(args))+")")
	}
	if len(conds) == 0 {
		return "", nil
	}
	return `DELETE FROM lookup_records WHERE query_date < $1 AND (` + strings.Join(conds, " OR ") + `)`, args
}

// ListIncomplete returns every flagged row, newest first.
func (s *PostgresStore) ListIncomplete(ctx context.Context) ([]*models.Record, error) {
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx,
		`SELECT `+recordColumns+` FROM lookup_records WHERE incomplete ORDER BY query_date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list incomplete lookup records: %w", err)
	}
	defer rows.Close()

	var out []*models.Record
	for rows.Next() {
		rec, err := ScanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lookup record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// RepairSecondary overwrites the registry fields and clears the incomplete flag.
func (s *PostgresStore) RepairSecondary(ctx context.Context, recordID int64, fields models.SecondaryFields) (*models.Record, error) {
	query := `UPDATE lookup_records SET
			legal_name = $2, trade_name = $3, municipality = $4, state = $5,
			incorporation_date = $6, tax_regime = $7, tax_regime_option_date = $8,
			share_capital = $9, incomplete = FALSE, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + recordColumns
	rec, err := ScanRecord(txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query,
		recordID,
		fields.LegalName, fields.TradeName, fields.Municipality, fields.State,
		fields.IncorporationDate, fields.TaxRegime, fields.TaxRegimeOptionDate, fields.ShareCapital,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("repair lookup record: %w", err)
	}
	return rec, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func nullableID(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}
