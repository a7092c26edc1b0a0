package attempts

import (
	"context"
	"database/sql"
	"fmt"

	"radar/internal/lookup/models"
	id "radar/pkg/domain"
	txcontext "radar/pkg/platform/tx"
)

// PostgresSink appends outcomes to lookup_attempts.
type PostgresSink struct {
	db *sql.DB
}

func NewPostgresSink(db *sql.DB) *PostgresSink {
	return &PostgresSink{db: db}
}

func (s *PostgresSink) Name() string { return "postgres" }

func (s *PostgresSink) Write(ctx context.Context, o models.AttemptOutcome) error {
	userID := sql.NullInt64{Int64: o.UserID, Valid: o.UserID != 0}
	_, err := txcontext.Executor(ctx, s.db).ExecContext(ctx,
		`INSERT INTO lookup_attempts (user_id, cnpj, origin, success, message, request_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		userID, o.CNPJ.String(), string(o.Origin), o.Success, o.Message, o.RequestID, o.At)
	if err != nil {
		return fmt.Errorf("insert lookup attempt: %w", err)
	}
	return nil
}

// Recent returns the newest attempts, newest first.
func (s *PostgresSink) Recent(ctx context.Context, limit int) ([]models.AttemptOutcome, error) {
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx,
		`SELECT COALESCE(user_id, 0), cnpj, origin, success, message, request_id, created_at
		FROM lookup_attempts ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list lookup attempts: %w", err)
	}
	defer rows.Close()

	var out []models.AttemptOutcome
	for rows.Next() {
		var (
			o      models.AttemptOutcome
			cnpj   string
			origin string
		)
		if err := rows.Scan(&o.UserID, &cnpj, &origin, &o.Success, &o.Message, &o.RequestID, &o.At); err != nil {
			return nil, fmt.Errorf("scan lookup attempt: %w", err)
		}
		o.CNPJ = id.CNPJ(cnpj)
		o.Origin = models.Origin(origin)
		out = append(out, o)
	}
	return out, rows.Err()
}
