// Package user stores portal accounts.
package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"radar/internal/auth/models"
	"radar/internal/platform/postgres"
	"radar/pkg/platform/sentinel"
	txcontext "radar/pkg/platform/tx"
)

// PostgresStore persists users in the users table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const userColumns = `id, name, email, password_hash, role, active, can_batch,
	perm_radar, perm_tickets, perm_chatbot, perm_admin, perm_master_it,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Active, &u.CanBatch,
		&u.Permissions.Radar, &u.Permissions.Tickets, &u.Permissions.Chatbot, &u.Permissions.Admin, &u.Permissions.MasterIT,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PostgresStore) findOne(ctx context.Context, where string, arg any) (*models.User, error) {
	row := txcontext.Executor(ctx, s.db).QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, userID int64) (*models.User, error) {
	return s.findOne(ctx, `id = $1`, userID)
}

// FindByEmail matches case-insensitively.
func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, `lower(email) = $1`, models.NormalizeEmail(email))
}

// List returns every user, newest first.
func (s *PostgresStore) List(ctx context.Context) ([]*models.User, error) {
	rows, err := txcontext.Executor(ctx, s.db).QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return out, nil
}

// Create inserts u and returns the stored row. A duplicate email yields
// sentinel.ErrConflict.
func (s *PostgresStore) Create(ctx context.Context, u *models.User) (*models.User, error) {
	query := `INSERT INTO users (
			name, email, password_hash, role, active, can_batch,
			perm_radar, perm_tickets, perm_chatbot, perm_admin, perm_master_it
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + userColumns
	p := u.Permissions
	created, err := scanUser(txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query,
		u.Name, models.NormalizeEmail(u.Email), u.PasswordHash, u.Role, u.Active, u.CanBatch,
		p.Radar, p.Tickets, p.Chatbot, p.Admin, p.MasterIT,
	))
	if postgres.IsUniqueViolation(err) {
		return nil, fmt.Errorf("create user %s: %w", u.Email, sentinel.ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

// Update overwrites every mutable column of u.
func (s *PostgresStore) Update(ctx context.Context, u *models.User) (*models.User, error) {
	query := `UPDATE users SET
			name = $2, email = $3, password_hash = $4, role = $5, active = $6, can_batch = $7,
			perm_radar = $8, perm_tickets = $9, perm_chatbot = $10, perm_admin = $11, perm_master_it = $12,
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
	p := u.Permissions
	updated, err := scanUser(txcontext.Executor(ctx, s.db).QueryRowContext(ctx, query,
		u.ID, u.Name, models.NormalizeEmail(u.Email), u.PasswordHash, u.Role, u.Active, u.CanBatch,
		p.Radar, p.Tickets, p.Chatbot, p.Admin, p.MasterIT,
	))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, sentinel.ErrNotFound
	case postgres.IsUniqueViolation(err):
		return nil, fmt.Errorf("update user %d: %w", u.ID, sentinel.ErrConflict)
	case err != nil:
		return nil, fmt.Errorf("update user: %w", err)
	}
	return updated, nil
}
