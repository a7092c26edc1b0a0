// Package service implements login, logout, the batch gate and user
// administration.
package service

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"radar/internal/auth/models"
)

// UserStore persists accounts.
type UserStore interface {
	FindByID(ctx context.Context, userID int64) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Create(ctx context.Context, u *models.User) (*models.User, error)
	Update(ctx context.Context, u *models.User) (*models.User, error)
}

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Issue(user *models.User) (string, time.Time, error)
}

// RevocationList records tokens revoked before their expiry.
type RevocationList interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
}

// LoginGuard throttles repeated failed logins per email and client address.
type LoginGuard interface {
	Check(ctx context.Context, email, ip string) error
	RecordFailure(ctx context.Context, email, ip string) error
	Clear(ctx context.Context, email, ip string) error
}

// Service owns account rules. It is safe for concurrent use.
type Service struct {
	users      UserStore
	tokens     TokenIssuer
	revocation RevocationList
	guard      LoginGuard
	logger     *slog.Logger
	bcryptCost int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithBcryptCost overrides bcrypt.DefaultCost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		s.bcryptCost = cost
	}
}

// WithLoginGuard enables lockout after repeated failed logins.
func WithLoginGuard(g LoginGuard) Option {
	return func(s *Service) {
		s.guard = g
	}
}

func New(users UserStore, tokens TokenIssuer, revocation RevocationList, opts ...Option) *Service {
	s := &Service{
		users:      users,
		tokens:     tokens,
		revocation: revocation,
		logger:     slog.Default(),
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
