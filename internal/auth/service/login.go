package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"radar/internal/auth/models"
	id "radar/pkg/domain"
	dErrors "radar/pkg/domain-errors"
	"radar/pkg/platform/sentinel"
	"radar/pkg/requestcontext"
)

// Compared against when the email is unknown so both failure paths cost one bcrypt run.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("radar-dummy-password"), bcrypt.DefaultCost)

var errInvalidCredentials = dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")

// Login checks credentials of an active user and issues an access token.
func (s *Service) Login(ctx context.Context, email, password string) (*models.LoginResult, error) {
	ip := requestcontext.ClientIP(ctx)
	if s.guard != nil {
		if err := s.guard.Check(ctx, email, ip); err != nil {
			return nil, err
		}
	}

	user, err := s.authenticate(ctx, email, password)
	if err != nil {
		if s.guard != nil && errors.Is(err, errInvalidCredentials) {
			if gerr := s.guard.RecordFailure(ctx, email, ip); gerr != nil {
				s.logger.ErrorContext(ctx, "failed to record login failure", "error", gerr)
			}
		}
		return nil, err
	}
	if s.guard != nil {
		if err := s.guard.Clear(ctx, email, ip); err != nil {
			s.logger.ErrorContext(ctx, "failed to clear login failures", "error", err)
		}
	}

	signed, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}
	s.logger.InfoContext(ctx, "user logged in",
		"user_id", user.ID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return &models.LoginResult{Token: signed, ExpiresAt: expiresAt, User: user}, nil
}

// authenticate returns errInvalidCredentials for unknown emails, wrong
// passwords and inactive accounts alike.
func (s *Service) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			s.logger.WarnContext(ctx, "login failed",
				"reason", "unknown email",
				"request_id", requestcontext.RequestID(ctx),
			)
			return nil, errInvalidCredentials
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.WarnContext(ctx, "login failed",
			"reason", "password mismatch",
			"user_id", user.ID,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, errInvalidCredentials
	}
	if !user.Active {
		s.logger.WarnContext(ctx, "login failed",
			"reason", "inactive user",
			"user_id", user.ID,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, errInvalidCredentials
	}
	return user, nil
}

// Me re-reads the caller from the store so deactivation takes effect before
// the token expires.
func (s *Service) Me(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.activeUser(ctx, userID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeForbidden) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "user inactive or not found")
		}
		return nil, err
	}
	return user, nil
}

// Logout revokes the caller's token until it would have expired anyway.
func (s *Service) Logout(ctx context.Context, principal id.Principal) error {
	ttl := principal.ExpiresAt.Sub(requestcontext.Now(ctx))
	if principal.TokenID == "" || ttl <= 0 {
		return nil
	}
	if err := s.revocation.RevokeToken(ctx, principal.TokenID, ttl); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke token")
	}
	s.logger.InfoContext(ctx, "user logged out",
		"user_id", principal.UserID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// AuthorizeBatch is the batch gate: the user must exist, be active and hold
// the batch permission or be an admin.
func (s *Service) AuthorizeBatch(ctx context.Context, userID int64) error {
	user, err := s.activeUser(ctx, userID)
	if err != nil {
		return err
	}
	if !user.MayBatch() {
		return dErrors.New(dErrors.CodeForbidden, "batch lookups not permitted")
	}
	return nil
}

func (s *Service) activeUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeForbidden, "user inactive or not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	if !user.Active {
		return nil, dErrors.New(dErrors.CodeForbidden, "user inactive or not found")
	}
	return user, nil
}
