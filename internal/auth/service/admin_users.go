package service

import (
	"context"
	"errors"
	"strings"

	"radar/internal/auth/models"
	id "radar/pkg/domain"
	dErrors "radar/pkg/domain-errors"
	"radar/pkg/platform/sentinel"
	"radar/pkg/requestcontext"
)

func (s *Service) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list users")
	}
	return users, nil
}

// CreateUser stores a new active account. Role defaults to user.
func (s *Service) CreateUser(ctx context.Context, in models.NewUser) (*models.User, error) {
	role, err := normalizeRole(in.Role)
	if err != nil {
		return nil, err
	}
	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	created, err := s.users.Create(ctx, &models.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        models.NormalizeEmail(in.Email),
		PasswordHash: hash,
		Role:         role,
		Active:       true,
		CanBatch:     in.CanBatch,
		Permissions:  in.Permissions,
	})
	if err != nil {
		return nil, translateWriteErr(err, "failed to create user")
	}
	s.logger.InfoContext(ctx, "user created",
		"user_id", created.ID,
		"role", created.Role,
		"by", requestcontext.UserID(ctx),
		"request_id", requestcontext.RequestID(ctx),
	)
	return created, nil
}

// UpdateUser applies a partial update.
func (s *Service) UpdateUser(ctx context.Context, userID int64, patch models.UserPatch) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, translateWriteErr(err, "failed to load user")
	}
	if patch.Role != nil {
		role, err := normalizeRole(*patch.Role)
		if err != nil {
			return nil, err
		}
		patch.Role = &role
	}
	patch.Apply(user)
	if patch.Password != nil {
		hash, err := s.hashPassword(*patch.Password)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
		}
		user.PasswordHash = hash
	}

	updated, err := s.users.Update(ctx, user)
	if err != nil {
		return nil, translateWriteErr(err, "failed to update user")
	}
	s.logger.InfoContext(ctx, "user updated",
		"user_id", updated.ID,
		"active", updated.Active,
		"by", requestcontext.UserID(ctx),
		"request_id", requestcontext.RequestID(ctx),
	)
	return updated, nil
}

// DeactivateUser is the delete operation; accounts are never removed because
// lookup records reference them.
func (s *Service) DeactivateUser(ctx context.Context, userID int64) error {
	inactive := false
	_, err := s.UpdateUser(ctx, userID, models.UserPatch{Active: &inactive})
	return err
}

// SeedAdmin creates an active admin with batch permission unless a user with
// that email already exists. It reports whether a user was created.
func (s *Service) SeedAdmin(ctx context.Context, name, email, password string) (bool, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return false, dErrors.New(dErrors.CodeValidation, "admin email and password are required")
	}
	_, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	if strings.TrimSpace(name) == "" {
		name = "Administrador"
	}
	_, err = s.CreateUser(ctx, models.NewUser{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     id.RoleAdmin,
		CanBatch: true,
		Permissions: id.Permissions{
			Radar: true,
			Admin: true,
		},
	})
	if dErrors.HasCode(err, dErrors.CodeConflict) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func normalizeRole(role string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "", id.RoleUser:
		return id.RoleUser, nil
	case id.RoleAdmin:
		return id.RoleAdmin, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "role must be admin or user")
	}
}

func translateWriteErr(err error, msg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "user not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "email already registered")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}
