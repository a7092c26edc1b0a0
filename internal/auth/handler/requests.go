package handler

import (
	"net/mail"
	"strings"

	"radar/internal/auth/models"
	id "radar/pkg/domain"
	dErrors "radar/pkg/domain-errors"
)

const minPasswordLength = 6

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" || r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "email and password are required")
	}
	return nil
}

// PermissionsRequest mirrors id.Permissions with optional fields.
type PermissionsRequest struct {
	Radar    *bool `json:"radar"`
	Tickets  *bool `json:"tickets"`
	Chatbot  *bool `json:"chatbot"`
	Admin    *bool `json:"admin"`
	MasterIT *bool `json:"master_it"`
}

func (p *PermissionsRequest) toPatch() *models.PermissionsPatch {
	if p == nil {
		return nil
	}
	return &models.PermissionsPatch{
		Radar:    p.Radar,
		Tickets:  p.Tickets,
		Chatbot:  p.Chatbot,
		Admin:    p.Admin,
		MasterIT: p.MasterIT,
	}
}

type CreateUserRequest struct {
	Name        string              `json:"name"`
	Email       string              `json:"email"`
	Password    string              `json:"password"`
	Role        string              `json:"role"`
	CanBatch    bool                `json:"can_batch"`
	Permissions *PermissionsRequest `json:"permissions"`
}

func (r *CreateUserRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	return validatePassword(r.Password)
}

func (r *CreateUserRequest) toModel() models.NewUser {
	return models.NewUser{
		Name:        r.Name,
		Email:       r.Email,
		Password:    r.Password,
		Role:        r.Role,
		CanBatch:    r.CanBatch,
		Permissions: r.Permissions.toPatch().Merge(id.Permissions{Radar: true}),
	}
}

// UpdateUserRequest is a partial update; absent fields stay unchanged.
type UpdateUserRequest struct {
	Name        *string             `json:"name"`
	Email       *string             `json:"email"`
	Password    *string             `json:"password"`
	Role        *string             `json:"role"`
	Active      *bool               `json:"active"`
	CanBatch    *bool               `json:"can_batch"`
	Permissions *PermissionsRequest `json:"permissions"`
}

func (r *UpdateUserRequest) Validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "name must not be empty")
	}
	if r.Email != nil {
		if err := validateEmail(*r.Email); err != nil {
			return err
		}
	}
	if r.Password != nil {
		return validatePassword(*r.Password)
	}
	return nil
}

func (r *UpdateUserRequest) toPatch() models.UserPatch {
	return models.UserPatch{
		Name:        r.Name,
		Email:       r.Email,
		Password:    r.Password,
		Role:        r.Role,
		Active:      r.Active,
		CanBatch:    r.CanBatch,
		Permissions: r.Permissions.toPatch(),
	}
}

func validateEmail(email string) error {
	if _, err := mail.ParseAddress(strings.TrimSpace(email)); err != nil {
		return dErrors.New(dErrors.CodeValidation, "email is invalid")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return dErrors.New(dErrors.CodeValidation, "password must have at least 6 characters")
	}
	return nil
}
