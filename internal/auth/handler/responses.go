package handler

import (
	"time"

	"radar/internal/auth/models"
	id "radar/pkg/domain"
)

// UserResponse never carries the password hash.
type UserResponse struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Email       string         `json:"email"`
	Role        string         `json:"role"`
	Active      bool           `json:"active"`
	CanBatch    bool           `json:"can_batch"`
	Permissions id.Permissions `json:"permissions"`
	CreatedAt   time.Time      `json:"created_at"`
}

func FromUser(u *models.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		Active:      u.Active,
		CanBatch:    u.CanBatch,
		Permissions: u.Permissions,
		CreatedAt:   u.CreatedAt,
	}
}

type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

type UsersResponse struct {
	Users []UserResponse `json:"users"`
	Total int            `json:"total"`
}
