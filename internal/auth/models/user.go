package models

import (
	"strings"
	"time"

	id "radar/pkg/domain"
)

// User is a portal account. PasswordHash holds a bcrypt hash and never leaves
// the service layer.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         string
	Active       bool
	CanBatch     bool
	Permissions  id.Permissions
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin reports whether the user may use administrative routes.
func (u *User) IsAdmin() bool {
	return u.Role == id.RoleAdmin || u.Permissions.Admin
}

// MayBatch reports whether the user passes the batch gate.
func (u *User) MayBatch() bool {
	return u.Active && (u.CanBatch || u.IsAdmin())
}

// Principal converts the user into the actor carried by access tokens.
func (u *User) Principal(tokenID string) id.Principal {
	return id.Principal{
		UserID:      u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		CanBatch:    u.CanBatch,
		Permissions: u.Permissions,
		TokenID:     tokenID,
	}
}

// NormalizeEmail lower-cases and trims an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserPatch carries a partial update; nil fields are left unchanged.
type UserPatch struct {
	Name        *string
	Email       *string
	Password    *string
	Role        *string
	Active      *bool
	CanBatch    *bool
	Permissions *PermissionsPatch
}

// PermissionsPatch sets individual permission flags; nil flags are kept.
type PermissionsPatch struct {
	Radar    *bool
	Tickets  *bool
	Chatbot  *bool
	Admin    *bool
	MasterIT *bool
}

// Merge overlays the set flags onto base.
func (p *PermissionsPatch) Merge(base id.Permissions) id.Permissions {
	if p == nil {
		return base
	}
	set := func(dst, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	set(&base.Radar, p.Radar)
	set(&base.Tickets, p.Tickets)
	set(&base.Chatbot, p.Chatbot)
	set(&base.Admin, p.Admin)
	set(&base.MasterIT, p.MasterIT)
	return base
}

// Apply copies the set fields onto u. Password is handled by the caller since
// it must be hashed first.
func (p UserPatch) Apply(u *User) {
	if p.Name != nil {
		u.Name = strings.TrimSpace(*p.Name)
	}
	if p.Email != nil {
		u.Email = NormalizeEmail(*p.Email)
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.Active != nil {
		u.Active = *p.Active
	}
	if p.CanBatch != nil {
		u.CanBatch = *p.CanBatch
	}
	u.Permissions = p.Permissions.Merge(u.Permissions)
}

// NewUser is the input for creating an account.
type NewUser struct {
	Name        string
	Email       string
	Password    string
	Role        string
	CanBatch    bool
	Permissions id.Permissions
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *User
}
