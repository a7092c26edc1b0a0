package domain

import "time"

// Role values stored on users.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Permissions are the per-module access flags carried in access tokens.
type Permissions struct {
	Radar    bool `json:"radar"`
	Tickets  bool `json:"tickets"`
	Chatbot  bool `json:"chatbot"`
	Admin    bool `json:"admin"`
	MasterIT bool `json:"master_it"`
}

// Principal is the authenticated actor attached to a request.
type Principal struct {
	UserID      int64
	Name        string
	Email       string
	Role        string
	CanBatch    bool
	Permissions Permissions
	TokenID     string
	ExpiresAt   time.Time
}

// IsAdmin reports whether the principal may use administrative routes.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin || p.Permissions.Admin
}
