package testutil

import (
	"net/http"

	id "radar/pkg/domain"
	"radar/pkg/requestcontext"
)

// AsPrincipal attaches p to the request context the way RequireAuth does.
func AsPrincipal(req *http.Request, p id.Principal) *http.Request {
	return req.WithContext(requestcontext.WithPrincipal(req.Context(), p))
}

// AsUser attaches a regular user with the given id and name.
func AsUser(req *http.Request, userID int64, name string) *http.Request {
	return AsPrincipal(req, id.Principal{
		UserID:      userID,
		Name:        name,
		Role:        id.RoleUser,
		Permissions: id.Permissions{Radar: true},
	})
}

// AsAdmin attaches an admin principal.
func AsAdmin(req *http.Request, userID int64, name string) *http.Request {
	return AsPrincipal(req, id.Principal{
		UserID:      userID,
		Name:        name,
		Role:        id.RoleAdmin,
		CanBatch:    true,
		Permissions: id.Permissions{Radar: true, Admin: true},
	})
}
