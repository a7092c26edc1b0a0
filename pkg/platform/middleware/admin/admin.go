package admin

import (
	"log/slog"
	"net/http"

	request "radar/pkg/platform/middleware/request"
	"radar/pkg/requestcontext"
)

// RequireAdmin must run after auth.RequireAuth. It rejects principals that are
// neither role admin nor carry the admin permission.
func RequireAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			principal, ok := requestcontext.Principal(ctx)
			if !ok || !principal.IsAdmin() {
				logger.WarnContext(ctx, "admin route denied",
					"user_id", principal.UserID,
					"request_id", request.GetRequestID(ctx),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden","error_description":"admin access required"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
