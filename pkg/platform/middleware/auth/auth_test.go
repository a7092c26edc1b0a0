package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "radar/pkg/domain"
	"radar/pkg/requestcontext"
)

type stubValidator struct {
	principal *id.Principal
	err       error
}

func (s stubValidator) ValidateToken(string) (*id.Principal, error) {
	return s.principal, s.err
}

type stubRevocations struct {
	revoked map[string]bool
	err     error
}

func (s stubRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	return s.revoked[jti], s.err
}

func TestRequireAuth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	principal := &id.Principal{UserID: 3, Name: "Ana", TokenID: "jti-1"}

	var got id.Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = requestcontext.Principal(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	serve := func(mw func(http.Handler) http.Handler, header string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		mw(next).ServeHTTP(w, r)
		return w
	}

	t.Run("valid token stores principal", func(t *testing.T) {
		w := serve(RequireAuth(stubValidator{principal: principal}, stubRevocations{}, logger), "Bearer good")
		require.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, int64(3), got.UserID)
	})

	t.Run("missing header", func(t *testing.T) {
		w := serve(RequireAuth(stubValidator{principal: principal}, nil, logger), "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		w := serve(RequireAuth(stubValidator{err: errors.New("bad signature")}, nil, logger), "Bearer bad")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("revoked token", func(t *testing.T) {
		revs := stubRevocations{revoked: map[string]bool{"jti-1": true}}
		w := serve(RequireAuth(stubValidator{principal: principal}, revs, logger), "Bearer good")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "revoked")
	})

	t.Run("revocation lookup failure", func(t *testing.T) {
		revs := stubRevocations{err: errors.New("redis down")}
		w := serve(RequireAuth(stubValidator{principal: principal}, revs, logger), "Bearer good")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
