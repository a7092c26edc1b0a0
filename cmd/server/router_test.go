package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"radar/internal/app"
	"radar/internal/auth/models"
	authservice "radar/internal/auth/service"
	"radar/internal/auth/store/revocation"
	userstore "radar/internal/auth/store/user"
	"radar/internal/auth/token"
	historyservice "radar/internal/history/service"
	historystore "radar/internal/history/store"
	"radar/internal/lookup/providers/radar"
	"radar/internal/lookup/providers/receitaws"
	lookupservice "radar/internal/lookup/service"
	lookupstore "radar/internal/lookup/store"
	"radar/internal/platform/metrics"
	id "radar/pkg/domain"
	"radar/pkg/testutil"
)

// newTestApp wires the in-memory stores behind the real router. Upstream
// clients point nowhere; these tests never reach them.
func newTestApp(t *testing.T) *app.App {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	trl := revocation.NewInMemoryTRL()
	tokens := token.NewJWTService("router-test-secret", "radar")
	auth := authservice.New(userstore.New(), tokens, trl,
		authservice.WithLogger(logger),
		authservice.WithBcryptCost(bcrypt.MinCost),
	)
	_, err := auth.SeedAdmin(ctx, "Admin", "admin@example.com", "admin123")
	require.NoError(t, err)
	_, err = auth.CreateUser(ctx, models.NewUser{
		Name: "Ana", Email: "ana@example.com", Password: "ana123", Role: id.RoleUser,
		Permissions: id.Permissions{Radar: true},
	})
	require.NoError(t, err)

	primary := radar.New("", "", time.Second)
	secondary := receitaws.New("http://127.0.0.1:0", time.Second)
	records := lookupstore.NewInMemory()
	lookups, err := lookupservice.New(primary, secondary, records, lookupservice.WithLogger(logger))
	require.NoError(t, err)

	return &app.App{
		Logger:     logger,
		Primary:    primary,
		Secondary:  secondary,
		Tokens:     tokens,
		Revocation: trl,
		Auth:       auth,
		Lookup:     lookups,
		History:    historyservice.New(historystore.NewInMemory(records), historyservice.WithLogger(logger)),
	}
}

func login(t *testing.T, h http.Handler, email, password string) string {
	t.Helper()
	rr := testutil.Serve(h, testutil.NewJSONRequest(t, http.MethodPost, "/auth/login",
		map[string]string{"email": email, "password": password}))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	return testutil.DecodeJSON[map[string]any](t, rr)["token"].(string)
}

func withToken(r *http.Request, token string) *http.Request {
	r.Header.Set("Authorization", "Bearer "+token)
	return r
}

func TestRouterAccessControl(t *testing.T) {
	h := newRouter(newTestApp(t), metrics.NewHTTP(prometheus.NewRegistry()))
	sc := testutil.NewScenario(t)

	var userToken, adminToken string
	sc.Given("a regular user and an administrator logged in", func(t *testing.T) {
		userToken = login(t, h, "ana@example.com", "ana123")
		adminToken = login(t, h, "admin@example.com", "admin123")
	})

	sc.Then("a lookup without a token is unauthorized", func(t *testing.T) {
		rr := testutil.Serve(h, httptest.NewRequest(http.MethodGet, "/lookups/11222333000181", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	sc.Then("a regular user cannot list accounts", func(t *testing.T) {
		rr := testutil.Serve(h, withToken(httptest.NewRequest(http.MethodGet, "/admin/users", nil), userToken))
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	sc.Then("the administrator sees both accounts", func(t *testing.T) {
		rr := testutil.Serve(h, withToken(httptest.NewRequest(http.MethodGet, "/admin/users", nil), adminToken))
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		body := testutil.DecodeJSON[map[string]any](t, rr)
		assert.EqualValues(t, 2, body["total"])
	})

	sc.Then("an invalid key is rejected before any upstream call", func(t *testing.T) {
		rr := testutil.Serve(h, withToken(httptest.NewRequest(http.MethodGet, "/lookups/123", nil), userToken))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestRouterServesMetrics(t *testing.T) {
	h := newRouter(newTestApp(t), metrics.NewHTTP(prometheus.NewRegistry()))
	rr := testutil.Serve(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRetentionScheduleStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sweeper := &countingSweeper{calls: make(chan struct{}, 4)}
	done := make(chan struct{})
	go func() {
		runRetentionSchedule(ctx, sweeper, 10*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))
		close(done)
	}()

	<-sweeper.calls
	<-sweeper.calls
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("schedule did not stop after cancel")
	}
}

type countingSweeper struct {
	calls chan struct{}
}

func (c *countingSweeper) SweepRetention(context.Context) (int64, error) {
	select {
	case c.calls <- struct{}{}:
	default:
	}
	return 0, nil
}
