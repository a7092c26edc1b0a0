package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"radar/internal/app"
	authhandler "radar/internal/auth/handler"
	historyhandler "radar/internal/history/handler"
	lookuphandler "radar/internal/lookup/handler"
	"radar/internal/platform/metrics"
	"radar/pkg/platform/httputil"
	adminmw "radar/pkg/platform/middleware/admin"
	authmw "radar/pkg/platform/middleware/auth"
	request "radar/pkg/platform/middleware/request"
)

func newRouter(a *app.App, httpMetrics *metrics.HTTP) http.Handler {
	log := a.Logger
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Time)
	r.Use(request.Recovery(log))
	r.Use(request.AccessLog(log))
	r.Use(httpMetrics.Middleware)

	r.Get("/health", healthHandler(a))
	r.Handle("/metrics", metrics.Handler())

	auth := authhandler.New(a.Auth, log)
	lookups := lookuphandler.New(a.Lookup, a.Primary, a.Secondary, log,
		lookuphandler.WithMaxBatchSize(a.Config.Batch.MaxSize),
		lookuphandler.WithBatchTimeout(a.Config.Batch.Timeout),
	)
	history := historyhandler.New(a.History, log)

	auth.RegisterPublic(r)

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(a.Tokens, a.Revocation, log))
		auth.Register(r)
		lookups.Register(r)
		history.Register(r)

		r.Group(func(r chi.Router) {
			r.Use(adminmw.RequireAdmin(log))
			auth.RegisterAdmin(r)
			lookups.RegisterAdmin(r)
		})
	})
	return r
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Redis    string `json:"redis,omitempty"`
}

func healthHandler(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok", Database: "ok"}
		status := http.StatusOK
		if err := a.DB.PingContext(ctx); err != nil {
			resp.Status, resp.Database = "degraded", "unreachable"
			status = http.StatusServiceUnavailable
		}
		if a.Redis != nil {
			resp.Redis = "ok"
			if err := a.Redis.Health(ctx); err != nil {
				resp.Status, resp.Redis = "degraded", "unreachable"
				status = http.StatusServiceUnavailable
			}
		}
		httputil.WriteJSON(w, status, resp)
	}
}
