package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"radar/internal/lookup/models"
	"radar/internal/lookup/service"
	id "radar/pkg/domain"
	dErrors "radar/pkg/domain-errors"
	"radar/pkg/platform/httputil"
	"radar/pkg/requestcontext"
)

// Service is the orchestrator surface the handlers drive.
type Service interface {
	Lookup(ctx context.Context, req service.LookupRequest) (*models.Result, error)
	LookupBatch(ctx context.Context, req service.BatchRequest) ([]service.BatchItem, error)
	Repair(ctx context.Context) (*models.RepairReport, error)
	SweepRetention(ctx context.Context) (int64, error)
}

// RawSource returns an upstream answer without normalization.
type RawSource interface {
	Raw(ctx context.Context, cnpj id.CNPJ) (map[string]any, error)
}

// DefaultMaxBatchSize caps the keys accepted by one POST /lookups/batch.
const DefaultMaxBatchSize = 1000

// Handler wires lookup endpoints to the orchestrator.
type Handler struct {
	service      Service
	primary      RawSource
	secondary    RawSource
	logger       *slog.Logger
	maxBatchSize int
	batchTimeout time.Duration
}

type Option func(*Handler)

// WithMaxBatchSize caps the keys of one batch request. Size it so the batch
// finishes inside the server's write timeout at the configured start rate.
func WithMaxBatchSize(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxBatchSize = n
		}
	}
}

// WithBatchTimeout bounds one batch request. Keys still pending at the
// deadline are reported as timed out and the response is written in time.
func WithBatchTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.batchTimeout = d
		}
	}
}

func New(service Service, primary, secondary RawSource, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		service:      service,
		primary:      primary,
		secondary:    secondary,
		logger:       logger,
		maxBatchSize: DefaultMaxBatchSize,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the authenticated lookup endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Get("/lookups", h.HandleLookup)
	r.Get("/lookups/{cnpj}", h.HandleLookup)
	r.Get("/lookups/{cnpj}/primary", h.HandleRawPrimary)
	r.Get("/lookups/{cnpj}/secondary", h.HandleRawSecondary)
	r.Post("/lookups/batch", h.HandleBatch)
}

// RegisterAdmin mounts maintenance endpoints; the caller applies the admin gate.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/repair", h.HandleRepair)
	r.Post("/admin/retention", h.HandleRetention)
}

func actorFrom(ctx context.Context) (models.Actor, bool) {
	p, ok := requestcontext.Principal(ctx)
	if !ok {
		return models.Actor{}, false
	}
	return models.Actor{ID: p.UserID, Name: p.Name}, true
}

// cnpjParam reads the key from the path, or from ?cnpj= on /lookups. chi
// matches on the escaped path, so a formatted key sent as
// 11.222.333%2F0001-81 arrives still escaped.
func cnpjParam(r *http.Request) (id.CNPJ, error) {
	raw := chi.URLParam(r, "cnpj")
	if raw == "" {
		return id.ParseCNPJ(r.URL.Query().Get("cnpj"))
	}
	unescaped, err := url.PathUnescape(raw)
	if err != nil {
		return "", dErrors.New(dErrors.CodeValidation, "cnpj is not a valid path segment")
	}
	return id.ParseCNPJ(unescaped)
}

// HandleLookup handles GET /lookups/{cnpj}?force=true&origin=lote and
// GET /lookups?cnpj=...
func (h *Handler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, ok := actorFrom(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	cnpj, err := cnpjParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))

	result, err := h.service.Lookup(ctx, service.LookupRequest{
		CNPJ:   cnpj,
		Force:  force,
		Origin: models.ParseOrigin(r.URL.Query().Get("origin")),
		Actor:  actor,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "lookup request failed",
			"request_id", requestID,
			"cnpj", cnpj.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromResult(result))
}

// HandleRawPrimary handles GET /lookups/{cnpj}/primary.
func (h *Handler) HandleRawPrimary(w http.ResponseWriter, r *http.Request) {
	h.handleRaw(w, r, h.primary, "radar")
}

// HandleRawSecondary handles GET /lookups/{cnpj}/secondary.
func (h *Handler) HandleRawSecondary(w http.ResponseWriter, r *http.Request) {
	h.handleRaw(w, r, h.secondary, "receitaws")
}

func (h *Handler) handleRaw(w http.ResponseWriter, r *http.Request, src RawSource, name string) {
	ctx := r.Context()
	cnpj, err := cnpjParam(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	raw, err := src.Raw(ctx, cnpj)
	if err != nil {
		h.logger.WarnContext(ctx, "upstream passthrough failed",
			"request_id", requestcontext.RequestID(ctx),
			"source", name,
			"cnpj", cnpj.String(),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadGateway, name+" request failed"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, raw)
}

// HandleBatch handles POST /lookups/batch.
func (h *Handler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	actor, ok := actorFrom(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[BatchRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if len(req.CNPJs) > h.maxBatchSize {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation,
			"too many cnpjs in one batch, the limit is "+strconv.Itoa(h.maxBatchSize)))
		return
	}

	batchCtx := ctx
	if h.batchTimeout > 0 {
		var cancel context.CancelFunc
		batchCtx, cancel = context.WithTimeout(ctx, h.batchTimeout)
		defer cancel()
	}
	items, err := h.service.LookupBatch(batchCtx, service.BatchRequest{CNPJs: req.CNPJs, Force: req.Force, Actor: actor})
	if err != nil {
		h.logger.WarnContext(ctx, "batch rejected",
			"request_id", requestID,
			"user_id", actor.ID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	resp := FromBatch(items)
	h.logger.InfoContext(ctx, "batch finished",
		"request_id", requestID,
		"user_id", actor.ID,
		"total", resp.Total,
		"failed", resp.Failed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleRepair handles POST /admin/repair.
func (h *Handler) HandleRepair(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	report, err := h.service.Repair(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "repair sweep failed", "request_id", requestcontext.RequestID(ctx), "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRepair(report))
}

// HandleRetention handles POST /admin/retention.
func (h *Handler) HandleRetention(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	deleted, err := h.service.SweepRetention(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "retention sweep failed", "request_id", requestcontext.RequestID(ctx), "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, RetentionResponse{Deleted: deleted})
}
