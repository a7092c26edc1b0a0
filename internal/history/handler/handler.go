// Package handler exposes lookup history and export endpoints.
package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"radar/internal/history/models"
	lookupmodels "radar/internal/lookup/models"
	dErrors "radar/pkg/domain-errors"
	"radar/pkg/platform/httputil"
	"radar/pkg/requestcontext"
)

// Service is the history surface the handlers drive.
type Service interface {
	Dates(ctx context.Context) ([]models.DayCount, error)
	Records(ctx context.Context, f models.Filter, markExported bool, actor lookupmodels.Actor) ([]*lookupmodels.Record, error)
	CreateExport(ctx context.Context, f models.Filter, fileName string, actor lookupmodels.Actor) (*models.ExportBatch, []*lookupmodels.Record, error)
	ListExports(ctx context.Context, f models.Filter) ([]*models.ExportBatch, error)
	Download(ctx context.Context, exportID int64, w io.Writer) (*models.ExportBatch, error)
	Export(ctx context.Context, exportID int64) (*models.ExportBatch, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the authenticated history endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Get("/history/dates", h.HandleDates)
	r.Get("/history", h.HandleHistory)
	r.Post("/exports", h.HandleCreateExport)
	r.Get("/exports", h.HandleListExports)
	r.Get("/exports/{id}/download", h.HandleDownload)
}

func actorFrom(ctx context.Context) (lookupmodels.Actor, bool) {
	p, ok := requestcontext.Principal(ctx)
	if !ok {
		return lookupmodels.Actor{}, false
	}
	return lookupmodels.Actor{ID: p.UserID, Name: p.Name}, true
}

// HandleDates handles GET /history/dates.
func (h *Handler) HandleDates(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.Dates(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromDayCounts(counts))
}

// HandleHistory handles GET /history?date=|from=&to=[&mark_exported=true].
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := actorFrom(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	q := r.URL.Query()
	f, err := models.ParseFilter(q.Get("date"), q.Get("from"), q.Get("to"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	mark, _ := strconv.ParseBool(q.Get("mark_exported"))

	recs, err := h.service.Records(ctx, f, mark, actor)
	if err != nil {
		h.logger.ErrorContext(ctx, "history query failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRecords(recs))
}

// HandleCreateExport handles POST /exports.
func (h *Handler) HandleCreateExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := actorFrom(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[ExportRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	batch, recs, err := h.service.CreateExport(ctx, req.filter, req.FileName, actor)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, ExportCreatedResponse{
		Export:  FromExport(batch),
		Records: FromRecords(recs),
	})
}

// HandleListExports handles GET /exports?date=|from=&to=. Without a filter
// every batch is listed.
func (h *Handler) HandleListExports(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	var f models.Filter
	if q.Get("date") != "" || q.Get("from") != "" || q.Get("to") != "" {
		parsed, err := models.ParseFilter(q.Get("date"), q.Get("from"), q.Get("to"))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		f = parsed
	}
	batches, err := h.service.ListExports(ctx, f)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]ExportResponse, 0, len(batches))
	for _, b := range batches {
		out = append(out, FromExport(b))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// HandleDownload handles GET /exports/{id}/download. The batch is looked up
// first so a missing id still gets a JSON error instead of a partial CSV.
func (h *Handler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	exportID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || exportID <= 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid export id"))
		return
	}
	batch, err := h.service.Export(ctx, exportID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+batch.DefaultFileName()+`.csv"`)
	if _, err := h.service.Download(ctx, exportID, w); err != nil {
		h.logger.ErrorContext(ctx, "export download failed",
			"request_id", requestcontext.RequestID(ctx),
			"export_id", exportID,
			"error", err,
		)
	}
}
