package dashboardhandler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"taskboard/internal/domain/analytics"
	"taskboard/internal/transport/http/api"
	"taskboard/internal/transport/http/middleware"
)

// Reports is the slice of the scheduler the dashboard needs.
type Reports interface {
	Summaries(ctx context.Context) analytics.Snapshot
	Refresh(ctx context.Context) error
	Snapshot(ctx context.Context) analytics.Snapshot
}

type Handler struct {
	Reports Reports
}

func NewHandler(reports Reports) *Handler {
	return &Handler{Reports: reports}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/dashboard", func(r chi.Router) {
		r.Get("/summary", h.handleSummary)
		r.Post("/refresh", h.handleRefresh)
		r.Get("/export", h.handleExport)
	})
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	snap := h.Reports.Summaries(r.Context())
	api.Success(w, snap, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.Reports.Refresh(r.Context()); err != nil {
		api.Fail(w, http.StatusBadGateway, "refresh_failed", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, h.Reports.Snapshot(r.Context()), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	snap := h.Reports.Summaries(r.Context())
	stamp := time.Now().UTC().Format("2006-01-02")

	switch r.URL.Query().Get("format") {
	case "pdf":
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="performance-`+stamp+`.pdf"`)
		if err := analytics.WritePDF(w, snap); err != nil {
			api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to render pdf", middleware.GetRequestID(r.Context()))
		}
	case "", "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="performance-`+stamp+`.csv"`)
		if err := analytics.WriteCSV(w, snap); err != nil {
			api.Fail(w, http.StatusInternalServerError, "export_failed", "failed to render csv", middleware.GetRequestID(r.Context()))
		}
	default:
		api.Fail(w, http.StatusBadRequest, "invalid_format", "format must be csv or pdf", middleware.GetRequestID(r.Context()))
	}
}
