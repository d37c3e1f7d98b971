// Package handler exposes the read-only audit trail endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"talentgate/internal/audit"
	"talentgate/pkg/platform/httputil"
)

// Service defines the audit read surface.
type Service interface {
	ListByTarget(ctx context.Context, targetEntity, targetID string) ([]audit.Entry, error)
	ListAll(ctx context.Context) ([]audit.Entry, error)
}

// Handler handles audit endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates an audit Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the audit routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/audit", h.handleListAll)
	r.Get("/audit/{entity}/{targetID}", h.handleListByTarget)
}

func (h *Handler) handleListAll(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ListAll(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}

func (h *Handler) handleListByTarget(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ListByTarget(r.Context(),
		chi.URLParam(r, "entity"), chi.URLParam(r, "targetID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}
