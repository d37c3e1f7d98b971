// Package handler exposes the document decision endpoint.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"talentgate/internal/candidate/models"
	id "talentgate/pkg/domain"
	dErrors "talentgate/pkg/domain-errors"
	"talentgate/pkg/platform/httputil"
	"talentgate/pkg/requestcontext"
)

// Service defines the verification tracker operations.
type Service interface {
	Decide(ctx context.Context, docID id.DocumentID, outcome models.DecisionOutcome, reason string) (*models.Document, error)
}

// DecisionRequest carries the reviewer's verdict.
type DecisionRequest struct {
	Outcome string `json:"outcome"`
	Reason  string `json:"reason,omitempty"`
}

// Validate checks the outcome is a known verdict. The reason/outcome pairing
// is validated by the domain model.
func (r *DecisionRequest) Validate() error {
	switch models.DecisionOutcome(r.Outcome) {
	case models.OutcomeVerified, models.OutcomeRejected:
		return nil
	default:
		return dErrors.New(dErrors.CodeValidation, "outcome must be Verified or Rejected")
	}
}

// Handler handles document decision endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a document Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the document routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/documents/{documentID}/decision", h.handleDecide)
}

func (h *Handler) handleDecide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	docID, err := id.ParseDocumentID(chi.URLParam(r, "documentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[DecisionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	doc, err := h.service.Decide(ctx, docID, models.DecisionOutcome(req.Outcome), req.Reason)
	if err != nil {
		h.logger.WarnContext(ctx, "document decision failed",
			"request_id", requestID, "document_id", docID.String(), "error", err.Error())
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "document decided",
		"request_id", requestID, "document_id", docID.String(), "status", string(doc.Status))
	httputil.WriteJSON(w, http.StatusOK, doc)
}
