// Package handler wires the candidate workflow endpoints to the engine.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"talentgate/internal/candidate/models"
	"talentgate/internal/notary"
	"talentgate/internal/workflow"
	id "talentgate/pkg/domain"
	"talentgate/pkg/platform/httputil"
	"talentgate/pkg/requestcontext"
)

// Service defines the workflow operations this handler exposes.
type Service interface {
	CreateCandidate(ctx context.Context, profile models.Profile) (*models.Candidate, error)
	GetCandidate(ctx context.Context, candidateID id.CandidateID) (*models.Candidate, error)
	ListCandidates(ctx context.Context) ([]*models.Candidate, error)
	SendOffer(ctx context.Context, candidateID id.CandidateID) (*models.Candidate, error)
	AcceptOffer(ctx context.Context, candidateID id.CandidateID) (*models.Candidate, error)
	AcceptPolicies(ctx context.Context, candidateID id.CandidateID) (*models.Candidate, error)
	ProvisionIT(ctx context.Context, candidateID id.CandidateID, login, secret string) (*models.Candidate, error)
	RecordVerificationEvent(ctx context.Context, candidateID id.CandidateID, kind string) (*notary.Receipt, error)
	UploadDocument(ctx context.Context, candidateID id.CandidateID, docType, fileName string) (*models.Document, error)
	ListDocuments(ctx context.Context, candidateID id.CandidateID) ([]*models.Document, error)
	CreateTask(ctx context.Context, candidateID id.CandidateID, title, description, priority string, dueDate *time.Time) (*models.Task, error)
	ListTasks(ctx context.Context, candidateID id.CandidateID) ([]*models.Task, error)
	ScheduleMeeting(ctx context.Context, candidateID id.CandidateID, req workflow.MeetingRequest) (*models.Meeting, error)
	ListMeetings(ctx context.Context, candidateID id.CandidateID) ([]*models.Meeting, error)
	CreatePolicy(ctx context.Context, candidateID id.CandidateID, policyName, fileName, fileURL string) (*models.PolicyDocument, error)
	ListPolicies(ctx context.Context, candidateID id.CandidateID) ([]*models.PolicyDocument, error)
	DeactivatePolicy(ctx context.Context, policyID id.PolicyID) error
}

// NotificationLister reads the candidate's notification feed.
type NotificationLister interface {
	List(ctx context.Context, candidateID id.CandidateID) ([]*models.Notification, error)
}

// Handler handles candidate workflow endpoints.
type Handler struct {
	service       Service
	notifications NotificationLister
	logger        *slog.Logger
}

// New creates a candidate Handler.
func New(service Service, notifications NotificationLister, logger *slog.Logger) *Handler {
	return &Handler{service: service, notifications: notifications, logger: logger}
}

// Register mounts the candidate routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/candidates", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/", h.handleList)
		r.Route("/{candidateID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Post("/offer", h.handleSendOffer)
			r.Post("/offer/accept", h.handleAcceptOffer)
			r.Post("/policies/accept", h.handleAcceptPolicies)
			r.Post("/provision", h.handleProvisionIT)
			r.Post("/verification-events", h.handleVerificationEvent)
			r.Post("/documents", h.handleUploadDocument)
			r.Get("/documents", h.handleListDocuments)
			r.Post("/tasks", h.handleCreateTask)
			r.Get("/tasks", h.handleListTasks)
			r.Post("/meetings", h.handleScheduleMeeting)
			r.Get("/meetings", h.handleListMeetings)
			r.Post("/policies", h.handleCreatePolicy)
			r.Get("/policies", h.handleListPolicies)
			r.Get("/notifications", h.handleListNotifications)
		})
	})
	r.Delete("/policies/{policyID}", h.handleDeactivatePolicy)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateCandidateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	candidate, err := h.service.CreateCandidate(ctx, req.Profile())
	if err != nil {
		h.logger.WarnContext(ctx, "candidate creation failed",
			"request_id", requestID, "error", err.Error())
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "candidate created",
		"request_id", requestID, "candidate_id", candidate.ID.String())
	httputil.WriteJSON(w, http.StatusCreated, candidate)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.service.ListCandidates(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, candidates)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	candidateID, ok := h.candidateID(w, r)
	if !ok {
		return
	}
	candidate, err := h.service.GetCandidate(r.Context(), candidateID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, candidate)
}

func (h *Handler) handleSendOffer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	candidateID, ok := h.candidateID(w, r)
	if !ok {
		return
	}

	candidate, err := h.service.SendOffer(ctx, candidateID)
	if err != nil {
		h.logger.WarnContext(ctx, "offer issuance failed",
			"request_id", requestID, "candidate_id", candidateID.String(), "error", err.Error())
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "offer sent",
		"request_id", requestID, "candidate_id", candidateID.String(),
		"proof_status", candidate.Proof.Status)
	httputil.WriteJSON(w, http.StatusOK, candidate)
}

func (h *Handler) handleAcceptOffer(w http.ResponseWriter, r *http.Request) {
	candidateID, ok := h.candidateID(w, r)
	if !ok {
		return
	}
	candidate, err := h.service.AcceptOffer(r.Context(), candidateID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, candidate)
}

func (h *Handler) handleAcceptPolicies(w http.ResponseWriter, r *http.Request) {
	candidateID, ok := h.candidateID(w, r)
	if !ok {
		return
	}
	candidate, err := h.service.AcceptPolicies(r.Context(), candidateID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, candidate)
}

func (h *Handler) handleProvisionIT(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	candidateID, ok := h.candidateID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ProvisionITRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	candidate, err := h.service.ProvisionIT(ctx, candidateID, req.Login, req.Secret)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "IT provisioning completed",
		"request_id", requestID, "candidate_id", candidateID.String())
	httputil.WriteJSON(w, http.StatusOK, candidate)
}

func (h *Handler) handleVerificationEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	candidateID, ok := h.candidateID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[VerificationEventRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	receipt, err := h.service.RecordVerificationEvent(ctx, candidateID, req.Kind)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, receipt)
}

func (h *Handler) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	candidateID, ok := h.candidateID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[UploadDocumentRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	doc, err := h.service.UploadDocument(ctx, candidateID, req.DocType, req.FileName)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, doc)
}

func (h *Handler) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	candidateID, ok := h.candidateID(w, r)
	if !ok {
		return
	}
	docs, err := h.service.ListDocuments(r.Context(), candidateID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, docs)
}

func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	candidateID, ok := h.candidateID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CreateTaskRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	task, err := h.service.CreateTask(ctx, candidateID, req.Title, req.Description, req.Priority, req.DueDate)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, task)
}

func (h *Handler) handleListTasks(w http.ResponseWriter, r *http.Request) {
	candidateID, ok := h.candidateID(w, r)
	if !ok {
		return
	}
	tasks, err := h.service.ListTasks(r.Context(), candidateID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tasks)
}

func (h *Handler) handleScheduleMeeting(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	candidateID, ok := h.candidateID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ScheduleMeetingRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	meeting, err := h.service.ScheduleMeeting(ctx, candidateID, req.MeetingRequest())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, meeting)
}

func (h *Handler) handleListMeetings(w http.ResponseWriter, r *http.Request) {
	candidateID, ok := h.candidateID(w, r)
	if !ok {
		return
	}
	meetings, err := h.service.ListMeetings(r.Context(), candidateID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, meetings)
}

func (h *Handler) handleCreatePolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	candidateID, ok := h.candidateID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CreatePolicyRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	policy, err := h.service.CreatePolicy(ctx, candidateID, req.PolicyName, req.FileName, req.FileURL)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, policy)
}

func (h *Handler) handleListPolicies(w http.ResponseWriter, r *http.Request) {
	candidateID, ok := h.candidateID(w, r)
	if !ok {
		return
	}
	policies, err := h.service.ListPolicies(r.Context(), candidateID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, policies)
}

func (h *Handler) handleDeactivatePolicy(w http.ResponseWriter, r *http.Request) {
	policyID, err := id.ParsePolicyID(chi.URLParam(r, "policyID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.DeactivatePolicy(r.Context(), policyID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	candidateID, ok := h.candidateID(w, r)
	if !ok {
		return
	}
	notifications, err := h.notifications.List(r.Context(), candidateID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, notifications)
}

func (h *Handler) candidateID(w http.ResponseWriter, r *http.Request) (id.CandidateID, bool) {
	candidateID, err := id.ParseCandidateID(chi.URLParam(r, "candidateID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.CandidateID{}, false
	}
	return candidateID, true
}
