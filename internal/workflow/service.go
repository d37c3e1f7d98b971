// Package workflow is the onboarding engine: candidate creation, offer
// issuance, provisioning, acceptance, and the informational side channels
// (tasks, policies, notifications).
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"talentgate/internal/audit"
	"talentgate/internal/candidate/models"
	"talentgate/internal/candidate/store"
	"talentgate/internal/notary"
	workflowmetrics "talentgate/internal/workflow/metrics"
	id "talentgate/pkg/domain"
	dErrors "talentgate/pkg/domain-errors"
	"talentgate/pkg/platform/sentinel"
	"talentgate/pkg/requestcontext"
)

// offerLockTTL bounds how long one offer issuance may hold the per-candidate
// lock before redis reclaims it.
const offerLockTTL = 30 * time.Second

// defaultITRequestType matches the provisioning ticket the source system
// raised for every new hire.
const defaultITRequestType = "Software, Access & Hardware"

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Notifier

// Notifier is the fire-and-forget message channel to the candidate portal.
type Notifier interface {
	Notify(ctx context.Context, candidateID id.CandidateID, title, message, severity string)
}

// Service is the workflow engine. All candidate mutations go through here or
// through the document tracker; nothing else writes the aggregate.
type Service struct {
	candidates store.CandidateStore
	documents  store.DocumentStore
	itRequests store.ITRequestStore
	tasks      store.TaskStore
	policies   store.PolicyStore
	meetings   store.MeetingStore
	auditor    *audit.Service
	gateway    notary.Gateway
	notifier   Notifier
	locker     Locker
	logger     *slog.Logger
	metrics    *workflowmetrics.Metrics
	tracer     trace.Tracer
}

// Option configures the Service.
type Option func(*Service)

// WithLocker overrides the default in-process locker.
func WithLocker(l Locker) Option {
	return func(s *Service) { s.locker = l }
}

// WithMetrics attaches the metrics collector.
func WithMetrics(m *workflowmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(
	candidates store.CandidateStore,
	documents store.DocumentStore,
	itRequests store.ITRequestStore,
	tasks store.TaskStore,
	policies store.PolicyStore,
	meetings store.MeetingStore,
	auditor *audit.Service,
	gateway notary.Gateway,
	notifier Notifier,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		candidates: candidates,
		documents:  documents,
		itRequests: itRequests,
		tasks:      tasks,
		policies:   policies,
		meetings:   meetings,
		auditor:    auditor,
		gateway:    gateway,
		notifier:   notifier,
		locker:     NewInMemoryLocker(),
		logger:     logger,
		tracer:     otel.Tracer("talentgate/workflow"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateCandidate validates the profile, inserts the candidate in IT
// Provisioning, raises the default IT request best-effort, and writes one
// audit entry. Duplicate email or phone is a conflict carrying the colliding
// field; the candidate is not created and nothing else happens.
func (s *Service) CreateCandidate(ctx context.Context, profile models.Profile) (*models.Candidate, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.CreateCandidate")
	defer span.End()

	candidate, err := models.NewCandidate(id.NewCandidateID(), profile, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	if err := s.candidates.Create(ctx, candidate); err != nil {
		var dup *store.DuplicateError
		if errors.As(err, &dup) {
			return nil, dErrors.Add(
				dErrors.New(dErrors.CodeConflict,
					fmt.Sprintf("a candidate with this %s already exists", dup.Field)),
				"field", dup.Field)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create candidate")
	}
	if s.metrics != nil {
		s.metrics.CandidatesCreated.Inc()
	}
	span.SetAttributes(attribute.String("candidate.id", candidate.ID.String()))

	// Best-effort: the hire exists even if the provisioning ticket does not.
	req := &models.ITRequest{
		ID:          id.NewITRequestID(),
		CandidateID: candidate.ID,
		RequestType: defaultITRequestType,
		Items:       "Laptop, Email Account, System Access",
		Description: "Default provisioning request for new hire " + candidate.FullName,
		Priority:    "high",
		Status:      models.ITRequestPending,
		CreatedAt:   requestcontext.Now(ctx),
	}
	if err := s.itRequests.Create(ctx, req); err != nil {
		s.logger.WarnContext(ctx, "default IT request not created",
			"candidate_id", candidate.ID.String(), "error", err.Error())
	}

	s.recordAudit(ctx, audit.ActionCreateCandidate, "candidates", candidate.ID.String(), nil, candidate)
	return candidate, nil
}

// GetCandidate loads one candidate.
func (s *Service) GetCandidate(ctx context.Context, candidateID id.CandidateID) (*models.Candidate, error) {
	candidate, err := s.candidates.FindByID(ctx, candidateID)
	if err != nil {
		return nil, s.translateLookup(err, "candidate")
	}
	return candidate, nil
}

// ListCandidates returns all candidates (HR dashboard surface).
func (s *Service) ListCandidates(ctx context.Context) ([]*models.Candidate, error) {
	candidates, err := s.candidates.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list candidates")
	}
	return candidates, nil
}

// SendOffer issues the offer letter: precondition check, notarization, CAS
// status update, audit entry with the receipt, and a credentials notification.
// Issuance is serialized per candidate; a gateway failure aborts the whole
// operation with the candidate untouched.
//
// The credentials notification deliberately carries the clear-text IT login
// and secret, matching the source system's behavior.
func (s *Service) SendOffer(ctx context.Context, candidateID id.CandidateID) (*models.Candidate, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.SendOffer",
		trace.WithAttributes(attribute.String("candidate.id", candidateID.String())))
	defer span.End()

	release, err := s.locker.Acquire(ctx, "offer:"+candidateID.String(), offerLockTTL)
	if err != nil {
		return nil, err
	}
	defer release()

	candidate, err := s.candidates.FindByID(ctx, candidateID)
	if err != nil {
		return nil, s.translateLookup(err, "candidate")
	}
	// Fail the precondition before notarizing so a rejected issuance never
	// mints a receipt.
	if err := candidate.CanSendOffer(); err != nil {
		return nil, err
	}

	receipt, err := s.gateway.Notarize(ctx, notary.Event{
		Name:   candidate.FullName,
		Email:  candidate.Email,
		Action: "OFFER_ISSUED",
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	var before models.Candidate
	updated, err := s.candidates.Execute(ctx, candidateID,
		func(c *models.Candidate) error {
			before = *c
			return c.CanSendOffer()
		},
		func(c *models.Candidate) {
			c.ApplySendOffer(models.Proof{
				Signature:   receipt.Signature,
				ExplorerURL: receipt.ExplorerURL,
				Status:      string(receipt.Status),
			}, requestcontext.Now(ctx))
		},
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "candidate not found")
		}
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.OffersSent.Inc()
	}

	s.recordAudit(ctx, audit.ActionSendOffer, "candidates", candidateID.String(), before, updated)
	s.notifier.Notify(ctx, candidateID, "Offer Letter Sent",
		fmt.Sprintf("Your offer letter for %s has been issued. Portal login: %s, password: %s",
			updated.Position, updated.ITLogin, updated.ITSecret),
		"info")
	return updated, nil
}

// AcceptOffer records the candidate's acceptance and moves them to Documents
// Pending.
func (s *Service) AcceptOffer(ctx context.Context, candidateID id.CandidateID) (*models.Candidate, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.AcceptOffer",
		trace.WithAttributes(attribute.String("candidate.id", candidateID.String())))
	defer span.End()

	var before models.Candidate
	updated, err := s.candidates.Execute(ctx, candidateID,
		func(c *models.Candidate) error {
			before = *c
			return c.CanAcceptOffer()
		},
		func(c *models.Candidate) {
			c.ApplyAcceptOffer(requestcontext.Now(ctx))
		},
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "candidate not found")
		}
		return nil, err
	}

	s.recordAudit(ctx, audit.ActionAcceptOffer, "candidates", candidateID.String(), before, updated)
	s.notifier.Notify(ctx, candidateID, "Offer Accepted",
		"Thank you for accepting. Please upload your onboarding documents.", "info")
	return updated, nil
}

// AcceptPolicies records policy acknowledgement. An already-accepted candidate
// is a no-op: no mutation, no audit entry.
func (s *Service) AcceptPolicies(ctx context.Context, candidateID id.CandidateID) (*models.Candidate, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.AcceptPolicies",
		trace.WithAttributes(attribute.String("candidate.id", candidateID.String())))
	defer span.End()

	var before models.Candidate
	updated, err := s.candidates.Execute(ctx, candidateID,
		func(c *models.Candidate) error {
			before = *c
			if c.PolicyAccepted {
				return dErrors.New(dErrors.CodeInvariantViolation, "policies already accepted")
			}
			return nil
		},
		func(c *models.Candidate) {
			c.ApplyPolicyAcceptance(requestcontext.Now(ctx))
		},
	)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return &before, nil
		}
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "candidate not found")
		}
		return nil, err
	}

	s.recordAudit(ctx, audit.ActionAcceptPolicies, "candidates", candidateID.String(), before, updated)
	return updated, nil
}

// ProvisionIT completes the provisioning ticket: attaches credentials, marks
// the candidate IT Completed, closes open IT requests best-effort, and
// notifies the candidate.
func (s *Service) ProvisionIT(ctx context.Context, candidateID id.CandidateID, login, secret string) (*models.Candidate, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.ProvisionIT",
		trace.WithAttributes(attribute.String("candidate.id", candidateID.String())))
	defer span.End()

	login = strings.TrimSpace(login)
	if login == "" || secret == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "login and secret are required")
	}

	var before models.Candidate
	updated, err := s.candidates.Execute(ctx, candidateID,
		func(c *models.Candidate) error {
			before = *c
			return c.CanProvisionIT()
		},
		func(c *models.Candidate) {
			c.ApplyITProvisioned(login, secret, requestcontext.Now(ctx))
		},
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "candidate not found")
		}
		return nil, err
	}

	if err := s.itRequests.CompletePending(ctx, candidateID); err != nil {
		s.logger.WarnContext(ctx, "open IT requests not closed",
			"candidate_id", candidateID.String(), "error", err.Error())
	}

	s.recordAudit(ctx, audit.ActionProvisionIT, "candidates", candidateID.String(), before, updated)
	s.notifier.Notify(ctx, candidateID, "IT Provisioning Complete",
		"Your accounts are ready. HR can now issue your offer letter.", "info")
	return updated, nil
}

// verificationOutcome is the audit payload for ad-hoc verification events.
type verificationOutcome struct {
	Kind    string          `json:"kind"`
	Receipt *notary.Receipt `json:"receipt,omitempty"`
	Failure string          `json:"failure,omitempty"`
}

// RecordVerificationEvent notarizes an ad-hoc event for the candidate. It is
// ungated by workflow state and always writes exactly one audit entry, with
// the receipt on success or the failure reason on error.
func (s *Service) RecordVerificationEvent(ctx context.Context, candidateID id.CandidateID, kind string) (*notary.Receipt, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.RecordVerificationEvent",
		trace.WithAttributes(
			attribute.String("candidate.id", candidateID.String()),
			attribute.String("event.kind", kind)))
	defer span.End()

	if strings.TrimSpace(kind) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "event kind is required")
	}

	candidate, err := s.candidates.FindByID(ctx, candidateID)
	if err != nil {
		return nil, s.translateLookup(err, "candidate")
	}

	receipt, gerr := s.gateway.Notarize(ctx, notary.Event{
		Name:   candidate.FullName,
		Email:  candidate.Email,
		Action: kind,
	})

	outcome := verificationOutcome{Kind: kind, Receipt: receipt}
	result := "ok"
	if gerr != nil {
		span.RecordError(gerr)
		outcome.Failure = gerr.Error()
		result = "failed"
	}
	if s.metrics != nil {
		s.metrics.VerificationEvents.WithLabelValues(result).Inc()
	}
	s.recordAudit(ctx, audit.ActionRecordVerification, "candidates", candidateID.String(), nil, outcome)

	if gerr != nil {
		return nil, gerr
	}
	return receipt, nil
}

// UploadDocument registers a pending document for the candidate. Decisions on
// it belong to the verification tracker.
func (s *Service) UploadDocument(ctx context.Context, candidateID id.CandidateID, docType, fileName string) (*models.Document, error) {
	docType = strings.TrimSpace(docType)
	if docType == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "document type is required")
	}
	if _, err := s.candidates.FindByID(ctx, candidateID); err != nil {
		return nil, s.translateLookup(err, "candidate")
	}

	doc := &models.Document{
		ID:          id.NewDocumentID(),
		CandidateID: candidateID,
		DocType:     docType,
		FileName:    fileName,
		Status:      models.DocumentPending,
		UploadedAt:  requestcontext.Now(ctx),
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store document")
	}
	return doc, nil
}

// ListDocuments returns the candidate's documents.
func (s *Service) ListDocuments(ctx context.Context, candidateID id.CandidateID) ([]*models.Document, error) {
	docs, err := s.documents.ListByCandidate(ctx, candidateID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list documents")
	}
	return docs, nil
}

// CreateTask adds an informational task for the candidate. Tasks never gate
// workflow transitions.
func (s *Service) CreateTask(ctx context.Context, candidateID id.CandidateID, title, description, priority string, dueDate *time.Time) (*models.Task, error) {
	if strings.TrimSpace(title) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "task title is required")
	}
	if _, err := s.candidates.FindByID(ctx, candidateID); err != nil {
		return nil, s.translateLookup(err, "candidate")
	}

	task := &models.Task{
		ID:          id.NewTaskID(),
		CandidateID: candidateID,
		Title:       strings.TrimSpace(title),
		Description: description,
		Priority:    priority,
		DueDate:     dueDate,
		CreatedAt:   requestcontext.Now(ctx),
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create task")
	}
	s.recordAudit(ctx, audit.ActionCreateTask, "tasks", task.ID.String(), nil, task)
	return task, nil
}

// ListTasks returns the candidate's tasks.
func (s *Service) ListTasks(ctx context.Context, candidateID id.CandidateID) ([]*models.Task, error) {
	tasks, err := s.tasks.ListByCandidate(ctx, candidateID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list tasks")
	}
	return tasks, nil
}

// MeetingRequest carries the schedule and the provider-issued links for one
// orientation meeting.
type MeetingRequest struct {
	Title        string
	ScheduledAt  time.Time
	DurationMins int
	PrimaryLink  string
	FallbackLink string
}

// ScheduleMeeting books an orientation call for the candidate. The meeting
// link provider is external; its primary and fallback URIs arrive as data.
func (s *Service) ScheduleMeeting(ctx context.Context, candidateID id.CandidateID, req MeetingRequest) (*models.Meeting, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "meeting title is required")
	}
	if req.ScheduledAt.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "scheduled_at is required")
	}
	if strings.TrimSpace(req.PrimaryLink) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "primary_link is required")
	}
	if _, err := s.candidates.FindByID(ctx, candidateID); err != nil {
		return nil, s.translateLookup(err, "candidate")
	}

	meeting := &models.Meeting{
		ID:           id.NewMeetingID(),
		CandidateID:  candidateID,
		Title:        strings.TrimSpace(req.Title),
		ScheduledAt:  req.ScheduledAt,
		DurationMins: req.DurationMins,
		PrimaryLink:  req.PrimaryLink,
		FallbackLink: req.FallbackLink,
		CreatedAt:    requestcontext.Now(ctx),
	}
	if err := s.meetings.Create(ctx, meeting); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to schedule meeting")
	}
	s.recordAudit(ctx, audit.ActionScheduleMeeting, "meetings", meeting.ID.String(), nil, meeting)
	s.notifier.Notify(ctx, candidateID, "Orientation Scheduled",
		fmt.Sprintf("%s is scheduled for %s. Join: %s",
			meeting.Title, meeting.ScheduledAt.Format(time.RFC1123), meeting.PrimaryLink),
		"info")
	return meeting, nil
}

// ListMeetings returns the candidate's meetings in scheduled order.
func (s *Service) ListMeetings(ctx context.Context, candidateID id.CandidateID) ([]*models.Meeting, error) {
	meetings, err := s.meetings.ListByCandidate(ctx, candidateID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list meetings")
	}
	return meetings, nil
}

// CreatePolicy attaches an active policy document to the candidate.
func (s *Service) CreatePolicy(ctx context.Context, candidateID id.CandidateID, policyName, fileName, fileURL string) (*models.PolicyDocument, error) {
	if strings.TrimSpace(policyName) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "policy name is required")
	}
	if _, err := s.candidates.FindByID(ctx, candidateID); err != nil {
		return nil, s.translateLookup(err, "candidate")
	}

	policy := &models.PolicyDocument{
		ID:          id.NewPolicyID(),
		CandidateID: candidateID,
		PolicyName:  strings.TrimSpace(policyName),
		FileName:    fileName,
		FileURL:     fileURL,
		Active:      true,
		CreatedAt:   requestcontext.Now(ctx),
	}
	if err := s.policies.Create(ctx, policy); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create policy document")
	}
	return policy, nil
}

// ListPolicies returns the candidate's active policy documents.
func (s *Service) ListPolicies(ctx context.Context, candidateID id.CandidateID) ([]*models.PolicyDocument, error) {
	policies, err := s.policies.ListActiveByCandidate(ctx, candidateID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list policy documents")
	}
	return policies, nil
}

// DeactivatePolicy soft-deletes a policy document.
func (s *Service) DeactivatePolicy(ctx context.Context, policyID id.PolicyID) error {
	if err := s.policies.Deactivate(ctx, policyID); err != nil {
		return s.translateLookup(err, "policy document")
	}
	s.recordAudit(ctx, audit.ActionDeactivatePolicy, "policy_documents", policyID.String(), nil, nil)
	return nil
}

// recordAudit writes one entry and downgrades a failure to a logged
// data-quality incident. The triggering mutation has already committed.
func (s *Service) recordAudit(ctx context.Context, action audit.Action, targetEntity, targetID string, before, after any) {
	if err := s.auditor.Record(ctx, action, targetEntity, targetID, before, after); err != nil {
		if s.metrics != nil {
			s.metrics.AuditFailures.Inc()
		}
		s.logger.ErrorContext(ctx, "audit write failed",
			"action", string(action), "target_id", targetID, "error", err.Error())
	}
}

func (s *Service) translateLookup(err error, entity string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, entity+" not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load "+entity)
}
