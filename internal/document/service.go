// Package document implements the verification tracker: per-document
// accept/reject decisions and the candidate-wide aggregate promotion.
package document

import (
	"context"
	"errors"
	"log/slog"

	"talentgate/internal/audit"
	"talentgate/internal/candidate/models"
	"talentgate/internal/candidate/store"
	documentmetrics "talentgate/internal/document/metrics"
	id "talentgate/pkg/domain"
	dErrors "talentgate/pkg/domain-errors"
	"talentgate/pkg/platform/sentinel"
	"talentgate/pkg/requestcontext"
)

// DefaultMandatoryDocumentCount is the policy constant for how many documents
// a candidate must have verified before the aggregate promotion fires.
const DefaultMandatoryDocumentCount = 6

// Service records decisions and re-runs the aggregate check after every one.
type Service struct {
	documents      store.DocumentStore
	candidates     store.CandidateStore
	auditor        *audit.Service
	logger         *slog.Logger
	metrics        *documentmetrics.Metrics
	mandatoryCount int
}

// Option configures the Service.
type Option func(*Service)

// WithMandatoryDocumentCount overrides the promotion threshold.
func WithMandatoryDocumentCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.mandatoryCount = n
		}
	}
}

// WithMetrics attaches the metrics collector.
func WithMetrics(m *documentmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(documents store.DocumentStore, candidates store.CandidateStore,
	auditor *audit.Service, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		documents:      documents,
		candidates:     candidates,
		auditor:        auditor,
		logger:         logger,
		mandatoryCount: DefaultMandatoryDocumentCount,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Decide records a reviewer's verdict on one document, writes exactly one
// audit entry for the decision, then re-reads the candidate's documents and
// runs the aggregate promotion check. The check runs after every decision,
// not only the completing one, so it is deliberately idempotent.
func (s *Service) Decide(ctx context.Context, docID id.DocumentID, outcome models.DecisionOutcome, reason string) (*models.Document, error) {
	doc, err := s.documents.FindByID(ctx, docID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load document")
	}

	if err := doc.CanDecide(outcome, reason); err != nil {
		return nil, err
	}

	before := *doc
	doc.ApplyDecision(outcome, reason, requestcontext.Now(ctx))

	if err := s.documents.Update(ctx, doc); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update document")
	}
	if s.metrics != nil {
		s.metrics.ObserveDecision(string(outcome))
	}

	action := audit.ActionVerifyDocument
	if outcome == models.OutcomeRejected {
		action = audit.ActionRejectDocument
	}
	// The mutation already succeeded; a failed audit write is a data-quality
	// incident, not a rollback.
	if err := s.auditor.Record(ctx, action, "candidate_documents", doc.ID.String(), before, doc); err != nil {
		s.logger.ErrorContext(ctx, "audit write failed after document decision",
			"document_id", doc.ID.String(), "error", err.Error())
	}

	if err := s.runAggregateCheck(ctx, doc.CandidateID); err != nil {
		return nil, err
	}
	return doc, nil
}

// runAggregateCheck promotes the candidate once at least mandatoryCount
// documents exist and every one is Verified. The promotion write is guarded
// by the store's Execute lock plus the already-promoted check, so two
// concurrent deciders produce exactly one promotion and one audit entry.
func (s *Service) runAggregateCheck(ctx context.Context, candidateID id.CandidateID) error {
	docs, err := s.documents.ListByCandidate(ctx, candidateID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list candidate documents")
	}
	if len(docs) < s.mandatoryCount {
		return nil
	}
	for _, doc := range docs {
		if doc.Status != models.DocumentVerified {
			return nil
		}
	}

	var before models.Candidate
	promoted, err := s.candidates.Execute(ctx, candidateID,
		func(c *models.Candidate) error {
			before = *c
			return c.CanPromoteDocsVerified()
		},
		func(c *models.Candidate) {
			c.ApplyDocsVerified(requestcontext.Now(ctx))
		},
	)
	if err != nil {
		// Another decider already promoted: the redundant check is a no-op,
		// not a duplicate transition.
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil
		}
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "candidate not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to promote candidate")
	}

	if s.metrics != nil {
		s.metrics.ObservePromotion()
	}
	if err := s.auditor.Record(ctx, audit.ActionDocsVerified, "candidates", candidateID.String(), before, promoted); err != nil {
		s.logger.ErrorContext(ctx, "audit write failed after promotion",
			"candidate_id", candidateID.String(), "error", err.Error())
	}
	return nil
}
