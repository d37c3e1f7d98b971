// Package store persists candidate records and their dependent sub-records.
//
// Stores are interface-driven to keep the workflow logic testable and to allow
// swapping in-memory and PostgreSQL persistence without rewiring business
// code. Stores return sentinel errors; services translate them into domain
// errors exactly once.
package store

import (
	"context"

	"talentgate/internal/candidate/models"
	id "talentgate/pkg/domain"
	"talentgate/pkg/platform/sentinel"
)

// DuplicateError reports a unique-constraint collision and names the field
// that collided so callers can surface DuplicateEntry{field} without parsing
// error text.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string { return "duplicate " + e.Field }

func (e *DuplicateError) Unwrap() error { return sentinel.ErrConflict }

// CandidateStore owns the candidate aggregate.
type CandidateStore interface {
	// Create inserts a new candidate. Returns *DuplicateError wrapping
	// sentinel.ErrConflict when email or phone already exists.
	Create(ctx context.Context, candidate *models.Candidate) error
	FindByID(ctx context.Context, candidateID id.CandidateID) (*models.Candidate, error)
	List(ctx context.Context) ([]*models.Candidate, error)
	// Execute atomically runs validate-then-mutate while holding the row lock
	// (mutex in memory, FOR UPDATE in PostgreSQL). A validate failure leaves
	// the record untouched, which is what makes compare-and-set promotion
	// guards safe under concurrent writers.
	Execute(ctx context.Context, candidateID id.CandidateID,
		validate func(*models.Candidate) error,
		apply func(*models.Candidate)) (*models.Candidate, error)
}

// DocumentStore owns per-candidate document records.
type DocumentStore interface {
	Create(ctx context.Context, doc *models.Document) error
	FindByID(ctx context.Context, docID id.DocumentID) (*models.Document, error)
	ListByCandidate(ctx context.Context, candidateID id.CandidateID) ([]*models.Document, error)
	Update(ctx context.Context, doc *models.Document) error
}

// ITRequestStore owns provisioning tickets.
type ITRequestStore interface {
	Create(ctx context.Context, req *models.ITRequest) error
	ListByCandidate(ctx context.Context, candidateID id.CandidateID) ([]*models.ITRequest, error)
	// CompletePending marks the candidate's open requests completed.
	// Best-effort caller semantics: a failure here is logged, not raised.
	CompletePending(ctx context.Context, candidateID id.CandidateID) error
}

// TaskStore owns the informational task side channel.
type TaskStore interface {
	Create(ctx context.Context, task *models.Task) error
	ListByCandidate(ctx context.Context, candidateID id.CandidateID) ([]*models.Task, error)
}

// PolicyStore owns policy documents, soft-deleted via the active flag.
type PolicyStore interface {
	Create(ctx context.Context, policy *models.PolicyDocument) error
	ListActiveByCandidate(ctx context.Context, candidateID id.CandidateID) ([]*models.PolicyDocument, error)
	Deactivate(ctx context.Context, policyID id.PolicyID) error
}

// MeetingStore owns scheduled orientation meetings.
type MeetingStore interface {
	Create(ctx context.Context, meeting *models.Meeting) error
	// ListByCandidate returns the candidate's meetings in scheduled order.
	ListByCandidate(ctx context.Context, candidateID id.CandidateID) ([]*models.Meeting, error)
}

// NotificationStore owns candidate-visible notifications.
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByCandidate(ctx context.Context, candidateID id.CandidateID) ([]*models.Notification, error)
}
