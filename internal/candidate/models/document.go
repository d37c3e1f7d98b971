package models

import (
	"time"

	id "talentgate/pkg/domain"
	dErrors "talentgate/pkg/domain-errors"
)

// DocumentStatus is the per-document decision state.
type DocumentStatus string

const (
	DocumentPending  DocumentStatus = "Pending"
	DocumentVerified DocumentStatus = "Verified"
	DocumentRejected DocumentStatus = "Rejected"
)

// DecisionOutcome is the reviewer's verdict on one document. It is a strict
// subset of DocumentStatus: a reviewer cannot decide a document back to
// Pending.
type DecisionOutcome string

const (
	OutcomeVerified DecisionOutcome = "Verified"
	OutcomeRejected DecisionOutcome = "Rejected"
)

// Document belongs to exactly one candidate and is mutated only by the
// verification tracker.
//
// Invariants:
//   - RejectionReason is set iff Status == Rejected
//   - Any re-decision clears a previous rejection reason
type Document struct {
	ID              id.DocumentID  `json:"id"`
	CandidateID     id.CandidateID `json:"candidate_id"`
	DocType         string         `json:"doc_type"`
	FileName        string         `json:"file_name"`
	Status          DocumentStatus `json:"status"`
	RejectionReason string         `json:"rejection_reason,omitempty"`
	UploadedAt      time.Time      `json:"uploaded_at"`
	DecidedAt       *time.Time     `json:"decided_at,omitempty"`
}

// CanDecide validates the outcome/reason pairing before any mutation.
func (d *Document) CanDecide(outcome DecisionOutcome, reason string) error {
	switch outcome {
	case OutcomeVerified, OutcomeRejected:
	default:
		return dErrors.New(dErrors.CodeValidation, "outcome must be Verified or Rejected")
	}
	if outcome == OutcomeRejected && reason == "" {
		return dErrors.New(dErrors.CodeValidation, "a rejection reason is required")
	}
	return nil
}

// ApplyDecision records the verdict. A non-rejection always clears the
// reason, so Verified → Rejected → Verified round-trips leave no stale text.
func (d *Document) ApplyDecision(outcome DecisionOutcome, reason string, now time.Time) {
	d.Status = DocumentStatus(outcome)
	if outcome == OutcomeRejected {
		d.RejectionReason = reason
	} else {
		d.RejectionReason = ""
	}
	d.DecidedAt = &now
}
