package models

import (
	"time"

	id "talentgate/pkg/domain"
)

// ITRequestStatus tracks the provisioning ticket raised for a new candidate.
type ITRequestStatus string

const (
	ITRequestPending   ITRequestStatus = "pending"
	ITRequestCompleted ITRequestStatus = "completed"
)

// ITRequest is the default provisioning ticket created as a best-effort side
// effect of candidate creation. Its failure never fails the creation.
type ITRequest struct {
	ID          id.ITRequestID  `json:"id"`
	CandidateID id.CandidateID  `json:"candidate_id"`
	RequestType string          `json:"request_type"`
	Items       string          `json:"items"`
	Description string          `json:"description"`
	Priority    string          `json:"priority"`
	Status      ITRequestStatus `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Task is an informational side channel owned by a candidate. Tasks never
// gate workflow transitions.
type Task struct {
	ID          id.TaskID      `json:"id"`
	CandidateID id.CandidateID `json:"candidate_id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Priority    string         `json:"priority"`
	DueDate     *time.Time     `json:"due_date,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// PolicyDocument is soft-deleted via Active rather than physically removed.
type PolicyDocument struct {
	ID          id.PolicyID    `json:"id"`
	CandidateID id.CandidateID `json:"candidate_id"`
	PolicyName  string         `json:"policy_name"`
	FileName    string         `json:"file_name"`
	FileURL     string         `json:"file_url"`
	Active      bool           `json:"active"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Meeting is a scheduled orientation or check-in call. Link generation is
// external: the provider hands over a primary URI and a web fallback, and
// both are stored verbatim.
type Meeting struct {
	ID           id.MeetingID   `json:"id"`
	CandidateID  id.CandidateID `json:"candidate_id"`
	Title        string         `json:"title"`
	ScheduledAt  time.Time      `json:"scheduled_at"`
	DurationMins int            `json:"duration_mins"`
	PrimaryLink  string         `json:"primary_link"`
	FallbackLink string         `json:"fallback_link,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Notification is a candidate-visible message. Delivery is fire-and-forget;
// failures are logged, never raised.
type Notification struct {
	ID          id.NotificationID `json:"id"`
	CandidateID id.CandidateID    `json:"candidate_id"`
	Title       string            `json:"title"`
	Message     string            `json:"message"`
	Severity    string            `json:"severity"`
	Read        bool              `json:"read"`
	CreatedAt   time.Time         `json:"created_at"`
}
