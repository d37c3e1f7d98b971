package handler

import (
	"strings"
	"time"

	"talentgate/internal/candidate/models"
	"talentgate/internal/workflow"
	dErrors "talentgate/pkg/domain-errors"
)

// CreateCandidateRequest carries the HR-supplied profile.
type CreateCandidateRequest struct {
	FullName         string `json:"full_name"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	Position         string `json:"position"`
	Department       string `json:"department"`
	EmploymentType   string `json:"employment_type"`
	Location         string `json:"location"`
	CTC              int64  `json:"ctc"`
	JoiningDate      string `json:"joining_date"`
	AssignedHR       string `json:"assigned_hr"`
	AssignedIT       string `json:"assigned_it"`
	ReportingManager string `json:"reporting_manager"`
}

// Validate checks the transport-level required fields. The domain model
// re-validates; this just fails obviously broken requests early.
func (r *CreateCandidateRequest) Validate() error {
	if strings.TrimSpace(r.FullName) == "" {
		return dErrors.New(dErrors.CodeValidation, "full_name is required")
	}
	if strings.TrimSpace(r.Email) == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	return nil
}

// Profile converts the request into the domain profile.
func (r *CreateCandidateRequest) Profile() models.Profile {
	return models.Profile{
		FullName:         r.FullName,
		Email:            r.Email,
		Phone:            r.Phone,
		Position:         r.Position,
		Department:       r.Department,
		EmploymentType:   r.EmploymentType,
		Location:         r.Location,
		CTC:              r.CTC,
		JoiningDate:      r.JoiningDate,
		AssignedHR:       r.AssignedHR,
		AssignedIT:       r.AssignedIT,
		ReportingManager: r.ReportingManager,
	}
}

// ProvisionITRequest carries the credentials IT provisioned.
type ProvisionITRequest struct {
	Login  string `json:"login"`
	Secret string `json:"secret"`
}

func (r *ProvisionITRequest) Validate() error {
	if strings.TrimSpace(r.Login) == "" || r.Secret == "" {
		return dErrors.New(dErrors.CodeValidation, "login and secret are required")
	}
	return nil
}

// VerificationEventRequest names the ad-hoc event to notarize.
type VerificationEventRequest struct {
	Kind string `json:"kind"`
}

func (r *VerificationEventRequest) Validate() error {
	if strings.TrimSpace(r.Kind) == "" {
		return dErrors.New(dErrors.CodeValidation, "kind is required")
	}
	return nil
}

// UploadDocumentRequest registers a pending document.
type UploadDocumentRequest struct {
	DocType  string `json:"doc_type"`
	FileName string `json:"file_name"`
}

func (r *UploadDocumentRequest) Validate() error {
	if strings.TrimSpace(r.DocType) == "" {
		return dErrors.New(dErrors.CodeValidation, "doc_type is required")
	}
	return nil
}

// CreateTaskRequest adds an informational task.
type CreateTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

func (r *CreateTaskRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return dErrors.New(dErrors.CodeValidation, "title is required")
	}
	return nil
}

// ScheduleMeetingRequest books an orientation meeting. The links come from
// the external meeting provider; this service only stores them.
type ScheduleMeetingRequest struct {
	Title        string    `json:"title"`
	ScheduledAt  time.Time `json:"scheduled_at"`
	DurationMins int       `json:"duration_mins"`
	PrimaryLink  string    `json:"primary_link"`
	FallbackLink string    `json:"fallback_link"`
}

func (r *ScheduleMeetingRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if r.ScheduledAt.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "scheduled_at is required")
	}
	if strings.TrimSpace(r.PrimaryLink) == "" {
		return dErrors.New(dErrors.CodeValidation, "primary_link is required")
	}
	return nil
}

// MeetingRequest converts the payload into the engine's request type.
func (r *ScheduleMeetingRequest) MeetingRequest() workflow.MeetingRequest {
	return workflow.MeetingRequest{
		Title:        r.Title,
		ScheduledAt:  r.ScheduledAt,
		DurationMins: r.DurationMins,
		PrimaryLink:  r.PrimaryLink,
		FallbackLink: r.FallbackLink,
	}
}

// CreatePolicyRequest attaches a policy document.
type CreatePolicyRequest struct {
	PolicyName string `json:"policy_name"`
	FileName   string `json:"file_name"`
	FileURL    string `json:"file_url"`
}

func (r *CreatePolicyRequest) Validate() error {
	if strings.TrimSpace(r.PolicyName) == "" {
		return dErrors.New(dErrors.CodeValidation, "policy_name is required")
	}
	return nil
}
