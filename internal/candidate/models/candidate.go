package models

import (
	"strings"
	"time"

	id "talentgate/pkg/domain"
	dErrors "talentgate/pkg/domain-errors"
)

// CandidateStatus labels the candidate's position in the onboarding flow.
// Transitions: Created → IT Provisioning → IT Completed → {Offer Sent,
// Docs Verified in any order} → Documents Pending (after acceptance).
// There is no enforced terminal state; "Ready to Join" (progress 100) is
// reached by processes outside this service.
type CandidateStatus string

const (
	StatusCreated          CandidateStatus = "Created"
	StatusITProvisioning   CandidateStatus = "IT Provisioning"
	StatusITCompleted      CandidateStatus = "IT Completed"
	StatusOfferSent        CandidateStatus = "Offer Sent"
	StatusDocsVerified     CandidateStatus = "Docs Verified"
	StatusDocumentsPending CandidateStatus = "Documents Pending"
)

// ITStatus tracks the provisioning sub-record.
type ITStatus string

const (
	ITPending   ITStatus = "Pending"
	ITCompleted ITStatus = "Completed"
)

// Progress milestone values. Progress is a last-write-wins milestone marker,
// not a cumulative percentage: whichever gate fires last sets its absolute
// value. Observed behavior of the source system, kept on purpose.
const (
	ProgressOfferSent      = 20
	ProgressDocsVerified   = 80
	ProgressPolicyAccepted = 90
)

// Proof is a notarization receipt attached to the candidate. Immutable once
// set.
type Proof struct {
	Signature   string `json:"signature"`
	ExplorerURL string `json:"explorer_url"`
	Status      string `json:"status"`
}

// Candidate is the aggregate root for one hire's onboarding.
//
// Invariants:
//   - Email and Phone are unique across candidates (store-enforced)
//   - ITLogin/ITSecret are present only once provisioning completes
//   - Mutated only through workflow engine operations, never directly
type Candidate struct {
	ID               id.CandidateID  `json:"id"`
	FullName         string          `json:"full_name"`
	Email            string          `json:"email"`
	Phone            string          `json:"phone"`
	Position         string          `json:"position"`
	Department       string          `json:"department"`
	EmploymentType   string          `json:"employment_type"`
	Location         string          `json:"location"`
	CTC              int64           `json:"ctc"`
	JoiningDate      string          `json:"joining_date"`
	AssignedHR       string          `json:"assigned_hr"`
	AssignedIT       string          `json:"assigned_it"`
	ReportingManager string          `json:"reporting_manager"`
	Status           CandidateStatus `json:"status"`
	Progress         int             `json:"progress"`
	ITStatus         ITStatus        `json:"it_status"`
	ITLogin          string          `json:"it_login,omitempty"`
	ITSecret         string          `json:"it_secret,omitempty"`
	PolicyAccepted   bool            `json:"policy_accepted"`
	OfferAccepted    bool            `json:"offer_accepted"`
	Proof            *Proof          `json:"proof,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Profile carries the caller-supplied fields for candidate creation.
type Profile struct {
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

// NewCandidate validates a profile and builds the initial candidate record.
// New candidates start in IT Provisioning with a pending IT sub-record.
func NewCandidate(candidateID id.CandidateID, profile Profile, now time.Time) (*Candidate, error) {
	profile.FullName = strings.TrimSpace(profile.FullName)
	profile.Email = strings.ToLower(strings.TrimSpace(profile.Email))
	profile.Phone = strings.TrimSpace(profile.Phone)

	switch {
	case profile.FullName == "":
		return nil, dErrors.New(dErrors.CodeValidation, "full name is required")
	case profile.Email == "" || !strings.Contains(profile.Email, "@"):
		return nil, dErrors.New(dErrors.CodeValidation, "a valid email is required")
	case profile.Phone == "":
		return nil, dErrors.New(dErrors.CodeValidation, "phone is required")
	case profile.Position == "":
		return nil, dErrors.New(dErrors.CodeValidation, "position is required")
	}

	return &Candidate{
		ID:               candidateID,
		FullName:         profile.FullName,
		Email:            profile.Email,
		Phone:            profile.Phone,
		Position:         profile.Position,
		Department:       profile.Department,
		EmploymentType:   profile.EmploymentType,
		Location:         profile.Location,
		CTC:              profile.CTC,
		JoiningDate:      profile.JoiningDate,
		AssignedHR:       profile.AssignedHR,
		AssignedIT:       profile.AssignedIT,
		ReportingManager: profile.ReportingManager,
		Status:           StatusITProvisioning,
		Progress:         0,
		ITStatus:         ITPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// HasITCredentials reports whether provisioning produced usable credentials.
func (c *Candidate) HasITCredentials() bool {
	return c.ITLogin != "" && c.ITSecret != ""
}

// CanSendOffer checks the offer precondition: credentials exist and IT
// provisioning is complete. Use with ApplySendOffer in Execute callbacks.
func (c *Candidate) CanSendOffer() error {
	if !c.HasITCredentials() || c.ITStatus != ITCompleted {
		return dErrors.New(dErrors.CodePreconditionFailed,
			"IT credentials must be provisioned before sending the offer letter")
	}
	if c.Status == StatusOfferSent {
		return dErrors.New(dErrors.CodeInvariantViolation, "offer already sent")
	}
	return nil
}

// ApplySendOffer records the offer issuance with its notarization proof.
// Call CanSendOffer first to validate the transition.
func (c *Candidate) ApplySendOffer(proof Proof, now time.Time) {
	c.Status = StatusOfferSent
	c.Progress = ProgressOfferSent
	c.Proof = &proof
	c.UpdatedAt = now
}

// CanPromoteDocsVerified guards the aggregate promotion so that a second
// concurrent writer observes a no-op instead of a duplicate transition.
func (c *Candidate) CanPromoteDocsVerified() error {
	if c.Status == StatusDocsVerified {
		return dErrors.New(dErrors.CodeInvariantViolation, "candidate already promoted")
	}
	return nil
}

// ApplyDocsVerified promotes the candidate once all mandatory documents are
// verified.
func (c *Candidate) ApplyDocsVerified(now time.Time) {
	c.Status = StatusDocsVerified
	c.Progress = ProgressDocsVerified
	c.UpdatedAt = now
}

// CanAcceptOffer checks the candidate-side acceptance transition.
func (c *Candidate) CanAcceptOffer() error {
	if c.Status != StatusOfferSent {
		return dErrors.New(dErrors.CodePreconditionFailed, "no offer pending acceptance")
	}
	if c.OfferAccepted {
		return dErrors.New(dErrors.CodeInvariantViolation, "offer already accepted")
	}
	return nil
}

// ApplyAcceptOffer records the candidate's acceptance. Progress only ratchets
// here; the source system used max() for this gate.
func (c *Candidate) ApplyAcceptOffer(now time.Time) {
	c.OfferAccepted = true
	c.Status = StatusDocumentsPending
	c.Progress = maxProgress(c.Progress, ProgressOfferSent)
	c.UpdatedAt = now
}

// ApplyPolicyAcceptance records policy acknowledgement. Idempotence is
// handled by the caller: an already-accepted candidate is a no-op, not an
// error.
func (c *Candidate) ApplyPolicyAcceptance(now time.Time) {
	c.PolicyAccepted = true
	c.Progress = maxProgress(c.Progress, ProgressPolicyAccepted)
	c.UpdatedAt = now
}

// CanProvisionIT checks that provisioning has not already completed.
func (c *Candidate) CanProvisionIT() error {
	if c.ITStatus == ITCompleted {
		return dErrors.New(dErrors.CodeInvariantViolation, "IT provisioning already completed")
	}
	return nil
}

// ApplyITProvisioned attaches credentials and marks provisioning complete.
func (c *Candidate) ApplyITProvisioned(login, secret string, now time.Time) {
	c.ITLogin = login
	c.ITSecret = secret
	c.ITStatus = ITCompleted
	c.Status = StatusITCompleted
	c.UpdatedAt = now
}

func maxProgress(current, milestone int) int {
	if current > milestone {
		return current
	}
	return milestone
}
