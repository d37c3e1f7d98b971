package domain

import (
	"github.com/google/uuid"

	dErrors "talentgate/pkg/domain-errors"
)

// Typed IDs keep entity references from being mixed up at compile time.
// Conversions are explicit; parsing enforces valid, non-nil UUIDs at trust
// boundaries.
type (
	CandidateID    uuid.UUID
	DocumentID     uuid.UUID
	ITRequestID    uuid.UUID
	TaskID         uuid.UUID
	PolicyID       uuid.UUID
	MeetingID      uuid.UUID
	NotificationID uuid.UUID
	AuditEntryID   uuid.UUID
)

func (id CandidateID) String() string    { return uuid.UUID(id).String() }
func (id DocumentID) String() string     { return uuid.UUID(id).String() }
func (id ITRequestID) String() string    { return uuid.UUID(id).String() }
func (id TaskID) String() string         { return uuid.UUID(id).String() }
func (id PolicyID) String() string       { return uuid.UUID(id).String() }
func (id MeetingID) String() string      { return uuid.UUID(id).String() }
func (id NotificationID) String() string { return uuid.UUID(id).String() }
func (id AuditEntryID) String() string   { return uuid.UUID(id).String() }

// Text marshalling delegates to the underlying UUID so IDs travel as
// canonical strings in JSON, not as raw byte arrays. Defined types do not
// inherit the UUID's methods, so each kind declares its own pair.

func (id CandidateID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }
func (id DocumentID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id ITRequestID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }
func (id TaskID) MarshalText() ([]byte, error)         { return uuid.UUID(id).MarshalText() }
func (id PolicyID) MarshalText() ([]byte, error)       { return uuid.UUID(id).MarshalText() }
func (id MeetingID) MarshalText() ([]byte, error)      { return uuid.UUID(id).MarshalText() }
func (id NotificationID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id AuditEntryID) MarshalText() ([]byte, error)   { return uuid.UUID(id).MarshalText() }

func (id *CandidateID) UnmarshalText(b []byte) error {
	parsed, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = CandidateID(parsed)
	return nil
}

func (id *DocumentID) UnmarshalText(b []byte) error {
	parsed, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = DocumentID(parsed)
	return nil
}

func (id *ITRequestID) UnmarshalText(b []byte) error {
	parsed, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = ITRequestID(parsed)
	return nil
}

func (id *TaskID) UnmarshalText(b []byte) error {
	parsed, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = TaskID(parsed)
	return nil
}

func (id *PolicyID) UnmarshalText(b []byte) error {
	parsed, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = PolicyID(parsed)
	return nil
}

func (id *MeetingID) UnmarshalText(b []byte) error {
	parsed, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = MeetingID(parsed)
	return nil
}

func (id *NotificationID) UnmarshalText(b []byte) error {
	parsed, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = NotificationID(parsed)
	return nil
}

func (id *AuditEntryID) UnmarshalText(b []byte) error {
	parsed, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = AuditEntryID(parsed)
	return nil
}

func (id CandidateID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id DocumentID) IsZero() bool  { return uuid.UUID(id) == uuid.Nil }

// NewCandidateID mints a fresh candidate ID.
func NewCandidateID() CandidateID { return CandidateID(uuid.New()) }

// NewDocumentID mints a fresh document ID.
func NewDocumentID() DocumentID { return DocumentID(uuid.New()) }

// NewITRequestID mints a fresh IT request ID.
func NewITRequestID() ITRequestID { return ITRequestID(uuid.New()) }

// NewTaskID mints a fresh task ID.
func NewTaskID() TaskID { return TaskID(uuid.New()) }

// NewPolicyID mints a fresh policy document ID.
func NewPolicyID() PolicyID { return PolicyID(uuid.New()) }

// NewMeetingID mints a fresh meeting ID.
func NewMeetingID() MeetingID { return MeetingID(uuid.New()) }

// NewNotificationID mints a fresh notification ID.
func NewNotificationID() NotificationID { return NotificationID(uuid.New()) }

// NewAuditEntryID mints a fresh audit entry ID.
func NewAuditEntryID() AuditEntryID { return AuditEntryID(uuid.New()) }

func parseUUID(raw, kind string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id is not a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id must not be the nil UUID")
	}
	return parsed, nil
}

// ParseCandidateID parses and validates a candidate ID from its string form.
func ParseCandidateID(raw string) (CandidateID, error) {
	parsed, err := parseUUID(raw, "candidate")
	if err != nil {
		return CandidateID{}, err
	}
	return CandidateID(parsed), nil
}

// ParseDocumentID parses and validates a document ID from its string form.
func ParseDocumentID(raw string) (DocumentID, error) {
	parsed, err := parseUUID(raw, "document")
	if err != nil {
		return DocumentID{}, err
	}
	return DocumentID(parsed), nil
}

// ParsePolicyID parses and validates a policy document ID from its string form.
func ParsePolicyID(raw string) (PolicyID, error) {
	parsed, err := parseUUID(raw, "policy")
	if err != nil {
		return PolicyID{}, err
	}
	return PolicyID(parsed), nil
}

// ParseMeetingID parses and validates a meeting ID from its string form.
func ParseMeetingID(raw string) (MeetingID, error) {
	parsed, err := parseUUID(raw, "meeting")
	if err != nil {
		return MeetingID{}, err
	}
	return MeetingID(parsed), nil
}

// ParseITRequestID parses and validates an IT request ID from its string form.
func ParseITRequestID(raw string) (ITRequestID, error) {
	parsed, err := parseUUID(raw, "it request")
	if err != nil {
		return ITRequestID{}, err
	}
	return ITRequestID(parsed), nil
}

// ParseNotificationID parses and validates a notification ID from its string form.
func ParseNotificationID(raw string) (NotificationID, error) {
	parsed, err := parseUUID(raw, "notification")
	if err != nil {
		return NotificationID{}, err
	}
	return NotificationID(parsed), nil
}

// ParseTaskID parses and validates a task ID from its string form.
func ParseTaskID(raw string) (TaskID, error) {
	parsed, err := parseUUID(raw, "task")
	if err != nil {
		return TaskID{}, err
	}
	return TaskID(parsed), nil
}

// ParseAuditEntryID parses and validates an audit entry ID from its string form.
func ParseAuditEntryID(raw string) (AuditEntryID, error) {
	parsed, err := parseUUID(raw, "audit entry")
	if err != nil {
		return AuditEntryID{}, err
	}
	return AuditEntryID(parsed), nil
}
