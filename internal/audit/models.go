package audit

import (
	"encoding/json"
	"time"

	id "talentgate/pkg/domain"
)

// SystemActor is recorded when a mutating call arrives without an explicit
// actor identity.
const SystemActor = "system@talentgate"

// Action names a mutating operation. The closed set keeps downstream
// consumers (SIEM, compliance exports) from guessing at free-form strings.
type Action string

const (
	ActionCreateCandidate    Action = "CREATE_CANDIDATE"
	ActionSendOffer          Action = "SEND_OFFER"
	ActionAcceptOffer        Action = "ACCEPT_OFFER"
	ActionVerifyDocument     Action = "VERIFY_DOCUMENT"
	ActionRejectDocument     Action = "REJECT_DOCUMENT"
	ActionDocsVerified       Action = "DOCS_VERIFIED"
	ActionAcceptPolicies     Action = "ACCEPT_POLICIES"
	ActionProvisionIT        Action = "PROVISION_IT"
	ActionRecordVerification Action = "RECORD_VERIFICATION"
	ActionDeactivatePolicy   Action = "DEACTIVATE_POLICY"
	ActionCreateTask         Action = "CREATE_TASK"
	ActionScheduleMeeting    Action = "SCHEDULE_MEETING"
)

// Entry is one immutable audit record. Entries are append-only: the store
// exposes no update or delete. Ordering is insertion order per writer; no
// global total order is promised across concurrent writers.
type Entry struct {
	ID             id.AuditEntryID `json:"id"`
	Timestamp      time.Time       `json:"timestamp"`
	Actor          string          `json:"actor"`
	Action         Action          `json:"action"`
	TargetEntity   string          `json:"target_entity"`
	TargetID       string          `json:"target_id"`
	Before         json.RawMessage `json:"before,omitempty"`
	After          json.RawMessage `json:"after,omitempty"`
	RequestID      string          `json:"request_id,omitempty"`
	ClientIP       string          `json:"client_ip,omitempty"`
	ClientPlatform string          `json:"client_platform,omitempty"`
}
