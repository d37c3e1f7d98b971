package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"talentgate/internal/audit"
	auditMemory "talentgate/internal/audit/store/memory"
	"talentgate/internal/candidate/handler"
	"talentgate/internal/candidate/models"
	"talentgate/internal/candidate/store"
	"talentgate/internal/notary"
	"talentgate/internal/notification"
	"talentgate/internal/workflow"
	"talentgate/pkg/testutil"
)

// stubGateway notarizes everything with a fixed receipt.
type stubGateway struct{}

func (stubGateway) Notarize(context.Context, notary.Event) (*notary.Receipt, error) {
	return &notary.Receipt{
		Signature:   "stub-sig",
		ExplorerURL: "https://explorer.example/tx/stub-sig",
		Status:      notary.StatusBridgeVerified,
	}, nil
}

type CandidateHandlerSuite struct {
	suite.Suite
	router     chi.Router
	auditStore *auditMemory.InMemoryStore
}

func (s *CandidateHandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.auditStore = auditMemory.NewInMemoryStore()
	auditor := audit.NewService(s.auditStore, logger)
	dispatcher := notification.NewDispatcher(store.NewInMemoryNotificationStore(), logger)

	engine := workflow.NewService(
		store.NewInMemoryCandidateStore(),
		store.NewInMemoryDocumentStore(),
		store.NewInMemoryITRequestStore(),
		store.NewInMemoryTaskStore(),
		store.NewInMemoryPolicyStore(),
		store.NewInMemoryMeetingStore(),
		auditor, stubGateway{}, dispatcher, logger,
	)

	s.router = chi.NewRouter()
	handler.New(engine, dispatcher, logger).Register(s.router)
}

func (s *CandidateHandlerSuite) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *CandidateHandlerSuite) createCandidate() models.Candidate {
	rec := s.do(http.MethodPost, "/candidates",
		`{"full_name":"Asha Rao","email":"asha@example.com","phone":"+91-9000000001","position":"Backend Engineer"}`)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var c models.Candidate
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &c))
	return c
}

func (s *CandidateHandlerSuite) TestCreateCandidate() {
	c := s.createCandidate()
	s.Equal(models.StatusITProvisioning, c.Status)
	s.Equal("asha@example.com", c.Email)
}

func (s *CandidateHandlerSuite) TestCreateCandidateValidation() {
	rec := s.do(http.MethodPost, "/candidates", `{"full_name":"Asha Rao"}`)
	s.Equal(http.StatusBadRequest, rec.Code)

	var body map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Equal("validation", body["error"])
}

func (s *CandidateHandlerSuite) TestCreateCandidateDuplicate() {
	s.createCandidate()
	rec := s.do(http.MethodPost, "/candidates",
		`{"full_name":"Asha Rao","email":"asha@example.com","phone":"+91-9000000002","position":"Backend Engineer"}`)
	s.Equal(http.StatusConflict, rec.Code)

	var body map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Equal("conflict", body["error"])
	s.Equal("email", body["field"])
}

func (s *CandidateHandlerSuite) TestGetCandidate() {
	c := s.createCandidate()

	rec := s.do(http.MethodGet, "/candidates/"+c.ID.String(), "")
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/candidates/00000000-0000-0000-0000-000000000009", "")
	s.Equal(http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/candidates/not-a-uuid", "")
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *CandidateHandlerSuite) TestOfferLifecycle() {
	c := s.createCandidate()
	base := "/candidates/" + c.ID.String()

	// Offer before provisioning fails the precondition.
	rec := s.do(http.MethodPost, base+"/offer", "")
	s.Equal(http.StatusPreconditionFailed, rec.Code)

	rec = s.do(http.MethodPost, base+"/provision", `{"login":"asha.rao","secret":"s3cret"}`)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, base+"/offer", "")
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var offered models.Candidate
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &offered))
	s.Equal(models.StatusOfferSent, offered.Status)
	s.Require().NotNil(offered.Proof)
	s.Equal("stub-sig", offered.Proof.Signature)

	// Second issuance breaks the single-offer invariant.
	rec = s.do(http.MethodPost, base+"/offer", "")
	s.Equal(http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPost, base+"/offer/accept", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	var accepted models.Candidate
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &accepted))
	s.Equal(models.StatusDocumentsPending, accepted.Status)

	rec = s.do(http.MethodPost, base+"/policies/accept", "")
	s.Require().Equal(http.StatusOK, rec.Code)

	// The portal feed picked up the lifecycle notifications.
	rec = s.do(http.MethodGet, base+"/notifications", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	var notifications []models.Notification
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &notifications))
	s.NotEmpty(notifications)
}

func (s *CandidateHandlerSuite) TestDocumentsEndpoint() {
	c := s.createCandidate()
	base := "/candidates/" + c.ID.String()

	rec := s.do(http.MethodPost, base+"/documents", `{"doc_type":"PAN Card","file_name":"pan.pdf"}`)
	s.Require().Equal(http.StatusCreated, rec.Code)

	rec = s.do(http.MethodPost, base+"/documents", `{"file_name":"pan.pdf"}`)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, base+"/documents", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	var docs []models.Document
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &docs))
	s.Len(docs, 1)
}

func (s *CandidateHandlerSuite) TestVerificationEvents() {
	c := s.createCandidate()

	rec := s.do(http.MethodPost, "/candidates/"+c.ID.String()+"/verification-events", `{"kind":"BACKGROUND_CHECK"}`)
	s.Require().Equal(http.StatusOK, rec.Code)

	var receipt notary.Receipt
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &receipt))
	s.Equal("stub-sig", receipt.Signature)
}

func (s *CandidateHandlerSuite) TestTasksAndPolicies() {
	c := s.createCandidate()
	base := "/candidates/" + c.ID.String()

	rec := s.do(http.MethodPost, base+"/tasks", `{"title":"Collect laptop","priority":"low"}`)
	s.Require().Equal(http.StatusCreated, rec.Code)

	rec = s.do(http.MethodPost, base+"/policies", `{"policy_name":"Code of Conduct","file_name":"coc.pdf"}`)
	s.Require().Equal(http.StatusCreated, rec.Code)
	var policy models.PolicyDocument
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &policy))

	rec = s.do(http.MethodDelete, "/policies/"+policy.ID.String(), "")
	s.Equal(http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, base+"/policies", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	var policies []models.PolicyDocument
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &policies))
	s.Empty(policies)
}

func (s *CandidateHandlerSuite) TestMeetings() {
	c := s.createCandidate()
	base := "/candidates/" + c.ID.String()

	rec := s.do(http.MethodPost, base+"/meetings",
		`{"title":"Day One Orientation","scheduled_at":"2026-09-07T10:00:00Z","duration_mins":45,`+
			`"primary_link":"msteams://meet/day-one","fallback_link":"https://teams.example/meet/day-one"}`)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var meeting models.Meeting
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &meeting))
	s.Equal("msteams://meet/day-one", meeting.PrimaryLink)
	s.Equal("https://teams.example/meet/day-one", meeting.FallbackLink)

	// Without the provider's primary link the booking is rejected.
	rec = s.do(http.MethodPost, base+"/meetings", `{"title":"Check-in","scheduled_at":"2026-09-08T10:00:00Z"}`)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, base+"/meetings", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	var meetings []models.Meeting
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &meetings))
	s.Require().Len(meetings, 1)
	s.Equal(meeting.ID, meetings[0].ID)
}

// The wire format for ids is the canonical UUID string: a client must be able
// to take the id out of a response and paste it into a URL.
func (s *CandidateHandlerSuite) TestIDsSerializeAsUUIDStrings() {
	rec := s.do(http.MethodPost, "/candidates",
		`{"full_name":"Asha Rao","email":"asha@example.com","phone":"+91-9000000001","position":"Backend Engineer"}`)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var body map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	rawID, ok := body["id"].(string)
	s.Require().True(ok, "id must be a JSON string, got %T", body["id"])

	// The string form round-trips through the URL path.
	rec = s.do(http.MethodGet, "/candidates/"+rawID, "")
	s.Equal(http.StatusOK, rec.Code, rec.Body.String())
}

func (s *CandidateHandlerSuite) TestActorAndRequestIDLandInAudit() {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	req := httptest.NewRequest(http.MethodPost, "/candidates", strings.NewReader(
		`{"full_name":"Asha Rao","email":"asha@example.com","phone":"+91-9000000001","position":"Backend Engineer"}`))
	req = testutil.WithActor(req, "hr@example.com")
	req = testutil.WithRequestID(req, "req-9")
	req = testutil.WithFixedTime(req, at)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	entries, err := s.auditStore.ListAll(context.Background())
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal("hr@example.com", entries[0].Actor)
	s.Equal("req-9", entries[0].RequestID)
	s.Equal(at, entries[0].Timestamp)
}

func TestCandidateHandlerSuite(t *testing.T) {
	suite.Run(t, new(CandidateHandlerSuite))
}

func TestMalformedJSONBody(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	auditor := audit.NewService(auditMemory.NewInMemoryStore(), logger)
	dispatcher := notification.NewDispatcher(store.NewInMemoryNotificationStore(), logger)
	engine := workflow.NewService(
		store.NewInMemoryCandidateStore(), store.NewInMemoryDocumentStore(),
		store.NewInMemoryITRequestStore(), store.NewInMemoryTaskStore(),
		store.NewInMemoryPolicyStore(), store.NewInMemoryMeetingStore(),
		auditor, stubGateway{}, dispatcher, logger,
	)
	router := chi.NewRouter()
	handler.New(engine, dispatcher, logger).Register(router)

	req := httptest.NewRequest(http.MethodPost, "/candidates", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}
