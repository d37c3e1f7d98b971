package workflow

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"talentgate/internal/audit"
	auditMemory "talentgate/internal/audit/store/memory"
	"talentgate/internal/candidate/models"
	"talentgate/internal/candidate/store"
	"talentgate/internal/notary"
	"talentgate/internal/workflow/mocks"
	id "talentgate/pkg/domain"
	dErrors "talentgate/pkg/domain-errors"
)

type WorkflowServiceSuite struct {
	suite.Suite

	ctrl       *gomock.Controller
	candidates *store.InMemoryCandidateStore
	documents  *store.InMemoryDocumentStore
	itRequests *store.InMemoryITRequestStore
	auditStore *auditMemory.InMemoryStore
	gateway    *mocks.MockGateway
	notifier   *mocks.MockNotifier
	service    *Service
}

func (s *WorkflowServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.candidates = store.NewInMemoryCandidateStore()
	s.documents = store.NewInMemoryDocumentStore()
	s.itRequests = store.NewInMemoryITRequestStore()
	s.auditStore = auditMemory.NewInMemoryStore()
	s.gateway = mocks.NewMockGateway(s.ctrl)
	s.notifier = mocks.NewMockNotifier(s.ctrl)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	auditor := audit.NewService(s.auditStore, logger)
	s.service = NewService(
		s.candidates, s.documents, s.itRequests,
		store.NewInMemoryTaskStore(), store.NewInMemoryPolicyStore(),
		store.NewInMemoryMeetingStore(),
		auditor, s.gateway, s.notifier, logger,
	)
}

func (s *WorkflowServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *WorkflowServiceSuite) profile() models.Profile {
	return models.Profile{
		FullName: "Asha Rao",
		Email:    "asha@example.com",
		Phone:    "+91-9000000001",
		Position: "Backend Engineer",
	}
}

func (s *WorkflowServiceSuite) auditActions(targetEntity, targetID string) []audit.Action {
	entries, err := s.auditStore.ListByTarget(context.Background(), targetEntity, targetID)
	s.Require().NoError(err)
	actions := make([]audit.Action, 0, len(entries))
	for _, e := range entries {
		actions = append(actions, e.Action)
	}
	return actions
}

func (s *WorkflowServiceSuite) TestCreateCandidate() {
	candidate, err := s.service.CreateCandidate(context.Background(), s.profile())
	s.Require().NoError(err)

	s.Equal(models.StatusITProvisioning, candidate.Status)
	s.Equal(models.ITPending, candidate.ITStatus)

	// Default provisioning ticket raised as a side effect.
	reqs, err := s.itRequests.ListByCandidate(context.Background(), candidate.ID)
	s.Require().NoError(err)
	s.Require().Len(reqs, 1)
	s.Equal(models.ITRequestPending, reqs[0].Status)

	s.Equal([]audit.Action{audit.ActionCreateCandidate},
		s.auditActions("candidates", candidate.ID.String()))
}

func (s *WorkflowServiceSuite) TestCreateCandidateDuplicateEmail() {
	_, err := s.service.CreateCandidate(context.Background(), s.profile())
	s.Require().NoError(err)

	dup := s.profile()
	dup.Phone = "+91-9000000002"
	_, err = s.service.CreateCandidate(context.Background(), dup)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.Equal("email", dErrors.Attr(err, "field"))

	// The rejected duplicate created nothing.
	all, listErr := s.candidates.List(context.Background())
	s.Require().NoError(listErr)
	s.Len(all, 1)
	entries, listErr := s.auditStore.ListAll(context.Background())
	s.Require().NoError(listErr)
	s.Len(entries, 1)
}

func (s *WorkflowServiceSuite) TestSendOfferPreconditionNotMet() {
	candidate, err := s.service.CreateCandidate(context.Background(), s.profile())
	s.Require().NoError(err)

	// No gateway expectation: a failed precondition must never notarize.
	_, err = s.service.SendOffer(context.Background(), candidate.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))

	unchanged, err := s.candidates.FindByID(context.Background(), candidate.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusITProvisioning, unchanged.Status)
	s.Equal([]audit.Action{audit.ActionCreateCandidate},
		s.auditActions("candidates", candidate.ID.String()))
}

func (s *WorkflowServiceSuite) TestSendOfferSuccess() {
	s.notifier.EXPECT().Notify(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()

	candidate, err := s.service.CreateCandidate(context.Background(), s.profile())
	s.Require().NoError(err)
	_, err = s.service.ProvisionIT(context.Background(), candidate.ID, "asha.rao", "s3cret")
	s.Require().NoError(err)

	s.gateway.EXPECT().
		Notarize(gomock.Any(), notary.Event{Name: "Asha Rao", Email: "asha@example.com", Action: "OFFER_ISSUED"}).
		Return(&notary.Receipt{
			Signature:   "sig-1",
			ExplorerURL: "https://explorer.example/tx/sig-1",
			Status:      notary.StatusBridgeVerified,
		}, nil)

	updated, err := s.service.SendOffer(context.Background(), candidate.ID)
	s.Require().NoError(err)

	s.Equal(models.StatusOfferSent, updated.Status)
	s.Equal(models.ProgressOfferSent, updated.Progress)
	s.Require().NotNil(updated.Proof)
	s.Equal("sig-1", updated.Proof.Signature)
	s.Equal(string(notary.StatusBridgeVerified), updated.Proof.Status)

	s.Equal([]audit.Action{
		audit.ActionCreateCandidate,
		audit.ActionProvisionIT,
		audit.ActionSendOffer,
	}, s.auditActions("candidates", candidate.ID.String()))
}

func (s *WorkflowServiceSuite) TestSendOfferGatewayFailureLeavesStateUntouched() {
	s.notifier.EXPECT().Notify(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()

	candidate, err := s.service.CreateCandidate(context.Background(), s.profile())
	s.Require().NoError(err)
	_, err = s.service.ProvisionIT(context.Background(), candidate.ID, "asha.rao", "s3cret")
	s.Require().NoError(err)

	s.gateway.EXPECT().
		Notarize(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeGatewayUnavailable, "both paths exhausted"))

	_, err = s.service.SendOffer(context.Background(), candidate.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeGatewayUnavailable))

	unchanged, err := s.candidates.FindByID(context.Background(), candidate.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusITCompleted, unchanged.Status)
	s.Nil(unchanged.Proof)
	s.Equal([]audit.Action{
		audit.ActionCreateCandidate,
		audit.ActionProvisionIT,
	}, s.auditActions("candidates", candidate.ID.String()))
}

func (s *WorkflowServiceSuite) TestSendOfferNotificationCarriesCredentials() {
	candidate, err := s.service.CreateCandidate(context.Background(), s.profile())
	s.Require().NoError(err)

	s.notifier.EXPECT().Notify(gomock.Any(), candidate.ID, "IT Provisioning Complete", gomock.Any(), "info")
	_, err = s.service.ProvisionIT(context.Background(), candidate.ID, "asha.rao", "s3cret")
	s.Require().NoError(err)

	s.gateway.EXPECT().Notarize(gomock.Any(), gomock.Any()).
		Return(&notary.Receipt{Signature: "sig-1", Status: notary.StatusLocalVerified}, nil)

	var message string
	s.notifier.EXPECT().
		Notify(gomock.Any(), candidate.ID, "Offer Letter Sent", gomock.Any(), "info").
		Do(func(_ context.Context, _ id.CandidateID, _, msg, _ string) {
			message = msg
		})

	_, err = s.service.SendOffer(context.Background(), candidate.ID)
	s.Require().NoError(err)

	// Observed source-system behavior: the portal credentials ride along in
	// clear text.
	s.Contains(message, "asha.rao")
	s.Contains(message, "s3cret")
}

func (s *WorkflowServiceSuite) TestAcceptPoliciesIsIdempotent() {
	candidate, err := s.service.CreateCandidate(context.Background(), s.profile())
	s.Require().NoError(err)

	first, err := s.service.AcceptPolicies(context.Background(), candidate.ID)
	s.Require().NoError(err)
	s.True(first.PolicyAccepted)
	s.Equal(models.ProgressPolicyAccepted, first.Progress)

	second, err := s.service.AcceptPolicies(context.Background(), candidate.ID)
	s.Require().NoError(err)
	s.True(second.PolicyAccepted)

	// The no-op repeat wrote no extra audit entry.
	s.Equal([]audit.Action{
		audit.ActionCreateCandidate,
		audit.ActionAcceptPolicies,
	}, s.auditActions("candidates", candidate.ID.String()))
}

func (s *WorkflowServiceSuite) TestRecordVerificationEventAuditsFailures() {
	candidate, err := s.service.CreateCandidate(context.Background(), s.profile())
	s.Require().NoError(err)

	s.gateway.EXPECT().Notarize(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeInsufficientFunds, "rent"))

	_, err = s.service.RecordVerificationEvent(context.Background(), candidate.ID, "BACKGROUND_CHECK")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInsufficientFunds))

	// The failed attempt still leaves an audit entry carrying the reason.
	actions := s.auditActions("candidates", candidate.ID.String())
	s.Equal([]audit.Action{
		audit.ActionCreateCandidate,
		audit.ActionRecordVerification,
	}, actions)
}

func (s *WorkflowServiceSuite) TestRecordVerificationEventSuccess() {
	candidate, err := s.service.CreateCandidate(context.Background(), s.profile())
	s.Require().NoError(err)

	s.gateway.EXPECT().Notarize(gomock.Any(),
		notary.Event{Name: "Asha Rao", Email: "asha@example.com", Action: "REFERENCE_CHECK"}).
		Return(&notary.Receipt{Signature: "sig-2", Status: notary.StatusBridgeVerified}, nil)

	receipt, err := s.service.RecordVerificationEvent(context.Background(), candidate.ID, "REFERENCE_CHECK")
	s.Require().NoError(err)
	s.Equal("sig-2", receipt.Signature)
}

func (s *WorkflowServiceSuite) TestAuditCountMatchesMutationCount() {
	s.notifier.EXPECT().Notify(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	s.gateway.EXPECT().Notarize(gomock.Any(), gomock.Any()).
		Return(&notary.Receipt{Signature: "sig-1", Status: notary.StatusBridgeVerified}, nil)

	ctx := context.Background()
	candidate, err := s.service.CreateCandidate(ctx, s.profile())
	s.Require().NoError(err)
	_, err = s.service.ProvisionIT(ctx, candidate.ID, "asha.rao", "s3cret")
	s.Require().NoError(err)
	_, err = s.service.SendOffer(ctx, candidate.ID)
	s.Require().NoError(err)
	_, err = s.service.AcceptOffer(ctx, candidate.ID)
	s.Require().NoError(err)
	_, err = s.service.AcceptPolicies(ctx, candidate.ID)
	s.Require().NoError(err)

	// Five mutating operations, five audit entries, in order.
	s.Equal([]audit.Action{
		audit.ActionCreateCandidate,
		audit.ActionProvisionIT,
		audit.ActionSendOffer,
		audit.ActionAcceptOffer,
		audit.ActionAcceptPolicies,
	}, s.auditActions("candidates", candidate.ID.String()))
}

func (s *WorkflowServiceSuite) TestUploadDocument() {
	candidate, err := s.service.CreateCandidate(context.Background(), s.profile())
	s.Require().NoError(err)

	doc, err := s.service.UploadDocument(context.Background(), candidate.ID, "PAN Card", "pan.pdf")
	s.Require().NoError(err)
	s.Equal(models.DocumentPending, doc.Status)

	_, err = s.service.UploadDocument(context.Background(), id.NewCandidateID(), "PAN Card", "pan.pdf")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *WorkflowServiceSuite) TestScheduleMeeting() {
	candidate, err := s.service.CreateCandidate(context.Background(), s.profile())
	s.Require().NoError(err)

	at := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)
	s.notifier.EXPECT().Notify(gomock.Any(), candidate.ID, "Orientation Scheduled", gomock.Any(), "info")

	meeting, err := s.service.ScheduleMeeting(context.Background(), candidate.ID, MeetingRequest{
		Title:        "Day One Orientation",
		ScheduledAt:  at,
		DurationMins: 45,
		PrimaryLink:  "msteams://meet/day-one",
		FallbackLink: "https://teams.example/meet/day-one",
	})
	s.Require().NoError(err)
	s.Equal(at, meeting.ScheduledAt)
	s.Equal("msteams://meet/day-one", meeting.PrimaryLink)
	s.Equal("https://teams.example/meet/day-one", meeting.FallbackLink)

	listed, err := s.service.ListMeetings(context.Background(), candidate.ID)
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.Equal(meeting.ID, listed[0].ID)

	s.Equal([]audit.Action{audit.ActionScheduleMeeting},
		s.auditActions("meetings", meeting.ID.String()))
}

func (s *WorkflowServiceSuite) TestScheduleMeetingValidation() {
	candidate, err := s.service.CreateCandidate(context.Background(), s.profile())
	s.Require().NoError(err)

	// No primary link: the external provider must have issued one.
	_, err = s.service.ScheduleMeeting(context.Background(), candidate.ID, MeetingRequest{
		Title:       "Day One Orientation",
		ScheduledAt: time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC),
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	listed, err := s.service.ListMeetings(context.Background(), candidate.ID)
	s.Require().NoError(err)
	s.Empty(listed)
}

func TestWorkflowServiceSuite(t *testing.T) {
	suite.Run(t, new(WorkflowServiceSuite))
}

func TestInMemoryLocker(t *testing.T) {
	locker := NewInMemoryLocker()

	release, err := locker.Acquire(context.Background(), "offer:1", 0)
	if err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}

	if _, err := locker.Acquire(context.Background(), "offer:1", 0); !dErrors.HasCode(err, dErrors.CodeConflict) {
		t.Fatalf("expected conflict while held, got %v", err)
	}

	release()
	release2, err := locker.Acquire(context.Background(), "offer:1", 0)
	if err != nil {
		t.Fatalf("reacquire after release failed: %v", err)
	}
	release2()
}
