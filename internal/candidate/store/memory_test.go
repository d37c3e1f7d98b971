package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"talentgate/internal/candidate/models"
	id "talentgate/pkg/domain"
	"talentgate/pkg/platform/sentinel"
)

type InMemoryCandidateStoreSuite struct {
	suite.Suite
	store *InMemoryCandidateStore
}

func (s *InMemoryCandidateStoreSuite) SetupTest() {
	s.store = NewInMemoryCandidateStore()
}

func (s *InMemoryCandidateStoreSuite) newCandidate(email, phone string) *models.Candidate {
	c, err := models.NewCandidate(id.NewCandidateID(), models.Profile{
		FullName: "Asha Rao",
		Email:    email,
		Phone:    phone,
		Position: "Backend Engineer",
	}, time.Now())
	require.NoError(s.T(), err)
	return c
}

func (s *InMemoryCandidateStoreSuite) TestCreateAndFind() {
	c := s.newCandidate("asha@example.com", "+91-9000000001")
	require.NoError(s.T(), s.store.Create(context.Background(), c))

	found, err := s.store.FindByID(context.Background(), c.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), c.Email, found.Email)
}

func (s *InMemoryCandidateStoreSuite) TestFindNotFound() {
	_, err := s.store.FindByID(context.Background(), id.NewCandidateID())
	assert.ErrorIs(s.T(), err, sentinel.ErrNotFound)
}

func (s *InMemoryCandidateStoreSuite) TestDuplicateEmail() {
	first := s.newCandidate("asha@example.com", "+91-9000000001")
	require.NoError(s.T(), s.store.Create(context.Background(), first))

	dup := s.newCandidate("Asha@Example.com", "+91-9000000002")
	err := s.store.Create(context.Background(), dup)
	require.Error(s.T(), err)

	var dupErr *DuplicateError
	require.True(s.T(), errors.As(err, &dupErr))
	assert.Equal(s.T(), "email", dupErr.Field)
	assert.ErrorIs(s.T(), err, sentinel.ErrConflict)

	// The duplicate left nothing behind.
	all, err := s.store.List(context.Background())
	require.NoError(s.T(), err)
	assert.Len(s.T(), all, 1)
}

func (s *InMemoryCandidateStoreSuite) TestDuplicatePhone() {
	first := s.newCandidate("asha@example.com", "+91-9000000001")
	require.NoError(s.T(), s.store.Create(context.Background(), first))

	dup := s.newCandidate("other@example.com", "+91-9000000001")
	err := s.store.Create(context.Background(), dup)

	var dupErr *DuplicateError
	require.True(s.T(), errors.As(err, &dupErr))
	assert.Equal(s.T(), "phone", dupErr.Field)
}

func (s *InMemoryCandidateStoreSuite) TestExecuteValidateFailureLeavesRecordUntouched() {
	c := s.newCandidate("asha@example.com", "+91-9000000001")
	require.NoError(s.T(), s.store.Create(context.Background(), c))

	boom := errors.New("validation failed")
	_, err := s.store.Execute(context.Background(), c.ID,
		func(*models.Candidate) error { return boom },
		func(cand *models.Candidate) { cand.Progress = 99 },
	)
	assert.ErrorIs(s.T(), err, boom)

	found, err := s.store.FindByID(context.Background(), c.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 0, found.Progress)
}

func (s *InMemoryCandidateStoreSuite) TestExecuteIsAtomicUnderConcurrency() {
	c := s.newCandidate("asha@example.com", "+91-9000000001")
	require.NoError(s.T(), s.store.Create(context.Background(), c))

	// Many writers race the same compare-and-set guard; exactly one may win.
	const writers = 16
	var wg sync.WaitGroup
	wins := make(chan struct{}, writers)
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Execute(context.Background(), c.ID,
				func(cand *models.Candidate) error {
					return cand.CanPromoteDocsVerified()
				},
				func(cand *models.Candidate) {
					cand.ApplyDocsVerified(time.Now())
				},
			)
			if err == nil {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	count := 0
	for range wins {
		count++
	}
	assert.Equal(s.T(), 1, count)
}

func (s *InMemoryCandidateStoreSuite) TestCloneOnRead() {
	c := s.newCandidate("asha@example.com", "+91-9000000001")
	require.NoError(s.T(), s.store.Create(context.Background(), c))

	found, err := s.store.FindByID(context.Background(), c.ID)
	require.NoError(s.T(), err)
	found.Progress = 42

	again, err := s.store.FindByID(context.Background(), c.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 0, again.Progress)
}

func TestInMemoryCandidateStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryCandidateStoreSuite))
}

type InMemoryDocumentStoreSuite struct {
	suite.Suite
	store *InMemoryDocumentStore
}

func (s *InMemoryDocumentStoreSuite) SetupTest() {
	s.store = NewInMemoryDocumentStore()
}

func (s *InMemoryDocumentStoreSuite) TestCreateListUpdate() {
	candidateID := id.NewCandidateID()
	doc := &models.Document{
		ID:          id.NewDocumentID(),
		CandidateID: candidateID,
		DocType:     "PAN Card",
		Status:      models.DocumentPending,
		UploadedAt:  time.Now(),
	}
	require.NoError(s.T(), s.store.Create(context.Background(), doc))

	doc.ApplyDecision(models.OutcomeVerified, "", time.Now())
	require.NoError(s.T(), s.store.Update(context.Background(), doc))

	docs, err := s.store.ListByCandidate(context.Background(), candidateID)
	require.NoError(s.T(), err)
	require.Len(s.T(), docs, 1)
	assert.Equal(s.T(), models.DocumentVerified, docs[0].Status)
}

func (s *InMemoryDocumentStoreSuite) TestUpdateUnknownDocument() {
	doc := &models.Document{ID: id.NewDocumentID(), CandidateID: id.NewCandidateID()}
	err := s.store.Update(context.Background(), doc)
	assert.ErrorIs(s.T(), err, sentinel.ErrNotFound)
}

func TestInMemoryDocumentStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryDocumentStoreSuite))
}

func TestInMemoryITRequestStoreCompletePending(t *testing.T) {
	store := NewInMemoryITRequestStore()
	candidateID := id.NewCandidateID()

	req := &models.ITRequest{
		ID:          id.NewITRequestID(),
		CandidateID: candidateID,
		RequestType: "Software, Access & Hardware",
		Status:      models.ITRequestPending,
		CreatedAt:   time.Now(),
	}
	require.NoError(t, store.Create(context.Background(), req))
	require.NoError(t, store.CompletePending(context.Background(), candidateID))

	reqs, err := store.ListByCandidate(context.Background(), candidateID)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, models.ITRequestCompleted, reqs[0].Status)
}

func TestInMemoryPolicyStoreSoftDelete(t *testing.T) {
	store := NewInMemoryPolicyStore()
	candidateID := id.NewCandidateID()

	policy := &models.PolicyDocument{
		ID:          id.NewPolicyID(),
		CandidateID: candidateID,
		PolicyName:  "Code of Conduct",
		Active:      true,
		CreatedAt:   time.Now(),
	}
	require.NoError(t, store.Create(context.Background(), policy))
	require.NoError(t, store.Deactivate(context.Background(), policy.ID))

	active, err := store.ListActiveByCandidate(context.Background(), candidateID)
	require.NoError(t, err)
	assert.Empty(t, active)
}
