//go:build integration

package store_test

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
	"talentgate/internal/candidate/store"
	id "talentgate/pkg/domain"
	"talentgate/pkg/platform/sentinel"
	"talentgate/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg         *containers.PostgresContainer
	candidates *store.PostgresCandidateStore
	documents  *store.PostgresDocumentStore
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.candidates = store.NewPostgresCandidateStore(s.pg.Pool)
	s.documents = store.NewPostgresDocumentStore(s.pg.Pool)
}

func (s *PostgresStoreSuite) SetupTest() {
	require.NoError(s.T(), s.pg.Truncate(context.Background()))
}

func (s *PostgresStoreSuite) newCandidate(email, phone string) *models.Candidate {
	c, err := models.NewCandidate(id.NewCandidateID(), models.Profile{
		FullName: "Asha Rao",
		Email:    email,
		Phone:    phone,
		Position: "Backend Engineer",
	}, time.Now().UTC())
	require.NoError(s.T(), err)
	return c
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	c := s.newCandidate("asha@example.com", "+91-9000000001")
	require.NoError(s.T(), s.candidates.Create(context.Background(), c))

	found, err := s.candidates.FindByID(context.Background(), c.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), c.Email, found.Email)
	assert.Equal(s.T(), models.StatusITProvisioning, found.Status)
	assert.Nil(s.T(), found.Proof)
}

func (s *PostgresStoreSuite) TestFindNotFound() {
	_, err := s.candidates.FindByID(context.Background(), id.NewCandidateID())
	assert.ErrorIs(s.T(), err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestDuplicateEmail() {
	require.NoError(s.T(),
		s.candidates.Create(context.Background(), s.newCandidate("asha@example.com", "+91-9000000001")))

	err := s.candidates.Create(context.Background(), s.newCandidate("asha@example.com", "+91-9000000002"))
	require.Error(s.T(), err)

	var dup *store.DuplicateError
	require.True(s.T(), errors.As(err, &dup))
	assert.Equal(s.T(), "email", dup.Field)
	assert.ErrorIs(s.T(), err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestDuplicatePhone() {
	require.NoError(s.T(),
		s.candidates.Create(context.Background(), s.newCandidate("asha@example.com", "+91-9000000001")))

	err := s.candidates.Create(context.Background(), s.newCandidate("other@example.com", "+91-9000000001"))
	require.Error(s.T(), err)

	var dup *store.DuplicateError
	require.True(s.T(), errors.As(err, &dup))
	assert.Equal(s.T(), "phone", dup.Field)
}

func (s *PostgresStoreSuite) TestExecutePersistsProof() {
	c := s.newCandidate("asha@example.com", "+91-9000000001")
	require.NoError(s.T(), s.candidates.Create(context.Background(), c))

	now := time.Now().UTC()
	updated, err := s.candidates.Execute(context.Background(), c.ID,
		func(cand *models.Candidate) error {
			cand.ApplyITProvisioned("asha.rao", "s3cret", now)
			return cand.CanSendOffer()
		},
		func(cand *models.Candidate) {
			cand.ApplySendOffer(models.Proof{
				Signature:   "sig-1",
				ExplorerURL: "https://explorer.example/tx/sig-1",
				Status:      "BridgeVerified",
			}, now)
		},
	)
	require.NoError(s.T(), err)
	require.NotNil(s.T(), updated.Proof)

	found, err := s.candidates.FindByID(context.Background(), c.ID)
	require.NoError(s.T(), err)
	require.NotNil(s.T(), found.Proof)
	assert.Equal(s.T(), "sig-1", found.Proof.Signature)
	assert.Equal(s.T(), models.StatusOfferSent, found.Status)
}

func (s *PostgresStoreSuite) TestExecuteSerializesWriters() {
	c := s.newCandidate("asha@example.com", "+91-9000000001")
	require.NoError(s.T(), s.candidates.Create(context.Background(), c))

	// SELECT ... FOR UPDATE must let exactly one promotion through.
	const writers = 8
	var wg sync.WaitGroup
	wins := make(chan struct{}, writers)
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.candidates.Execute(context.Background(), c.ID,
				func(cand *models.Candidate) error { return cand.CanPromoteDocsVerified() },
				func(cand *models.Candidate) { cand.ApplyDocsVerified(time.Now().UTC()) },
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

func (s *PostgresStoreSuite) TestDocumentRoundTrip() {
	c := s.newCandidate("asha@example.com", "+91-9000000001")
	require.NoError(s.T(), s.candidates.Create(context.Background(), c))

	doc := &models.Document{
		ID:          id.NewDocumentID(),
		CandidateID: c.ID,
		DocType:     "PAN Card",
		FileName:    "pan.pdf",
		Status:      models.DocumentPending,
		UploadedAt:  time.Now().UTC(),
	}
	require.NoError(s.T(), s.documents.Create(context.Background(), doc))

	doc.ApplyDecision(models.OutcomeRejected, "photo unreadable", time.Now().UTC())
	require.NoError(s.T(), s.documents.Update(context.Background(), doc))

	docs, err := s.documents.ListByCandidate(context.Background(), c.ID)
	require.NoError(s.T(), err)
	require.Len(s.T(), docs, 1)
	assert.Equal(s.T(), models.DocumentRejected, docs[0].Status)
	assert.Equal(s.T(), "photo unreadable", docs[0].RejectionReason)
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration suite in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}
