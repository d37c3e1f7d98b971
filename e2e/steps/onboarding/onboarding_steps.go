// Package onboarding holds step definitions for the candidate lifecycle:
// creation, provisioning, offer issuance and acceptance, and document
// verification.
package onboarding

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/cucumber/godog"
)

// randomDigits keeps unique-constrained fields (phone) from colliding across
// scenarios against a shared database.
func randomDigits(n int) string {
	digits := make([]byte, n)
	for i := range digits {
		digits[i] = byte('0' + rand.Intn(10))
	}
	return string(digits)
}

// TestContext is the slice of the main test context these steps need.
type TestContext interface {
	POST(path string, body any) error
	GET(path string) error
	Status() int
	ResponseField(field string) (any, error)
	ResponseList() ([]map[string]any, error)
	CandidateID() string
	SetCandidateID(id string)
	AddDocumentID(id string)
	DocumentIDs() []string
}

// RegisterSteps registers the onboarding step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &onboardingSteps{tc: tc}

	ctx.Step(`^I create a candidate with email "([^"]*)"$`, steps.createCandidate)
	ctx.Step(`^IT provisions the candidate with login "([^"]*)"$`, steps.provisionIT)
	ctx.Step(`^I send the offer letter$`, steps.sendOffer)
	ctx.Step(`^the candidate accepts the offer$`, steps.acceptOffer)
	ctx.Step(`^the candidate accepts the policies$`, steps.acceptPolicies)
	ctx.Step(`^the candidate uploads (\d+) documents$`, steps.uploadDocuments)
	ctx.Step(`^HR verifies every uploaded document$`, steps.verifyAllDocuments)
	ctx.Step(`^HR verifies the remaining documents$`, steps.verifyRemainingDocuments)
	ctx.Step(`^HR rejects the first document with reason "([^"]*)"$`, steps.rejectFirstDocument)
	ctx.Step(`^the candidate status should be "([^"]*)"$`, steps.candidateStatusShouldBe)
	ctx.Step(`^the candidate progress should be (\d+)$`, steps.candidateProgressShouldBe)
	ctx.Step(`^the audit trail for the candidate should have (\d+) entries$`, steps.auditTrailShouldHave)
}

type onboardingSteps struct {
	tc TestContext
}

func (s *onboardingSteps) createCandidate(ctx context.Context, email string) error {
	err := s.tc.POST("/api/v1/candidates", map[string]any{
		"full_name": "E2E Candidate",
		"email":     email,
		"phone":     "+91-" + randomDigits(10),
		"position":  "Backend Engineer",
	})
	if err != nil {
		return err
	}
	if s.tc.Status() != 201 {
		return fmt.Errorf("candidate not created: status %d", s.tc.Status())
	}
	id, err := s.tc.ResponseField("id")
	if err != nil {
		return err
	}
	s.tc.SetCandidateID(fmt.Sprintf("%v", id))
	return nil
}

func (s *onboardingSteps) provisionIT(ctx context.Context, login string) error {
	return s.tc.POST(s.candidatePath("/provision"), map[string]any{
		"login":  login,
		"secret": "e2e-secret",
	})
}

func (s *onboardingSteps) sendOffer(ctx context.Context) error {
	return s.tc.POST(s.candidatePath("/offer"), nil)
}

func (s *onboardingSteps) acceptOffer(ctx context.Context) error {
	return s.tc.POST(s.candidatePath("/offer/accept"), nil)
}

func (s *onboardingSteps) acceptPolicies(ctx context.Context) error {
	return s.tc.POST(s.candidatePath("/policies/accept"), nil)
}

func (s *onboardingSteps) uploadDocuments(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		err := s.tc.POST(s.candidatePath("/documents"), map[string]any{
			"doc_type":  fmt.Sprintf("Document %d", i+1),
			"file_name": fmt.Sprintf("doc-%d.pdf", i+1),
		})
		if err != nil {
			return err
		}
		if s.tc.Status() != 201 {
			return fmt.Errorf("document %d not uploaded: status %d", i+1, s.tc.Status())
		}
		id, err := s.tc.ResponseField("id")
		if err != nil {
			return err
		}
		s.tc.AddDocumentID(fmt.Sprintf("%v", id))
	}
	return nil
}

func (s *onboardingSteps) verifyAllDocuments(ctx context.Context) error {
	for _, docID := range s.tc.DocumentIDs() {
		err := s.tc.POST("/api/v1/documents/"+docID+"/decision", map[string]any{
			"outcome": "Verified",
		})
		if err != nil {
			return err
		}
		if s.tc.Status() != 200 {
			return fmt.Errorf("document %s not verified: status %d", docID, s.tc.Status())
		}
	}
	return nil
}

func (s *onboardingSteps) verifyRemainingDocuments(ctx context.Context) error {
	docs := s.tc.DocumentIDs()
	if len(docs) < 2 {
		return fmt.Errorf("need at least two documents, have %d", len(docs))
	}
	for _, docID := range docs[1:] {
		err := s.tc.POST("/api/v1/documents/"+docID+"/decision", map[string]any{
			"outcome": "Verified",
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *onboardingSteps) rejectFirstDocument(ctx context.Context, reason string) error {
	docs := s.tc.DocumentIDs()
	if len(docs) == 0 {
		return fmt.Errorf("no documents uploaded")
	}
	return s.tc.POST("/api/v1/documents/"+docs[0]+"/decision", map[string]any{
		"outcome": "Rejected",
		"reason":  reason,
	})
}

func (s *onboardingSteps) candidateStatusShouldBe(ctx context.Context, expected string) error {
	if err := s.tc.GET(s.candidatePath("")); err != nil {
		return err
	}
	status, err := s.tc.ResponseField("status")
	if err != nil {
		return err
	}
	if status != expected {
		return fmt.Errorf("expected candidate status %q, got %v", expected, status)
	}
	return nil
}

func (s *onboardingSteps) candidateProgressShouldBe(ctx context.Context, expected int) error {
	if err := s.tc.GET(s.candidatePath("")); err != nil {
		return err
	}
	progress, err := s.tc.ResponseField("progress")
	if err != nil {
		return err
	}
	if int(progress.(float64)) != expected {
		return fmt.Errorf("expected progress %d, got %v", expected, progress)
	}
	return nil
}

func (s *onboardingSteps) auditTrailShouldHave(ctx context.Context, expected int) error {
	if err := s.tc.GET("/api/v1/audit/candidates/" + s.tc.CandidateID()); err != nil {
		return err
	}
	entries, err := s.tc.ResponseList()
	if err != nil {
		return err
	}
	if len(entries) != expected {
		return fmt.Errorf("expected %d audit entries, got %d", expected, len(entries))
	}
	return nil
}

func (s *onboardingSteps) candidatePath(suffix string) string {
	return "/api/v1/candidates/" + s.tc.CandidateID() + suffix
}
