package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"talentgate/internal/candidate/models"
	id "talentgate/pkg/domain"
	"talentgate/pkg/platform/sentinel"
)

// In-memory stores keep unit tests and local development lightweight. They
// intentionally favor clarity over performance.

// InMemoryCandidateStore indexes candidates by ID with unique email/phone
// lookups, mirroring the database constraints.
type InMemoryCandidateStore struct {
	mu         sync.RWMutex
	candidates map[id.CandidateID]*models.Candidate
	byEmail    map[string]id.CandidateID
	byPhone    map[string]id.CandidateID
}

func NewInMemoryCandidateStore() *InMemoryCandidateStore {
	return &InMemoryCandidateStore{
		candidates: make(map[id.CandidateID]*models.Candidate),
		byEmail:    make(map[string]id.CandidateID),
		byPhone:    make(map[string]id.CandidateID),
	}
}

func (s *InMemoryCandidateStore) Create(_ context.Context, candidate *models.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(candidate.Email)
	if _, taken := s.byEmail[email]; taken {
		return &DuplicateError{Field: "email"}
	}
	if _, taken := s.byPhone[candidate.Phone]; taken {
		return &DuplicateError{Field: "phone"}
	}

	clone := *candidate
	s.candidates[candidate.ID] = &clone
	s.byEmail[email] = candidate.ID
	s.byPhone[candidate.Phone] = candidate.ID
	return nil
}

func (s *InMemoryCandidateStore) FindByID(_ context.Context, candidateID id.CandidateID) (*models.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	candidate, ok := s.candidates[candidateID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *candidate
	return &clone, nil
}

func (s *InMemoryCandidateStore) List(_ context.Context) ([]*models.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Candidate, 0, len(s.candidates))
	for _, candidate := range s.candidates {
		clone := *candidate
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// Execute holds the store mutex across validate and apply so concurrent
// writers serialize on the same record. The postgres implementation gives the
// equivalent guarantee with SELECT ... FOR UPDATE.
func (s *InMemoryCandidateStore) Execute(_ context.Context, candidateID id.CandidateID,
	validate func(*models.Candidate) error,
	apply func(*models.Candidate)) (*models.Candidate, error) {

	s.mu.Lock()
	defer s.mu.Unlock()

	candidate, ok := s.candidates[candidateID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(candidate); err != nil {
		return nil, err
	}
	apply(candidate)
	clone := *candidate
	return &clone, nil
}

// InMemoryDocumentStore keeps documents keyed by ID with a per-candidate
// index.
type InMemoryDocumentStore struct {
	mu          sync.RWMutex
	documents   map[id.DocumentID]*models.Document
	byCandidate map[id.CandidateID][]id.DocumentID
}

func NewInMemoryDocumentStore() *InMemoryDocumentStore {
	return &InMemoryDocumentStore{
		documents:   make(map[id.DocumentID]*models.Document),
		byCandidate: make(map[id.CandidateID][]id.DocumentID),
	}
}

func (s *InMemoryDocumentStore) Create(_ context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *doc
	s.documents[doc.ID] = &clone
	s.byCandidate[doc.CandidateID] = append(s.byCandidate[doc.CandidateID], doc.ID)
	return nil
}

func (s *InMemoryDocumentStore) FindByID(_ context.Context, docID id.DocumentID) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[docID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *doc
	return &clone, nil
}

func (s *InMemoryDocumentStore) ListByCandidate(_ context.Context, candidateID id.CandidateID) ([]*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byCandidate[candidateID]
	out := make([]*models.Document, 0, len(ids))
	for _, docID := range ids {
		clone := *s.documents[docID]
		out = append(out, &clone)
	}
	return out, nil
}

func (s *InMemoryDocumentStore) Update(_ context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[doc.ID]; !ok {
		return sentinel.ErrNotFound
	}
	clone := *doc
	s.documents[doc.ID] = &clone
	return nil
}

// InMemoryITRequestStore keeps provisioning tickets per candidate.
type InMemoryITRequestStore struct {
	mu       sync.RWMutex
	requests map[id.CandidateID][]*models.ITRequest
}

func NewInMemoryITRequestStore() *InMemoryITRequestStore {
	return &InMemoryITRequestStore{requests: make(map[id.CandidateID][]*models.ITRequest)}
}

func (s *InMemoryITRequestStore) Create(_ context.Context, req *models.ITRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *req
	s.requests[req.CandidateID] = append(s.requests[req.CandidateID], &clone)
	return nil
}

func (s *InMemoryITRequestStore) ListByCandidate(_ context.Context, candidateID id.CandidateID) ([]*models.ITRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reqs := s.requests[candidateID]
	out := make([]*models.ITRequest, 0, len(reqs))
	for _, req := range reqs {
		clone := *req
		out = append(out, &clone)
	}
	return out, nil
}

func (s *InMemoryITRequestStore) CompletePending(_ context.Context, candidateID id.CandidateID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, req := range s.requests[candidateID] {
		if req.Status == models.ITRequestPending {
			req.Status = models.ITRequestCompleted
		}
	}
	return nil
}

// InMemoryTaskStore keeps the informational task channel.
type InMemoryTaskStore struct {
	mu    sync.RWMutex
	tasks map[id.CandidateID][]*models.Task
}

func NewInMemoryTaskStore() *InMemoryTaskStore {
	return &InMemoryTaskStore{tasks: make(map[id.CandidateID][]*models.Task)}
}

func (s *InMemoryTaskStore) Create(_ context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *task
	s.tasks[task.CandidateID] = append(s.tasks[task.CandidateID], &clone)
	return nil
}

func (s *InMemoryTaskStore) ListByCandidate(_ context.Context, candidateID id.CandidateID) ([]*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tasks := s.tasks[candidateID]
	out := make([]*models.Task, 0, len(tasks))
	for _, task := range tasks {
		clone := *task
		out = append(out, &clone)
	}
	return out, nil
}

// InMemoryPolicyStore soft-deletes via the Active flag like the database
// schema does.
type InMemoryPolicyStore struct {
	mu       sync.RWMutex
	policies map[id.PolicyID]*models.PolicyDocument
}

func NewInMemoryPolicyStore() *InMemoryPolicyStore {
	return &InMemoryPolicyStore{policies: make(map[id.PolicyID]*models.PolicyDocument)}
}

func (s *InMemoryPolicyStore) Create(_ context.Context, policy *models.PolicyDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *policy
	s.policies[policy.ID] = &clone
	return nil
}

func (s *InMemoryPolicyStore) ListActiveByCandidate(_ context.Context, candidateID id.CandidateID) ([]*models.PolicyDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.PolicyDocument
	for _, policy := range s.policies {
		if policy.CandidateID == candidateID && policy.Active {
			clone := *policy
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryPolicyStore) Deactivate(_ context.Context, policyID id.PolicyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	policy, ok := s.policies[policyID]
	if !ok {
		return sentinel.ErrNotFound
	}
	policy.Active = false
	return nil
}

// InMemoryMeetingStore keeps orientation meetings per candidate.
type InMemoryMeetingStore struct {
	mu       sync.RWMutex
	meetings map[id.CandidateID][]*models.Meeting
}

func NewInMemoryMeetingStore() *InMemoryMeetingStore {
	return &InMemoryMeetingStore{meetings: make(map[id.CandidateID][]*models.Meeting)}
}

func (s *InMemoryMeetingStore) Create(_ context.Context, meeting *models.Meeting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *meeting
	s.meetings[meeting.CandidateID] = append(s.meetings[meeting.CandidateID], &clone)
	return nil
}

func (s *InMemoryMeetingStore) ListByCandidate(_ context.Context, candidateID id.CandidateID) ([]*models.Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	meetings := s.meetings[candidateID]
	out := make([]*models.Meeting, 0, len(meetings))
	for _, meeting := range meetings {
		clone := *meeting
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}

// InMemoryNotificationStore keeps candidate notifications in arrival order.
type InMemoryNotificationStore struct {
	mu            sync.RWMutex
	notifications map[id.CandidateID][]*models.Notification
}

func NewInMemoryNotificationStore() *InMemoryNotificationStore {
	return &InMemoryNotificationStore{notifications: make(map[id.CandidateID][]*models.Notification)}
}

func (s *InMemoryNotificationStore) Create(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *n
	s.notifications[n.CandidateID] = append(s.notifications[n.CandidateID], &clone)
	return nil
}

func (s *InMemoryNotificationStore) ListByCandidate(_ context.Context, candidateID id.CandidateID) ([]*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ns := s.notifications[candidateID]
	out := make([]*models.Notification, 0, len(ns))
	for _, n := range ns {
		clone := *n
		out = append(out, &clone)
	}
	return out, nil
}
