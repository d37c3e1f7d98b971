package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"talentgate/internal/candidate/models"
	id "talentgate/pkg/domain"
	"talentgate/pkg/platform/sentinel"
)

// uniqueViolation is the PostgreSQL error code for unique constraint
// violations (the source system matched on the same code).
const uniqueViolation = "23505"

// PostgresCandidateStore persists candidates in PostgreSQL via a pgx pool.
type PostgresCandidateStore struct {
	pool *pgxpool.Pool
}

func NewPostgresCandidateStore(pool *pgxpool.Pool) *PostgresCandidateStore {
	return &PostgresCandidateStore{pool: pool}
}

const candidateColumns = `id, full_name, email, phone, position, department, employment_type,
	location, ctc, joining_date, assigned_hr, assigned_it, reporting_manager,
	status, progress, it_status, it_login, it_secret, policy_accepted, offer_accepted,
	proof_signature, proof_explorer_url, proof_status, created_at, updated_at`

func (s *PostgresCandidateStore) Create(ctx context.Context, c *models.Candidate) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO candidates (`+candidateColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25)`,
		c.ID.String(), c.FullName, c.Email, c.Phone, c.Position, c.Department, c.EmploymentType,
		c.Location, c.CTC, c.JoiningDate, c.AssignedHR, c.AssignedIT, c.ReportingManager,
		string(c.Status), c.Progress, string(c.ITStatus), c.ITLogin, c.ITSecret,
		c.PolicyAccepted, c.OfferAccepted,
		proofField(c.Proof, func(p *models.Proof) string { return p.Signature }),
		proofField(c.Proof, func(p *models.Proof) string { return p.ExplorerURL }),
		proofField(c.Proof, func(p *models.Proof) string { return p.Status }),
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if field, ok := duplicateField(err); ok {
			return &DuplicateError{Field: field}
		}
		return fmt.Errorf("insert candidate: %w", err)
	}
	return nil
}

func (s *PostgresCandidateStore) FindByID(ctx context.Context, candidateID id.CandidateID) (*models.Candidate, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+candidateColumns+` FROM candidates WHERE id = $1`, candidateID.String())
	return scanCandidate(row)
}

func (s *PostgresCandidateStore) List(ctx context.Context) ([]*models.Candidate, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+candidateColumns+` FROM candidates ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	var out []*models.Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Execute loads the row FOR UPDATE inside a transaction so validate and apply
// run against a stable snapshot; a concurrent writer blocks until commit and
// then re-validates against the updated row.
func (s *PostgresCandidateStore) Execute(ctx context.Context, candidateID id.CandidateID,
	validate func(*models.Candidate) error,
	apply func(*models.Candidate)) (*models.Candidate, error) {

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `SELECT `+candidateColumns+` FROM candidates WHERE id = $1 FOR UPDATE`, candidateID.String())
	candidate, err := scanCandidate(row)
	if err != nil {
		return nil, err
	}
	if err := validate(candidate); err != nil {
		return nil, err
	}
	apply(candidate)

	_, err = tx.Exec(ctx, `
		UPDATE candidates SET
			status = $2, progress = $3, it_status = $4, it_login = $5, it_secret = $6,
			policy_accepted = $7, offer_accepted = $8,
			proof_signature = $9, proof_explorer_url = $10, proof_status = $11,
			updated_at = $12
		WHERE id = $1`,
		candidate.ID.String(), string(candidate.Status), candidate.Progress,
		string(candidate.ITStatus), candidate.ITLogin, candidate.ITSecret,
		candidate.PolicyAccepted, candidate.OfferAccepted,
		proofField(candidate.Proof, func(p *models.Proof) string { return p.Signature }),
		proofField(candidate.Proof, func(p *models.Proof) string { return p.ExplorerURL }),
		proofField(candidate.Proof, func(p *models.Proof) string { return p.Status }),
		candidate.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update candidate: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return candidate, nil
}

func scanCandidate(row pgx.Row) (*models.Candidate, error) {
	var (
		c                      models.Candidate
		rawID, status, itState string
		proofSig, proofURL     *string
		proofStatus            *string
	)
	err := row.Scan(&rawID, &c.FullName, &c.Email, &c.Phone, &c.Position, &c.Department,
		&c.EmploymentType, &c.Location, &c.CTC, &c.JoiningDate, &c.AssignedHR, &c.AssignedIT,
		&c.ReportingManager, &status, &c.Progress, &itState, &c.ITLogin, &c.ITSecret,
		&c.PolicyAccepted, &c.OfferAccepted, &proofSig, &proofURL, &proofStatus,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan candidate: %w", err)
	}
	parsed, err := id.ParseCandidateID(rawID)
	if err != nil {
		return nil, fmt.Errorf("scan candidate id: %w", err)
	}
	c.ID = parsed
	c.Status = models.CandidateStatus(status)
	c.ITStatus = models.ITStatus(itState)
	if proofSig != nil {
		c.Proof = &models.Proof{Signature: *proofSig}
		if proofURL != nil {
			c.Proof.ExplorerURL = *proofURL
		}
		if proofStatus != nil {
			c.Proof.Status = *proofStatus
		}
	}
	return &c, nil
}

func proofField(p *models.Proof, get func(*models.Proof) string) *string {
	if p == nil {
		return nil
	}
	v := get(p)
	return &v
}

func duplicateField(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return "", false
	}
	switch {
	case strings.Contains(pgErr.ConstraintName, "email"):
		return "email", true
	case strings.Contains(pgErr.ConstraintName, "phone"):
		return "phone", true
	default:
		return "record", true
	}
}

// PostgresDocumentStore persists candidate documents.
type PostgresDocumentStore struct {
	pool *pgxpool.Pool
}

func NewPostgresDocumentStore(pool *pgxpool.Pool) *PostgresDocumentStore {
	return &PostgresDocumentStore{pool: pool}
}

func (s *PostgresDocumentStore) Create(ctx context.Context, doc *models.Document) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO candidate_documents (id, candidate_id, doc_type, file_name, status, rejection_reason, uploaded_at, decided_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		doc.ID.String(), doc.CandidateID.String(), doc.DocType, doc.FileName,
		string(doc.Status), nullable(doc.RejectionReason), doc.UploadedAt, doc.DecidedAt)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *PostgresDocumentStore) FindByID(ctx context.Context, docID id.DocumentID) (*models.Document, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, candidate_id, doc_type, file_name, status, rejection_reason, uploaded_at, decided_at
		FROM candidate_documents WHERE id = $1`, docID.String())
	return scanDocument(row)
}

func (s *PostgresDocumentStore) ListByCandidate(ctx context.Context, candidateID id.CandidateID) ([]*models.Document, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, candidate_id, doc_type, file_name, status, rejection_reason, uploaded_at, decided_at
		FROM candidate_documents WHERE candidate_id = $1 ORDER BY uploaded_at`, candidateID.String())
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (s *PostgresDocumentStore) Update(ctx context.Context, doc *models.Document) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE candidate_documents
		SET status = $2, rejection_reason = $3, decided_at = $4
		WHERE id = $1`,
		doc.ID.String(), string(doc.Status), nullable(doc.RejectionReason), doc.DecidedAt)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanDocument(row pgx.Row) (*models.Document, error) {
	var (
		doc            models.Document
		rawID, rawCand string
		status         string
		reason         *string
		decidedAt      *time.Time
	)
	err := row.Scan(&rawID, &rawCand, &doc.DocType, &doc.FileName, &status, &reason, &doc.UploadedAt, &decidedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	docID, err := id.ParseDocumentID(rawID)
	if err != nil {
		return nil, fmt.Errorf("scan document id: %w", err)
	}
	candID, err := id.ParseCandidateID(rawCand)
	if err != nil {
		return nil, fmt.Errorf("scan document candidate id: %w", err)
	}
	doc.ID = docID
	doc.CandidateID = candID
	doc.Status = models.DocumentStatus(status)
	if reason != nil {
		doc.RejectionReason = *reason
	}
	doc.DecidedAt = decidedAt
	return &doc, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// PostgresITRequestStore persists provisioning tickets.
type PostgresITRequestStore struct {
	pool *pgxpool.Pool
}

func NewPostgresITRequestStore(pool *pgxpool.Pool) *PostgresITRequestStore {
	return &PostgresITRequestStore{pool: pool}
}

func (s *PostgresITRequestStore) Create(ctx context.Context, req *models.ITRequest) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO it_requests (id, candidate_id, request_type, items, description, priority, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		req.ID.String(), req.CandidateID.String(), req.RequestType, req.Items,
		req.Description, req.Priority, string(req.Status), req.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert it request: %w", err)
	}
	return nil
}

func (s *PostgresITRequestStore) ListByCandidate(ctx context.Context, candidateID id.CandidateID) ([]*models.ITRequest, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, candidate_id, request_type, items, description, priority, status, created_at
		FROM it_requests WHERE candidate_id = $1 ORDER BY created_at`, candidateID.String())
	if err != nil {
		return nil, fmt.Errorf("list it requests: %w", err)
	}
	defer rows.Close()

	var out []*models.ITRequest
	for rows.Next() {
		var (
			req            models.ITRequest
			rawID, rawCand string
			status         string
		)
		if err := rows.Scan(&rawID, &rawCand, &req.RequestType, &req.Items, &req.Description,
			&req.Priority, &status, &req.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan it request: %w", err)
		}
		reqID, err := id.ParseITRequestID(rawID)
		if err != nil {
			return nil, err
		}
		candID, err := id.ParseCandidateID(rawCand)
		if err != nil {
			return nil, err
		}
		req.ID = reqID
		req.CandidateID = candID
		req.Status = models.ITRequestStatus(status)
		out = append(out, &req)
	}
	return out, rows.Err()
}

func (s *PostgresITRequestStore) CompletePending(ctx context.Context, candidateID id.CandidateID) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE it_requests SET status = $2 WHERE candidate_id = $1 AND status = $3`,
		candidateID.String(), string(models.ITRequestCompleted), string(models.ITRequestPending))
	if err != nil {
		return fmt.Errorf("complete it requests: %w", err)
	}
	return nil
}

// PostgresTaskStore persists the informational task channel.
type PostgresTaskStore struct {
	pool *pgxpool.Pool
}

func NewPostgresTaskStore(pool *pgxpool.Pool) *PostgresTaskStore {
	return &PostgresTaskStore{pool: pool}
}

func (s *PostgresTaskStore) Create(ctx context.Context, task *models.Task) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tasks (id, candidate_id, title, description, priority, due_date, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		task.ID.String(), task.CandidateID.String(), task.Title, task.Description,
		task.Priority, task.DueDate, task.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (s *PostgresTaskStore) ListByCandidate(ctx context.Context, candidateID id.CandidateID) ([]*models.Task, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, candidate_id, title, description, priority, due_date, created_at
		FROM tasks WHERE candidate_id = $1 ORDER BY created_at`, candidateID.String())
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var out []*models.Task
	for rows.Next() {
		var (
			task           models.Task
			rawID, rawCand string
		)
		if err := rows.Scan(&rawID, &rawCand, &task.Title, &task.Description, &task.Priority,
			&task.DueDate, &task.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		taskID, err := id.ParseTaskID(rawID)
		if err != nil {
			return nil, err
		}
		candID, err := id.ParseCandidateID(rawCand)
		if err != nil {
			return nil, err
		}
		task.ID = taskID
		task.CandidateID = candID
		out = append(out, &task)
	}
	return out, rows.Err()
}

// PostgresPolicyStore persists policy documents with soft delete.
type PostgresPolicyStore struct {
	pool *pgxpool.Pool
}

func NewPostgresPolicyStore(pool *pgxpool.Pool) *PostgresPolicyStore {
	return &PostgresPolicyStore{pool: pool}
}

func (s *PostgresPolicyStore) Create(ctx context.Context, policy *models.PolicyDocument) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO policy_documents (id, candidate_id, policy_name, file_name, file_url, active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		policy.ID.String(), policy.CandidateID.String(), policy.PolicyName, policy.FileName,
		policy.FileURL, policy.Active, policy.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert policy: %w", err)
	}
	return nil
}

func (s *PostgresPolicyStore) ListActiveByCandidate(ctx context.Context, candidateID id.CandidateID) ([]*models.PolicyDocument, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, candidate_id, policy_name, file_name, file_url, active, created_at
		FROM policy_documents WHERE candidate_id = $1 AND active ORDER BY created_at`, candidateID.String())
	if err != nil {
		return nil, fmt.Errorf("list policies: %w", err)
	}
	defer rows.Close()

	var out []*models.PolicyDocument
	for rows.Next() {
		var (
			policy         models.PolicyDocument
			rawID, rawCand string
		)
		if err := rows.Scan(&rawID, &rawCand, &policy.PolicyName, &policy.FileName,
			&policy.FileURL, &policy.Active, &policy.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan policy: %w", err)
		}
		policyID, err := id.ParsePolicyID(rawID)
		if err != nil {
			return nil, err
		}
		candID, err := id.ParseCandidateID(rawCand)
		if err != nil {
			return nil, err
		}
		policy.ID = policyID
		policy.CandidateID = candID
		out = append(out, &policy)
	}
	return out, rows.Err()
}

func (s *PostgresPolicyStore) Deactivate(ctx context.Context, policyID id.PolicyID) error {
	tag, err := s.pool.Exec(ctx, `UPDATE policy_documents SET active = FALSE WHERE id = $1`, policyID.String())
	if err != nil {
		return fmt.Errorf("deactivate policy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// PostgresMeetingStore persists orientation meetings.
type PostgresMeetingStore struct {
	pool *pgxpool.Pool
}

func NewPostgresMeetingStore(pool *pgxpool.Pool) *PostgresMeetingStore {
	return &PostgresMeetingStore{pool: pool}
}

func (s *PostgresMeetingStore) Create(ctx context.Context, meeting *models.Meeting) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO meetings (id, candidate_id, title, scheduled_at, duration_mins, primary_link, fallback_link, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		meeting.ID.String(), meeting.CandidateID.String(), meeting.Title, meeting.ScheduledAt,
		meeting.DurationMins, meeting.PrimaryLink, meeting.FallbackLink, meeting.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert meeting: %w", err)
	}
	return nil
}

func (s *PostgresMeetingStore) ListByCandidate(ctx context.Context, candidateID id.CandidateID) ([]*models.Meeting, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, candidate_id, title, scheduled_at, duration_mins, primary_link, fallback_link, created_at
		FROM meetings WHERE candidate_id = $1 ORDER BY scheduled_at`, candidateID.String())
	if err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}
	defer rows.Close()

	var out []*models.Meeting
	for rows.Next() {
		var (
			meeting        models.Meeting
			rawID, rawCand string
		)
		if err := rows.Scan(&rawID, &rawCand, &meeting.Title, &meeting.ScheduledAt,
			&meeting.DurationMins, &meeting.PrimaryLink, &meeting.FallbackLink, &meeting.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan meeting: %w", err)
		}
		meetingID, err := id.ParseMeetingID(rawID)
		if err != nil {
			return nil, err
		}
		candID, err := id.ParseCandidateID(rawCand)
		if err != nil {
			return nil, err
		}
		meeting.ID = meetingID
		meeting.CandidateID = candID
		out = append(out, &meeting)
	}
	return out, rows.Err()
}

// PostgresNotificationStore persists candidate notifications.
type PostgresNotificationStore struct {
	pool *pgxpool.Pool
}

func NewPostgresNotificationStore(pool *pgxpool.Pool) *PostgresNotificationStore {
	return &PostgresNotificationStore{pool: pool}
}

func (s *PostgresNotificationStore) Create(ctx context.Context, n *models.Notification) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO notifications (id, candidate_id, title, message, severity, read, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		n.ID.String(), n.CandidateID.String(), n.Title, n.Message, n.Severity, n.Read, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (s *PostgresNotificationStore) ListByCandidate(ctx context.Context, candidateID id.CandidateID) ([]*models.Notification, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, candidate_id, title, message, severity, read, created_at
		FROM notifications WHERE candidate_id = $1 ORDER BY created_at DESC`, candidateID.String())
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []*models.Notification
	for rows.Next() {
		var (
			n              models.Notification
			rawID, rawCand string
		)
		if err := rows.Scan(&rawID, &rawCand, &n.Title, &n.Message, &n.Severity, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		parsed, err := id.ParseNotificationID(rawID)
		if err != nil {
			return nil, err
		}
		candID, err := id.ParseCandidateID(rawCand)
		if err != nil {
			return nil, err
		}
		n.ID = parsed
		n.CandidateID = candID
		out = append(out, &n)
	}
	return out, rows.Err()
}
