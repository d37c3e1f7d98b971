package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"talentgate/internal/audit"
	id "talentgate/pkg/domain"
)

// Store persists audit entries in PostgreSQL through database/sql with the
// lib/pq driver. Entries are written in insertion order; a bigserial sequence
// column makes that order queryable per writer.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, entry audit.Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, actor, action, target_entity, target_id, before_data, after_data,
			request_id, client_ip, client_platform, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		entry.ID.String(), entry.Actor, string(entry.Action), entry.TargetEntity, entry.TargetID,
		rawOrNull(entry.Before), rawOrNull(entry.After),
		entry.RequestID, entry.ClientIP, entry.ClientPlatform, entry.Timestamp)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("audit entry already exists: %w", err)
		}
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func (s *Store) ListByTarget(ctx context.Context, targetEntity, targetID string) ([]audit.Entry, error) {
	return s.list(ctx, `
		SELECT id, actor, action, target_entity, target_id, before_data, after_data,
			request_id, client_ip, client_platform, created_at
		FROM audit_logs WHERE target_entity = $1 AND target_id = $2 ORDER BY seq`,
		targetEntity, targetID)
}

func (s *Store) ListAll(ctx context.Context) ([]audit.Entry, error) {
	return s.list(ctx, `
		SELECT id, actor, action, target_entity, target_id, before_data, after_data,
			request_id, client_ip, client_platform, created_at
		FROM audit_logs ORDER BY seq`)
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]audit.Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var out []audit.Entry
	for rows.Next() {
		var (
			entry         audit.Entry
			rawID, action string
			before, after []byte
		)
		if err := rows.Scan(&rawID, &entry.Actor, &action, &entry.TargetEntity, &entry.TargetID,
			&before, &after, &entry.RequestID, &entry.ClientIP, &entry.ClientPlatform,
			&entry.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		parsed, err := id.ParseAuditEntryID(rawID)
		if err != nil {
			return nil, err
		}
		entry.ID = parsed
		entry.Action = audit.Action(action)
		entry.Before = before
		entry.After = after
		out = append(out, entry)
	}
	return out, rows.Err()
}

func rawOrNull(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
