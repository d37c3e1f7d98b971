package audit

import (
	"context"
	"encoding/json"
	"log/slog"

	id "talentgate/pkg/domain"
	dErrors "talentgate/pkg/domain-errors"
	"talentgate/pkg/requestcontext"
)

// Streamer fans audit entries out to an external sink (Kafka) best-effort.
// Persistence to the store is the guarantee; streaming is observability.
type Streamer interface {
	Enqueue(entry Entry)
}

// Service is the audit log writer. It is append-only and uses the storage
// layer for persistence so tests can swap sinks easily.
//
// Failure policy: a failed audit write after a successful record mutation is
// a data-quality incident for the CALLER to log — the audit trail is a
// secondary guarantee, never the transaction boundary. This service only
// reports the failure.
type Service struct {
	store  Store
	stream Streamer
	logger *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithStreamer attaches a best-effort external sink.
func WithStreamer(streamer Streamer) Option {
	return func(s *Service) { s.stream = streamer }
}

func NewService(store Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{store: store, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record appends exactly one entry for one logical transition. Actor,
// request ID, and client metadata come from the context; an absent actor is
// recorded as the system identity.
func (s *Service) Record(ctx context.Context, action Action, targetEntity, targetID string, before, after any) error {
	actor := requestcontext.Actor(ctx)
	if actor == "" {
		actor = SystemActor
	}

	entry := Entry{
		ID:             id.NewAuditEntryID(),
		Timestamp:      requestcontext.Now(ctx),
		Actor:          actor,
		Action:         action,
		TargetEntity:   targetEntity,
		TargetID:       targetID,
		RequestID:      requestcontext.RequestID(ctx),
		ClientIP:       requestcontext.ClientIP(ctx),
		ClientPlatform: requestcontext.UserAgent(ctx),
	}

	var err error
	if entry.Before, err = snapshot(before); err != nil {
		return err
	}
	if entry.After, err = snapshot(after); err != nil {
		return err
	}

	if err := s.store.Append(ctx, entry); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append audit entry")
	}

	if s.stream != nil {
		s.stream.Enqueue(entry)
	}
	return nil
}

// ListByTarget returns the trail for one entity in insertion order.
func (s *Service) ListByTarget(ctx context.Context, targetEntity, targetID string) ([]Entry, error) {
	return s.store.ListByTarget(ctx, targetEntity, targetID)
}

// ListAll returns the full trail (admin surface).
func (s *Service) ListAll(ctx context.Context) ([]Entry, error) {
	return s.store.ListAll(ctx)
}

func snapshot(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to snapshot audit state")
	}
	return raw, nil
}
