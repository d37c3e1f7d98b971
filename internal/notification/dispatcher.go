// Package notification delivers candidate-visible messages. Delivery is
// fire-and-forget: a failed insert is logged and dropped, it never fails the
// operation that triggered it.
package notification

import (
	"context"
	"log/slog"

	"talentgate/internal/candidate/models"
	"talentgate/internal/candidate/store"
	id "talentgate/pkg/domain"
	"talentgate/pkg/requestcontext"
)

// Dispatcher writes notifications to the store.
type Dispatcher struct {
	store  store.NotificationStore
	logger *slog.Logger
}

func NewDispatcher(store store.NotificationStore, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{store: store, logger: logger}
}

// Notify inserts one notification. No error return on purpose — callers must
// not branch on delivery.
func (d *Dispatcher) Notify(ctx context.Context, candidateID id.CandidateID, title, message, severity string) {
	n := &models.Notification{
		ID:          id.NewNotificationID(),
		CandidateID: candidateID,
		Title:       title,
		Message:     message,
		Severity:    severity,
		CreatedAt:   requestcontext.Now(ctx),
	}
	if err := d.store.Create(ctx, n); err != nil {
		d.logger.WarnContext(ctx, "notification dropped",
			"candidate_id", candidateID.String(), "title", title, "error", err.Error())
	}
}

// List returns the candidate's notifications, newest first per store order.
func (d *Dispatcher) List(ctx context.Context, candidateID id.CandidateID) ([]*models.Notification, error) {
	return d.store.ListByCandidate(ctx, candidateID)
}
