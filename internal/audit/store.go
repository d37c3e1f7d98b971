package audit

import "context"

// Store is the append-only persistence boundary for audit entries. No update
// or delete is exposed anywhere in the interface on purpose.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListByTarget(ctx context.Context, targetEntity, targetID string) ([]Entry, error)
	ListAll(ctx context.Context) ([]Entry, error)
}
