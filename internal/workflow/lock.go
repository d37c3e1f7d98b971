package workflow

import (
	"context"
	"sync"
	"time"

	dErrors "talentgate/pkg/domain-errors"
)

// Locker serializes offer issuance per candidate. Acquire returns a release
// func on success and a conflict error when another issuance holds the key.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// InMemoryLocker serializes within a single process. It is the fallback when
// no redis is configured and the default in tests.
type InMemoryLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewInMemoryLocker() *InMemoryLocker {
	return &InMemoryLocker{held: make(map[string]struct{})}
}

func (l *InMemoryLocker) Acquire(_ context.Context, key string, _ time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, taken := l.held[key]; taken {
		return nil, dErrors.New(dErrors.CodeConflict, "operation already in progress for this candidate")
	}
	l.held[key] = struct{}{}
	return func() {
		l.mu.Lock()
		delete(l.held, key)
		l.mu.Unlock()
	}, nil
}
