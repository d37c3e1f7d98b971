//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talentgate/internal/audit"
	"talentgate/internal/audit/store/postgres"
	id "talentgate/pkg/domain"
	"talentgate/pkg/testutil/containers"
)

func TestPostgresAuditStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	pg := containers.NewPostgresContainer(t)
	db, err := sql.Open("postgres", pg.URL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := postgres.New(db)
	ctx := context.Background()

	entry := func(action audit.Action, targetID string) audit.Entry {
		return audit.Entry{
			ID:           id.NewAuditEntryID(),
			Timestamp:    time.Now().UTC().Truncate(time.Microsecond),
			Actor:        "hr@example.com",
			Action:       action,
			TargetEntity: "candidates",
			TargetID:     targetID,
			Before:       json.RawMessage(`{"status":"Created"}`),
			After:        json.RawMessage(`{"status":"Offer Sent"}`),
			RequestID:    "req-1",
			ClientIP:     "203.0.113.9",
		}
	}

	t.Run("append and list preserve writer order", func(t *testing.T) {
		require.NoError(t, pg.Truncate(ctx))

		for _, action := range []audit.Action{
			audit.ActionCreateCandidate, audit.ActionProvisionIT, audit.ActionSendOffer,
		} {
			require.NoError(t, store.Append(ctx, entry(action, "c-1")))
		}
		require.NoError(t, store.Append(ctx, entry(audit.ActionCreateCandidate, "c-2")))

		entries, err := store.ListByTarget(ctx, "candidates", "c-1")
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, audit.ActionCreateCandidate, entries[0].Action)
		assert.Equal(t, audit.ActionSendOffer, entries[2].Action)
		assert.JSONEq(t, `{"status":"Offer Sent"}`, string(entries[2].After))

		all, err := store.ListAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 4)
	})

	t.Run("rejects a duplicate entry id", func(t *testing.T) {
		require.NoError(t, pg.Truncate(ctx))

		e := entry(audit.ActionCreateCandidate, "c-1")
		require.NoError(t, store.Append(ctx, e))
		assert.Error(t, store.Append(ctx, e))
	})

	t.Run("nil snapshots round-trip as null", func(t *testing.T) {
		require.NoError(t, pg.Truncate(ctx))

		e := entry(audit.ActionDeactivatePolicy, "p-1")
		e.Before, e.After = nil, nil
		require.NoError(t, store.Append(ctx, e))

		entries, err := store.ListByTarget(ctx, "candidates", "p-1")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Nil(t, entries[0].Before)
		assert.Nil(t, entries[0].After)
	})
}
