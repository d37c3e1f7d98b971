package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talentgate/internal/audit"
	"talentgate/internal/audit/handler"
	"talentgate/internal/audit/store/memory"
)

func newRouter(t *testing.T) (chi.Router, *audit.Service) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := audit.NewService(memory.NewInMemoryStore(), logger)

	router := chi.NewRouter()
	handler.New(svc, logger).Register(router)
	return router, svc
}

func TestAuditEndpoints(t *testing.T) {
	router, svc := newRouter(t)

	ctx := context.Background()
	require.NoError(t, svc.Record(ctx, audit.ActionCreateCandidate, "candidates", "c-1", nil, nil))
	require.NoError(t, svc.Record(ctx, audit.ActionSendOffer, "candidates", "c-1", nil, nil))
	require.NoError(t, svc.Record(ctx, audit.ActionCreateTask, "tasks", "t-1", nil, nil))

	t.Run("lists the full trail", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var entries []audit.Entry
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
		assert.Len(t, entries, 3)
	})

	t.Run("filters by target", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit/candidates/c-1", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var entries []audit.Entry
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
		require.Len(t, entries, 2)
		assert.Equal(t, audit.ActionCreateCandidate, entries[0].Action)
		assert.Equal(t, audit.ActionSendOffer, entries[1].Action)
	})

	t.Run("unknown target is an empty trail", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audit/candidates/zzz", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "null\n", rec.Body.String())
	})
}
