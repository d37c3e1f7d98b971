// Package httpapi assembles the HTTP surface: middleware chain, versioned API
// routes, health, and metrics. Handlers stay in their domain packages; this is
// only wiring.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	auditHandler "talentgate/internal/audit/handler"
	candidateHandler "talentgate/internal/candidate/handler"
	documentHandler "talentgate/internal/document/handler"
	"talentgate/internal/platform/middleware"
)

// Handlers groups the domain handlers mounted on the API.
type Handlers struct {
	Candidate *candidateHandler.Handler
	Document  *documentHandler.Handler
	Audit     *auditHandler.Handler
}

// NewRouter builds the full router.
func NewRouter(h Handlers, validator *middleware.Validator, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.ContentTypeJSON)
		api.Use(middleware.Actor(validator, logger))
		h.Candidate.Register(api)
		h.Document.Register(api)
		h.Audit.Register(api)
	})

	return r
}
