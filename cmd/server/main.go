// main wires configuration, stores, services, and the HTTP surface, then runs
// the server and the audit stream worker under one errgroup. Business logic
// lives in internal services packages.
package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"talentgate/internal/audit"
	auditHandler "talentgate/internal/audit/handler"
	auditMemory "talentgate/internal/audit/store/memory"
	auditPostgres "talentgate/internal/audit/store/postgres"
	"talentgate/internal/audit/stream"
	candidateHandler "talentgate/internal/candidate/handler"
	"talentgate/internal/candidate/store"
	"talentgate/internal/document"
	documentHandler "talentgate/internal/document/handler"
	documentMetrics "talentgate/internal/document/metrics"
	httpapi "talentgate/internal/http"
	"talentgate/internal/notary"
	notaryMetrics "talentgate/internal/notary/metrics"
	"talentgate/internal/notification"
	"talentgate/internal/platform/config"
	"talentgate/internal/platform/httpserver"
	"talentgate/internal/platform/logger"
	"talentgate/internal/platform/middleware"
	platformRedis "talentgate/internal/platform/redis"
	"talentgate/internal/workflow"
	workflowMetrics "talentgate/internal/workflow/metrics"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(logger.ParseLevel(cfg.LogLevel))

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err.Error())
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores: PostgreSQL when configured, in-memory otherwise.
	var (
		candidates    store.CandidateStore
		documents     store.DocumentStore
		itRequests    store.ITRequestStore
		tasks         store.TaskStore
		policies      store.PolicyStore
		meetings      store.MeetingStore
		notifications store.NotificationStore
		auditStore    audit.Store
	)
	if cfg.PostgresURL != "" {
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		auditDB, err := sql.Open("postgres", cfg.PostgresURL)
		if err != nil {
			return err
		}
		defer auditDB.Close()

		candidates = store.NewPostgresCandidateStore(pool)
		documents = store.NewPostgresDocumentStore(pool)
		itRequests = store.NewPostgresITRequestStore(pool)
		tasks = store.NewPostgresTaskStore(pool)
		policies = store.NewPostgresPolicyStore(pool)
		meetings = store.NewPostgresMeetingStore(pool)
		notifications = store.NewPostgresNotificationStore(pool)
		auditStore = auditPostgres.New(auditDB)
	} else {
		log.Warn("no postgres URL configured, running with in-memory stores")
		candidates = store.NewInMemoryCandidateStore()
		documents = store.NewInMemoryDocumentStore()
		itRequests = store.NewInMemoryITRequestStore()
		tasks = store.NewInMemoryTaskStore()
		policies = store.NewInMemoryPolicyStore()
		meetings = store.NewInMemoryMeetingStore()
		notifications = store.NewInMemoryNotificationStore()
		auditStore = auditMemory.NewInMemoryStore()
	}

	g, ctx := errgroup.WithContext(ctx)

	// Audit service, optionally streaming to Kafka.
	auditOpts := []audit.Option{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := stream.New(cfg.KafkaBrokers, cfg.AuditTopic, log)
		if err != nil {
			return err
		}
		defer publisher.Close()
		if err := publisher.EnsureTopic(ctx, 3, 1); err != nil {
			return err
		}
		auditOpts = append(auditOpts, audit.WithStreamer(publisher))
		g.Go(func() error {
			return publisher.Run(ctx)
		})
	}
	auditor := audit.NewService(auditStore, log, auditOpts...)

	// Notarization gateway.
	operationalKey := cfg.OperationalKey
	if operationalKey == "" {
		log.Warn("no operational key configured, generating an ephemeral signing key")
		seed := make([]byte, 32)
		if _, err := rand.Read(seed); err != nil {
			return err
		}
		operationalKey = base64.StdEncoding.EncodeToString(seed)
	}
	ledger, err := notary.NewLedgerSigner(operationalKey, cfg.ProgramNamespace,
		cfg.LedgerRPCURL, cfg.LedgerExplorerURL, cfg.BridgeTimeout)
	if err != nil {
		return err
	}
	var gatewayOpts []notary.AdapterOption
	if cfg.BridgeCircuitBreaker {
		gatewayOpts = append(gatewayOpts, notary.WithCircuitBreaker())
	}
	gateway := notary.NewAdapter(
		notary.NewBridgeClient(cfg.BridgeURL, cfg.BridgeTimeout),
		ledger, log, notaryMetrics.New(), gatewayOpts...)

	// Offer lock: redis when configured, in-process otherwise.
	var locker workflow.Locker = workflow.NewInMemoryLocker()
	redisClient, err := platformRedis.New(cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		locker = workflow.NewRedisLocker(redisClient.Client)
	}

	notifier := notification.NewDispatcher(notifications, log)
	engine := workflow.NewService(candidates, documents, itRequests, tasks, policies, meetings,
		auditor, gateway, notifier, log,
		workflow.WithLocker(locker),
		workflow.WithMetrics(workflowMetrics.New()))
	tracker := document.NewService(documents, candidates, auditor, log,
		document.WithMandatoryDocumentCount(cfg.MandatoryDocumentCount),
		document.WithMetrics(documentMetrics.New()))

	router := httpapi.NewRouter(httpapi.Handlers{
		Candidate: candidateHandler.New(engine, notifier, log),
		Document:  documentHandler.New(tracker, log),
		Audit:     auditHandler.New(auditor, log),
	}, middleware.NewValidator(cfg.JWTSigningKey), log)

	srv := httpserver.New(cfg.Addr, router)

	g.Go(func() error {
		log.Info("starting talentgate", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
