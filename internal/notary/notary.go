// Package notary produces tamper-evident receipts for workflow events.
//
// Each call tries the remote signing bridge first and falls back to direct
// ledger signing with the operational key. One attempt per path, no retries:
// callers decide whether a failure aborts their operation. There is no
// idempotency key — a caller that times out and retries may mint two
// receipts for one logical event; that risk is documented, not resolved here.
package notary

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	notarymetrics "talentgate/internal/notary/metrics"
	dErrors "talentgate/pkg/domain-errors"
	"talentgate/pkg/platform/circuit"
)

// ReceiptStatus records which path produced the receipt.
type ReceiptStatus string

const (
	StatusBridgeVerified ReceiptStatus = "BridgeVerified"
	StatusLocalVerified  ReceiptStatus = "LocalVerified"
)

// Event is the payload notarized on the ledger.
type Event struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Action string `json:"action"`
}

// Receipt is the signed attestation for one event. Immutable once attached.
type Receipt struct {
	Signature   string        `json:"signature"`
	ExplorerURL string        `json:"explorer_url"`
	Status      ReceiptStatus `json:"status"`
}

// Gateway is the notarization boundary consumed by the workflow engine.
type Gateway interface {
	Notarize(ctx context.Context, event Event) (*Receipt, error)
}

// errUnreachable marks transport-level bridge failures (connection refused,
// timeout, non-success HTTP). Only these trigger the fallback path;
// signing-logic errors surface to the caller directly.
var errUnreachable = errors.New("bridge unreachable")

// Adapter implements Gateway with the bridge-then-fallback strategy.
type Adapter struct {
	bridge  *BridgeClient
	ledger  *LedgerSigner
	breaker *circuit.Breaker
	logger  *slog.Logger
	metrics *notarymetrics.Metrics
	tracer  trace.Tracer
}

// AdapterOption configures the Adapter.
type AdapterOption func(*Adapter)

// WithCircuitBreaker skips the bridge attempt during an outage instead of
// paying the timeout on every call: three consecutive transport failures open
// the circuit, and the bridge is probed again after a cooldown. Opt-in
// because it trades the one-attempt-per-path contract for lower latency while
// the bridge is down.
func WithCircuitBreaker() AdapterOption {
	return func(a *Adapter) {
		a.breaker = circuit.New("notary-bridge",
			circuit.WithFailureThreshold(3),
			circuit.WithCooldown(30*time.Second))
	}
}

func NewAdapter(bridge *BridgeClient, ledger *LedgerSigner, logger *slog.Logger, m *notarymetrics.Metrics, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		bridge:  bridge,
		ledger:  ledger,
		logger:  logger,
		metrics: m,
		tracer:  otel.Tracer("talentgate/notary"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Notarize signs the event via the bridge, falling back to the local ledger
// path when the bridge is unreachable or answers non-success. The context
// bounds both attempts; cancellation aborts without partial state since
// nothing is mutated here.
func (a *Adapter) Notarize(ctx context.Context, event Event) (*Receipt, error) {
	ctx, span := a.tracer.Start(ctx, "notary.Notarize",
		trace.WithAttributes(attribute.String("event.action", event.Action)))
	defer span.End()

	var bridgeErr error
	if a.breaker == nil || a.breaker.Allow() {
		receipt, err := a.bridge.Sign(ctx, event)
		if err == nil {
			if a.breaker != nil {
				if _, change := a.breaker.RecordSuccess(); change.Closed {
					a.logger.InfoContext(ctx, "notary bridge recovered")
				}
			}
			a.observe("bridge", "ok")
			return receipt, nil
		}
		if !errors.Is(err, errUnreachable) {
			// Signing-logic failure from the bridge: already a typed gateway
			// error, and not a reason to try the fallback. The bridge itself
			// is reachable.
			if a.breaker != nil {
				a.breaker.RecordSuccess()
			}
			a.observe("bridge", "signing_error")
			span.RecordError(err)
			return nil, err
		}
		if a.breaker != nil {
			if _, change := a.breaker.RecordFailure(); change.Opened {
				a.logger.ErrorContext(ctx, "notary bridge circuit opened",
					"error", err.Error())
			}
		}
		bridgeErr = err
		a.observe("bridge", "unreachable")
		a.logger.WarnContext(ctx, "notary bridge unreachable, using local signing",
			"event_action", event.Action, "error", err.Error())
	} else {
		a.observe("bridge", "skipped_open")
	}

	receipt, lerr := a.ledger.Sign(ctx, event)
	if lerr == nil {
		a.observe("fallback", "ok")
		return receipt, nil
	}
	span.RecordError(lerr)
	if isLedgerCode(lerr) {
		a.observe("fallback", "signing_error")
		return nil, lerr
	}
	a.observe("fallback", "unreachable")
	if bridgeErr != nil {
		lerr = errors.Join(bridgeErr, lerr)
	}
	return nil, dErrors.Wrap(lerr, dErrors.CodeGatewayUnavailable,
		"notarization failed on both bridge and fallback paths")
}

func (a *Adapter) observe(path, outcome string) {
	if a.metrics != nil {
		a.metrics.ObserveAttempt(path, outcome)
	}
}

// isLedgerCode reports whether the error is one of the typed signing-logic
// failures, as opposed to the path being unreachable.
func isLedgerCode(err error) bool {
	return dErrors.HasCode(err, dErrors.CodeInsufficientFunds) ||
		dErrors.HasCode(err, dErrors.CodeAccountConflict) ||
		dErrors.HasCode(err, dErrors.CodeUnauthorizedSigner)
}

// mapLedgerCode translates low-level ledger error codes into the closed
// gateway taxonomy. This is the single place raw codes are interpreted.
func mapLedgerCode(code string) error {
	switch code {
	case "0x1":
		return dErrors.New(dErrors.CodeInsufficientFunds,
			"insufficient funds for rent on the operational account")
	case "0x0":
		return dErrors.New(dErrors.CodeAccountConflict,
			"account already exists or program namespace mismatch")
	case "0x1771":
		return dErrors.New(dErrors.CodeUnauthorizedSigner,
			"only the operational wallet may sign attestations")
	default:
		return dErrors.New(dErrors.CodeGatewayUnavailable, "ledger rejected the transaction: "+code)
	}
}
