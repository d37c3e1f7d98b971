// Package config reads process configuration from the environment so main
// stays lean. Every knob has a development default; production overrides via
// TALENTGATE_* variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full server configuration.
type Config struct {
	Addr     string
	LogLevel string

	// JWTSigningKey verifies actor tokens on the HTTP surface.
	JWTSigningKey string

	// PostgresURL selects the persistent stores; empty runs in-memory.
	PostgresURL string

	// RedisURL enables the cross-process offer lock; empty falls back to the
	// in-process locker.
	RedisURL string

	// Kafka audit streaming. Empty brokers disable the stream.
	KafkaBrokers []string
	AuditTopic   string

	// Notarization gateway.
	BridgeURL         string
	BridgeTimeout     time.Duration
	LedgerRPCURL      string
	LedgerExplorerURL string
	ProgramNamespace  string
	// OperationalKey is the base64 ed25519 seed for the fallback signer.
	OperationalKey string
	// BridgeCircuitBreaker skips bridge attempts during a sustained outage.
	// Off by default so every notarization gets its one bridge attempt.
	BridgeCircuitBreaker bool

	// MandatoryDocumentCount gates the Docs Verified promotion.
	MandatoryDocumentCount int
}

// FromEnv builds the configuration from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:                   envOr("TALENTGATE_ADDR", ":8080"),
		LogLevel:               envOr("TALENTGATE_LOG_LEVEL", "info"),
		JWTSigningKey:          envOr("TALENTGATE_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		PostgresURL:            os.Getenv("TALENTGATE_POSTGRES_URL"),
		RedisURL:               os.Getenv("TALENTGATE_REDIS_URL"),
		AuditTopic:             envOr("TALENTGATE_AUDIT_TOPIC", "talentgate.audit"),
		BridgeURL:              os.Getenv("TALENTGATE_BRIDGE_URL"),
		BridgeTimeout:          envDuration("TALENTGATE_BRIDGE_TIMEOUT", 5*time.Second),
		LedgerRPCURL:           os.Getenv("TALENTGATE_LEDGER_RPC_URL"),
		LedgerExplorerURL:      envOr("TALENTGATE_LEDGER_EXPLORER_URL", "https://explorer.solana.com"),
		ProgramNamespace:       envOr("TALENTGATE_PROGRAM_NAMESPACE", "talentgate"),
		OperationalKey:         os.Getenv("TALENTGATE_OPERATIONAL_KEY"),
		BridgeCircuitBreaker:   envBool("TALENTGATE_BRIDGE_CIRCUIT_BREAKER", false),
		MandatoryDocumentCount: envInt("TALENTGATE_MANDATORY_DOCUMENT_COUNT", 6),
	}
	if brokers := os.Getenv("TALENTGATE_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
