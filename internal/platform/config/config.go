package config

import (
	"os"
	"strings"
	"time"

	"namereg/pkg/domain"
)

// Config captures process-level configuration. Every field has a development
// default so the service starts with no environment at all, on in-memory
// backends.
type Config struct {
	Addr string

	// PostgresDSN switches the registry, approval, and quota stores to
	// PostgreSQL when set; empty means in-memory.
	PostgresDSN string

	// RedisURL switches the pending-order lock to a shared redis key space
	// when set; empty means in-process locks.
	RedisURL string

	// KafkaBrokers enables the kafka audit publisher when non-empty.
	KafkaBrokers []string
	AuditTopic   string

	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string

	// AdminPrincipals may mint quota, move quota between users, and seed
	// registrations.
	AdminPrincipals []domain.Principal

	// PaymentLedgerURL is the base URL of the payment ledger collaborator.
	// Empty means the in-memory fake, for development only.
	PaymentLedgerURL string

	// SeedRegistrations preloads a few registrations owned by the service
	// principal, for development and demos.
	SeedRegistrations bool

	OrderLockTTL time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:             envOr("NAMEREG_ADDR", ":8080"),
		PostgresDSN:      os.Getenv("NAMEREG_POSTGRES_DSN"),
		RedisURL:         os.Getenv("NAMEREG_REDIS_URL"),
		AuditTopic:       envOr("NAMEREG_AUDIT_TOPIC", "namereg.audit"),
		JWTSigningKey:    envOr("NAMEREG_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:        envOr("NAMEREG_JWT_ISSUER", "namereg"),
		JWTAudience:      envOr("NAMEREG_JWT_AUDIENCE", "namereg"),
		PaymentLedgerURL: os.Getenv("NAMEREG_PAYMENT_LEDGER_URL"),
		OrderLockTTL:     5 * time.Minute,
	}

	if brokers := os.Getenv("NAMEREG_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	}
	for _, raw := range splitAndTrim(os.Getenv("NAMEREG_ADMIN_PRINCIPALS")) {
		p, err := domain.ParsePrincipal(raw)
		if err != nil || p.IsAnonymous() {
			continue
		}
		cfg.AdminPrincipals = append(cfg.AdminPrincipals, p)
	}
	cfg.SeedRegistrations = os.Getenv("NAMEREG_SEED_REGISTRATIONS") == "true"

	if ttl := os.Getenv("NAMEREG_ORDER_LOCK_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil && d > 0 {
			cfg.OrderLockTTL = d
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

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
