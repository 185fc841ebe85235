package config

import (
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Issuance captures configuration for the issuance service.
type Issuance struct {
	Addr           string
	WorkerID       string
	AllowedOrigins []string
	DBPath         string
}

// Verification captures configuration for the verification service.
type Verification struct {
	Addr             string
	WorkerID         string
	IssuanceURL      string
	ReconcileTimeout time.Duration
	AllowedOrigins   []string
	DBPath           string
}

// defaultOrigins are the local frontend dev servers.
var defaultOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"http://localhost:4173",
}

// IssuanceFromEnv builds issuance config from environment variables so main stays lean.
func IssuanceFromEnv() Issuance {
	return Issuance{
		Addr:           envOr("ISSUANCE_ADDR", ":3001"),
		WorkerID:       workerID(),
		AllowedOrigins: origins(),
		DBPath:         os.Getenv("CREDENTIAL_DB"),
	}
}

// VerificationFromEnv builds verification config from environment variables.
func VerificationFromEnv() Verification {
	timeout := 5 * time.Second
	if raw := os.Getenv("RECONCILE_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			timeout = d
		}
	}
	return Verification{
		Addr:             envOr("VERIFICATION_ADDR", ":3002"),
		WorkerID:         workerID(),
		IssuanceURL:      envOr("ISSUANCE_URL", "http://localhost:3001"),
		ReconcileTimeout: timeout,
		AllowedOrigins:   origins(),
		DBPath:           os.Getenv("CREDENTIAL_DB"),
	}
}

// workerID returns the configured worker identity, or generates a stable one
// for this process lifetime. The ID tags every record this instance inserts.
func workerID() string {
	if id := os.Getenv("WORKER_ID"); id != "" {
		return id
	}
	return "worker-" + uuid.NewString()[:8]
}

func origins() []string {
	raw := os.Getenv("ALLOWED_ORIGINS")
	if raw == "" {
		return defaultOrigins
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
