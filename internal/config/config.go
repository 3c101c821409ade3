package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by TENANTRY_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("TENANTRY_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// PublicSchema returns the shared schema active when no tenant is.
// Defaults to "public".
func PublicSchema() string {
	s := os.Getenv("PUBLIC_SCHEMA")
	if s == "" {
		return "public"
	}
	return s
}

// AutoCreateSchemas reports whether tenant creation also creates the
// tenant's schema. Defaults to true.
func AutoCreateSchemas() bool {
	return boolVar("AUTO_CREATE_SCHEMAS", true)
}

// AutoDropSchemas reports whether tenant deletion also drops the tenant's
// schema. Defaults to false: orphaned schemas are recoverable, dropped
// ones are not.
func AutoDropSchemas() bool {
	return boolVar("AUTO_DROP_SCHEMAS", false)
}

// CloneReferenceSchema names a schema whose table structure is copied
// into newly created tenant schemas. Empty means create empty schemas.
func CloneReferenceSchema() string {
	return os.Getenv("CLONE_REFERENCE_SCHEMA")
}

// SnapshotIDOnly reduces lifecycle event payloads to the schema name.
// Defaults to false (full tenant record).
func SnapshotIDOnly() bool {
	return boolVar("SNAPSHOT_ID_ONLY", false)
}

// FallbackDomains returns the comma-separated list of domains tried, in
// order, when an inbound host has no exact match.
func FallbackDomains() []string {
	raw := os.Getenv("FALLBACK_DOMAINS")
	if raw == "" {
		return nil
	}
	var domains []string
	for _, d := range strings.Split(raw, ",") {
		if d = strings.TrimSpace(d); d != "" {
			domains = append(domains, d)
		}
	}
	return domains
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}

func boolVar(key string, def bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}
