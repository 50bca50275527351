// Package config loads process configuration from the environment,
// following the teacher's internal/config/config.go getenv/envDuration/
// envBool/envInt/envFloat helper pattern.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration derived from environment variables.
type Config struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	ServiceName  string

	RedisAddr   string
	PostgresDSN string

	// OffersTable names the active month-partitioned offers table
	// (spec.md §6); rolling to a new month means updating this and
	// copying the schema.
	OffersTable string

	GeoIPDB string

	DebugTrace bool

	AuthTokenLength int

	// Rate limiting — per (ip, event type) token buckets (spec.md §5/§4.7).
	RateLimitViewCapacity  int
	RateLimitViewRefill    time.Duration
	RateLimitClickCapacity int
	RateLimitClickRefill   time.Duration

	// Pacing
	PacingCTRCapMode string // "compound" (default) or "total"

	// Nonce / billing
	NonceTTL           time.Duration
	MaxViewTimeSeconds int
	GlobalRecordViews  bool

	// Rollup
	RollupInterval       time.Duration
	RollupHeartbeatStale time.Duration

	// Archive / S3
	ArchiveBucket string
	ArchivePrefix string
	ArchiveRegion string

	// Decision request bounds
	MaxKeywords int

	// Database connection pooling
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBConnMaxIdleTime time.Duration

	// Tracing
	TracingEnabled    bool
	TracingSampleRate float64
}

// Load parses environment variables and returns a Config populated with
// defaults when variables are absent.
func Load() Config {
	cfg := Config{}

	cfg.Port = getenv("PORT", "8787")
	cfg.ReadTimeout = envDuration("READ_TIMEOUT", 5*time.Second)
	cfg.WriteTimeout = envDuration("WRITE_TIMEOUT", 10*time.Second)
	cfg.ServiceName = getenv("SERVICE_NAME", "adserve")

	cfg.RedisAddr = getenv("REDIS_ADDR", "localhost:6379")
	cfg.PostgresDSN = getenv("POSTGRES_DSN", "postgres://postgres@127.0.0.1:5432/postgres?sslmode=disable")
	cfg.OffersTable = getenv("OFFERS_TABLE", "offers_current")

	cfg.GeoIPDB = getenv("GEOIP_DB", "internal/geoip/testdata/GeoLite2-Country.mmdb")

	cfg.DebugTrace = envBool("DEBUG_TRACE", false)
	cfg.AuthTokenLength = envInt("AUTH_TOKEN_LENGTH", 40)

	cfg.RateLimitViewCapacity = envInt("RATE_LIMIT_VIEW_CAPACITY", 20)
	cfg.RateLimitViewRefill = envDuration("RATE_LIMIT_VIEW_REFILL", time.Second)
	cfg.RateLimitClickCapacity = envInt("RATE_LIMIT_CLICK_CAPACITY", 10)
	cfg.RateLimitClickRefill = envDuration("RATE_LIMIT_CLICK_REFILL", time.Second)

	cfg.PacingCTRCapMode = getenv("PACING_CTR_CAP_MODE", "compound")

	cfg.NonceTTL = envDuration("NONCE_TTL", 4*time.Hour)
	cfg.MaxViewTimeSeconds = envInt("MAX_VIEW_TIME_SECONDS", 3600)
	cfg.GlobalRecordViews = envBool("GLOBAL_RECORD_VIEWS", true)

	cfg.RollupInterval = envDuration("ROLLUP_INTERVAL", 5*time.Minute)
	cfg.RollupHeartbeatStale = envDuration("ROLLUP_HEARTBEAT_STALE", 15*time.Minute)

	cfg.ArchiveBucket = getenv("ARCHIVE_BUCKET", "")
	cfg.ArchivePrefix = getenv("ARCHIVE_PREFIX", "offers/")
	cfg.ArchiveRegion = getenv("ARCHIVE_REGION", "us-east-1")

	cfg.MaxKeywords = envInt("MAX_KEYWORDS", 100)

	cfg.DBMaxOpenConns = envInt("DB_MAX_OPEN_CONNS", 25)
	cfg.DBMaxIdleConns = envInt("DB_MAX_IDLE_CONNS", 5)
	cfg.DBConnMaxLifetime = envDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	cfg.DBConnMaxIdleTime = envDuration("DB_CONN_MAX_IDLE_TIME", time.Minute)

	cfg.TracingEnabled = envBool("TRACING_ENABLED", false)
	cfg.TracingSampleRate = envFloat("TRACING_SAMPLE_RATE", 1.0)

	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if i, err := strconv.Atoi(v); err == nil {
		return i
	}
	return def
}

func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return def
}
