package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backend selectors.
const (
	BackendMemory = "memory"
	BackendBolt   = "bolt"
	BackendRedis  = "redis"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	StorageBackend string // "memory" | "bolt" | "redis"
	BoltPath       string // database file for the bolt backend
	SeedFile       string // optional YAML file of bootstrap contacts (empty = no seeding)

	DefaultPageSize int   // page size when ?limit= is absent
	MaxPageSize     int   // upper bound for ?limit=
	MaxUploadBytes  int64 // max import file size
	NameMinLen      int   // minimum first/last name length after trimming

	AllowedAvatarTypes []string // accepted avatar MIME types

	EnableAnalytics bool // expose GET /api/analytics
	EnableImport    bool // expose POST /api/contacts/import
	EnableExport    bool // expose GET /api/contacts/export

	AllowedOrigins []string // CORS allowed origins, empty = allow all

	// Rate limiting (0 burst disables the limiter)
	RateLimitBurst     int
	RateLimitPerMinute int

	// Redis (required only when StorageBackend == "redis")
	RedisAddr           string
	RedisUser           string
	RedisPassword       string
	RedisDB             int
	RedisDialTimeout    time.Duration
	RedisReadTimeout    time.Duration
	RedisWriteTimeout   time.Duration
	RedisPoolSize       int
	RedisConnectTimeout time.Duration // total time to retry connecting
	RedisRetryInterval  time.Duration // initial wait between retries, grows exponentially
	RedisMaxWait        time.Duration // max wait between retries
	RedisPingTimeout    time.Duration // timeout for each ping attempt
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("ROLODEX_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("ROLODEX_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("ROLODEX_LOG_LEVEL", "info"),
		PrettyLog: mustBool("ROLODEX_PRETTY_LOG", true),

		// Storage
		StorageBackend: getenv("ROLODEX_STORAGE", BackendBolt),
		BoltPath:       getenv("ROLODEX_BOLT_PATH", "/var/lib/rolodex/contacts.db"),
		SeedFile:       getenv("ROLODEX_SEED_FILE", ""),

		// Listing / import limits
		DefaultPageSize: getenvInt("ROLODEX_DEFAULT_PAGE_SIZE", 12),
		MaxPageSize:     getenvInt("ROLODEX_MAX_PAGE_SIZE", 100),
		MaxUploadBytes:  int64(getenvInt("ROLODEX_MAX_UPLOAD_BYTES", 5*1024*1024)),
		NameMinLen:      getenvInt("ROLODEX_NAME_MIN_LEN", 2),

		AllowedAvatarTypes: splitAndTrim(getenv("ROLODEX_AVATAR_TYPES", "image/jpeg,image/png,image/gif")),

		// Feature toggles
		EnableAnalytics: mustBool("ROLODEX_ENABLE_ANALYTICS", true),
		EnableImport:    mustBool("ROLODEX_ENABLE_IMPORT", true),
		EnableExport:    mustBool("ROLODEX_ENABLE_EXPORT", true),

		AllowedOrigins: splitAndTrim(getenv("ROLODEX_ALLOWED_ORIGINS", "")),

		RateLimitBurst:     getenvInt("ROLODEX_RATE_LIMIT_BURST", 0),
		RateLimitPerMinute: getenvInt("ROLODEX_RATE_LIMIT_PER_MINUTE", 60),

		// Redis settings
		RedisAddr:           getenv("ROLODEX_REDIS_ADDR", ""),
		RedisUser:           getenv("ROLODEX_REDIS_USERNAME", "default"),
		RedisPassword:       getenv("ROLODEX_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("ROLODEX_REDIS_DB", 0),
		RedisDialTimeout:    mustDuration("ROLODEX_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisReadTimeout:    mustDuration("ROLODEX_REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWriteTimeout:   mustDuration("ROLODEX_REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisPoolSize:       getenvInt("ROLODEX_REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("ROLODEX_REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("ROLODEX_REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisMaxWait:        mustDuration("ROLODEX_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("ROLODEX_REDIS_PING_TIMEOUT", 5*time.Second),
	}

	switch cfg.StorageBackend {
	case BackendMemory, BackendBolt:
	case BackendRedis:
		if cfg.RedisAddr == "" {
			panic("❌ FATAL: ROLODEX_REDIS_ADDR is required when ROLODEX_STORAGE=redis")
		}
	default:
		panic(fmt.Sprintf("❌ FATAL: Unknown ROLODEX_STORAGE backend %q (want memory, bolt or redis)", cfg.StorageBackend))
	}

	if cfg.DefaultPageSize > cfg.MaxPageSize {
		cfg.DefaultPageSize = cfg.MaxPageSize
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		if cfg.RedisPassword != "" {
			cfgCopy.RedisPassword = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
