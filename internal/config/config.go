package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Storage backend names accepted in STORAGE_BACKEND.
const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config holds all runtime configuration loaded from environment variables.
// Every field has a sensible default; only UPSTREAM_URL is always required,
// and DATABASE_URL when the postgres backend is selected.
type Config struct {
	// Server
	HTTPPort        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// Storage
	StorageBackend   string
	StorageKey       string
	StorageQuota     int
	FileStoreDir     string
	DatabaseURL      string
	DBMaxConns       int32
	DBMinConns       int32
	RedisURL         string

	// Upstream collector
	UpstreamURL       string
	UpstreamTimeout   time.Duration
	UpstreamRateLimit int // sends per second; 0 disables rate limiting

	// Queue policy
	MaxRetries    int
	FlushInterval time.Duration
}

func Load() (*Config, error) {
	upstream := os.Getenv("UPSTREAM_URL")
	if upstream == "" {
		return nil, fmt.Errorf("UPSTREAM_URL is required")
	}

	cfg := &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		ReadTimeout:     getDuration("READ_TIMEOUT", 5*time.Second),
		WriteTimeout:    getDuration("WRITE_TIMEOUT", 10*time.Second),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		StorageBackend: getEnv("STORAGE_BACKEND", BackendFile),
		StorageKey:     getEnv("STORAGE_KEY", "outbound_queue"),
		StorageQuota:   getInt("STORAGE_QUOTA_BYTES", 5<<20),
		FileStoreDir:   getEnv("FILE_STORE_DIR", "./data"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DBMaxConns:     int32(getInt("DB_MAX_CONNS", 25)),
		DBMinConns:     int32(getInt("DB_MIN_CONNS", 5)),
		RedisURL:       getEnv("REDIS_URL", "redis://localhost:6379/0"),

		UpstreamURL:       upstream,
		UpstreamTimeout:   getDuration("UPSTREAM_TIMEOUT", 10*time.Second),
		UpstreamRateLimit: getInt("UPSTREAM_RATE_LIMIT", 0),

		MaxRetries:    getInt("MAX_RETRIES", 3),
		FlushInterval: getDuration("FLUSH_INTERVAL", 30*time.Second),
	}

	switch cfg.StorageBackend {
	case BackendFile, BackendRedis:
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres backend")
		}
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
