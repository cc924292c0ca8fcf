package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

type Config struct {
	APIURL      string        // ADMIN_API_URL (required)
	Schema      string        // ADMIN_SCHEMA (default "admin.toml")
	Timeout     time.Duration // ADMIN_TIMEOUT (default 30s)
	Concurrency int           // ADMIN_CONCURRENCY (default 8)
	NATSURL     string        // ADMIN_NATS_URL (optional, empty = no events)
	DatabaseURL string        // ADMIN_DATABASE_URL (optional, enables snapshot persistence)
	LogLevel    slog.Level    // ADMIN_LOG_LEVEL (default "info")

	// Snapshot export settings
	ExportS3Bucket   string // ADMIN_EXPORT_S3_BUCKET (enables S3 when set)
	ExportS3Endpoint string // ADMIN_EXPORT_S3_ENDPOINT (custom endpoint for MinIO)
	ExportS3Region   string // ADMIN_EXPORT_S3_REGION (default "us-east-1")
	ExportS3Key      string // ADMIN_EXPORT_S3_KEY (default "adminkit/snapshot.jsonl")
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	c, err := FromEnv()
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// FromEnv reads the configuration from the environment without checking
// required settings, so callers can fill them from flags first.
func FromEnv() (*Config, error) {
	c := &Config{
		APIURL:           os.Getenv("ADMIN_API_URL"),
		Schema:           envOrDefault("ADMIN_SCHEMA", "admin.toml"),
		NATSURL:          os.Getenv("ADMIN_NATS_URL"),
		DatabaseURL:      os.Getenv("ADMIN_DATABASE_URL"),
		ExportS3Bucket:   os.Getenv("ADMIN_EXPORT_S3_BUCKET"),
		ExportS3Endpoint: os.Getenv("ADMIN_EXPORT_S3_ENDPOINT"),
		ExportS3Region:   envOrDefault("ADMIN_EXPORT_S3_REGION", "us-east-1"),
		ExportS3Key:      envOrDefault("ADMIN_EXPORT_S3_KEY", "adminkit/snapshot.jsonl"),
	}

	d, err := time.ParseDuration(envOrDefault("ADMIN_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("ADMIN_TIMEOUT: %w", err)
	}
	c.Timeout = d

	n, err := strconv.Atoi(envOrDefault("ADMIN_CONCURRENCY", "8"))
	if err != nil {
		return nil, fmt.Errorf("ADMIN_CONCURRENCY: %w", err)
	}
	if n <= 0 {
		return nil, fmt.Errorf("ADMIN_CONCURRENCY: must be positive, got %d", n)
	}
	c.Concurrency = n

	if err := c.LogLevel.UnmarshalText([]byte(envOrDefault("ADMIN_LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("ADMIN_LOG_LEVEL: %w", err)
	}

	return c, nil
}

// Validate checks the required settings.
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("ADMIN_API_URL is required")
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
