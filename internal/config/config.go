// Package config loads process configuration from the environment (with
// .env support), following the same loadConfig/getenv* shape used
// elsewhere in this codebase.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every tunable the server needs. Fields map 1:1 onto the
// EXPRKV_* environment variables documented in SPEC_FULL.md §2.1.
type Config struct {
	TCPAddr  string
	HTTPAddr string

	MaxKeySize    int
	MaxValueSize  int
	MaxItemTTL    int64
	MaxMemBytes   int64
	ComprThresh   int
	CronInterval  time.Duration
	ShutdownGrace time.Duration
}

// Load reads a .env file if present, then the environment, and validates
// the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		TCPAddr:  getenv("EXPRKV_TCP_ADDR", ":7601"),
		HTTPAddr: getenv("EXPRKV_HTTP_ADDR", ":7680"),

		MaxKeySize:    getenvInt("EXPRKV_MAX_KEY_SIZE", 250),
		MaxValueSize:  getenvInt("EXPRKV_MAX_VALUE_SIZE", 1<<20),
		MaxItemTTL:    getenvInt64("EXPRKV_MAX_ITEM_TTL", 30*24*3600),
		MaxMemBytes:   getenvInt64("EXPRKV_MAX_MEM_BYTES", 0),
		ComprThresh:   getenvInt("EXPRKV_COMPRESSION_THRESHOLD", 128),
		CronInterval:  getenvDuration("EXPRKV_CRON_INTERVAL", time.Second),
		ShutdownGrace: getenvDuration("EXPRKV_SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.MaxKeySize < 1 {
		return fmt.Errorf("EXPRKV_MAX_KEY_SIZE must be >= 1, got %d", c.MaxKeySize)
	}
	if c.MaxValueSize < 1 {
		return fmt.Errorf("EXPRKV_MAX_VALUE_SIZE must be >= 1, got %d", c.MaxValueSize)
	}
	if c.MaxMemBytes < 0 {
		return fmt.Errorf("EXPRKV_MAX_MEM_BYTES must be >= 0, got %d", c.MaxMemBytes)
	}
	if c.ComprThresh < 0 {
		return fmt.Errorf("EXPRKV_COMPRESSION_THRESHOLD must be >= 0, got %d", c.ComprThresh)
	}
	if c.CronInterval <= 0 {
		return fmt.Errorf("EXPRKV_CRON_INTERVAL must be > 0, got %s", c.CronInterval)
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
