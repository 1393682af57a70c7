// Package config loads application configuration from environment variables.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration loaded from environment
// variables.
type Config struct {
	DBPath           string
	SecretKey        []byte // 32-byte AES-256 key, or nil when unset.
	APIBaseURL       string
	DailyBudget      int
	MinDelay         time.Duration
	MaxDelay         time.Duration
	ValidateInterval time.Duration
	StaleDays        int
	DedupScope       string // "run" or "global".
}

// Load reads configuration from environment variables and returns a
// validated Config. ROLODEX_SECRET_KEY (64 hex chars) and
// ROLODEX_API_BASE_URL are optional; without them secret storage and remote
// calls stay disabled. Optional variables with defaults:
// ROLODEX_DB_PATH (rolodex.db), ROLODEX_DAILY_BUDGET (25),
// ROLODEX_MIN_DELAY (60s), ROLODEX_MAX_DELAY (120s),
// ROLODEX_VALIDATE_INTERVAL (6h), ROLODEX_STALE_DAYS (7),
// ROLODEX_DEDUP_SCOPE (run).
func Load() (*Config, error) {
	cfg := &Config{
		DBPath:           "rolodex.db",
		APIBaseURL:       os.Getenv("ROLODEX_API_BASE_URL"),
		DailyBudget:      25,
		MinDelay:         60 * time.Second,
		MaxDelay:         120 * time.Second,
		ValidateInterval: 6 * time.Hour,
		StaleDays:        7,
		DedupScope:       "run",
	}

	if v, ok := os.LookupEnv("ROLODEX_DB_PATH"); ok {
		cfg.DBPath = v
	}

	if v, ok := os.LookupEnv("ROLODEX_SECRET_KEY"); ok && v != "" {
		key, err := hex.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("ROLODEX_SECRET_KEY is not valid hex: %w", err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("ROLODEX_SECRET_KEY must be 32 bytes (64 hex chars), got %d bytes", len(key))
		}
		cfg.SecretKey = key
	}

	if v, ok := os.LookupEnv("ROLODEX_DAILY_BUDGET"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("ROLODEX_DAILY_BUDGET has invalid value %q: must be a positive integer", v)
		}
		cfg.DailyBudget = n
	}

	var err error
	if cfg.MinDelay, err = durationEnv("ROLODEX_MIN_DELAY", cfg.MinDelay); err != nil {
		return nil, err
	}
	if cfg.MaxDelay, err = durationEnv("ROLODEX_MAX_DELAY", cfg.MaxDelay); err != nil {
		return nil, err
	}
	if cfg.ValidateInterval, err = durationEnv("ROLODEX_VALIDATE_INTERVAL", cfg.ValidateInterval); err != nil {
		return nil, err
	}

	if v, ok := os.LookupEnv("ROLODEX_STALE_DAYS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("ROLODEX_STALE_DAYS has invalid value %q: must be a positive integer", v)
		}
		cfg.StaleDays = n
	}

	if v, ok := os.LookupEnv("ROLODEX_DEDUP_SCOPE"); ok {
		if v != "run" && v != "global" {
			return nil, fmt.Errorf("ROLODEX_DEDUP_SCOPE has invalid value %q: must be \"run\" or \"global\"", v)
		}
		cfg.DedupScope = v
	}

	if cfg.MinDelay < 0 || cfg.MaxDelay < cfg.MinDelay {
		return nil, fmt.Errorf("delay bounds invalid: min %s, max %s", cfg.MinDelay, cfg.MaxDelay)
	}

	return cfg, nil
}

// HasSecretKey returns true when an encryption key is configured. Used by
// the composition root to decide whether secret storage is available.
func (c *Config) HasSecretKey() bool {
	return len(c.SecretKey) == 32
}

func durationEnv(name string, def time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(name)
	if !ok {
		return def, nil
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s has invalid duration %q: %w", name, v, err)
	}
	return parsed, nil
}
