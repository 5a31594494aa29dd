package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/titanous/json5"

	"github.com/pfrederiksen/nba-boxscores/internal/fetch"
	"github.com/pfrederiksen/nba-boxscores/internal/normalize"
	"github.com/pfrederiksen/nba-boxscores/internal/storage"
)

// Raw store backends
const (
	StoreDisk  = "disk"
	StoreRedis = "redis"
)

// Config is the full set of run settings
type Config struct {
	DataDir     string `json:"data_dir"`
	Store       string `json:"store"`
	RedisURL    string `json:"redis_url"`
	RedisPrefix string `json:"redis_prefix"`
	BaseURL     string `json:"base_url"`
	Seasons     string `json:"seasons"`

	Attempts          int     `json:"attempts"`
	DelaySeconds      float64 `json:"delay_seconds"`
	RequestsPerMinute float64 `json:"requests_per_minute"`
	TimeoutSeconds    float64 `json:"timeout_seconds"`

	// SQLite is an optional database path mirroring the CSV output
	SQLite       string                 `json:"sqlite"`
	LogLevel     string                 `json:"log_level"`
	Expectations normalize.Expectations `json:"expectations"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		DataDir:           "data",
		Store:             StoreDisk,
		RedisURL:          "redis://localhost:6379/0",
		RedisPrefix:       storage.DefaultRedisPrefix,
		BaseURL:           fetch.BaseURL,
		Seasons:           "2000-2010",
		Attempts:          fetch.DefaultAttempts,
		DelaySeconds:      fetch.DefaultBaseDelay.Seconds(),
		RequestsPerMinute: fetch.DefaultRequestsPerMinute,
		TimeoutSeconds:    fetch.DefaultTimeout.Seconds(),
		LogLevel:          "INFO",
		Expectations:      normalize.DefaultExpectations(),
	}
}

// Load returns the defaults overlaid with the file at path and then with
// its ".local" sibling (settings.json5 -> settings.local.json5) when present.
// An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	if err := overlay(&cfg, path, true); err != nil {
		return cfg, err
	}
	ext := filepath.Ext(path)
	local := strings.TrimSuffix(path, ext) + ".local" + ext
	if err := overlay(&cfg, local, false); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func overlay(cfg *Config, path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	var file Config
	if err := json5.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := mergo.Merge(cfg, file, mergo.WithOverride); err != nil {
		return fmt.Errorf("merging config %s: %w", path, err)
	}
	return nil
}

// Validate reports the first invalid setting
func (c Config) Validate() error {
	switch c.Store {
	case StoreDisk:
		if c.DataDir == "" {
			return errors.New("data_dir is required")
		}
	case StoreRedis:
		if c.RedisURL == "" {
			return errors.New("redis_url is required for the redis store")
		}
	default:
		return fmt.Errorf("unknown store %q (want %s or %s)", c.Store, StoreDisk, StoreRedis)
	}
	if c.Attempts < 1 {
		return fmt.Errorf("attempts must be at least 1, got %d", c.Attempts)
	}
	if c.DelaySeconds < 0 || c.RequestsPerMinute < 0 || c.TimeoutSeconds < 0 {
		return errors.New("delay, rate and timeout must not be negative")
	}
	if _, err := ParseSeasons(c.Seasons); err != nil {
		return err
	}
	return nil
}

// RetryPolicy returns the fetch retry policy
func (c Config) RetryPolicy() fetch.RetryPolicy {
	return fetch.RetryPolicy{MaxAttempts: c.Attempts, BaseDelay: seconds(c.DelaySeconds)}
}

// Timeout returns the per-request timeout
func (c Config) Timeout() time.Duration {
	return seconds(c.TimeoutSeconds)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
