// Package config loads the enumerated configuration of spec.md §6 from a
// YAML file, with env-var overrides for anything operators might rotate
// without a redeploy. Grounded on polymarket-mm's internal/config/config.go
// viper.New + SetEnvPrefix + AutomaticEnv idiom.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level configuration, mapping directly onto the YAML
// file structure.
type Config struct {
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	Paper    PaperConfig    `mapstructure:"paper"`
	Safety   SafetyConfig   `mapstructure:"safety"`
	Session  SessionConfig  `mapstructure:"session"`
	Backoff  BackoffConfig  `mapstructure:"backoff"`
	Breaker  BreakerConfig  `mapstructure:"breaker"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// SnapshotConfig tunes the Snapshot Scheduler (spec.md §4.8).
type SnapshotConfig struct {
	Interval  time.Duration `mapstructure:"interval"`
	Retention time.Duration `mapstructure:"retention"`
}

// PaperConfig tunes the Paper Engine (spec.md §4.6).
type PaperConfig struct {
	FeesPercent float64 `mapstructure:"fees_percent"`
}

// SafetyConfig tunes the Safety Monitor (spec.md §4.7).
type SafetyConfig struct {
	TicketLoss float64 `mapstructure:"ticket_loss"`
}

// SessionConfig tunes the WebSocket Session (spec.md §4.4).
type SessionConfig struct {
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	PingInterval      time.Duration `mapstructure:"ping_interval"`
}

// BackoffConfig is the exponential-backoff-plus-jitter policy
// (spec.md §4.4, §6).
type BackoffConfig struct {
	InitialMs  int64   `mapstructure:"initial_ms"`
	Multiplier float64 `mapstructure:"multiplier"`
	MaxMs      int64   `mapstructure:"max_ms"`
	JitterMs   int64   `mapstructure:"jitter_ms"`
}

// BreakerConfig is the circuit breaker's threshold/open-interval pair
// (spec.md §4.4, §6).
type BreakerConfig struct {
	Threshold    int           `mapstructure:"threshold"`
	OpenInterval time.Duration `mapstructure:"open_interval"`
}

// LoggingConfig is the ambient logging setup carried regardless of the
// spec's Non-goal on logging setup for strategies (spec.md §1): this
// module's own components still need configurable log level.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Defaults mirror spec.md §6's enumerated defaults.
func Defaults() Config {
	return Config{
		Snapshot: SnapshotConfig{Interval: time.Minute, Retention: 24 * time.Hour},
		Paper:    PaperConfig{FeesPercent: 0},
		Safety:   SafetyConfig{TicketLoss: 0},
		Session:  SessionConfig{HeartbeatInterval: 30 * time.Second, PingInterval: 29 * time.Second},
		Backoff:  BackoffConfig{InitialMs: 50, Multiplier: 2, MaxMs: 30000, JitterMs: 50},
		Breaker:  BreakerConfig{Threshold: 5, OpenInterval: 5 * time.Second},
		Logging:  LoggingConfig{Level: "info"},
	}
}

// Load reads config from a YAML file, seeded with Defaults, with env var
// overrides under the MARKETCORE_ prefix (e.g. MARKETCORE_SNAPSHOT_INTERVAL).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("MARKETCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := Defaults()
	v.SetDefault("snapshot.interval", defaults.Snapshot.Interval)
	v.SetDefault("snapshot.retention", defaults.Snapshot.Retention)
	v.SetDefault("paper.fees_percent", defaults.Paper.FeesPercent)
	v.SetDefault("safety.ticket_loss", defaults.Safety.TicketLoss)
	v.SetDefault("session.heartbeat_interval", defaults.Session.HeartbeatInterval)
	v.SetDefault("session.ping_interval", defaults.Session.PingInterval)
	v.SetDefault("backoff.initial_ms", defaults.Backoff.InitialMs)
	v.SetDefault("backoff.multiplier", defaults.Backoff.Multiplier)
	v.SetDefault("backoff.max_ms", defaults.Backoff.MaxMs)
	v.SetDefault("backoff.jitter_ms", defaults.Backoff.JitterMs)
	v.SetDefault("breaker.threshold", defaults.Breaker.Threshold)
	v.SetDefault("breaker.open_interval", defaults.Breaker.OpenInterval)
	v.SetDefault("logging.level", defaults.Logging.Level)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if lvl := os.Getenv("MARKETCORE_LOGGING_LEVEL"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	if pct := os.Getenv("MARKETCORE_PAPER_FEES_PERCENT"); pct != "" {
		if parsed, err := strconv.ParseFloat(pct, 64); err == nil {
			cfg.Paper.FeesPercent = parsed
		}
	}

	return &cfg, nil
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if c.Snapshot.Interval <= 0 {
		return fmt.Errorf("snapshot.interval must be > 0")
	}
	if c.Snapshot.Retention <= 0 {
		return fmt.Errorf("snapshot.retention must be > 0")
	}
	if c.Paper.FeesPercent < 0 {
		return fmt.Errorf("paper.fees_percent must be >= 0")
	}
	if c.Safety.TicketLoss < 0 {
		return fmt.Errorf("safety.ticket_loss must be >= 0")
	}
	if c.Backoff.Multiplier <= 1 {
		return fmt.Errorf("backoff.multiplier must be > 1")
	}
	if c.Breaker.Threshold <= 0 {
		return fmt.Errorf("breaker.threshold must be > 0")
	}
	return nil
}
