// Package config defines service configuration and its layered loader.
package config

import (
	"fmt"
	"math"
	"runtime"
	"strings"
	"time"

	"github.com/okian/nova/internal/domain/model"
	"github.com/okian/nova/internal/domain/readiness"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory ingestion queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of ingestion workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds how many workout ids are remembered for idempotency.
	DedupeSize int `koanf:"dedupe_size"`

	// StoreDriver picks the history store: memory or sqlite.
	StoreDriver string `koanf:"store_driver"`

	// SQLitePath is the database file used by the sqlite driver.
	SQLitePath string `koanf:"sqlite_path"`

	// HistoryRetentionHours drops workouts older than this. 0 keeps everything.
	HistoryRetentionHours int `koanf:"history_retention_hours"`

	// LookbackHours is the maximum workout age that still contributes fatigue.
	LookbackHours float64 `koanf:"lookback_hours"`

	// Aggregation folds same-zone fatigue: max or sum.
	Aggregation string `koanf:"aggregation"`

	// BoostStacking combines concurrent interventions: max or multiply.
	BoostStacking string `koanf:"boost_stacking"`

	// ZoneWeights weights the overall score by zone. Empty means a plain mean.
	ZoneWeights map[string]float64 `koanf:"zone_weights"`

	// RecoveryRates overrides natural recovery in percentage points per hour.
	RecoveryRates map[string]float64 `koanf:"recovery_rates"`

	// FatigueProfiles overrides the fresh fatigue of workout types, keyed by
	// type then zone. Zones left out keep the built-in value.
	FatigueProfiles map[string]map[string]float64 `koanf:"fatigue_profiles"`

	// ShutdownTimeoutSeconds bounds graceful shutdown.
	ShutdownTimeoutSeconds int `koanf:"shutdown_timeout_seconds"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		LogFormat:              "text",
		Addr:                   ":9080",
		QueueSize:              10_000,
		WorkerCount:            runtime.NumCPU(),
		DedupeSize:             100_000,
		StoreDriver:            DriverMemory,
		SQLitePath:             "data/nova.db",
		HistoryRetentionHours:  24 * 14,
		LookbackHours:          readiness.DefaultLookback.Hours(),
		Aggregation:            readiness.AggregateMax.String(),
		BoostStacking:          readiness.StackMax.String(),
		ShutdownTimeoutSeconds: 10,
	}
}

// Lookback returns LookbackHours as a duration.
func (c *Config) Lookback() time.Duration {
	return time.Duration(c.LookbackHours * float64(time.Hour))
}

// Horizon returns the oldest history the engine still reads: the lookback
// or the longest boost window, whichever is longer.
func (c *Config) Horizon() time.Duration {
	h := c.Lookback()
	for _, r := range readiness.DefaultBoostRules() {
		h = max(h, r.Window)
	}
	return h
}

// Retention returns HistoryRetentionHours as a duration.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.HistoryRetentionHours) * time.Hour
}

// ShutdownTimeout returns ShutdownTimeoutSeconds as a duration.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// Validate checks every field and returns an error wrapping ErrInvalidConfig
// for the first problem found.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	case c.WorkerCount < 0:
		return fmt.Errorf("%w: worker_count must not be negative, got %d", ErrInvalidConfig, c.WorkerCount)
	case c.DedupeSize < 0:
		return fmt.Errorf("%w: dedupe_size must not be negative, got %d", ErrInvalidConfig, c.DedupeSize)
	case c.HistoryRetentionHours < 0:
		return fmt.Errorf("%w: history_retention_hours must not be negative", ErrInvalidConfig)
	case c.LookbackHours <= 0 || math.IsNaN(c.LookbackHours) || math.IsInf(c.LookbackHours, 0):
		return fmt.Errorf("%w: lookback_hours must be positive and finite", ErrInvalidConfig)
	case c.HistoryRetentionHours > 0 && c.Retention() < c.Horizon():
		return fmt.Errorf("%w: history_retention_hours (%d) must cover the readiness horizon of %s",
			ErrInvalidConfig, c.HistoryRetentionHours, c.Horizon())
	case c.ShutdownTimeoutSeconds <= 0:
		return fmt.Errorf("%w: shutdown_timeout_seconds must be positive", ErrInvalidConfig)
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}

	switch c.StoreDriver {
	case DriverMemory:
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: sqlite_path is required for the sqlite driver", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	}

	if _, err := readiness.ParseAggregation(c.Aggregation); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := readiness.ParseStacking(c.BoostStacking); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if _, err := c.Weights(); err != nil {
		return err
	}
	if _, err := c.Rates(); err != nil {
		return err
	}
	if _, err := c.Profiles(); err != nil {
		return err
	}
	return nil
}

// Weights returns ZoneWeights as readiness.ZoneValues. Zones missing from
// the map weigh 0.
func (c *Config) Weights() (readiness.ZoneValues, error) {
	return zoneMap("zone_weights", c.ZoneWeights, 0, readiness.ZoneValues{})
}

// Rates returns the natural recovery rates with RecoveryRates applied over
// the built-in defaults.
func (c *Config) Rates() (readiness.ZoneValues, error) {
	return zoneMap("recovery_rates", c.RecoveryRates, minRecoveryRate, readiness.DefaultRecoveryRates)
}

// Profiles returns FatigueProfiles overlaid on the built-in table rows.
// Types unknown to the table start from zero fatigue.
func (c *Config) Profiles() (map[model.WorkoutType]readiness.ZoneValues, error) {
	table := readiness.FatigueTable()
	out := make(map[model.WorkoutType]readiness.ZoneValues, len(c.FatigueProfiles))
	for name, zones := range c.FatigueProfiles {
		wt := model.WorkoutType(name).Normalize()
		if wt == "" || wt == model.TypeHybrid {
			return nil, fmt.Errorf("%w: fatigue_profiles cannot override %q", ErrInvalidConfig, name)
		}
		key := "fatigue_profiles." + string(wt)
		p, err := zoneMap(key, zones, 0, table.Lookup(wt))
		if err != nil {
			return nil, err
		}
		for _, z := range readiness.Zones {
			if p.Get(z) > maxFatigue {
				return nil, fmt.Errorf("%w: %s.%s must be at most %g", ErrInvalidConfig, key, z, float64(maxFatigue))
			}
		}
		out[wt] = p
	}
	return out, nil
}

const (
	minRecoveryRate = 0.01
	maxFatigue      = 100
)

// zoneMap overlays a zone-keyed map on base. Every key must name a zone and
// every value must be finite and at least minimum.
func zoneMap(key string, m map[string]float64, minimum float64, base readiness.ZoneValues) (readiness.ZoneValues, error) {
	v := base
	for name, x := range m {
		zone := readiness.Zone(strings.ToLower(strings.TrimSpace(name)))
		if !zone.Valid() {
			return v, fmt.Errorf("%w: %s has unknown zone %q", ErrInvalidConfig, key, name)
		}
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return v, fmt.Errorf("%w: %s.%s must be finite, got %g", ErrInvalidConfig, key, name, x)
		}
		if x < minimum {
			return v, fmt.Errorf("%w: %s.%s must be at least %g, got %g", ErrInvalidConfig, key, name, minimum, x)
		}
		v.Set(zone, x)
	}
	return v, nil
}
