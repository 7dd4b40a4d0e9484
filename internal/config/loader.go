package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/okian/nova/internal/domain/readiness"
)

// Environment names read by Load.
const (
	EnvPrefix     = "NOVA_"
	EnvConfigFile = "NOVA_CONFIG"
)

// map-valued keys whose zone is addressed with a suffix in env vars,
// e.g. NOVA_ZONE_WEIGHTS_CNS.
var nestedKeys = []string{"zone_weights", "recovery_rates"} //nolint:gochecknoglobals // fixed key list

// profilesKey is addressed by type and zone, e.g.
// NOVA_FATIGUE_PROFILES_MUAY_THAI_LOWER_BODY.
const profilesKey = "fatigue_profiles"

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if NOVA_CONFIG is set
//  3. env (prefix NOVA_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: reading %s: %w", ErrLoadConfig, path, err)
		}
	}

	// NOVA_QUEUE_SIZE -> queue_size, NOVA_ZONE_WEIGHTS_CNS -> zone_weights.cns
	envProvider := env.Provider(EnvPrefix, ".", envKey)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: reading environment: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	if s == "config" {
		return ""
	}
	for _, nested := range nestedKeys {
		if strings.HasPrefix(s, nested+"_") {
			return nested + "." + strings.TrimPrefix(s, nested+"_")
		}
	}
	if rest, ok := strings.CutPrefix(s, profilesKey+"_"); ok {
		// Both type and zone names contain underscores; split on the zone.
		for _, z := range readiness.Zones {
			if wt, ok := strings.CutSuffix(rest, "_"+string(z)); ok && wt != "" {
				return profilesKey + "." + wt + "." + string(z)
			}
		}
	}
	return s
}
