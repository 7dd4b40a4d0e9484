package service

import (
	"github.com/okian/nova/internal/config"
	"github.com/okian/nova/internal/domain/readiness"
)

// OptionsFromConfig translates cfg into service options. cfg is validated
// first, so every returned error wraps config.ErrInvalidConfig.
func OptionsFromConfig(cfg *config.Config) ([]Option, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	aggregation, err := readiness.ParseAggregation(cfg.Aggregation)
	if err != nil {
		return nil, err
	}
	stacking, err := readiness.ParseStacking(cfg.BoostStacking)
	if err != nil {
		return nil, err
	}
	rates, err := cfg.Rates()
	if err != nil {
		return nil, err
	}

	engineOpts := []readiness.Option{
		readiness.WithLookback(cfg.Lookback()),
		readiness.WithAggregation(aggregation),
		readiness.WithBoostStacking(stacking),
		readiness.WithRecoveryRates(rates),
	}
	profiles, err := cfg.Profiles()
	if err != nil {
		return nil, err
	}
	for wt, p := range profiles {
		engineOpts = append(engineOpts, readiness.WithFatigueProfile(wt, p))
	}
	if len(cfg.ZoneWeights) > 0 {
		weights, err := cfg.Weights()
		if err != nil {
			return nil, err
		}
		engineOpts = append(engineOpts, readiness.WithZoneWeights(weights))
	}

	opts := []Option{
		WithWorkerCount(cfg.WorkerCount),
		WithQueueSize(cfg.QueueSize),
		WithDedupeSize(cfg.DedupeSize),
		WithRetention(cfg.Retention()),
		WithEngineOptions(engineOpts...),
	}
	if cfg.StoreDriver == config.DriverSQLite {
		opts = append(opts, WithSQLite(cfg.SQLitePath))
	}
	return opts, nil
}
