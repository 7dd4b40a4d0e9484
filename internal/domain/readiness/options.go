package readiness

import (
	"math"
	"strings"
	"time"

	"github.com/okian/nova/internal/domain/model"
)

// DefaultLookback bounds how old a workout may be and still contribute.
// CNS recovers from maximum fatigue in about 31 hours, so 96 hours leaves
// room for custom tables and slower rates.
const DefaultLookback = 96 * time.Hour

// Aggregation decides how several workouts' residual fatigue combine on one
// zone.
type Aggregation int

// Aggregation policies.
const (
	// AggregateMax takes the largest residual: the most severe recent
	// stressor dominates.
	AggregateMax Aggregation = iota
	// AggregateSum adds residuals, capped at 100.
	AggregateSum
)

// String implements fmt.Stringer.
func (a Aggregation) String() string {
	if a == AggregateSum {
		return "sum"
	}
	return "max"
}

// ParseAggregation maps a config value to an Aggregation.
func ParseAggregation(s string) (Aggregation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "max":
		return AggregateMax, nil
	case "sum":
		return AggregateSum, nil
	}
	return AggregateMax, newPolicyError("aggregation", s)
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithFatigueProfile overrides the fresh fatigue of one workout type.
// Values are clamped to [0, 100].
func WithFatigueProfile(t model.WorkoutType, profile ZoneValues) Option {
	return func(e *Engine) {
		t = t.Normalize()
		if t == "" {
			return
		}
		e.table[t] = profile.clamped()
	}
}

// WithRecoveryRates overrides natural recovery rates. Non-positive entries
// keep the default for that zone.
func WithRecoveryRates(rates ZoneValues) Option {
	return func(e *Engine) {
		for _, z := range Zones {
			if r := rates.Get(z); r > 0 && !math.IsInf(r, 0) {
				e.rates.Set(z, r)
			}
		}
	}
}

// WithBoostRule adds a rule or replaces the rule for the same intervention.
func WithBoostRule(rule BoostRule) Option {
	return func(e *Engine) {
		if rule.Multiplier < 1 || rule.Window <= 0 {
			return
		}
		for i := range e.boosts {
			if e.boosts[i].Intervention == rule.Intervention {
				e.boosts[i] = rule
				return
			}
		}
		e.boosts = append(e.boosts, rule)
	}
}

// WithLookback sets the maximum workout age considered.
func WithLookback(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.lookback = d
		}
	}
}

// WithAggregation sets the same-zone aggregation policy.
func WithAggregation(a Aggregation) Option {
	return func(e *Engine) {
		e.aggregation = a
	}
}

// WithBoostStacking sets how simultaneous interventions combine.
func WithBoostStacking(s Stacking) Option {
	return func(e *Engine) {
		e.stacking = s
	}
}

// WithZoneWeights weights the overall score. Negative and non-finite
// weights count as 0; if every weight is 0 the overall score is the plain
// mean.
func WithZoneWeights(w ZoneValues) Option {
	return func(e *Engine) {
		for _, z := range Zones {
			x := w.Get(z)
			if math.IsNaN(x) || math.IsInf(x, 0) || x < 0 {
				x = 0
			}
			e.weights.Set(z, x)
		}
	}
}

// WithRules replaces the recommendation rule set.
func WithRules(rules ...Rule) Option {
	return func(e *Engine) {
		e.rules = append([]Rule(nil), rules...)
	}
}

// WithClock sets the clock used when Calculate is given a zero time.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.clock = now
		}
	}
}
