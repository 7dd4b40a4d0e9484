// Package readiness computes per-zone training readiness from workout
// history.
//
// Each finished workout inflicts fresh fatigue on the upper body, lower body
// and CNS according to a fatigue table. Fatigue decays linearly at a
// per-zone rate, faster while a recovery intervention (ice bath, sauna,
// stretching) is active. Readiness is 100 minus the remaining fatigue.
//
// The engine is a pure function of (workouts, now). An Engine is immutable
// once built and safe for concurrent use.
package readiness

import (
	"math"
	"sort"
	"time"

	"github.com/okian/nova/internal/domain/model"
)

// Result is the readiness computed at one instant.
type Result struct {
	Overall            float64          `json:"overall"`
	Zones              ZoneValues       `json:"zones"`
	RecoveryBoosts     ZoneValues       `json:"recovery_boosts"`
	Recommendations    []Recommendation `json:"recommendations"`
	Status             StatusReport     `json:"status"`
	SessionsConsidered int              `json:"sessions_considered"`
	ComputedAt         time.Time        `json:"computed_at"`
}

// Engine holds the tunables of the readiness model.
type Engine struct {
	table       Table
	rates       ZoneValues
	boosts      []BoostRule
	lookback    time.Duration
	aggregation Aggregation
	stacking    Stacking
	weights     ZoneValues
	rules       []Rule
	clock       func() time.Time
}

// New creates an Engine with the built-in model and applies opts.
func New(opts ...Option) *Engine {
	e := &Engine{
		table:       defaultTable.clone(),
		rates:       DefaultRecoveryRates,
		boosts:      DefaultBoostRules(),
		lookback:    DefaultLookback,
		aggregation: AggregateMax,
		stacking:    StackMax,
		rules:       DefaultRules(),
		clock:       time.Now,
	}

	// Apply all options
	for _, opt := range opts {
		opt(e)
	}

	return e
}

var defaultEngine = New()

// Calculate computes readiness with the built-in model. A zero now means
// the current wall-clock time; a nil history is an empty history.
func Calculate(workouts []model.Workout, now time.Time) Result {
	return defaultEngine.Calculate(workouts, now)
}

// Table returns a copy of the engine's fatigue table.
func (e *Engine) Table() Table { return e.table.clone() }

// RecoveryRates returns the engine's natural recovery rates.
func (e *Engine) RecoveryRates() ZoneValues { return e.rates }

// BoostRules returns a copy of the engine's intervention rules.
func (e *Engine) BoostRules() []BoostRule {
	out := make([]BoostRule, len(e.boosts))
	for i, r := range e.boosts {
		r.Zones = append([]Zone(nil), r.Zones...)
		out[i] = r
	}
	return out
}

// Lookback returns the maximum workout age the engine considers.
func (e *Engine) Lookback() time.Duration { return e.lookback }

// Horizon is how far back a history query must reach for Calculate to see
// every workout that can still matter: the lookback or the longest boost
// window, whichever is larger.
func (e *Engine) Horizon() time.Duration {
	h := e.lookback
	for _, r := range e.boosts {
		if r.Window > h {
			h = r.Window
		}
	}
	return h
}

// session is a finished workout with a usable timestamp.
type session struct {
	workout model.Workout
	at      time.Time
}

// Calculate computes readiness for workouts as of now. A zero now means the
// engine clock. Unknown types contribute nothing and records without a usable
// timestamp, unfinished records and records dated after now are skipped.
func (e *Engine) Calculate(workouts []model.Workout, now time.Time) Result {
	if now.IsZero() {
		now = e.clock()
	}

	recent := finishedBefore(workouts, now)

	events := make([]interventionEvent, 0)
	for _, s := range recent {
		for _, kind := range interventionsOf(s.workout) {
			events = append(events, interventionEvent{kind: kind, at: s.at})
		}
	}
	boosts := resolveBoosts(events, e.boosts, e.stacking, now)

	var fatigue ZoneValues
	considered := 0
	for _, s := range recent {
		elapsed := now.Sub(s.at)
		if elapsed > e.lookback {
			continue
		}
		considered++
		hours := elapsed.Hours()
		for _, fresh := range e.contributions(s.workout) {
			for _, z := range Zones {
				r := Residual(fresh.Get(z), e.rates.Get(z), hours, boosts.Get(z))
				if r <= 0 {
					continue
				}
				if e.aggregation == AggregateSum {
					fatigue.Set(z, fatigue.Get(z)+r)
				} else {
					fatigue.Set(z, math.Max(fatigue.Get(z), r))
				}
			}
		}
	}

	var zones ZoneValues
	for _, z := range Zones {
		zones.Set(z, clampPercent(100-clampPercent(fatigue.Get(z))))
	}
	overall := e.overall(zones)

	history := make([]model.Workout, len(recent))
	for i, s := range recent {
		history[i] = s.workout
	}
	snap := Snapshot{
		Overall:  overall,
		Zones:    zones,
		Boosts:   boosts,
		Sessions: considered,
		Recent:   history,
	}

	return Result{
		Overall:            overall,
		Zones:              zones,
		RecoveryBoosts:     boosts,
		Recommendations:    Recommend(e.rules, snap),
		Status:             newStatusReport(overall, zones),
		SessionsConsidered: considered,
		ComputedAt:         now,
	}
}

// contributions returns the fresh fatigue profiles a workout inflicts.
// Hybrid workouts contribute one profile per chapter and nothing for the
// parent type; other workouts contribute their own type only.
func (e *Engine) contributions(w model.Workout) []ZoneValues {
	if !w.IsHybrid() {
		return []ZoneValues{e.table.Lookup(w.Type)}
	}
	out := make([]ZoneValues, 0, len(w.SessionData.Chapters))
	for _, ch := range w.SessionData.Chapters {
		out = append(out, e.table.Lookup(ch.Type))
	}
	return out
}

// overall folds zone readiness into one score. It is monotonic in every
// zone and maps all-100 to 100 and all-0 to 0.
func (e *Engine) overall(zones ZoneValues) float64 {
	var sum, weight float64
	for _, z := range Zones {
		sum += e.weights.Get(z) * zones.Get(z)
		weight += e.weights.Get(z)
	}
	if weight <= 0 {
		return (zones.UpperBody + zones.LowerBody + zones.CNS) / float64(len(Zones))
	}
	return clampPercent(sum / weight)
}

// finishedBefore returns finished, dated workouts not after now, newest
// first. Ties keep input order.
func finishedBefore(workouts []model.Workout, now time.Time) []session {
	out := make([]session, 0, len(workouts))
	for _, w := range workouts {
		if !w.Finished() {
			continue
		}
		at, ok := w.OccurredAt()
		if !ok || at.After(now) {
			continue
		}
		out = append(out, session{workout: w, at: at})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].at.After(out[j].at) })
	return out
}
