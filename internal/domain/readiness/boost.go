package readiness

import (
	"math"
	"strings"
	"time"

	"github.com/okian/nova/internal/domain/model"
)

// Intervention is a recovery activity that accelerates natural recovery.
type Intervention string

// Known interventions.
const (
	IceBath    Intervention = "ice_bath"
	Sauna      Intervention = "sauna"
	Stretching Intervention = "stretching"
)

// BoostRule describes the multiplier an intervention applies and for how
// long after the activity it stays active.
type BoostRule struct {
	Intervention Intervention  `json:"intervention"`
	Zones        []Zone        `json:"zones"`
	Multiplier   float64       `json:"multiplier"`
	Window       time.Duration `json:"window"`
}

// DefaultBoostRules returns the built-in intervention rules.
func DefaultBoostRules() []BoostRule {
	return []BoostRule{
		{Intervention: IceBath, Zones: []Zone{UpperBody, LowerBody}, Multiplier: 2.0, Window: 24 * time.Hour},
		{Intervention: Sauna, Zones: []Zone{UpperBody, LowerBody, CNS}, Multiplier: 1.8, Window: 48 * time.Hour},
		{Intervention: Stretching, Zones: []Zone{UpperBody, LowerBody}, Multiplier: 1.3, Window: 12 * time.Hour},
	}
}

// activeAt reports whether an intervention performed at `at` still applies
// at now. The window is half-open: [at, at+Window).
func (r BoostRule) activeAt(at, now time.Time) bool {
	elapsed := now.Sub(at)
	return elapsed >= 0 && elapsed < r.Window
}

// Stacking decides how simultaneous interventions combine on one zone.
type Stacking int

// Stacking policies.
const (
	// StackMax keeps the largest active multiplier.
	StackMax Stacking = iota
	// StackMultiply multiplies the strongest multiplier of each distinct
	// active intervention.
	StackMultiply
)

// String implements fmt.Stringer.
func (s Stacking) String() string {
	if s == StackMultiply {
		return "multiply"
	}
	return "max"
}

// ParseStacking maps a config value to a Stacking policy.
func ParseStacking(s string) (Stacking, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "max":
		return StackMax, nil
	case "multiply", "product":
		return StackMultiply, nil
	}
	return StackMax, newPolicyError("boost_stacking", s)
}

// interventionEvent is an intervention performed at a point in time.
type interventionEvent struct {
	kind Intervention
	at   time.Time
}

// normalizeIntervention maps free-form modality text ("Ice Bath",
// "ice-bath") onto an Intervention.
func normalizeIntervention(s string) Intervention {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	return Intervention(s)
}

// interventionsOf lists the interventions a finished workout represents.
func interventionsOf(w model.Workout) []Intervention {
	var out []Intervention
	switch t := w.Type.Normalize(); t {
	case model.TypeIceBath, model.TypeSauna, model.TypeStretching:
		out = append(out, Intervention(t))
	case model.TypeRecovery:
		if m := w.SessionData.Modality; m != "" {
			out = append(out, normalizeIntervention(m))
		}
	case model.TypeHybrid:
		for _, ch := range w.SessionData.Chapters {
			switch ct := ch.Type.Normalize(); ct {
			case model.TypeIceBath, model.TypeSauna, model.TypeStretching:
				out = append(out, Intervention(ct))
			case model.TypeRecovery:
				if m := ch.Modality(); m != "" {
					out = append(out, normalizeIntervention(m))
				}
			}
		}
	}
	return out
}

// resolveBoosts returns the multiplier in effect at now for every zone.
// Every zone is at least 1.
func resolveBoosts(events []interventionEvent, rules []BoostRule, stacking Stacking, now time.Time) ZoneValues {
	// strongest active multiplier per zone per intervention
	best := make(map[Intervention]ZoneValues, len(rules))
	for _, ev := range events {
		for _, rule := range rules {
			if rule.Intervention != ev.kind || !rule.activeAt(ev.at, now) {
				continue
			}
			cur := best[rule.Intervention]
			for _, z := range rule.Zones {
				cur.Set(z, math.Max(cur.Get(z), rule.Multiplier))
			}
			best[rule.Intervention] = cur
		}
	}

	// distinct interventions in rule order keep the result deterministic
	order := make([]Intervention, 0, len(rules))
	seen := make(map[Intervention]bool, len(rules))
	for _, rule := range rules {
		if !seen[rule.Intervention] {
			seen[rule.Intervention] = true
			order = append(order, rule.Intervention)
		}
	}

	out := Uniform(1)
	for _, z := range Zones {
		m := 1.0
		for _, kind := range order {
			v := best[kind].Get(z)
			if v < 1 {
				continue
			}
			if stacking == StackMultiply {
				m *= v
			} else {
				m = math.Max(m, v)
			}
		}
		out.Set(z, m)
	}
	return out
}
