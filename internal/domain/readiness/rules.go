package readiness

import (
	"fmt"
	"sort"

	"github.com/okian/nova/internal/domain/model"
)

// recoveryDeficitWindow is how many of the latest finished sessions are
// searched for a recovery session.
const recoveryDeficitWindow = 3

// Priority orders recommendations for display.
type Priority int

// Priorities, most urgent first.
const (
	PriorityHigh Priority = iota
	PriorityMedium
	PriorityLow
)

// String implements fmt.Stringer.
func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	default:
		return "low"
	}
}

// MarshalText encodes the priority by name.
func (p Priority) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a priority name. Unknown names decode as low.
func (p *Priority) UnmarshalText(b []byte) error {
	switch string(b) {
	case "high":
		*p = PriorityHigh
	case "medium":
		*p = PriorityMedium
	default:
		*p = PriorityLow
	}
	return nil
}

// Recommendation is one insight produced by a rule.
type Recommendation struct {
	ID       string   `json:"id"`
	Priority Priority `json:"priority"`
	Message  string   `json:"message"`
}

// Snapshot is everything a rule may look at.
type Snapshot struct {
	Overall float64
	Zones   ZoneValues
	Boosts  ZoneValues
	// Sessions counts finished workouts inside the lookback window.
	Sessions int
	// Recent holds finished, dated workouts up to now, newest first.
	Recent []model.Workout
}

// Rule is an independent predicate with the message it emits. Rules never
// look at each other's output.
type Rule struct {
	ID       string
	Priority Priority
	Applies  func(Snapshot) bool
	Message  func(Snapshot) string
}

// Evaluate runs the rule against s.
func (r Rule) Evaluate(s Snapshot) (Recommendation, bool) {
	if r.Applies == nil || !r.Applies(s) {
		return Recommendation{}, false
	}
	return Recommendation{ID: r.ID, Priority: r.Priority, Message: r.Message(s)}, true
}

// Built-in rules.
var (
	CNSCaution = Rule{
		ID:       "cns_caution",
		Priority: PriorityHigh,
		Applies:  func(s Snapshot) bool { return s.Zones.CNS < SteadyThreshold },
		Message: func(s Snapshot) string {
			return fmt.Sprintf("CNS readiness is %.0f%%: avoid sparring and other high-CNS combat work today.", s.Zones.CNS)
		},
	}

	FreshZoneFocus = Rule{
		ID:       "fresh_zone_focus",
		Priority: PriorityMedium,
		Applies: func(s Snapshot) bool {
			_, n := freshZones(s.Zones)
			return n == 1
		},
		Message: func(s Snapshot) string {
			z, _ := freshZones(s.Zones)
			return fmt.Sprintf("Only your %s is fresh (%.0f%%): build today's session around it.", z.DisplayName(), s.Zones.Get(z))
		},
	}

	PushPRs = Rule{
		ID:       "push_prs",
		Priority: PriorityLow,
		Applies:  func(s Snapshot) bool { return s.Sessions > 0 && s.Overall >= FreshThreshold },
		Message: func(s Snapshot) string {
			return fmt.Sprintf("Overall readiness is %.0f%%: green light to push for PRs.", s.Overall)
		},
	}

	TechnicalFlow = Rule{
		ID:       "technical_flow",
		Priority: PriorityHigh,
		Applies:  func(s Snapshot) bool { return s.Overall < SteadyThreshold },
		Message: func(s Snapshot) string {
			return fmt.Sprintf("Overall readiness is %.0f%%: favour technical flow over power.", s.Overall)
		},
	}

	RecoveryDeficit = Rule{
		ID:       "recovery_deficit",
		Priority: PriorityMedium,
		Applies: func(s Snapshot) bool {
			if len(s.Recent) == 0 {
				return false
			}
			n := min(len(s.Recent), recoveryDeficitWindow)
			for _, w := range s.Recent[:n] {
				if isRecoverySession(w) {
					return false
				}
			}
			return true
		},
		Message: func(s Snapshot) string {
			n := min(len(s.Recent), recoveryDeficitWindow)
			return fmt.Sprintf("Recovery deficit: none of your last %d sessions was a recovery session. Book an ice bath or sauna.", n)
		},
	}

	NoFreshZone = Rule{
		ID:       "no_fresh_zone",
		Priority: PriorityMedium,
		Applies: func(s Snapshot) bool {
			_, n := freshZones(s.Zones)
			return n == 0
		},
		Message: func(Snapshot) string {
			return fmt.Sprintf("No zone is above %.0f%%: keep today to mobility and active recovery.", FreshThreshold)
		},
	}

	AllClear = Rule{
		ID:       "all_clear",
		Priority: PriorityLow,
		Applies:  func(s Snapshot) bool { return s.Sessions == 0 },
		Message:  func(Snapshot) string { return "No recent training load: all systems normal." },
	}
)

// DefaultRules returns the built-in rule set.
func DefaultRules() []Rule {
	return []Rule{CNSCaution, FreshZoneFocus, PushPRs, TechnicalFlow, RecoveryDeficit, NoFreshZone, AllClear}
}

// Recommend evaluates every rule and returns the hits ordered by priority.
// Rules of equal priority keep their order in rules.
func Recommend(rules []Rule, s Snapshot) []Recommendation {
	out := make([]Recommendation, 0, len(rules))
	for _, r := range rules {
		if rec, ok := r.Evaluate(s); ok {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out
}

// freshZones returns the first fresh zone and how many zones are fresh.
func freshZones(v ZoneValues) (Zone, int) {
	var first Zone
	n := 0
	for _, z := range Zones {
		if v.Get(z) >= FreshThreshold {
			if n == 0 {
				first = z
			}
			n++
		}
	}
	return first, n
}

// isRecoverySession reports whether a workout was, or contained, recovery.
func isRecoverySession(w model.Workout) bool {
	if w.Type.IsRecovery() {
		return true
	}
	if !w.IsHybrid() {
		return false
	}
	for _, ch := range w.SessionData.Chapters {
		if ch.Type.IsRecovery() {
			return true
		}
	}
	return false
}
