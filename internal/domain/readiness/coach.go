package readiness

import (
	"fmt"
	"strings"
	"time"
)

// CoachContext renders r as plain text for the AI coach prompt. The recovery
// rates, boost rules and fatigue table come from the engine that produced
// the numbers, so the prompt cannot drift from the math.
func (e *Engine) CoachContext(r Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Readiness as of %s\n", r.ComputedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Overall: %.0f%% (%s)\n", r.Overall, r.Status.Overall.Label)
	for _, z := range Zones {
		st := Classify(r.Zones.Get(z))
		fmt.Fprintf(&b, "- %s: %.0f%% (%s)", z.DisplayName(), r.Zones.Get(z), st.Label)
		if m := r.RecoveryBoosts.Get(z); m > 1 {
			fmt.Fprintf(&b, ", recovering %.1fx faster", m)
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "Sessions in the last %.0f hours: %d\n", e.lookback.Hours(), r.SessionsConsidered)

	b.WriteString("\nRecovery model (percent recovered per hour):\n")
	for _, z := range Zones {
		fmt.Fprintf(&b, "- %s: %.1f\n", z.DisplayName(), e.rates.Get(z))
	}

	b.WriteString("\nRecovery boosts:\n")
	for _, rule := range e.boosts {
		names := make([]string, len(rule.Zones))
		for i, z := range rule.Zones {
			names[i] = z.DisplayName()
		}
		fmt.Fprintf(&b, "- %s: %.1fx on %s for %.0f hours\n",
			strings.ReplaceAll(string(rule.Intervention), "_", " "), rule.Multiplier, strings.Join(names, ", "), rule.Window.Hours())
	}

	b.WriteString("\nFatigue inflicted per session (upper / lower / CNS):\n")
	for _, row := range e.table.Rows() {
		fmt.Fprintf(&b, "- %s: %.0f / %.0f / %.0f\n", row.Type, row.Fatigue.UpperBody, row.Fatigue.LowerBody, row.Fatigue.CNS)
	}

	if len(r.Recommendations) > 0 {
		b.WriteString("\nInsights:\n")
		for _, rec := range r.Recommendations {
			fmt.Fprintf(&b, "- [%s] %s\n", rec.Priority, rec.Message)
		}
	}
	return b.String()
}
