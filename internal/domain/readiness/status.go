package readiness

import "math"

// Tier thresholds.
const (
	FreshThreshold  = 85.0
	SteadyThreshold = 60.0
)

// Tier is a discrete readiness band.
type Tier int

// Tiers from worst to best.
const (
	TierFried Tier = iota
	TierSteady
	TierFresh
)

// String implements fmt.Stringer.
func (t Tier) String() string {
	switch t {
	case TierFresh:
		return "fresh"
	case TierSteady:
		return "steady"
	default:
		return "fried"
	}
}

// Color is the display color of a tier.
type Color string

// Tier colors.
const (
	Green Color = "green"
	Amber Color = "amber"
	Red   Color = "red"
)

// Status is the classification of a single score.
type Status struct {
	Label string `json:"label"`
	Color Color  `json:"color"`
	Tier  Tier   `json:"-"`
}

var (
	statusFresh  = Status{Label: "Fresh", Color: Green, Tier: TierFresh}
	statusSteady = Status{Label: "Steady", Color: Amber, Tier: TierSteady}
	statusFried  = Status{Label: "Fried", Color: Red, Tier: TierFried}
)

// Classify maps a score to its status. It is total over float64: scores
// above 100 are Fresh, below 0 Fried, and NaN is treated as Fried.
func Classify(score float64) Status {
	switch {
	case math.IsNaN(score):
		return statusFried
	case score >= FreshThreshold:
		return statusFresh
	case score >= SteadyThreshold:
		return statusSteady
	default:
		return statusFried
	}
}

// StatusReport classifies the overall score and every zone.
type StatusReport struct {
	Overall   Status `json:"overall"`
	UpperBody Status `json:"upper_body"`
	LowerBody Status `json:"lower_body"`
	CNS       Status `json:"cns"`
}

func newStatusReport(overall float64, zones ZoneValues) StatusReport {
	return StatusReport{
		Overall:   Classify(overall),
		UpperBody: Classify(zones.UpperBody),
		LowerBody: Classify(zones.LowerBody),
		CNS:       Classify(zones.CNS),
	}
}
