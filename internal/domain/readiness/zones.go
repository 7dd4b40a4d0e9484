package readiness

import "math"

// Zone is one of the three fatigue domains.
type Zone string

// Fatigue zones.
const (
	UpperBody Zone = "upper_body"
	LowerBody Zone = "lower_body"
	CNS       Zone = "cns"
)

// Zones lists every zone in display order.
var Zones = [...]Zone{UpperBody, LowerBody, CNS}

// DisplayName returns a human-readable zone name for messages.
func (z Zone) DisplayName() string {
	switch z {
	case UpperBody:
		return "upper body"
	case LowerBody:
		return "lower body"
	case CNS:
		return "CNS"
	default:
		return string(z)
	}
}

// Valid reports whether z names a known zone.
func (z Zone) Valid() bool {
	switch z {
	case UpperBody, LowerBody, CNS:
		return true
	}
	return false
}

// ZoneValues holds one number per zone. It is used for fatigue profiles,
// readiness percentages, recovery rates and multipliers alike.
type ZoneValues struct {
	UpperBody float64 `json:"upper_body" koanf:"upper_body"`
	LowerBody float64 `json:"lower_body" koanf:"lower_body"`
	CNS       float64 `json:"cns" koanf:"cns"`
}

// Uniform returns ZoneValues with every zone set to v.
func Uniform(v float64) ZoneValues {
	return ZoneValues{UpperBody: v, LowerBody: v, CNS: v}
}

// Get returns the value for z. Unknown zones read as 0.
func (v ZoneValues) Get(z Zone) float64 {
	switch z {
	case UpperBody:
		return v.UpperBody
	case LowerBody:
		return v.LowerBody
	case CNS:
		return v.CNS
	}
	return 0
}

// Set stores x for z. Unknown zones are ignored.
func (v *ZoneValues) Set(z Zone, x float64) {
	switch z {
	case UpperBody:
		v.UpperBody = x
	case LowerBody:
		v.LowerBody = x
	case CNS:
		v.CNS = x
	}
}

// clampPercent bounds x to [0, 100]. NaN maps to 0.
func clampPercent(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return math.Max(0, math.Min(100, x))
}

func (v ZoneValues) clamped() ZoneValues {
	return ZoneValues{
		UpperBody: clampPercent(v.UpperBody),
		LowerBody: clampPercent(v.LowerBody),
		CNS:       clampPercent(v.CNS),
	}
}
