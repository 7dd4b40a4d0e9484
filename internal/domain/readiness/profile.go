package readiness

// Profile is a serializable description of an engine's model.
type Profile struct {
	Fatigue       []TableRow     `json:"fatigue"`
	RecoveryRates ZoneValues     `json:"recovery_rates"`
	Boosts        []BoostProfile `json:"recovery_boosts"`
	LookbackHours float64        `json:"lookback_hours"`
	Aggregation   string         `json:"aggregation"`
	BoostStacking string         `json:"boost_stacking"`
	Thresholds    Thresholds     `json:"thresholds"`
}

// BoostProfile is a BoostRule with its window in hours.
type BoostProfile struct {
	Intervention Intervention `json:"intervention"`
	Zones        []Zone       `json:"zones"`
	Multiplier   float64      `json:"multiplier"`
	WindowHours  float64      `json:"window_hours"`
}

// Thresholds are the lower bounds of the Fresh and Steady tiers.
type Thresholds struct {
	Fresh  float64 `json:"fresh"`
	Steady float64 `json:"steady"`
}

// Profile describes the engine's table, rates, boosts and policies.
func (e *Engine) Profile() Profile {
	boosts := make([]BoostProfile, len(e.boosts))
	for i, r := range e.boosts {
		boosts[i] = BoostProfile{
			Intervention: r.Intervention,
			Zones:        append([]Zone(nil), r.Zones...),
			Multiplier:   r.Multiplier,
			WindowHours:  r.Window.Hours(),
		}
	}
	return Profile{
		Fatigue:       e.table.Rows(),
		RecoveryRates: e.rates,
		Boosts:        boosts,
		LookbackHours: e.lookback.Hours(),
		Aggregation:   e.aggregation.String(),
		BoostStacking: e.stacking.String(),
		Thresholds:    Thresholds{Fresh: FreshThreshold, Steady: SteadyThreshold},
	}
}
