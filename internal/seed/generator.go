package seed

import (
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/okian/nova/internal/domain/model"
)

// Session mix. Each training day draws one of these; recovery sessions are
// added on top with their own probability.
var trainingTypes = []model.WorkoutType{
	model.TypeBoxing,
	model.TypeMuayThai,
	model.TypeMartialArts,
	model.TypeStrength,
	model.TypeRun,
	model.TypeEndurance,
	model.TypeHybrid,
}

var recoveryModalities = []model.WorkoutType{
	model.TypeIceBath,
	model.TypeSauna,
	model.TypeStretching,
}

const (
	restDayChance    = 0.2
	doubleDayChance  = 0.25
	recoveryChance   = 0.4
	firstSessionHour = 7
	sessionSpread    = 12
	sessionMinutes   = 45
	sessionJitter    = 45
)

// Generate builds a history ending at now for cfg.Athletes athletes over
// cfg.Days days. Workouts are sorted per athlete oldest first and all are
// finished. Equal seeds give equal types and times; ids are always fresh.
func Generate(cfg *Config, now time.Time) []model.Workout {
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)) //nolint:gosec // synthetic data
	out := make([]model.Workout, 0, cfg.Athletes*cfg.Days*2)

	for a := 0; a < cfg.Athletes; a++ {
		athleteID := uuid.NewString()
		for d := cfg.Days - 1; d >= 0; d-- {
			day := now.Truncate(24*time.Hour).Add(-time.Duration(d) * 24 * time.Hour)
			if rng.Float64() < restDayChance {
				continue
			}

			sessions := 1
			if rng.Float64() < doubleDayChance {
				sessions = 2
			}
			for s := 0; s < sessions; s++ {
				start := day.Add(time.Duration(firstSessionHour+rng.IntN(sessionSpread)) * time.Hour)
				w := training(rng, athleteID, trainingTypes[rng.IntN(len(trainingTypes))], start)
				if end, _ := w.OccurredAt(); end.After(now) {
					continue
				}
				out = append(out, w)
			}

			if rng.Float64() < recoveryChance {
				start := day.Add(time.Duration(firstSessionHour+sessionSpread) * time.Hour)
				w := recovery(rng, athleteID, start)
				if end, _ := w.OccurredAt(); !end.After(now) {
					out = append(out, w)
				}
			}
		}
	}
	return out
}

func training(rng *rand.Rand, athleteID string, wt model.WorkoutType, start time.Time) model.Workout {
	end := start.Add(time.Duration(sessionMinutes+rng.IntN(sessionJitter)) * time.Minute)
	w := model.Workout{
		ID:          uuid.NewString(),
		AthleteID:   athleteID,
		Type:        wt,
		Status:      model.StatusFinished,
		CreatedDate: model.NewTimestamp(start),
		StartedAt:   model.NewTimestamp(start),
		FinishedAt:  model.NewTimestamp(end),
	}
	if wt == model.TypeHybrid {
		w.SessionData.Chapters = []model.Chapter{
			{Type: model.TypeStrength, Data: map[string]any{"sets": 5}},
			{Type: model.TypeRun, Data: map[string]any{"distance_km": 3}},
		}
		if rng.IntN(2) == 0 {
			w.SessionData.Chapters = append(w.SessionData.Chapters,
				model.Chapter{Type: model.TypeStretching, Data: map[string]any{"minutes": 10}})
		}
	}
	return w
}

// recovery returns a recovery workout. Half are typed by modality directly
// and half as a generic recovery session naming the modality.
func recovery(rng *rand.Rand, athleteID string, start time.Time) model.Workout {
	modality := recoveryModalities[rng.IntN(len(recoveryModalities))]
	w := model.Workout{
		ID:          uuid.NewString(),
		AthleteID:   athleteID,
		Type:        modality,
		Status:      model.StatusFinished,
		CreatedDate: model.NewTimestamp(start),
		FinishedAt:  model.NewTimestamp(start.Add(20 * time.Minute)),
	}
	if rng.IntN(2) == 0 {
		w.Type = model.TypeRecovery
		w.SessionData.Modality = string(modality)
	}
	return w
}
