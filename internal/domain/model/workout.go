// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"
)

// WorkoutType identifies what kind of session a workout (or chapter) was.
type WorkoutType string

// Known workout and chapter types. Values outside this set are kept as-is
// and contribute no fatigue.
const (
	TypeMartialArts  WorkoutType = "martial_arts"
	TypeBoxing       WorkoutType = "boxing"
	TypeMuayThai     WorkoutType = "muay_thai"
	TypeStrength     WorkoutType = "strength"
	TypeGym          WorkoutType = "gym"
	TypeCalisthenics WorkoutType = "calisthenics"
	TypeEndurance    WorkoutType = "endurance"
	TypeRun          WorkoutType = "run"
	TypeRecovery     WorkoutType = "recovery"
	TypeIceBath      WorkoutType = "ice_bath"
	TypeSauna        WorkoutType = "sauna"
	TypeStretching   WorkoutType = "stretching"
	TypeHybrid       WorkoutType = "hybrid"
)

// Normalize lower-cases and trims the type so lookups are forgiving of
// client formatting.
func (t WorkoutType) Normalize() WorkoutType {
	return WorkoutType(strings.ToLower(strings.TrimSpace(string(t))))
}

// IsRecovery reports whether the type is a recovery activity.
func (t WorkoutType) IsRecovery() bool {
	switch t.Normalize() {
	case TypeRecovery, TypeIceBath, TypeSauna, TypeStretching:
		return true
	}
	return false
}

// Status is the lifecycle state of a workout record.
type Status string

// Workout statuses. Only finished workouts count toward fatigue.
const (
	StatusFinished   Status = "finished"
	StatusInProgress Status = "in_progress"
)

// Workout is a logged training session as stored by the backend.
type Workout struct {
	ID          string      `json:"id"`
	AthleteID   string      `json:"athlete_id,omitempty"`
	Type        WorkoutType `json:"workout_type"`
	Status      Status      `json:"status"`
	CreatedDate Timestamp   `json:"created_date"`
	StartedAt   Timestamp   `json:"started_at"`
	FinishedAt  Timestamp   `json:"finished_at"`
	SessionData SessionData `json:"session_data"`
}

// SessionData carries the per-session payload.
type SessionData struct {
	// Chapters are only present on hybrid workouts.
	Chapters []Chapter `json:"chapters,omitempty"`
	// Modality names the intervention of a recovery workout, e.g. "sauna".
	Modality string `json:"modality,omitempty"`
}

// Chapter is one typed segment of a hybrid workout.
type Chapter struct {
	Type WorkoutType    `json:"type"`
	Data map[string]any `json:"data,omitempty"`
}

// Modality returns the recovery modality recorded on the chapter, if any.
func (c Chapter) Modality() string {
	if c.Data == nil {
		return ""
	}
	s, _ := c.Data["modality"].(string)
	return s
}

// Finished reports whether the workout completed.
func (w Workout) Finished() bool {
	return Status(strings.ToLower(string(w.Status))) == StatusFinished
}

// IsHybrid reports whether the workout is composed of chapters.
func (w Workout) IsHybrid() bool {
	return w.Type.Normalize() == TypeHybrid
}

// OccurredAt returns the moment the workout took effect: finished_at, then
// started_at, then created_date. ok is false when none is usable.
func (w Workout) OccurredAt() (time.Time, bool) {
	for _, ts := range []Timestamp{w.FinishedAt, w.StartedAt, w.CreatedDate} {
		if !ts.IsZero() {
			return ts.Time, true
		}
	}
	return time.Time{}, false
}
