package readiness_test

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/okian/nova/internal/domain/model"
	readiness "github.com/okian/nova/internal/domain/readiness"
	. "github.com/smartystreets/goconvey/convey"
)

const epsilon = 1e-9

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func finished(id string, t model.WorkoutType, ago time.Duration) model.Workout {
	return model.Workout{
		ID:         id,
		Type:       t,
		Status:     model.StatusFinished,
		FinishedAt: model.NewTimestamp(now.Add(-ago)),
	}
}

func hybrid(id string, ago time.Duration, chapters ...model.Chapter) model.Workout {
	w := finished(id, model.TypeHybrid, ago)
	w.SessionData.Chapters = chapters
	return w
}

func recommendationIDs(r readiness.Result) []string {
	ids := make([]string, len(r.Recommendations))
	for i, rec := range r.Recommendations {
		ids[i] = rec.ID
	}
	return ids
}

func TestCalculate_EmptyHistory(t *testing.T) {
	Convey("Given no workout history", t, func() {
		result := readiness.Calculate(nil, now)

		Convey("Then every zone and the overall score should be 100", func() {
			So(result.Overall, ShouldEqual, 100)
			So(result.Zones, ShouldResemble, readiness.Uniform(100))
			So(result.RecoveryBoosts, ShouldResemble, readiness.Uniform(1))
			So(result.SessionsConsidered, ShouldEqual, 0)
			So(result.Status.Overall.Label, ShouldEqual, "Fresh")
		})

		Convey("And only the neutral insight should be emitted", func() {
			So(recommendationIDs(result), ShouldResemble, []string{"all_clear"})
		})

		Convey("And an empty slice should behave like nil", func() {
			So(readiness.Calculate([]model.Workout{}, now), ShouldResemble, result)
		})
	})
}

func TestCalculate_Scenarios(t *testing.T) {
	Convey("Given a martial arts session that finished an hour ago", t, func() {
		boxing := finished("box-1", model.TypeMartialArts, time.Hour)

		Convey("When no recovery intervention is active", func() {
			result := readiness.Calculate([]model.Workout{boxing}, now)

			Convey("Then zones should reflect one hour of natural recovery", func() {
				So(result.Zones.CNS, ShouldAlmostEqual, 100-(90-3.2), epsilon)
				So(result.Zones.UpperBody, ShouldAlmostEqual, 100-(85-4.5), epsilon)
				So(result.Zones.LowerBody, ShouldAlmostEqual, 100-(20-3.8), epsilon)
				So(result.Status.CNS.Label, ShouldEqual, "Fried")
				So(result.Status.UpperBody.Label, ShouldEqual, "Fried")
				So(result.Status.LowerBody.Label, ShouldEqual, "Steady")
			})

			Convey("And the overall score should be the mean of the zones", func() {
				mean := (result.Zones.UpperBody + result.Zones.LowerBody + result.Zones.CNS) / 3
				So(result.Overall, ShouldAlmostEqual, mean, epsilon)
			})

			Convey("And the first insight should warn against CNS-heavy work", func() {
				So(recommendationIDs(result), ShouldContain, "cns_caution")
				So(result.Recommendations[0].Priority, ShouldEqual, readiness.PriorityHigh)
			})
		})

		Convey("When a sauna session finished two hours ago", func() {
			sauna := finished("sauna-1", model.TypeSauna, 2*time.Hour)
			plain := readiness.Calculate([]model.Workout{boxing}, now)
			result := readiness.Calculate([]model.Workout{boxing, sauna}, now)

			Convey("Then the boost should multiply the recovery rate", func() {
				So(result.RecoveryBoosts, ShouldResemble, readiness.Uniform(1.8))
				So(result.Zones.CNS, ShouldAlmostEqual, 100-(90-3.2*1.8), epsilon)
				So(result.Zones.CNS, ShouldBeGreaterThan, plain.Zones.CNS)
			})
		})
	})

	Convey("Given a hybrid workout with strength and endurance chapters", t, func() {
		w := hybrid("hyb-1", time.Hour,
			model.Chapter{Type: model.TypeStrength},
			model.Chapter{Type: model.TypeEndurance, Data: map[string]any{"distance": 5.0}},
		)
		result := readiness.Calculate([]model.Workout{w}, now)

		Convey("Then each chapter should load its own zones", func() {
			So(result.Zones.UpperBody, ShouldAlmostEqual, 100-(90-4.5), epsilon)
			So(result.Zones.LowerBody, ShouldAlmostEqual, 100-(85-3.8), epsilon)
			So(result.Zones.CNS, ShouldAlmostEqual, 100-(40-3.2), epsilon)
		})

		Convey("And a hybrid without chapters should inflict nothing", func() {
			empty := readiness.Calculate([]model.Workout{hybrid("hyb-2", time.Hour)}, now)
			So(empty.Zones, ShouldResemble, readiness.Uniform(100))
		})
	})

	Convey("Given a non-hybrid workout that carries chapters", t, func() {
		w := finished("run-1", model.TypeRun, time.Hour)
		w.SessionData.Chapters = []model.Chapter{{Type: model.TypeStrength}}
		result := readiness.Calculate([]model.Workout{w}, now)

		Convey("Then only its own type should count", func() {
			So(result.Zones.UpperBody, ShouldAlmostEqual, 100-(10-4.5), epsilon)
		})
	})
}

func TestCalculate_Boundaries(t *testing.T) {
	Convey("Given a workout older than its full recovery time", t, func() {
		// CNS is the slowest: 90 / 3.2 = 28.125h
		w := finished("box-1", model.TypeMartialArts, 28*time.Hour+10*time.Minute)
		result := readiness.Calculate([]model.Workout{w}, now)

		Convey("Then it should leave no residual fatigue", func() {
			So(result.Zones, ShouldResemble, readiness.Uniform(100))
			So(result.SessionsConsidered, ShouldEqual, 1)
		})
	})

	Convey("Given an ice bath and a strength session", t, func() {
		lift := finished("lift-1", model.TypeStrength, 2*time.Hour)

		Convey("When the ice bath is exactly 24 hours old", func() {
			bath := finished("ice-1", model.TypeIceBath, 24*time.Hour)
			result := readiness.Calculate([]model.Workout{lift, bath}, now)

			Convey("Then its boost should have expired", func() {
				So(result.RecoveryBoosts, ShouldResemble, readiness.Uniform(1))
			})
		})

		Convey("When the ice bath is one second younger than 24 hours", func() {
			bath := finished("ice-1", model.TypeIceBath, 24*time.Hour-time.Second)
			result := readiness.Calculate([]model.Workout{lift, bath}, now)

			Convey("Then its boost should still apply to the limbs only", func() {
				So(result.RecoveryBoosts.UpperBody, ShouldEqual, 2.0)
				So(result.RecoveryBoosts.LowerBody, ShouldEqual, 2.0)
				So(result.RecoveryBoosts.CNS, ShouldEqual, 1.0)
				So(result.Zones.UpperBody, ShouldAlmostEqual, 100-(90-4.5*2*2), epsilon)
			})
		})
	})

	Convey("Given records that cannot contribute", t, func() {
		inProgress := finished("a", model.TypeMuayThai, time.Hour)
		inProgress.Status = model.StatusInProgress
		undated := model.Workout{ID: "b", Type: model.TypeMuayThai, Status: model.StatusFinished}
		future := finished("c", model.TypeMuayThai, -time.Hour)
		unknown := finished("d", "underwater_basket_weaving", time.Hour)

		result := readiness.Calculate([]model.Workout{inProgress, undated, future, unknown}, now)

		Convey("Then they should be skipped without failing", func() {
			So(result.Zones, ShouldResemble, readiness.Uniform(100))
			So(result.SessionsConsidered, ShouldEqual, 1) // only the unknown type is a real session
		})
	})

	Convey("Given a workout outside the lookback window", t, func() {
		engine := readiness.New(readiness.WithLookback(2 * time.Hour))
		result := engine.Calculate([]model.Workout{finished("box-1", model.TypeBoxing, 3*time.Hour)}, now)

		Convey("Then it should not be considered", func() {
			So(result.SessionsConsidered, ShouldEqual, 0)
			So(result.Zones, ShouldResemble, readiness.Uniform(100))
		})
	})
}

func TestCalculate_Properties(t *testing.T) {
	Convey("Given the same history and the same instant", t, func() {
		history := []model.Workout{
			finished("a", model.TypeMuayThai, 5*time.Hour),
			finished("b", model.TypeRun, 20*time.Hour),
			finished("c", model.TypeSauna, 3*time.Hour),
			hybrid("d", 30*time.Hour, model.Chapter{Type: model.TypeStrength}, model.Chapter{Type: model.TypeRecovery}),
		}

		Convey("Then repeated calls should return identical results", func() {
			first := readiness.Calculate(history, now)
			second := readiness.Calculate(history, now)
			So(second, ShouldResemble, first)
		})
	})

	Convey("Given increasing CNS fatigue for the same session", t, func() {
		w := finished("box-1", model.TypeBoxing, 4*time.Hour)

		Convey("Then CNS readiness should never increase", func() {
			prev := 101.0
			for cns := 0.0; cns <= 100; cns += 12.5 {
				engine := readiness.New(readiness.WithFatigueProfile(model.TypeBoxing,
					readiness.ZoneValues{UpperBody: 85, LowerBody: 20, CNS: cns}))
				got := engine.Calculate([]model.Workout{w}, now).Zones.CNS
				So(got, ShouldBeLessThanOrEqualTo, prev)
				prev = got
			}
		})
	})

	Convey("Given the clock is injected", t, func() {
		engine := readiness.New(readiness.WithClock(func() time.Time { return now }))
		result := engine.Calculate(nil, time.Time{})

		Convey("Then a zero time should fall back to it", func() {
			So(result.ComputedAt.Equal(now), ShouldBeTrue)
		})
	})
}

func TestCalculate_Policies(t *testing.T) {
	history := []model.Workout{
		finished("box-1", model.TypeBoxing, time.Hour),
		finished("box-2", model.TypeBoxing, 2*time.Hour),
	}

	Convey("Given two overlapping combat sessions", t, func() {
		Convey("When aggregating by maximum", func() {
			result := readiness.Calculate(history, now)

			Convey("Then the most severe session should dominate", func() {
				So(result.Zones.CNS, ShouldAlmostEqual, 100-(90-3.2), epsilon)
			})
		})

		Convey("When aggregating by sum", func() {
			result := readiness.New(readiness.WithAggregation(readiness.AggregateSum)).Calculate(history, now)

			Convey("Then fatigue should accumulate and cap at 100", func() {
				So(result.Zones.CNS, ShouldEqual, 0)
				So(result.Zones.LowerBody, ShouldAlmostEqual, 100-(20-3.8)-(20-7.6), epsilon)
			})
		})
	})

	Convey("Given an ice bath and a sauna active at once", t, func() {
		both := []model.Workout{
			finished("lift", model.TypeStrength, time.Hour),
			finished("ice", model.TypeIceBath, 2*time.Hour),
			finished("sauna", model.TypeSauna, 3*time.Hour),
		}

		Convey("When stacking by maximum", func() {
			result := readiness.Calculate(both, now)

			Convey("Then the strongest boost per zone should win", func() {
				So(result.RecoveryBoosts.UpperBody, ShouldEqual, 2.0)
				So(result.RecoveryBoosts.CNS, ShouldEqual, 1.8)
			})
		})

		Convey("When stacking multiplicatively", func() {
			result := readiness.New(readiness.WithBoostStacking(readiness.StackMultiply)).Calculate(both, now)

			Convey("Then distinct interventions should multiply", func() {
				So(result.RecoveryBoosts.UpperBody, ShouldAlmostEqual, 3.6, epsilon)
				So(result.RecoveryBoosts.CNS, ShouldAlmostEqual, 1.8, epsilon)
			})
		})

		Convey("When the same intervention repeats", func() {
			twice := append(both, finished("sauna-2", model.TypeSauna, 4*time.Hour))
			result := readiness.New(readiness.WithBoostStacking(readiness.StackMultiply)).Calculate(twice, now)

			Convey("Then it should only count once", func() {
				So(result.RecoveryBoosts.CNS, ShouldAlmostEqual, 1.8, epsilon)
			})
		})
	})

	Convey("Given recovery interventions recorded as modalities", t, func() {
		lift := finished("lift", model.TypeStrength, time.Hour)
		rec := finished("rec", model.TypeRecovery, 2*time.Hour)
		rec.SessionData.Modality = "Ice Bath"
		mixed := hybrid("mix", 3*time.Hour, model.Chapter{Type: model.TypeRecovery, Data: map[string]any{"modality": "sauna"}})

		result := readiness.Calculate([]model.Workout{lift, rec, mixed}, now)

		Convey("Then both should be recognised", func() {
			So(result.RecoveryBoosts.UpperBody, ShouldEqual, 2.0)
			So(result.RecoveryBoosts.CNS, ShouldEqual, 1.8)
		})
	})

	Convey("Given zone weights", t, func() {
		history := []model.Workout{finished("box-1", model.TypeBoxing, time.Hour)}

		Convey("When only CNS is weighted", func() {
			result := readiness.New(readiness.WithZoneWeights(readiness.ZoneValues{CNS: 1})).Calculate(history, now)

			Convey("Then overall should equal CNS readiness", func() {
				So(result.Overall, ShouldAlmostEqual, result.Zones.CNS, epsilon)
			})
		})

		Convey("When every weight is zero or negative", func() {
			result := readiness.New(readiness.WithZoneWeights(readiness.ZoneValues{UpperBody: -1})).Calculate(history, now)
			plain := readiness.Calculate(history, now)

			Convey("Then overall should fall back to the mean", func() {
				So(result.Overall, ShouldAlmostEqual, plain.Overall, epsilon)
			})
		})

		Convey("When a weight is not finite", func() {
			for _, w := range []float64{math.NaN(), math.Inf(1)} {
				engine := readiness.New(readiness.WithZoneWeights(readiness.ZoneValues{UpperBody: 1, CNS: w}))
				empty := engine.Calculate(nil, now)
				boxed := engine.Calculate(history, now)

				Convey(fmt.Sprintf("Then a %g weight should count as zero", w), func() {
					So(empty.Overall, ShouldEqual, 100.0)
					So(empty.Status.Overall.Tier, ShouldEqual, readiness.TierFresh)
					So(boxed.Overall, ShouldAlmostEqual, boxed.Zones.UpperBody, epsilon)
				})
			}
		})
	})

	Convey("Given policy names from configuration", t, func() {
		Convey("Then known names should parse and unknown ones fail", func() {
			a, err := readiness.ParseAggregation("SUM")
			So(err, ShouldBeNil)
			So(a, ShouldEqual, readiness.AggregateSum)

			s, err := readiness.ParseStacking("multiply")
			So(err, ShouldBeNil)
			So(s, ShouldEqual, readiness.StackMultiply)

			_, err = readiness.ParseAggregation("median")
			So(errors.Is(err, readiness.ErrUnknownPolicy), ShouldBeTrue)
			_, err = readiness.ParseStacking("add")
			So(errors.Is(err, readiness.ErrUnknownPolicy), ShouldBeTrue)
		})
	})
}

func TestEngine_Horizon(t *testing.T) {
	Convey("Given engines with different lookbacks", t, func() {
		Convey("Then the horizon should cover the lookback", func() {
			So(readiness.New().Horizon(), ShouldEqual, readiness.DefaultLookback)
		})

		Convey("Then a short lookback should still cover the sauna window", func() {
			e := readiness.New(readiness.WithLookback(6 * time.Hour))
			So(e.Lookback(), ShouldEqual, 6*time.Hour)
			So(e.Horizon(), ShouldEqual, 48*time.Hour)
		})
	})
}
