package model_test

import (
	"encoding/json"
	"testing"
	"time"

	model "github.com/okian/nova/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestTimestamp(t *testing.T) {
	convey.Convey("Given timestamps in the formats the backend emits", t, func() {
		want := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

		convey.Convey("When decoding an RFC 3339 string", func() {
			var ts model.Timestamp
			err := json.Unmarshal([]byte(`"2025-03-14T10:30:00+01:00"`), &ts)

			convey.Convey("Then it should resolve to the same instant", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(ts.Equal(want), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When decoding a zone-less ISO string", func() {
			var ts model.Timestamp
			err := json.Unmarshal([]byte(`"2025-03-14T09:30:00.000000"`), &ts)

			convey.Convey("Then it should be read as UTC", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(ts.Equal(want), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When decoding epoch milliseconds", func() {
			var ts model.Timestamp
			err := json.Unmarshal([]byte("1741944600000"), &ts)

			convey.Convey("Then it should resolve to the same instant", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(ts.Equal(want), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When decoding instants outside years 1 to 9999", func() {
			for _, raw := range []string{"1e15", "-1e15", "1e300", `"0000-06-01T00:00:00Z"`} {
				var ts model.Timestamp
				err := json.Unmarshal([]byte(raw), &ts)

				convey.Convey("Then "+raw+" should decode to zero", func() {
					convey.So(err, convey.ShouldBeNil)
					convey.So(ts.IsZero(), convey.ShouldBeTrue)
				})
			}
		})

		convey.Convey("When parsing query instants", func() {
			_, ok := model.ParseTime("1e15")
			last, okLast := model.ParseTime("9999-12-31T23:59:59Z")

			convey.Convey("Then only encodable years should parse", func() {
				convey.So(ok, convey.ShouldBeFalse)
				convey.So(okLast, convey.ShouldBeTrue)
				convey.So(last.Year(), convey.ShouldEqual, 9999)
			})
		})

		convey.Convey("When decoding garbage", func() {
			var ts model.Timestamp
			err := json.Unmarshal([]byte(`"yesterday-ish"`), &ts)

			convey.Convey("Then it should decode to zero without failing", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(ts.IsZero(), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When encoding", func() {
			b1, _ := json.Marshal(model.NewTimestamp(want))
			b2, _ := json.Marshal(model.Timestamp{})

			convey.Convey("Then set values are RFC 3339 and zero is null", func() {
				convey.So(string(b1), convey.ShouldEqual, `"2025-03-14T09:30:00Z"`)
				convey.So(string(b2), convey.ShouldEqual, "null")
			})
		})
	})
}

func TestWorkout(t *testing.T) {
	convey.Convey("Given a workout document with one malformed timestamp", t, func() {
		doc := `{
			"id": "w-1",
			"workout_type": "hybrid",
			"status": "finished",
			"created_date": "not a date",
			"started_at": "2025-03-14T08:00:00Z",
			"finished_at": null,
			"session_data": {"chapters": [
				{"type": "strength", "data": {"sets": 5}},
				{"type": "recovery", "data": {"modality": "sauna"}}
			]}
		}`

		var w model.Workout
		err := json.Unmarshal([]byte(doc), &w)

		convey.Convey("Then the document should still decode", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(w.IsHybrid(), convey.ShouldBeTrue)
			convey.So(w.Finished(), convey.ShouldBeTrue)
			convey.So(w.SessionData.Chapters, convey.ShouldHaveLength, 2)
			convey.So(w.SessionData.Chapters[1].Modality(), convey.ShouldEqual, "sauna")
		})

		convey.Convey("And OccurredAt should fall back to started_at", func() {
			at, ok := w.OccurredAt()
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(at.Equal(time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given a workout without any timestamp", t, func() {
		w := model.Workout{ID: "w-2", Type: model.TypeRun, Status: model.StatusFinished}

		convey.Convey("Then OccurredAt should report it unusable", func() {
			_, ok := w.OccurredAt()
			convey.So(ok, convey.ShouldBeFalse)
		})
	})

	convey.Convey("Given workout types", t, func() {
		convey.Convey("Then recovery activities should be recognised regardless of case", func() {
			convey.So(model.WorkoutType(" Sauna ").IsRecovery(), convey.ShouldBeTrue)
			convey.So(model.TypeIceBath.IsRecovery(), convey.ShouldBeTrue)
			convey.So(model.TypeRecovery.IsRecovery(), convey.ShouldBeTrue)
			convey.So(model.TypeBoxing.IsRecovery(), convey.ShouldBeFalse)
		})

		convey.Convey("Then only finished status counts as finished", func() {
			convey.So(model.Workout{Status: model.StatusInProgress}.Finished(), convey.ShouldBeFalse)
			convey.So(model.Workout{Status: "FINISHED"}.Finished(), convey.ShouldBeTrue)
		})
	})
}
