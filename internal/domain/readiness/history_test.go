package readiness_test

import (
	"errors"
	"testing"

	"github.com/okian/nova/internal/domain/model"
	readiness "github.com/okian/nova/internal/domain/readiness"
	. "github.com/smartystreets/goconvey/convey"
)

func modelType(s string) model.WorkoutType { return model.WorkoutType(s) }

func TestDecodeHistory(t *testing.T) {
	Convey("Given raw history documents", t, func() {
		Convey("When the document is null or empty", func() {
			a, errA := readiness.DecodeHistory([]byte("null"))
			b, errB := readiness.DecodeHistory([]byte("  "))

			Convey("Then it should decode to an empty history", func() {
				So(errA, ShouldBeNil)
				So(errB, ShouldBeNil)
				So(a, ShouldBeEmpty)
				So(b, ShouldBeEmpty)
			})
		})

		Convey("When the document is an object", func() {
			_, err := readiness.DecodeHistory([]byte(`{"workouts": []}`))

			Convey("Then it should be rejected as invalid input", func() {
				So(errors.Is(err, readiness.ErrInvalidInput), ShouldBeTrue)
			})
		})

		Convey("When the array is truncated", func() {
			_, err := readiness.DecodeHistory([]byte(`[{"id": "a"`))

			Convey("Then it should be rejected as invalid input", func() {
				So(errors.Is(err, readiness.ErrInvalidInput), ShouldBeTrue)
			})
		})

		Convey("When one element is not a workout", func() {
			ws, err := readiness.DecodeHistory([]byte(`[42, {"id": "a", "workout_type": "run", "status": "finished"}]`))

			Convey("Then the rest should still decode", func() {
				So(err, ShouldBeNil)
				So(ws, ShouldHaveLength, 1)
				So(ws[0].ID, ShouldEqual, "a")
			})
		})
	})
}
