package readiness_test

import (
	"testing"
	"time"

	"github.com/okian/nova/internal/domain/model"
	readiness "github.com/okian/nova/internal/domain/readiness"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCoachContext(t *testing.T) {
	Convey("Given a readiness result after a boxing session and a sauna", t, func() {
		engine := readiness.New()
		result := engine.Calculate([]model.Workout{
			finished("box-1", model.TypeBoxing, time.Hour),
			finished("sauna-1", model.TypeSauna, 2*time.Hour),
		}, now)

		text := engine.CoachContext(result)

		Convey("Then it should describe the zones and active boosts", func() {
			So(text, ShouldContainSubstring, "Readiness as of 2025-06-01T12:00:00Z")
			So(text, ShouldContainSubstring, "- CNS: 16% (Fried), recovering 1.8x faster")
		})

		Convey("And it should carry the same table the engine used", func() {
			So(text, ShouldContainSubstring, "- boxing: 85 / 20 / 90")
			So(text, ShouldContainSubstring, "- CNS: 3.2")
			So(text, ShouldContainSubstring, "- ice bath: 2.0x on upper body, lower body for 24 hours")
		})

		Convey("And overridden profiles should show up in the prompt", func() {
			custom := readiness.New(readiness.WithFatigueProfile(model.TypeBoxing, readiness.Uniform(50)))
			So(custom.CoachContext(result), ShouldContainSubstring, "- boxing: 50 / 50 / 50")
		})

		Convey("And insights should be listed with their priority", func() {
			So(text, ShouldContainSubstring, "- [high] CNS readiness is 16%")
		})
	})
}
