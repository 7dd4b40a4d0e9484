package repository_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/okian/nova/internal/adapters/repository"
	"github.com/okian/nova/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var base = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func at(id, athlete string, wt model.WorkoutType, when time.Time) model.Workout {
	return model.Workout{
		ID:         id,
		AthleteID:  athlete,
		Type:       wt,
		Status:     model.StatusFinished,
		FinishedAt: model.NewTimestamp(when),
	}
}

func ids(ws []model.Workout) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.ID
	}
	return out
}

type factory struct {
	name string
	open func(t *testing.T) repository.Store
}

func factories() []factory {
	return []factory{
		{name: "memory", open: func(*testing.T) repository.Store { return repository.NewMemoryStore() }},
		{name: "sqlite", open: func(t *testing.T) repository.Store {
			s, err := repository.OpenSQLite(context.Background(), ":memory:")
			if err != nil {
				t.Fatalf("open sqlite: %v", err)
			}
			return s
		}},
	}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()

	for _, f := range factories() {
		Convey("Given a "+f.name+" store", t, func() {
			store := f.open(t)
			defer store.Close()

			Convey("When the athlete is unknown", func() {
				_, err := store.Recent(ctx, "nobody", time.Time{})

				Convey("Then Recent should report ErrNotFound", func() {
					So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				})
			})

			Convey("When workouts are appended out of order", func() {
				for _, w := range []model.Workout{
					at("w2", "a1", model.TypeRun, base.Add(-10*time.Hour)),
					at("w1", "a1", model.TypeBoxing, base.Add(-30*time.Hour)),
					at("w3", "a1", model.TypeSauna, base.Add(-2*time.Hour)),
					at("x1", "a2", model.TypeStrength, base.Add(-1*time.Hour)),
				} {
					ok, err := store.Append(ctx, w)
					So(err, ShouldBeNil)
					So(ok, ShouldBeTrue)
				}

				Convey("Then Recent should return the athlete's history newest first", func() {
					got, err := store.Recent(ctx, "a1", time.Time{})
					So(err, ShouldBeNil)
					So(ids(got), ShouldResemble, []string{"w3", "w2", "w1"})
					So(got[0].Type, ShouldEqual, model.TypeSauna)
					So(got[0].FinishedAt.Equal(base.Add(-2*time.Hour)), ShouldBeTrue)
				})

				Convey("Then since should bound the window inclusively", func() {
					got, err := store.Recent(ctx, "a1", base.Add(-10*time.Hour))
					So(err, ShouldBeNil)
					So(ids(got), ShouldResemble, []string{"w3", "w2"})
				})

				Convey("Then an empty window should not be ErrNotFound", func() {
					got, err := store.Recent(ctx, "a1", base)
					So(err, ShouldBeNil)
					So(got, ShouldBeEmpty)
				})

				Convey("Then counts should cover every athlete", func() {
					n, err := store.Count(ctx)
					So(err, ShouldBeNil)
					So(n, ShouldEqual, 4)
					a, err := store.Athletes(ctx)
					So(err, ShouldBeNil)
					So(a, ShouldEqual, 2)
				})

				Convey("Then a duplicate id should not be stored twice", func() {
					ok, err := store.Append(ctx, at("w2", "a1", model.TypeRun, base))
					So(err, ShouldBeNil)
					So(ok, ShouldBeFalse)
					n, _ := store.Count(ctx)
					So(n, ShouldEqual, 4)
				})

				Convey("Then Prune should drop workouts before the cutoff", func() {
					removed, err := store.Prune(ctx, base.Add(-5*time.Hour))
					So(err, ShouldBeNil)
					So(removed, ShouldEqual, 2)

					got, err := store.Recent(ctx, "a1", time.Time{})
					So(err, ShouldBeNil)
					So(ids(got), ShouldResemble, []string{"w3"})
				})

				Convey("Then pruning an athlete's whole history should forget the athlete", func() {
					_, err := store.Prune(ctx, base)
					So(err, ShouldBeNil)
					_, err = store.Recent(ctx, "a2", time.Time{})
					So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
					a, _ := store.Athletes(ctx)
					So(a, ShouldEqual, 0)
				})
			})

			Convey("When workouts share a timestamp", func() {
				for _, id := range []string{"t-b", "t-c", "t-a"} {
					_, err := store.Append(ctx, at(id, "a1", model.TypeStretching, base.Add(-time.Hour)))
					So(err, ShouldBeNil)
				}

				Convey("Then ties should be ordered by id descending", func() {
					got, err := store.Recent(ctx, "a1", time.Time{})
					So(err, ShouldBeNil)
					So(ids(got), ShouldResemble, []string{"t-c", "t-b", "t-a"})
				})
			})

			Convey("When a hybrid workout round-trips", func() {
				w := at("h1", "a1", model.TypeHybrid, base)
				w.SessionData.Chapters = []model.Chapter{
					{Type: "boxing", Data: map[string]any{"rounds": float64(6)}},
					{Type: "recovery", Data: map[string]any{"modality": "sauna"}},
				}
				_, err := store.Append(ctx, w)
				So(err, ShouldBeNil)

				got, err := store.Recent(ctx, "a1", time.Time{})
				So(err, ShouldBeNil)

				Convey("Then chapters and their data should survive", func() {
					So(got, ShouldHaveLength, 1)
					So(got[0].SessionData.Chapters, ShouldHaveLength, 2)
					So(got[0].SessionData.Chapters[1].Modality(), ShouldEqual, "sauna")
					So(got[0].SessionData.Chapters[0].Data["rounds"], ShouldEqual, float64(6))
				})
			})

			Convey("When a workout is missing its ids", func() {
				_, errID := store.Append(ctx, at("", "a1", model.TypeRun, base))
				_, errAthlete := store.Append(ctx, at("w9", "", model.TypeRun, base))

				Convey("Then it should be rejected", func() {
					So(errors.Is(errID, repository.ErrInvalidWorkout), ShouldBeTrue)
					So(errors.Is(errAthlete, repository.ErrInvalidWorkout), ShouldBeTrue)
				})
			})

			Convey("When many goroutines append", func() {
				var wg sync.WaitGroup
				for g := 0; g < 8; g++ {
					wg.Add(1)
					go func(g int) {
						defer wg.Done()
						for i := 0; i < 25; i++ {
							w := at(fmt.Sprintf("g%d-%d", g, i), fmt.Sprintf("a%d", g%3), model.TypeRun, base.Add(-time.Duration(i)*time.Minute))
							_, _ = store.Append(ctx, w)
						}
					}(g)
				}
				wg.Wait()

				Convey("Then every workout should be stored once", func() {
					n, err := store.Count(ctx)
					So(err, ShouldBeNil)
					So(n, ShouldEqual, 200)
				})
			})
		})
	}
}

func TestSQLitePersistence(t *testing.T) {
	ctx := context.Background()

	Convey("Given a SQLite file", t, func() {
		path := filepath.Join(t.TempDir(), "data", "nova.db")

		s, err := repository.OpenSQLite(ctx, path)
		So(err, ShouldBeNil)
		_, err = s.Append(ctx, at("w1", "a1", model.TypeMuayThai, base))
		So(err, ShouldBeNil)
		So(s.Close(), ShouldBeNil)

		Convey("When it is reopened", func() {
			reopened, err := repository.OpenSQLite(ctx, path)
			So(err, ShouldBeNil)
			defer reopened.Close()

			Convey("Then the history should still be there", func() {
				got, err := reopened.Recent(ctx, "a1", time.Time{})
				So(err, ShouldBeNil)
				So(ids(got), ShouldResemble, []string{"w1"})
				So(got[0].Type, ShouldEqual, model.TypeMuayThai)
			})
		})
	})

	Convey("Given an empty path", t, func() {
		_, err := repository.OpenSQLite(ctx, "")

		Convey("Then opening should fail", func() {
			So(err, ShouldNotBeNil)
		})
	})
}

func TestMemoryStoreClose(t *testing.T) {
	Convey("Given a closed memory store", t, func() {
		s := repository.NewMemoryStore()
		So(s.Close(), ShouldBeNil)

		Convey("Then every operation should report ErrClosed", func() {
			_, err := s.Append(context.Background(), at("w1", "a1", model.TypeRun, base))
			So(errors.Is(err, repository.ErrClosed), ShouldBeTrue)
			_, err = s.Recent(context.Background(), "a1", time.Time{})
			So(errors.Is(err, repository.ErrClosed), ShouldBeTrue)
			_, err = s.Prune(context.Background(), base)
			So(errors.Is(err, repository.ErrClosed), ShouldBeTrue)
		})
	})
}
