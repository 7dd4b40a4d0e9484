package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	worker "github.com/okian/nova/internal/adapters/mq/worker"
	model "github.com/okian/nova/internal/domain/model"
	"github.com/okian/nova/internal/domain/readiness"
	logging "github.com/okian/nova/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing.
type mockQueue struct {
	ch   chan model.Workout
	once sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{ch: make(chan model.Workout, 64)}
}

func (mq *mockQueue) Dequeue(context.Context) <-chan model.Workout { return mq.ch }

func (mq *mockQueue) Close() error {
	mq.once.Do(func() { close(mq.ch) })
	return nil
}

type mockStore struct {
	mu     sync.Mutex
	stored map[string]model.Workout
	fail   map[string]error
}

func newMockStore() *mockStore {
	return &mockStore{stored: map[string]model.Workout{}, fail: map[string]error{}}
}

func (s *mockStore) Append(_ context.Context, w model.Workout) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.fail[w.ID]; ok {
		return false, err
	}
	if _, ok := s.stored[w.ID]; ok {
		return false, nil
	}
	s.stored[w.ID] = w
	return true, nil
}

func (s *mockStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stored)
}

type mockAssessor struct {
	mu       sync.Mutex
	athletes []string
	err      error
}

func (a *mockAssessor) Assess(_ context.Context, athleteID string) (readiness.Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.athletes = append(a.athletes, athleteID)
	if a.err != nil {
		return readiness.Result{}, a.err
	}
	return readiness.Result{Overall: 100, Status: readiness.StatusReport{Overall: readiness.Classify(100)}}, nil
}

func (a *mockAssessor) calls() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.athletes...)
}

func boxing(id, athlete string) model.Workout {
	return model.Workout{ID: id, AthleteID: athlete, Type: model.TypeBoxing, Status: model.StatusFinished}
}

// eventually polls cond until it holds or a second passes.
func eventually(cond func() bool) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return cond()
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a running InMemoryWorker", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		store := newMockStore()
		assessor := &mockAssessor{}
		w := worker.NewInMemoryWorker(q, store, worker.WithName("test-worker"), worker.WithAssessor(assessor))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When a new workout arrives", func() {
			q.ch <- boxing("w-1", "athlete-1")

			convey.Convey("Then it should be stored and readiness assessed", func() {
				convey.So(eventually(func() bool { return len(assessor.calls()) == 1 }), convey.ShouldBeTrue)
				convey.So(store.count(), convey.ShouldEqual, 1)
				convey.So(assessor.calls()[0], convey.ShouldEqual, "athlete-1")
			})
		})

		convey.Convey("When the same workout arrives twice", func() {
			q.ch <- boxing("w-1", "athlete-1")
			q.ch <- boxing("w-1", "athlete-1")
			q.ch <- boxing("w-2", "athlete-1")

			convey.Convey("Then only new workouts should trigger an assessment", func() {
				convey.So(eventually(func() bool { return len(assessor.calls()) == 2 }), convey.ShouldBeTrue)
				convey.So(store.count(), convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When the store fails", func() {
			store.fail["bad"] = errors.New("disk full")
			q.ch <- boxing("bad", "athlete-1")
			q.ch <- boxing("good", "athlete-2")

			convey.Convey("Then the worker should keep going", func() {
				convey.So(eventually(func() bool { return len(assessor.calls()) == 1 }), convey.ShouldBeTrue)
				convey.So(assessor.calls(), convey.ShouldResemble, []string{"athlete-2"})
			})
		})

		convey.Convey("When the workout has no athlete", func() {
			q.ch <- boxing("anon", "")

			convey.Convey("Then it should be stored without an assessment", func() {
				convey.So(eventually(func() bool { return store.count() == 1 }), convey.ShouldBeTrue)
				convey.So(assessor.calls(), convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When the worker is shut down", func() {
			sctx, scancel := context.WithTimeout(context.Background(), time.Second)
			defer scancel()

			convey.Convey("Then it should stop once and refuse a second stop", func() {
				convey.So(w.Shutdown(sctx), convey.ShouldBeNil)
				convey.So(errors.Is(w.Shutdown(sctx), worker.ErrStopped), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a worker whose assessor fails", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		store := newMockStore()
		assessor := &mockAssessor{err: errors.New("engine down")}
		w := worker.NewInMemoryWorker(q, store, worker.WithAssessor(assessor))

		q.ch <- boxing("w-1", "athlete-1")
		_ = q.Close()
		w.Run(context.Background())

		convey.Convey("Then the workout should still be stored", func() {
			convey.So(store.count(), convey.ShouldEqual, 1)
			convey.So(assessor.calls(), convey.ShouldHaveLength, 1)
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool of workers", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		store := newMockStore()
		assessor := &mockAssessor{}
		pool := worker.NewPool(4, q, store, worker.WithAssessor(assessor))

		convey.So(pool.Size(), convey.ShouldEqual, 4)
		convey.So(pool.Active(), convey.ShouldEqual, 0)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool.Start(ctx)

		convey.Convey("When workouts are queued and the pool shuts down", func() {
			for i := 0; i < 40; i++ {
				q.ch <- boxing(fmt.Sprintf("w-%d", i), fmt.Sprintf("athlete-%d", i%5))
			}

			sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer scancel()
			err := pool.Shutdown(sctx)

			convey.Convey("Then every queued workout should be drained", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(store.count(), convey.ShouldEqual, 40)
				convey.So(assessor.calls(), convey.ShouldHaveLength, 40)
			})
		})
	})

	convey.Convey("Given a pool with a non-positive size", t, func() {
		_ = logging.Init()
		pool := worker.NewPool(0, newMockQueue(), newMockStore())

		convey.Convey("Then it should default to at least one worker", func() {
			convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
		})
	})
}
