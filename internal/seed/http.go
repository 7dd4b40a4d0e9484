package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/nova/internal/domain/model"
	"github.com/okian/nova/pkg/logger"
)

// submit results.
const (
	resultAccepted  = "accepted"
	resultDuplicate = "duplicate"
	resultFailed    = "failed"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// Get performs a GET request against path.
func (c *HTTPClient) Get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with a JSON body.
func (c *HTTPClient) Post(ctx context.Context, path string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// submitWorkouts posts workouts concurrently using a worker pool.
func submitWorkouts(ctx context.Context, cfg *Config, client *HTTPClient, workouts []model.Workout, stats *Stats) {
	log := logger.Get().Named("seed")
	workers := max(cfg.Workers, 1)
	log.Info(ctx, "submitting workouts", logger.Int("workouts", len(workouts)), logger.Int("workers", workers))

	var submitted, accepted, duplicate, failed atomic.Int64

	ch := make(chan model.Workout, workers*2)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for w := range ch {
				submitted.Add(1)
				switch submitSingleWorkout(ctx, client, w) {
				case resultAccepted:
					accepted.Add(1)
				case resultDuplicate:
					duplicate.Add(1)
				default:
					failed.Add(1)
				}
				if cfg.Verbose {
					log.Debug(ctx, "workout submitted", logger.String("workout_id", w.ID))
				}
			}
		}()
	}

	// Send workouts to workers
	go func() {
		defer close(ch)
		for _, w := range workouts {
			select {
			case <-ctx.Done():
				return
			case ch <- w:
			}
		}
	}()
	wg.Wait()

	stats.WorkoutsSubmitted = int(submitted.Load())
	stats.WorkoutsAccepted = int(accepted.Load())
	stats.WorkoutsDuplicate = int(duplicate.Load())
	stats.WorkoutsFailed = int(failed.Load())

	log.Info(ctx, "workout submission completed",
		logger.Int("accepted", stats.WorkoutsAccepted),
		logger.Int("duplicate", stats.WorkoutsDuplicate),
		logger.Int("failed", stats.WorkoutsFailed))
}

// submitSingleWorkout posts one workout and classifies the response.
// Backpressure responses are retried until ctx is done.
func submitSingleWorkout(ctx context.Context, client *HTTPClient, w model.Workout) string { //nolint:gocritic // hugeParam: sent by value
	for {
		resp, err := client.Post(ctx, "/workouts", w)
		if err != nil {
			return resultFailed
		}
		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return resultFailed
		}

		switch resp.StatusCode {
		case http.StatusAccepted:
			return resultAccepted
		case http.StatusOK:
			var ack AckResponse
			if err := json.Unmarshal(body, &ack); err == nil && !ack.Duplicate {
				return resultAccepted
			}
			return resultDuplicate
		case http.StatusTooManyRequests:
			select {
			case <-ctx.Done():
				return resultFailed
			case <-time.After(retryDelay):
			}
		default:
			return resultFailed
		}
	}
}

// fetchReadiness reads one athlete's readiness. found is false on 404.
func fetchReadiness(ctx context.Context, client *HTTPClient, athleteID string) (r Readiness, found bool, err error) {
	resp, err := client.Get(ctx, "/readiness/"+url.PathEscape(athleteID))
	if err != nil {
		return r, false, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
			return r, false, fmt.Errorf("decode readiness for %s: %w", athleteID, err)
		}
		return r, true, nil
	case http.StatusNotFound:
		return r, false, nil
	default:
		return r, false, fmt.Errorf("readiness for %s: unexpected status %d", athleteID, resp.StatusCode)
	}
}
