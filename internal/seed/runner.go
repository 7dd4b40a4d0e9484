package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/okian/nova/internal/domain/model"
	"github.com/okian/nova/pkg/logger"
)

// Timing constants.
const (
	retryDelay   = 50 * time.Millisecond
	pollInterval = 100 * time.Millisecond
)

// File permission constants.
const (
	directoryPermission = 0o750
	filePermission      = 0o600
)

// ErrUnhealthy is returned when the service health check fails.
var ErrUnhealthy = errors.New("service unhealthy")

// Run executes a complete seeding run: health check, generation,
// submission, then a readiness read-back for every athlete. The summary is
// written to out.
func Run(ctx context.Context, cfg *Config, out io.Writer) (*Stats, error) {
	log := logger.Get().Named("seed")
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting nova seed run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("athletes", cfg.Athletes),
		logger.Int("days", cfg.Days),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout))

	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, client); err != nil {
		return stats, err
	}

	// Step 2: Generate workouts
	workouts := Generate(cfg, time.Now().UTC())
	stats.WorkoutsGenerated = len(workouts)
	if cfg.OutputFile != "" {
		if err := saveWorkouts(cfg.OutputFile, workouts); err != nil {
			log.Warn(ctx, "failed to save workouts to file", logger.Error(err))
		}
	}

	// Step 3: Submit workouts concurrently
	submitWorkouts(ctx, cfg, client, workouts, stats)

	// Step 4: Read readiness back once ingestion caught up
	perAthlete := countByAthlete(workouts)
	summaries, err := collectReadiness(ctx, cfg, client, perAthlete)
	if err != nil {
		return stats, err
	}
	stats.Summaries = summaries
	for _, s := range summaries {
		if s.Err == nil {
			stats.ReadinessRetrieved++
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	writeSummary(out, stats)

	log.Info(ctx, "seed run completed", logger.Duration("duration", stats.Duration))
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient) error {
	resp, err := client.Get(ctx, "/healthz")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	_ = resp.Body.Close()

	// Accept any 200 response as healthy (the service returns Prometheus metrics)
	if resp.StatusCode != 200 {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode)
	}
	return nil
}

func countByAthlete(workouts []model.Workout) map[string]int {
	out := make(map[string]int)
	for _, w := range workouts {
		out[w.AthleteID]++
	}
	return out
}

// collectReadiness polls each athlete until readiness is served or cfg.Wait
// elapses. Athletes still unknown at the deadline get an error entry.
func collectReadiness(ctx context.Context, cfg *Config, client *HTTPClient, perAthlete map[string]int) ([]AthleteSummary, error) {
	ids := make([]string, 0, len(perAthlete))
	for id := range perAthlete {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	deadline := time.Now().Add(cfg.Wait)
	out := make([]AthleteSummary, 0, len(ids))
	for _, id := range ids {
		s := AthleteSummary{AthleteID: id, Workouts: perAthlete[id]}
		for {
			r, found, err := fetchReadiness(ctx, client, id)
			if err != nil {
				s.Err = err
				break
			}
			if found {
				s.Readiness = r
				break
			}
			if time.Now().After(deadline) {
				s.Err = fmt.Errorf("readiness for %s not available after %s", id, cfg.Wait)
				break
			}
			select {
			case <-ctx.Done():
				return out, ctx.Err()
			case <-time.After(pollInterval):
			}
		}
		out = append(out, s)
	}
	return out, nil
}

func writeSummary(out io.Writer, stats *Stats) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ATHLETE\tWORKOUTS\tSESSIONS\tOVERALL\tUPPER\tLOWER\tCNS\tSTATUS")
	for _, s := range stats.Summaries {
		if s.Err != nil {
			fmt.Fprintf(tw, "%s\t%d\t-\t-\t-\t-\t-\terror: %v\n", s.AthleteID, s.Workouts, s.Err)
			continue
		}
		r := s.Readiness
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.0f\t%.0f\t%.0f\t%.0f\t%s\n",
			s.AthleteID, s.Workouts, r.SessionsConsidered, r.Overall,
			r.Zones.UpperBody, r.Zones.LowerBody, r.Zones.CNS, r.Status.Overall.Label)
	}
	_ = tw.Flush()

	fmt.Fprintf(out, "\ngenerated=%d submitted=%d accepted=%d duplicate=%d failed=%d readiness=%d duration=%s\n",
		stats.WorkoutsGenerated, stats.WorkoutsSubmitted, stats.WorkoutsAccepted,
		stats.WorkoutsDuplicate, stats.WorkoutsFailed, stats.ReadinessRetrieved,
		stats.Duration.Round(time.Millisecond))
}

// saveWorkouts writes workouts as a JSON array usable as a
// /readiness/calculate body.
func saveWorkouts(filename string, workouts []model.Workout) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(workouts, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal workouts: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return nil
}
