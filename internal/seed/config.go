// Package seed generates synthetic workout histories and loads them into a
// running NOVA service.
package seed

import "time"

// Config holds configuration for a seeding run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Athletes   int           // Number of athletes to generate
	Days       int           // Days of history per athlete
	Workers    int           // Number of concurrent submitters
	Timeout    time.Duration // HTTP request timeout
	Wait       time.Duration // How long to wait for ingestion before reading readiness
	Seed       uint64        // Generator seed; equal seeds give equal histories
	OutputFile string        // Optional file for the generated workouts
	Verbose    bool          // Enable verbose logging
}

// AckResponse represents the response from workout submission.
type AckResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
	ID        string `json:"id"`
}

// Readiness is the subset of the readiness response the summary reports.
type Readiness struct {
	Overall float64 `json:"overall"`
	Zones   struct {
		UpperBody float64 `json:"upper_body"`
		LowerBody float64 `json:"lower_body"`
		CNS       float64 `json:"cns"`
	} `json:"zones"`
	Status struct {
		Overall struct {
			Label string `json:"label"`
		} `json:"overall"`
	} `json:"status"`
	SessionsConsidered int `json:"sessions_considered"`
}

// AthleteSummary is one line of the final report.
type AthleteSummary struct {
	AthleteID string
	Workouts  int
	Readiness Readiness
	Err       error
}

// Stats holds run statistics.
type Stats struct {
	WorkoutsGenerated  int
	WorkoutsSubmitted  int
	WorkoutsAccepted   int
	WorkoutsDuplicate  int
	WorkoutsFailed     int
	ReadinessRetrieved int
	Summaries          []AthleteSummary
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
