package seed

import (
	"io"
)

// ShowHelp prints usage information for the seed tool.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `NOVA Seed Tool
==============

Generates a synthetic multi-day training history, posts it to a running
NOVA service and prints every athlete's readiness.

Usage:
  go run ./cmd/seed-workouts [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -athletes int
        Number of athletes (default 10)
  -days int
        Days of history per athlete (default 7)
  -workers int
        Number of concurrent submitters (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 10s)
  -wait duration
        How long to wait for ingestion (default 10s)
  -seed uint
        Generator seed (default: current time)
  -output string
        Write the generated workouts to this JSON file
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  go run ./cmd/seed-workouts -athletes 50 -days 14
  go run ./cmd/seed-workouts -seed 42 -output history.json
`)
}
