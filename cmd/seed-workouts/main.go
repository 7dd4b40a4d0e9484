package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/nova/internal/seed"
	"github.com/okian/nova/pkg/logger"
)

// Default configuration constants.
const (
	defaultAthletes = 10
	defaultDays     = 7
	defaultWorkers  = 2 // multiplier for runtime.NumCPU()
	defaultTimeout  = 10 * time.Second
	defaultWait     = 10 * time.Second
	defaultRunLimit = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		athletes   = flag.Int("athletes", defaultAthletes, "Number of athletes")
		days       = flag.Int("days", defaultDays, "Days of history per athlete")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent submitters")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		wait       = flag.Duration("wait", defaultWait, "How long to wait for ingestion")
		seedValue  = flag.Uint64("seed", uint64(time.Now().UnixNano()), "Generator seed")
		outputFile = flag.String("output", "", "Write the generated workouts to this JSON file")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		seed.ShowHelp(os.Stdout)
		return
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunLimit)
	defer cancel()

	cfg := &seed.Config{
		BaseURL:    *baseURL,
		Athletes:   *athletes,
		Days:       *days,
		Workers:    *workers,
		Timeout:    *timeout,
		Wait:       *wait,
		Seed:       *seedValue,
		OutputFile: *outputFile,
		Verbose:    *verbose,
	}

	if _, err := seed.Run(ctx, cfg, os.Stdout); err != nil {
		logger.Get().Error(ctx, "seed run failed", logger.Error(err))
		cancel()
		stop()
		os.Exit(1)
	}
}
