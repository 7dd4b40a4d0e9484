package repository

import "time"

// Option applies a configuration option to the Retainer.
type Option func(*Retainer)

// WithRetention sets how long workouts are kept. Zero or negative keeps
// them forever; the Retainer then only refreshes gauges.
func WithRetention(d time.Duration) Option {
	return func(r *Retainer) {
		r.retention = d
	}
}

// WithInterval sets how often the Retainer runs.
func WithInterval(interval time.Duration) Option {
	return func(r *Retainer) {
		if interval > 0 {
			r.interval = interval
		}
	}
}

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Retainer) {
		if now != nil {
			r.now = now
		}
	}
}
