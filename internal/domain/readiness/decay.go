package readiness

import "math"

// DefaultRecoveryRates are the natural recovery rates in percent per hour.
// CNS is the slowest zone.
var DefaultRecoveryRates = ZoneValues{UpperBody: 4.5, LowerBody: 3.8, CNS: 3.2}

// Residual returns the fatigue left from a fresh infliction after hours of
// recovery at rate, accelerated by multiplier. It never goes below zero.
func Residual(fresh, rate, hours, multiplier float64) float64 {
	if fresh <= 0 {
		return 0
	}
	if hours < 0 {
		hours = 0
	}
	if multiplier < 1 {
		multiplier = 1
	}
	return math.Max(0, fresh-rate*hours*multiplier)
}

// FullRecoveryHours returns how long fresh fatigue takes to clear at rate
// with no boost. A non-positive rate never recovers.
func FullRecoveryHours(fresh, rate float64) float64 {
	if fresh <= 0 {
		return 0
	}
	if rate <= 0 {
		return math.Inf(1)
	}
	return fresh / rate
}
