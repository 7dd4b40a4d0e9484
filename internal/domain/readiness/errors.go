package readiness

import (
	"errors"
	"fmt"
)

// Sentinel kinds for readiness errors.
var (
	// ErrInvalidInput is returned when a history document is not a sequence
	// of workout records.
	ErrInvalidInput = errors.New("invalid workout history")
	// ErrUnknownPolicy is returned when a policy name cannot be parsed.
	ErrUnknownPolicy = errors.New("unknown policy")
)

func newPolicyError(key, value string) error {
	return fmt.Errorf("%s %q: %w", key, value, ErrUnknownPolicy)
}
