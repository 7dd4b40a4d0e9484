package readiness

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/okian/nova/internal/domain/model"
)

// DecodeHistory decodes a JSON array of workout records. null decodes to an
// empty history. Anything other than an array is ErrInvalidInput. Elements
// that are not workout objects are dropped so one bad record cannot reject
// the rest.
func DecodeHistory(data []byte) ([]model.Workout, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return []model.Workout{}, nil
	}
	if data[0] != '[' {
		return nil, fmt.Errorf("expected a JSON array: %w", ErrInvalidInput)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	out := make([]model.Workout, 0, len(raw))
	for _, r := range raw {
		var w model.Workout
		if err := json.Unmarshal(r, &w); err != nil {
			continue
		}
		out = append(out, w)
	}
	return out, nil
}
