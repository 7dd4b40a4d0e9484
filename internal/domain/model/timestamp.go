package model

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// timeLayouts are tried in order for string timestamps. Zone-less layouts
// are read as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Encodable times span years 1 through 9999.
var (
	minTime = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)
	maxTime = time.Date(9999, time.December, 31, 23, 59, 59, 999_999_999, time.UTC)
)

// Timestamp decodes ISO strings or epoch milliseconds. Malformed input
// decodes to the zero value instead of failing the enclosing document, so a
// single bad record cannot reject a whole history.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	*t = Timestamp{}
	raw := strings.TrimSpace(string(b))
	if raw == "" || raw == "null" {
		return nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		t.Time, _ = ParseTime(s)
		return nil
	}
	t.Time, _ = parseEpochMillis(raw)
	return nil
}

// MarshalJSON implements json.Marshaler. The zero value encodes as null.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(t.UTC().Format(time.RFC3339Nano))), nil
}

// ParseTime parses an ISO-8601 string or a numeric epoch-millis string.
// Times outside years 1 to 9999 are rejected since they cannot be encoded
// back as RFC 3339.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			if !inRange(ts) {
				return time.Time{}, false
			}
			return ts, true
		}
	}
	return parseEpochMillis(s)
}

func parseEpochMillis(s string) (time.Time, bool) {
	ms, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(ms) || math.IsInf(ms, 0) {
		return time.Time{}, false
	}
	if ms < float64(minTime.UnixMilli()) || ms > float64(maxTime.UnixMilli()) {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(ms)).UTC(), true
}

func inRange(t time.Time) bool {
	return !t.Before(minTime) && !t.After(maxTime)
}
