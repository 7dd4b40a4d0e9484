package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/nova/internal/domain/model"
	"github.com/okian/nova/pkg/metrics"

	_ "modernc.org/sqlite"
)

const memoryDSN = ":memory:"

const schema = `
CREATE TABLE IF NOT EXISTS workouts (
	id           TEXT PRIMARY KEY,
	athlete_id   TEXT NOT NULL,
	workout_type TEXT NOT NULL,
	status       TEXT NOT NULL,
	occurred_at  INTEGER NOT NULL,
	ingested_at  INTEGER NOT NULL,
	payload      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_workouts_athlete_time ON workouts (athlete_id, occurred_at);
`

// SQLiteStore is a Store persisted in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path. ":memory:" keeps the
// database in memory for the lifetime of the store.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path must not be empty")
	}
	if path != memoryDSN {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps an in-memory
	// database alive and shared.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating workouts table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Append implements Store.
func (s *SQLiteStore) Append(ctx context.Context, w model.Workout) (bool, error) { //nolint:gocritic // hugeParam: stored by value
	start := time.Now()
	defer func() { metrics.RecordStoreLatency("append", sinceMillis(start)) }()

	if err := validate(w); err != nil {
		return false, err
	}

	occurred, _ := w.OccurredAt()
	payload, err := json.Marshal(w)
	if err != nil {
		return false, fmt.Errorf("encoding workout %s: %w", w.ID, err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO workouts (id, athlete_id, workout_type, status, occurred_at, ingested_at, payload)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.AthleteID, string(w.Type.Normalize()), string(w.Status),
		toMillis(occurred), time.Now().UnixMilli(), string(payload),
	)
	if err != nil {
		return false, fmt.Errorf("inserting workout %s: %w", w.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("inserting workout %s: %w", w.ID, err)
	}
	return n == 1, nil
}

// Recent implements Store.
func (s *SQLiteStore) Recent(ctx context.Context, athleteID string, since time.Time) ([]model.Workout, error) {
	start := time.Now()
	defer func() { metrics.RecordStoreLatency("recent", sinceMillis(start)) }()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, payload FROM workouts
		 WHERE athlete_id = ? AND occurred_at >= ?
		 ORDER BY occurred_at DESC, id DESC`,
		athleteID, toMillis(since),
	)
	if err != nil {
		return nil, fmt.Errorf("querying workouts: %w", err)
	}
	defer rows.Close()

	var out []model.Workout
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("scanning workout: %w", err)
		}
		var w model.Workout
		if err := json.Unmarshal([]byte(payload), &w); err != nil {
			return nil, fmt.Errorf("decoding workout %s: %w", id, err)
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating workouts: %w", err)
	}

	if len(out) > 0 {
		return out, nil
	}

	var one int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM workouts WHERE athlete_id = ? LIMIT 1`, athleteID).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("looking up athlete: %w", err)
	}
	return []model.Workout{}, nil
}

// Prune implements Store.
func (s *SQLiteStore) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	start := time.Now()
	defer func() { metrics.RecordStoreLatency("prune", sinceMillis(start)) }()

	res, err := s.db.ExecContext(ctx, `DELETE FROM workouts WHERE occurred_at < ?`, toMillis(cutoff))
	if err != nil {
		return 0, fmt.Errorf("pruning workouts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("pruning workouts: %w", err)
	}
	return int(n), nil
}

// Count implements Store.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM workouts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting workouts: %w", err)
	}
	return n, nil
}

// Athletes implements Store.
func (s *SQLiteStore) Athletes(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT athlete_id) FROM workouts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting athletes: %w", err)
	}
	return n, nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// toMillis maps a zero time to 0 so undated workouts sort first and are
// pruned with anything older than the cutoff.
func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
