// Package historian keeps a time series of sampled controller state in
// SQLite, the way a plant historian logs PLC registers.
package historian

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ppiankov/cellwatch/internal/controller"
)

const schema = `
CREATE TABLE IF NOT EXISTS process_metrics (
	seq           INTEGER PRIMARY KEY AUTOINCREMENT,
	sample_id     TEXT NOT NULL UNIQUE,
	ts            TEXT NOT NULL,
	conveyor_run  INTEGER NOT NULL,
	emergency_ok  INTEGER NOT NULL,
	quality_score INTEGER NOT NULL,
	compromised   INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_process_metrics_ts ON process_metrics(ts);
`

// tsLayout is fixed width so timestamps sort lexically.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

// Sample is one historian row.
type Sample struct {
	ID        string              `json:"id"`
	Timestamp time.Time           `json:"ts"`
	State     controller.Snapshot `json:"state"`
}

// Store manages process metrics in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("historian: open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("historian: pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("historian: pragma sync: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("historian: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores a snapshot taken at ts and returns the stored sample.
func (s *Store) Record(ctx context.Context, ts time.Time, state controller.Snapshot) (Sample, error) {
	sample := Sample{
		ID:        uuid.New().String(),
		Timestamp: ts.UTC(),
		State:     state,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO process_metrics (sample_id, ts, conveyor_run, emergency_ok, quality_score, compromised)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sample.ID,
		sample.Timestamp.Format(tsLayout),
		boolToInt(state.ConveyorRun),
		boolToInt(state.EmergencyOK),
		state.QualityScore,
		boolToInt(state.Compromised),
	)
	if err != nil {
		return Sample{}, fmt.Errorf("historian: insert sample: %w", err)
	}
	return sample, nil
}

// Recent returns up to limit samples, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Sample, error) {
	if limit <= 0 {
		limit = 15
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT sample_id, ts, conveyor_run, emergency_ok, quality_score, compromised
		 FROM process_metrics ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("historian: query recent: %w", err)
	}
	defer rows.Close()

	var out []Sample
	for rows.Next() {
		var (
			sample                        Sample
			ts                            string
			conveyor, estop, compromised int
		)
		if err := rows.Scan(&sample.ID, &ts, &conveyor, &estop, &sample.State.QualityScore, &compromised); err != nil {
			return nil, fmt.Errorf("historian: scan sample: %w", err)
		}
		sample.Timestamp, err = time.Parse(tsLayout, ts)
		if err != nil {
			return nil, fmt.Errorf("historian: parse timestamp %q: %w", ts, err)
		}
		sample.State.ConveyorRun = conveyor != 0
		sample.State.EmergencyOK = estop != 0
		sample.State.Compromised = compromised != 0
		out = append(out, sample)
	}
	return out, rows.Err()
}

// Count returns the number of stored samples.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM process_metrics`).Scan(&n); err != nil {
		return 0, fmt.Errorf("historian: count: %w", err)
	}
	return n, nil
}

// Prune deletes samples older than cutoff and returns how many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM process_metrics WHERE ts < ?`,
		cutoff.UTC().Format(tsLayout))
	if err != nil {
		return 0, fmt.Errorf("historian: prune: %w", err)
	}
	return res.RowsAffected()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
