// Package storage persists telemetry history to a local SQLite database.
// The store is write-mostly: the control loop inserts one reading per tick
// and one row per cycle event; reads serve ad-hoc inspection only.
package storage

import (
	"database/sql"
	"fmt"
	"math"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/sweeney/cure-chamber/internal/cycle"
)

// Temperature columns allow NULL: a faulted probe reads NaN, and the
// driver binds NaN as NULL.
const schema = `
CREATE TABLE IF NOT EXISTS readings (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ts TEXT NOT NULL,
	box_temp_c REAL,
	plate_temp_c REAL,
	phase TEXT NOT NULL,
	running INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_readings_ts ON readings(ts);

CREATE TABLE IF NOT EXISTS cycle_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ts TEXT NOT NULL,
	event TEXT NOT NULL,
	phase TEXT NOT NULL,
	plate_temp_c REAL
);
CREATE INDEX IF NOT EXISTS idx_cycle_events_ts ON cycle_events(ts);
`

// Reading is one persisted temperature sample.
type Reading struct {
	Timestamp time.Time
	BoxTemp   float64
	PlateTemp float64
	Phase     cycle.Phase
	Running   bool
}

// Store wraps the SQLite handle.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// Open opens (creating if needed) the database at path and applies the
// schema.
func Open(path string, logger zerolog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite handles one writer at a time; a single connection avoids
	// SQLITE_BUSY churn from the pool.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	logger.Info().Str("path", path).Msg("telemetry database open")
	return &Store{db: db, logger: logger}, nil
}

// InsertReading appends one temperature sample.
func (s *Store) InsertReading(r Reading) error {
	_, err := s.db.Exec(
		`INSERT INTO readings (ts, box_temp_c, plate_temp_c, phase, running) VALUES (?, ?, ?, ?, ?)`,
		r.Timestamp.UTC().Format(time.RFC3339),
		nullTemp(r.BoxTemp), nullTemp(r.PlateTemp), string(r.Phase), boolInt(r.Running),
	)
	if err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	return nil
}

// InsertCycleEvent appends one cycle transition.
func (s *Store) InsertCycleEvent(ev cycle.Event) error {
	_, err := s.db.Exec(
		`INSERT INTO cycle_events (ts, event, phase, plate_temp_c) VALUES (?, ?, ?, ?)`,
		ev.Timestamp.UTC().Format(time.RFC3339),
		string(ev.Type), string(ev.Phase), nullTemp(ev.PlateTemp),
	)
	if err != nil {
		return fmt.Errorf("insert cycle event: %w", err)
	}
	return nil
}

// RecentReadings returns up to limit readings, newest first.
func (s *Store) RecentReadings(limit int) ([]Reading, error) {
	rows, err := s.db.Query(
		`SELECT ts, box_temp_c, plate_temp_c, phase, running FROM readings ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query readings: %w", err)
	}
	defer rows.Close()

	var out []Reading
	for rows.Next() {
		var (
			r          Reading
			ts         string
			box, plate sql.NullFloat64
			phase      string
			running    int
		)
		if err := rows.Scan(&ts, &box, &plate, &phase, &running); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		r.Timestamp, err = time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("parse reading timestamp %q: %w", ts, err)
		}
		r.BoxTemp = tempValue(box)
		r.PlateTemp = tempValue(plate)
		r.Phase = cycle.Phase(phase)
		r.Running = running != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteOlderThan trims rows from both tables with timestamps before
// cutoff and returns the number removed.
func (s *Store) DeleteOlderThan(cutoff time.Time) (int64, error) {
	ts := cutoff.UTC().Format(time.RFC3339)

	var total int64
	for _, table := range []string{"readings", "cycle_events"} {
		res, err := s.db.Exec(`DELETE FROM `+table+` WHERE ts < ?`, ts)
		if err != nil {
			return total, fmt.Errorf("trim %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	if total > 0 {
		s.logger.Debug().Int64("rows", total).Time("cutoff", cutoff).Msg("trimmed telemetry history")
	}
	return total, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// nullTemp binds a temperature, storing NULL for a non-finite reading.
func nullTemp(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// tempValue maps a stored temperature back, NULL becoming NaN.
func tempValue(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
