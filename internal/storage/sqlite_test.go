package storage

import (
	"database/sql"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sweeney/cure-chamber/internal/cycle"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInsertAndReadBack(t *testing.T) {
	s := newTestStore(t)

	base := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		err := s.InsertReading(Reading{
			Timestamp: base.Add(time.Duration(i) * time.Second),
			BoxTemp:   25.0 + float64(i),
			PlateTemp: 40.0 + float64(i),
			Phase:     cycle.PhaseHeating,
			Running:   true,
		})
		if err != nil {
			t.Fatalf("insert reading %d: %v", i, err)
		}
	}

	got, err := s.RecentReadings(10)
	if err != nil {
		t.Fatalf("recent readings: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d readings, want 3", len(got))
	}

	// Newest first.
	if got[0].PlateTemp != 42.0 {
		t.Errorf("newest plate temp: got %v, want 42", got[0].PlateTemp)
	}
	if !got[0].Timestamp.Equal(base.Add(2 * time.Second)) {
		t.Errorf("newest timestamp: got %v", got[0].Timestamp)
	}
	if got[0].Phase != cycle.PhaseHeating {
		t.Errorf("phase: got %q", got[0].Phase)
	}
	if !got[0].Running {
		t.Error("running flag lost")
	}
}

func TestRecentReadingsLimit(t *testing.T) {
	s := newTestStore(t)

	base := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if err := s.InsertReading(Reading{Timestamp: base.Add(time.Duration(i) * time.Second)}); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	got, err := s.RecentReadings(2)
	if err != nil {
		t.Fatalf("recent readings: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d readings, want 2", len(got))
	}
}

func TestInsertCycleEvent(t *testing.T) {
	s := newTestStore(t)

	ev := cycle.Event{
		Timestamp: time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC),
		Type:      cycle.EventCycleStart,
		Phase:     cycle.PhaseIdle,
		PlateTemp: 24.5,
	}
	if err := s.InsertCycleEvent(ev); err != nil {
		t.Fatalf("insert cycle event: %v", err)
	}

	var (
		ts, event, phase string
		temp             float64
	)
	row := s.db.QueryRow(`SELECT ts, event, phase, plate_temp_c FROM cycle_events`)
	if err := row.Scan(&ts, &event, &phase, &temp); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if ts != "2026-02-10T09:30:00Z" {
		t.Errorf("ts: got %q", ts)
	}
	if event != "CYCLE_START" || phase != "IDLE" || temp != 24.5 {
		t.Errorf("row: got %q %q %v", event, phase, temp)
	}
}

func TestInsertCycleEventFaultedSensor(t *testing.T) {
	// An abort during a sensor fault carries NaN; the row must still land,
	// with the temperature as NULL.
	s := newTestStore(t)

	ev := cycle.Event{
		Timestamp: time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC),
		Type:      cycle.EventCycleAbort,
		Phase:     cycle.PhaseHeating,
		PlateTemp: math.NaN(),
	}
	if err := s.InsertCycleEvent(ev); err != nil {
		t.Fatalf("insert cycle event: %v", err)
	}

	var temp sql.NullFloat64
	row := s.db.QueryRow(`SELECT plate_temp_c FROM cycle_events`)
	if err := row.Scan(&temp); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if temp.Valid {
		t.Errorf("plate temp should be NULL, got %v", temp.Float64)
	}
}

func TestInsertReadingFaultedSensor(t *testing.T) {
	s := newTestStore(t)

	err := s.InsertReading(Reading{
		Timestamp: time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC),
		BoxTemp:   28.4,
		PlateTemp: math.NaN(),
		Phase:     cycle.PhaseIdle,
		Running:   true,
	})
	if err != nil {
		t.Fatalf("insert reading: %v", err)
	}

	got, err := s.RecentReadings(1)
	if err != nil {
		t.Fatalf("recent readings: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d readings, want 1", len(got))
	}
	if got[0].BoxTemp != 28.4 {
		t.Errorf("box temp: got %v, want 28.4", got[0].BoxTemp)
	}
	if !math.IsNaN(got[0].PlateTemp) {
		t.Errorf("plate temp: got %v, want NaN", got[0].PlateTemp)
	}
	if !got[0].Running {
		t.Error("running flag lost")
	}
}

func TestDeleteOlderThan(t *testing.T) {
	s := newTestStore(t)

	old := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)

	for _, ts := range []time.Time{old, recent} {
		if err := s.InsertReading(Reading{Timestamp: ts}); err != nil {
			t.Fatalf("insert reading: %v", err)
		}
		if err := s.InsertCycleEvent(cycle.Event{Timestamp: ts, Type: cycle.EventCycleStart, Phase: cycle.PhaseIdle}); err != nil {
			t.Fatalf("insert event: %v", err)
		}
	}

	n, err := s.DeleteOlderThan(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted %d rows, want 2", n)
	}

	got, err := s.RecentReadings(10)
	if err != nil {
		t.Fatalf("recent readings: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d readings after trim, want 1", len(got))
	}
	if !got[0].Timestamp.Equal(recent) {
		t.Errorf("wrong survivor: %v", got[0].Timestamp)
	}
}

func TestDeleteOlderThanEmpty(t *testing.T) {
	s := newTestStore(t)

	n, err := s.DeleteOlderThan(time.Now())
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n != 0 {
		t.Errorf("deleted %d rows from empty store", n)
	}
}

func TestOpenBadPath(t *testing.T) {
	_, err := Open("/nonexistent-dir/sub/history.db", zerolog.Nop())
	if err == nil {
		t.Fatal("expected error for unwritable path")
	}
}
