package button

import (
	"testing"
	"time"
)

var base = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// drive feeds raw samples at the given tick interval and returns the number
// of press edges committed.
func drive(d *Debouncer, samples []bool, tick time.Duration) int {
	presses := 0
	for i, raw := range samples {
		_, pressed := d.Update(raw, base.Add(time.Duration(i)*tick))
		if pressed {
			presses++
		}
	}
	return presses
}

func TestSinglePressOneEdge(t *testing.T) {
	d := New(50*time.Millisecond, true)

	// Idle high, press (low) held well past the period.
	samples := []bool{true, true, false, false, false, false, false, false, false}
	presses := drive(d, samples, 10*time.Millisecond)

	if presses != 1 {
		t.Errorf("expected 1 press edge, got %d", presses)
	}
	if d.Stable() != false {
		t.Error("stable level should be low after committed press")
	}
	if !d.Pressed() {
		t.Error("Pressed() should report true after committed press")
	}
}

func TestBounceRejected(t *testing.T) {
	d := New(50*time.Millisecond, true)

	// Contact chatter: rapid alternation shorter than the period, then
	// settles back to idle. No edge should commit.
	samples := []bool{true, true, false, true, false, true, true, true, true, true, true}
	presses := drive(d, samples, 10*time.Millisecond)

	if presses != 0 {
		t.Errorf("expected 0 press edges for bounce, got %d", presses)
	}
	if d.Stable() != true {
		t.Error("stable level should remain idle high")
	}
}

func TestChatterThenHoldCountsOnce(t *testing.T) {
	d := New(50*time.Millisecond, true)

	// Bounces on the way down, then a solid hold: exactly one edge.
	samples := []bool{true, false, true, false, false, false, false, false, false, false, false}
	presses := drive(d, samples, 10*time.Millisecond)

	if presses != 1 {
		t.Errorf("expected 1 press edge after chatter settles, got %d", presses)
	}
}

func TestReleaseIsNotAPress(t *testing.T) {
	d := New(50*time.Millisecond, true)

	samples := []bool{
		true, true,
		false, false, false, false, false, false, false, // press commits
		true, true, true, true, true, true, true, // release commits, no press edge
	}
	presses := drive(d, samples, 10*time.Millisecond)

	if presses != 1 {
		t.Errorf("expected 1 press edge across press+release, got %d", presses)
	}
	if d.Stable() != true {
		t.Error("stable level should be idle high after release")
	}
	if d.Pressed() {
		t.Error("Pressed() should be false after release")
	}
}

func TestTwoDistinctPresses(t *testing.T) {
	d := New(50*time.Millisecond, true)

	press := []bool{false, false, false, false, false, false, false}
	release := []bool{true, true, true, true, true, true, true}

	samples := append(append(append([]bool{true, true}, press...), release...), press...)
	presses := drive(d, samples, 10*time.Millisecond)

	if presses != 2 {
		t.Errorf("expected 2 press edges, got %d", presses)
	}
}

func TestActiveHighPolarity(t *testing.T) {
	d := New(50*time.Millisecond, false)

	if d.Stable() != false {
		t.Error("active-high debouncer should idle low")
	}

	samples := []bool{false, false, true, true, true, true, true, true, true}
	presses := drive(d, samples, 10*time.Millisecond)

	if presses != 1 {
		t.Errorf("expected 1 press edge for active-high wiring, got %d", presses)
	}
	if !d.Pressed() {
		t.Error("Pressed() should report true while held high")
	}
}

func TestIdempotentWhenUnchanged(t *testing.T) {
	d := New(50*time.Millisecond, true)

	// Long run of the idle level must never produce an edge.
	samples := make([]bool, 100)
	for i := range samples {
		samples[i] = true
	}
	presses := drive(d, samples, 10*time.Millisecond)

	if presses != 0 {
		t.Errorf("expected 0 press edges for constant input, got %d", presses)
	}
}
