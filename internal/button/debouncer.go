// Package button debounces the chamber's start/abort switch. It has no
// hardware or clock dependencies; time is always passed in.
package button

import "time"

// Debouncer filters a noisy digital input into stable press edges. Any
// change in the raw reading restarts the settle window; the stable level
// only commits after the reading has held longer than the period.
type Debouncer struct {
	activeLow bool
	period    time.Duration

	lastRaw    bool
	stable     bool
	lastChange time.Time
}

// New creates a Debouncer. activeLow selects the wiring polarity: true means
// a low raw level is the pressed direction (input pulled up, switch to
// ground).
func New(period time.Duration, activeLow bool) *Debouncer {
	idle := activeLow // released raw level
	return &Debouncer{
		activeLow: activeLow,
		period:    period,
		lastRaw:   idle,
		stable:    idle,
	}
}

// Update feeds one raw sample at the given time. It returns the debounced
// level and whether this tick committed an edge in the pressing direction.
// The raw history updates every tick regardless of the debounce outcome.
func (d *Debouncer) Update(raw bool, now time.Time) (stable bool, pressed bool) {
	if raw != d.lastRaw {
		// Signal still settling.
		d.lastChange = now
	}

	if now.Sub(d.lastChange) > d.period && raw != d.stable {
		d.stable = raw
		pressed = d.Pressed()
	}

	d.lastRaw = raw
	return d.stable, pressed
}

// Pressed reports whether the current debounced level is the pressing
// direction.
func (d *Debouncer) Pressed() bool {
	if d.activeLow {
		return !d.stable
	}
	return d.stable
}

// Stable returns the current debounced raw level.
func (d *Debouncer) Stable() bool {
	return d.stable
}
