package cycle

import "time"

// Config holds the cure targets, fixed for the process lifetime.
type Config struct {
	// TargetTemp is the plate temperature the heater drives toward, °C.
	TargetTemp float64
	// Duration is the length of one cure run.
	Duration time.Duration
}

// Controller combines the run latch, the cycle deadline, and the plate
// temperature into actuator outputs. The plate sensor is authoritative for
// heating; the box sensor is informational only and never enters Step.
type Controller struct {
	cfg Config

	running    bool
	startTime  time.Time
	finishTime time.Time
	phase      Phase
	counts     Counts
}

// NewController creates an idle controller.
func NewController(cfg Config) *Controller {
	return &Controller{cfg: cfg, phase: PhaseIdle}
}

// Press handles one debounced press edge. The first press arms a run and
// sets the deadline; the next press aborts it. Abort-by-second-press is the
// same toggle, not a separate mechanism.
func (c *Controller) Press(now time.Time) Event {
	if c.running {
		c.stop()
		c.counts.Aborted++
		return Event{Timestamp: now, Type: EventCycleAbort, Phase: PhaseIdle}
	}

	c.running = true
	c.startTime = now
	c.finishTime = now.Add(c.cfg.Duration)
	c.counts.Started++
	return Event{Timestamp: now, Type: EventCycleStart, Phase: c.phase}
}

// Step evaluates one tick and returns the actuator frame plus any transition
// events. First match wins: stopped, deadline elapsed, below target,
// at target. NaN plate readings fall through both temperature comparisons
// and land on the defensive idle frame, so a bad sensor denies the heater.
func (c *Controller) Step(now time.Time, plateTemp float64) (Outputs, []Event) {
	prev := c.phase
	var events []Event

	switch {
	case !c.running:
		c.phase = PhaseIdle

	case !c.finishTime.After(now):
		// Deadline reached: the cycle completes naturally on this tick.
		c.stop()
		c.counts.Completed++
		events = append(events, Event{
			Timestamp: now,
			Type:      EventCycleComplete,
			Phase:     PhaseIdle,
			PlateTemp: plateTemp,
		})

	case plateTemp < c.cfg.TargetTemp:
		c.phase = PhaseHeating
		if prev != PhaseHeating {
			events = append(events, Event{
				Timestamp: now,
				Type:      EventHeaterOn,
				Phase:     PhaseHeating,
				PlateTemp: plateTemp,
			})
		}
		return Outputs{Heater: true, Lamp: true, Red1: true, Red2: true}, events

	case plateTemp >= c.cfg.TargetTemp:
		c.phase = PhaseAtTemperature
		if prev == PhaseHeating {
			events = append(events, Event{
				Timestamp: now,
				Type:      EventHeaterOff,
				Phase:     PhaseAtTemperature,
				PlateTemp: plateTemp,
			})
		}
		return Outputs{Lamp: true, Red1: true}, events

	default:
		c.phase = PhaseIdle
	}

	return idleOutputs(), events
}

func (c *Controller) stop() {
	c.running = false
	c.startTime = time.Time{}
	c.finishTime = time.Time{}
	c.phase = PhaseIdle
}

// Running reports whether a cycle is armed.
func (c *Controller) Running() bool {
	return c.running
}

// Phase returns the phase decided by the most recent Step.
func (c *Controller) Phase() Phase {
	return c.phase
}

// RemainingMinutes reports the armed cycle length in minutes, zero when
// idle. Both timestamps are zeroed outside a run, so the subtraction is
// guarded rather than left to produce garbage.
func (c *Controller) RemainingMinutes() float64 {
	if !c.running || c.startTime.IsZero() || c.finishTime.IsZero() {
		return 0
	}
	return c.finishTime.Sub(c.startTime).Minutes()
}

// Deadline returns the finish time of the armed cycle, zero when idle.
func (c *Controller) Deadline() time.Time {
	return c.finishTime
}

// CountsSnapshot returns the lifecycle totals since startup.
func (c *Controller) CountsSnapshot() Counts {
	return c.counts
}
