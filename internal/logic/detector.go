package logic

import "time"

// Detector tracks the level of one line and detects debounced transitions.
// Switching to another pin drops the baseline; counts cover all pins.
type Detector struct {
	debounceDuration time.Duration
	pin              string
	line             LineState
	startTime        time.Time
	eventCounts      EventCounts
	lastHeartbeat    time.Time
}

// NewDetector creates a new transition detector with the given debounce duration.
// A zero duration baselines on the first sample and reports every change.
// The startTime is used for calculating uptime in heartbeat events.
func NewDetector(debounceDuration time.Duration, startTime time.Time) *Detector {
	return &Detector{
		debounceDuration: debounceDuration,
		startTime:        startTime,
		lastHeartbeat:    startTime,
	}
}

// Process takes a new sample and returns the event to emit, if any.
// Events are only returned after baseline is established and on transitions.
func (d *Detector) Process(input Input) *Event {
	if input.Pin != d.pin {
		d.pin = input.Pin
		d.line = LineState{}
	}

	level := valueToLevel(input.Value)
	changed := d.processLine(level, input.Time)
	if !changed {
		return nil
	}

	event := &Event{
		Timestamp: input.Time,
		Pin:       d.pin,
		Type:      EventFalling,
		Level:     d.line.Stable,
	}
	if d.line.Stable == LevelHigh {
		event.Type = EventRising
		d.eventCounts.Rising++
	} else {
		d.eventCounts.Falling++
	}
	return event
}

// processLine handles debounce logic. It reports whether the stable
// level changed after the baseline was established.
func (d *Detector) processLine(newLevel Level, now time.Time) bool {
	l := &d.line

	// First time seeing this line
	if !l.Baselined {
		if l.Pending == "" {
			// Start observing
			l.Pending = newLevel
			l.PendingSince = now
		} else if l.Pending != newLevel {
			// Level changed during baseline, restart
			l.Pending = newLevel
			l.PendingSince = now
			return false
		}

		if now.Sub(l.PendingSince) >= d.debounceDuration {
			l.Stable = newLevel
			l.Baselined = true
			l.Pending = ""
		}
		return false
	}

	// Already baselined - detect transitions
	if newLevel == l.Stable {
		l.Pending = ""
		return false
	}

	if l.Pending != newLevel {
		l.Pending = newLevel
		l.PendingSince = now
	}

	if now.Sub(l.PendingSince) >= d.debounceDuration {
		l.Stable = newLevel
		l.Pending = ""
		return true
	}
	return false
}

func valueToLevel(v int) Level {
	if v != 0 {
		return LevelHigh
	}
	return LevelLow
}

// Reset drops the baseline so the next sample starts a new observation.
func (d *Detector) Reset() {
	d.line = LineState{}
}

// IsBaselined returns whether the detector has established a baseline.
func (d *Detector) IsBaselined() bool {
	return d.line.Baselined
}

// CurrentLevel returns the current stable level, empty before baseline.
func (d *Detector) CurrentLevel() Level {
	return d.line.Stable
}

// EventCountsSnapshot returns the transition counts since startup.
func (d *Detector) EventCountsSnapshot() EventCounts {
	return d.eventCounts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed,
// or if interval is <= 0 (disabled).
func (d *Detector) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if now.Sub(d.lastHeartbeat) < interval {
		return nil
	}

	d.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(d.startTime),
		Counts:    d.eventCounts,
	}
}
