// Package status provides a thread-safe status tracker for gpio-scope.
// The session loop writes it as a sink; HTTP handlers read snapshots.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/gpio-scope/internal/logic"
	"github.com/sweeney/gpio-scope/internal/session"
)

// Config contains process configuration for display.
type Config struct {
	IntervalMs  int64
	DebounceMs  int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	Backend     string
	Pins        []string
	Bare        bool
}

// Snapshot is a point-in-time view of the process state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Pin           string
	State         string
	Level         logic.Level
	Baselined     bool
	Samples       int
	Elapsed       float64
	Counts        logic.EventCounts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the process started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable state behind an RWMutex.
type Tracker struct {
	mu       sync.RWMutex
	snap     Snapshot
	detector *logic.Detector
	now      func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
// now stamps each snapshot; debounce applies to the level shown in
// snapshots.
func NewTracker(startTime time.Time, now func() time.Time, cfg Config, debounce time.Duration) *Tracker {
	return &Tracker{
		snap: Snapshot{
			State:     session.Idle.String(),
			StartTime: startTime,
			Config:    cfg,
		},
		detector: logic.NewDetector(debounce, startTime),
		now:      now,
	}
}

// Refresh implements session.Sink. Called from the loop goroutine.
// Debouncing runs on the sample timeline, not the wall clock.
func (t *Tracker) Refresh(v session.View) error {
	if v.Reason != session.ReasonTick {
		t.detector.Reset()
	} else if s, ok := v.Latest(); ok {
		at := time.Time{}.Add(time.Duration(s.Elapsed * float64(time.Second)))
		t.detector.Process(logic.Input{Pin: v.Pin.String(), Value: s.State, Time: at})
	}

	t.mu.Lock()
	t.snap.Pin = v.Pin.String()
	t.snap.State = v.State.String()
	t.snap.Samples = len(v.Samples)
	t.snap.Elapsed = v.Elapsed()
	t.snap.Level = t.detector.CurrentLevel()
	t.snap.Baselined = t.detector.IsBaselined()
	t.snap.Counts = t.detector.EventCountsSnapshot()
	t.mu.Unlock()
	return nil
}

// SetPin records the selected pin before the loop has produced a view.
func (t *Tracker) SetPin(pin string) {
	t.mu.Lock()
	t.snap.Pin = pin
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}
