package session

import (
	"github.com/sweeney/gpio-scope/internal/gpio"
	"github.com/sweeney/gpio-scope/internal/history"
)

// Reason says which event produced a View.
type Reason string

const (
	ReasonTick   Reason = "tick"
	ReasonSelect Reason = "select"
	ReasonStart  Reason = "start"
	ReasonStop   Reason = "stop"
	ReasonIdle   Reason = "idle"
)

// View is a point-in-time picture of the session handed to sinks.
// Samples is shared and must not be modified.
type View struct {
	Pin     gpio.Pin
	State   State
	Reason  Reason
	Samples []history.Sample
}

// Latest returns the newest sample, or false if there is none.
func (v View) Latest() (history.Sample, bool) {
	if len(v.Samples) == 0 {
		return history.Sample{}, false
	}
	return v.Samples[len(v.Samples)-1], true
}

// Elapsed returns the timestamp of the newest sample, or 0.
func (v View) Elapsed() float64 {
	s, _ := v.Latest()
	return s.Elapsed
}

// Sink consumes the growing sample sequence and makes the latest state
// visible. Sinks are called from the loop goroutine.
type Sink interface {
	Refresh(v View) error
}

// IdleSink is a Sink that also wants the ticks that arrive while the
// session is idle. Idle views carry ReasonIdle and no new sample.
type IdleSink interface {
	Sink
	Idle(v View) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(v View) error

// Refresh calls f(v).
func (f SinkFunc) Refresh(v View) error {
	return f(v)
}
