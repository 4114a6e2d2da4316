// Package session owns the active pin, the sample history and the
// idle/sampling state machine. A Session is driven by exactly one
// goroutine, normally a Loop; nothing in it is safe for concurrent use.
package session

import (
	"fmt"
	"time"

	"github.com/sweeney/gpio-scope/internal/gpio"
	"github.com/sweeney/gpio-scope/internal/history"
)

// DefaultInterval is the sampling period.
const DefaultInterval = 200 * time.Millisecond

// State is the session state.
type State int

const (
	Idle State = iota
	Sampling
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Sampling:
		return "sampling"
	default:
		return "unknown"
	}
}

// Session is the explicit context passed to the sampler and sinks in
// place of process-wide state.
type Session struct {
	pins     PinSet
	active   gpio.Pin
	state    State
	origin   time.Time
	buf      *history.Buffer
	reader   gpio.Reader
	notifier gpio.Notifier
}

// New creates an idle session with active as the selected pin.
func New(pins PinSet, active gpio.Pin, reader gpio.Reader, notifier gpio.Notifier) (*Session, error) {
	if len(pins) == 0 {
		return nil, ErrNoPins
	}
	if !pins.Contains(active) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPin, active)
	}
	if notifier == nil {
		notifier = gpio.NopNotifier{}
	}
	return &Session{
		pins:     pins,
		active:   active,
		buf:      history.New(),
		reader:   reader,
		notifier: notifier,
	}, nil
}

// Pins returns the selectable pins.
func (s *Session) Pins() PinSet { return s.pins }

// Active returns the selected pin.
func (s *Session) Active() gpio.Pin { return s.active }

// State returns the current state.
func (s *Session) State() State { return s.state }

// Origin returns the time elapsed values are measured from.
func (s *Session) Origin() time.Time { return s.origin }

// Len returns the number of recorded samples.
func (s *Session) Len() int { return s.buf.Len() }

// Select switches the active pin. The external driver is notified
// first; if it refuses, nothing changes. On success the history is
// cleared and the time origin moves to now. The state is kept, so a
// sampling session continues on the new pin from t=0.
func (s *Session) Select(pin gpio.Pin, now time.Time) error {
	if !s.pins.Contains(pin) {
		return fmt.Errorf("%w: %s (choose %s)", ErrInvalidPin, pin, s.pins.Alternatives())
	}
	if err := s.notifier.Notify(pin); err != nil {
		return fmt.Errorf("notify pin %s: %w", pin, err)
	}

	s.active = pin
	s.reset(now)
	return nil
}

// Start begins sampling with an empty history. It reports false if the
// session was already sampling.
func (s *Session) Start(now time.Time) bool {
	if s.state == Sampling {
		return false
	}
	s.reset(now)
	s.state = Sampling
	return true
}

// Stop ends sampling. The history is kept for display until the next
// Start or Select. It reports false if the session was already idle.
func (s *Session) Stop() bool {
	if s.state == Idle {
		return false
	}
	s.state = Idle
	return true
}

// Tick reads the active pin and appends a sample stamped with the time
// since the origin.
func (s *Session) Tick(now time.Time) (history.Sample, error) {
	if s.state != Sampling {
		return history.Sample{}, ErrIdle
	}

	v, err := s.reader.Read(s.active)
	if err != nil {
		return history.Sample{}, fmt.Errorf("read pin %s: %w", s.active, err)
	}

	return s.buf.Append(history.Sample{
		Elapsed: now.Sub(s.origin).Seconds(),
		State:   v,
	}), nil
}

// View captures the session for sinks.
func (s *Session) View(reason Reason) View {
	return View{
		Pin:     s.active,
		State:   s.state,
		Reason:  reason,
		Samples: s.buf.View(),
	}
}

func (s *Session) reset(now time.Time) {
	s.buf.Reset()
	s.origin = now
}
