package mqtt

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sweeney/gpio-scope/internal/logic"
	"github.com/sweeney/gpio-scope/internal/session"
)

// Sink turns session refreshes into MQTT messages: debounced edges on
// every sampled tick and a system event for each select, start and stop.
// Heartbeats are checked on every tick, idle or not.
type Sink struct {
	pub       Publisher
	detector  *logic.Detector
	heartbeat time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

// NewSink creates a Sink publishing through pub. A heartbeat of zero
// disables heartbeats.
func NewSink(pub Publisher, debounce, heartbeat time.Duration, now func() time.Time) *Sink {
	return &Sink{
		pub:       pub,
		detector:  logic.NewDetector(debounce, now()),
		heartbeat: heartbeat,
		now:       now,
		log:       log.With().Str("component", "mqtt-sink").Logger(),
	}
}

// Counts returns the edges published since startup.
func (s *Sink) Counts() logic.EventCounts {
	return s.detector.EventCountsSnapshot()
}

// Refresh implements session.Sink.
func (s *Sink) Refresh(v session.View) error {
	now := s.now()

	if v.Reason != session.ReasonTick {
		// New series: the previous level says nothing about this one.
		s.detector.Reset()
		return s.publishSystem(SystemEvent{
			Timestamp: now,
			Event:     systemEventName(v.Reason),
			Pin:       v.Pin.String(),
		})
	}

	sample, ok := v.Latest()
	if !ok {
		return nil
	}

	var errs []error
	ev := s.detector.Process(logic.Input{Pin: v.Pin.String(), Value: sample.State, Time: now})
	if ev != nil {
		s.log.Debug().Str("pin", ev.Pin).Str("type", string(ev.Type)).Msg("edge")
		if err := s.pub.Publish(*ev); err != nil {
			errs = append(errs, fmt.Errorf("publish edge: %w", err))
		}
	}

	if err := s.checkHeartbeat(v.Pin.String(), now); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Idle implements session.IdleSink.
func (s *Sink) Idle(v session.View) error {
	return s.checkHeartbeat(v.Pin.String(), s.now())
}

func (s *Sink) checkHeartbeat(pin string, now time.Time) error {
	hb := s.detector.CheckHeartbeat(now, s.heartbeat)
	if hb == nil {
		return nil
	}
	counts := hb.Counts
	return s.publishSystem(SystemEvent{
		Timestamp: hb.Timestamp,
		Event:     "HEARTBEAT",
		Pin:       pin,
		Counts:    &counts,
		Uptime:    hb.Uptime,
	})
}

func (s *Sink) publishSystem(ev SystemEvent) error {
	if err := s.pub.PublishSystem(ev); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Event, err)
	}
	return nil
}

func systemEventName(r session.Reason) string {
	switch r {
	case session.ReasonSelect:
		return "SELECT"
	case session.ReasonStart:
		return "START"
	case session.ReasonStop:
		return "STOP"
	default:
		return string(r)
	}
}
