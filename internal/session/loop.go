package session

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sweeney/gpio-scope/internal/gpio"
)

type commandKind int

const (
	cmdSelect commandKind = iota
	cmdStart
	cmdStop
)

type command struct {
	kind  commandKind
	pin   gpio.Pin
	reply chan error
}

// Loop is the single-threaded dispatcher for a Session. Ticks and
// commands are handled one at a time on the goroutine running Run, so
// the history has exactly one writer and sinks see events in order.
type Loop struct {
	session *Session
	sinks   []Sink
	now     func() time.Time
	cmds    chan command
	done    chan struct{}
	log     zerolog.Logger
}

// NewLoop creates a loop for s. now supplies timestamps; pass time.Now
// outside tests.
func NewLoop(s *Session, now func() time.Time, sinks ...Sink) *Loop {
	return &Loop{
		session: s,
		sinks:   sinks,
		now:     now,
		cmds:    make(chan command),
		done:    make(chan struct{}),
		log:     log.With().Str("component", "session").Logger(),
	}
}

// Run handles events until ctx is cancelled, in which case it returns
// nil, or until a read fails, in which case it returns the error.
// Ticks received while idle take no sample; they only reach IdleSinks.
func (l *Loop) Run(ctx context.Context, tick <-chan time.Time) error {
	defer close(l.done)

	for {
		select {
		case <-ctx.Done():
			return nil

		case c := <-l.cmds:
			c.reply <- l.handle(c)

		case <-tick:
			if l.session.State() != Sampling {
				l.idle()
				continue
			}
			if _, err := l.session.Tick(l.now()); err != nil {
				return fmt.Errorf("sample: %w", err)
			}
			l.refresh(ReasonTick)
		}
	}
}

func (l *Loop) handle(c command) error {
	switch c.kind {
	case cmdSelect:
		if err := l.session.Select(c.pin, l.now()); err != nil {
			l.log.Warn().Err(err).Str("pin", string(c.pin)).Msg("pin selection rejected")
			return err
		}
		l.log.Info().Str("pin", string(c.pin)).Str("state", l.session.State().String()).Msg("selected pin")
		l.refresh(ReasonSelect)

	case cmdStart:
		if l.session.Start(l.now()) {
			l.log.Info().Str("pin", string(l.session.Active())).Time("origin", l.session.Origin()).Msg("sampling started")
			l.refresh(ReasonStart)
		}

	case cmdStop:
		if l.session.Stop() {
			l.log.Info().Int("samples", l.session.Len()).Msg("sampling stopped")
			l.refresh(ReasonStop)
		}
	}
	return nil
}

func (l *Loop) refresh(reason Reason) {
	v := l.session.View(reason)
	for _, sink := range l.sinks {
		if err := sink.Refresh(v); err != nil {
			l.log.Warn().Err(err).Str("reason", string(reason)).Msg("sink refresh failed")
		}
	}
}

func (l *Loop) idle() {
	var v *View
	for _, sink := range l.sinks {
		is, ok := sink.(IdleSink)
		if !ok {
			continue
		}
		if v == nil {
			iv := l.session.View(ReasonIdle)
			v = &iv
		}
		if err := is.Idle(*v); err != nil {
			l.log.Warn().Err(err).Msg("idle sink failed")
		}
	}
}

// Select asks the loop to switch the active pin.
func (l *Loop) Select(ctx context.Context, pin gpio.Pin) error {
	return l.submit(ctx, command{kind: cmdSelect, pin: pin})
}

// Start asks the loop to begin sampling.
func (l *Loop) Start(ctx context.Context) error {
	return l.submit(ctx, command{kind: cmdStart})
}

// Stop asks the loop to stop sampling.
func (l *Loop) Stop(ctx context.Context) error {
	return l.submit(ctx, command{kind: cmdStop})
}

// Pins returns the selectable pins. The set never changes, so this is
// safe from any goroutine.
func (l *Loop) Pins() PinSet {
	return l.session.Pins()
}

func (l *Loop) submit(ctx context.Context, c command) error {
	c.reply = make(chan error, 1)

	select {
	case l.cmds <- c:
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrLoopStopped
	}

	select {
	case err := <-c.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
