package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sweeney/gpio-scope/internal/config"
	"github.com/sweeney/gpio-scope/internal/gpio"
	"github.com/sweeney/gpio-scope/internal/mqtt"
	"github.com/sweeney/gpio-scope/internal/session"
	"github.com/sweeney/gpio-scope/internal/status"
	"github.com/sweeney/gpio-scope/internal/web"
)

const shutdownTimeout = 5 * time.Second

// app wires the reader, session loop, sinks and HTTP server together.
type app struct {
	cfg       config.Config
	reader    gpio.Reader
	loop      *session.Loop
	tracker   *status.Tracker
	srv       *web.Server
	publisher mqtt.Publisher // nil when MQTT is disabled
	conn      mqtt.ConnectionStatus
	now       func() time.Time
	log       zerolog.Logger
}

// newApp builds the application. pub may be nil to run without MQTT;
// the app closes it.
func newApp(cfg config.Config, now func() time.Time, pub mqtt.Publisher) (*app, error) {
	pins, err := session.NewPinSet(cfg.Pins...)
	if err != nil {
		closePublisher(pub)
		return nil, err
	}

	reader, err := gpio.NewReader(cfg.ReaderOptions())
	if err != nil {
		closePublisher(pub)
		return nil, fmt.Errorf("init gpio: %w", err)
	}

	active := gpio.Pin(cfg.DefaultPin)
	sess, err := session.New(pins, active, reader, gpio.NewNotifier(cfg.SelectDevice))
	if err != nil {
		reader.Close()
		closePublisher(pub)
		return nil, err
	}

	a := &app{
		cfg:    cfg,
		reader: reader,
		now:    now,
		log:    log.With().Str("component", "app").Logger(),
	}

	a.tracker = status.NewTracker(now(), now, status.Config{
		IntervalMs:  cfg.Interval.Milliseconds(),
		DebounceMs:  cfg.Debounce.Milliseconds(),
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		Broker:      cfg.Broker,
		HTTPAddr:    cfg.HTTP,
		Backend:     cfg.Backend,
		Pins:        cfg.Pins,
		Bare:        cfg.Bare,
	}, cfg.Debounce)
	a.tracker.SetPin(active.String())

	frames := web.NewFrameSink(active)
	sinks := []session.Sink{a.tracker, frames}

	if pub != nil {
		a.publisher = pub
		a.conn, _ = pub.(mqtt.ConnectionStatus)
		sinks = append(sinks,
			mqtt.NewSink(pub, cfg.Debounce, cfg.Heartbeat, now),
			session.SinkFunc(a.refreshConnection),
		)
	}

	a.loop = session.NewLoop(sess, now, sinks...)
	a.srv = web.New(cfg.HTTP, a.tracker, a.loop, frames, web.Options{Bare: cfg.Bare})
	return a, nil
}

func closePublisher(pub mqtt.Publisher) {
	if pub != nil {
		pub.Close()
	}
}

func clientID() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return fmt.Sprintf("gpio-scope-%s-%d", host, os.Getpid())
}

func (a *app) refreshConnection(session.View) error {
	if a.conn != nil {
		a.tracker.SetMQTTConnected(a.conn.IsConnected())
	}
	return nil
}

// serve runs the HTTP server and the session loop until ctx ends, the
// loop fails, or the server fails.
func (a *app) serve(ctx context.Context, ln net.Listener, tick <-chan time.Time) error {
	a.publishLifecycle("STARTUP", "")

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- a.srv.Serve(ln)
	}()

	loopCtx, stopLoop := context.WithCancel(ctx)
	defer stopLoop()
	loopErr := make(chan error, 1)
	go func() {
		loopErr <- a.loop.Run(loopCtx, tick)
	}()

	if a.cfg.Bare {
		if err := a.loop.Start(ctx); err != nil {
			a.log.Warn().Err(err).Msg("auto start failed")
		}
	}

	var err error
	select {
	case err = <-loopErr:
	case err = <-srvErr:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		stopLoop()
		<-loopErr
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if serr := a.srv.Shutdown(shutdownCtx); serr != nil {
		a.log.Warn().Err(serr).Msg("http shutdown")
	}

	reason := shutdownReason(ctx)
	if err != nil {
		reason = "ERROR"
	}
	a.log.Info().Str("reason", reason).Msg("shutting down")
	a.publishLifecycle("SHUTDOWN", reason)
	return err
}

// publishLifecycle sends a retained status snapshot on the system topic.
func (a *app) publishLifecycle(event, reason string) {
	if a.publisher == nil {
		return
	}
	a.refreshConnection(session.View{})

	snap := a.tracker.Snapshot()
	err := a.publisher.PublishSystem(mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      event,
		Reason:     reason,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, event, reason),
	})
	if err != nil {
		a.log.Warn().Err(err).Str("event", event).Msg("publish failed")
		return
	}
	a.log.Debug().Str("event", event).Msg("published")
}

func (a *app) close() {
	closePublisher(a.publisher)
	if err := a.reader.Close(); err != nil {
		a.log.Warn().Err(err).Msg("close gpio")
	}
}
