package internal

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/gpio-scope/internal/chart"
	"github.com/sweeney/gpio-scope/internal/gpio"
	"github.com/sweeney/gpio-scope/internal/logic"
	"github.com/sweeney/gpio-scope/internal/mqtt"
	"github.com/sweeney/gpio-scope/internal/session"
	"github.com/sweeney/gpio-scope/internal/status"
)

var startTime = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// manualClock is set by the test before each tick. The tick channel
// orders the write before the loop's read.
type manualClock struct{ t time.Time }

func (c *manualClock) now() time.Time { return c.t }

type rig struct {
	loop      *session.Loop
	clock     *manualClock
	ticks     chan time.Time
	reader    *gpio.FakeReader
	publisher *mqtt.FakePublisher
	tracker   *status.Tracker
	frame     *chart.Frame
	errCh     chan error
	cancel    context.CancelFunc
}

func newRig(t *testing.T, values map[gpio.Pin][]int, debounce time.Duration) *rig {
	t.Helper()

	r := &rig{
		clock:     &manualClock{t: startTime},
		ticks:     make(chan time.Time),
		reader:    gpio.NewFakeReader(values),
		publisher: mqtt.NewFakePublisher(),
		errCh:     make(chan error, 1),
	}

	s, err := session.New(session.PinSet{"538", "539"}, "538", r.reader, nil)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	r.tracker = status.NewTracker(startTime, r.clock.now, status.Config{}, debounce)
	capture := session.SinkFunc(func(v session.View) error {
		f := chart.Build(v)
		r.frame = &f
		return nil
	})
	sink := mqtt.NewSink(r.publisher, debounce, 0, r.clock.now)
	r.loop = session.NewLoop(s, r.clock.now, r.tracker, sink, capture)

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	go func() { r.errCh <- r.loop.Run(ctx, r.ticks) }()
	t.Cleanup(cancel)
	return r
}

// tickAt delivers a tick stamped at offset from startTime and waits for
// the loop to handle it.
func (r *rig) tickAt(t *testing.T, offset time.Duration) {
	t.Helper()
	r.clock.t = startTime.Add(offset)
	r.ticks <- r.clock.t
	if err := r.loop.Start(context.Background()); err != nil {
		t.Fatalf("barrier: %v", err)
	}
}

func (r *rig) start(t *testing.T) {
	t.Helper()
	if err := r.loop.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
}

// TestIntegrationFullFlow drives a scripted line through the loop into
// the MQTT sink, the status tracker and the chart.
func TestIntegrationFullFlow(t *testing.T) {
	// 100ms ticks, 250ms debounce: a level must be seen for four samples.
	script := []int{
		0, 0, 0, 0, // baseline LOW
		1, 1, 1, 1, // RISING at 700ms
		1, 0, 1, 1, // glitch, no event
		0, 0, 0, 0, // FALLING at 1500ms
	}
	r := newRig(t, map[gpio.Pin][]int{"538": script}, 250*time.Millisecond)
	r.start(t)

	for i := range script {
		r.tickAt(t, time.Duration(i)*100*time.Millisecond)
	}

	if len(r.publisher.Events) != 2 {
		t.Fatalf("expected 2 edges, got %d: %+v", len(r.publisher.Events), r.publisher.Events)
	}
	if e := r.publisher.Events[0]; e.Type != logic.EventRising || e.Level != logic.LevelHigh || e.Pin != "538" {
		t.Errorf("event 0: got %+v", e)
	}
	if got := r.publisher.Events[0].Timestamp.Sub(startTime); got != 700*time.Millisecond {
		t.Errorf("rising edge at %v, want 700ms", got)
	}
	if e := r.publisher.Events[1]; e.Type != logic.EventFalling || e.Level != logic.LevelLow {
		t.Errorf("event 1: got %+v", e)
	}

	var payload mqtt.Payload
	if err := json.Unmarshal(r.publisher.Payloads(mqtt.Topic)[1], &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload.GPIO.Event != "FALLING" || payload.GPIO.Pin != "538" {
		t.Errorf("payload: got %+v", payload.GPIO)
	}

	snap := r.tracker.Snapshot()
	if snap.Counts != (logic.EventCounts{Rising: 1, Falling: 1}) {
		t.Errorf("tracker counts: got %+v", snap.Counts)
	}
	if snap.Samples != len(script) {
		t.Errorf("tracker samples: got %d, want %d", snap.Samples, len(script))
	}

	if r.frame == nil || len(r.frame.Samples) != len(script) {
		t.Fatalf("chart frame not updated")
	}
	if r.frame.Axes.XMax != chart.MinWindow {
		t.Errorf("x max: got %v, want %v", r.frame.Axes.XMax, chart.MinWindow)
	}
	if got := r.publisher.SystemEventNames(); len(got) != 1 || got[0] != "START" {
		t.Errorf("system events: got %v", got)
	}
}

// TestIntegrationLongRunAutoscale checks the x window grows past ten
// seconds and that timestamps stay ordered.
func TestIntegrationLongRunAutoscale(t *testing.T) {
	r := newRig(t, nil, 0)
	r.start(t)

	for i := 0; i < 60; i++ {
		r.tickAt(t, time.Duration(i)*200*time.Millisecond)
	}

	if got, want := r.frame.Axes.XMax, 11.8+chart.Headroom; got < want-1e-9 || got > want+1e-9 {
		t.Errorf("x max: got %v, want %v", got, want)
	}
	for i := 1; i < len(r.frame.Samples); i++ {
		if r.frame.Samples[i].Elapsed < r.frame.Samples[i-1].Elapsed {
			t.Fatalf("sample %d goes backwards", i)
		}
	}
	for _, s := range r.frame.Samples {
		if s.State != gpio.DefaultFallback {
			t.Fatalf("missing pin should read the fallback, got %d", s.State)
		}
	}
}

// TestIntegrationPinSwitch checks that edges never span two pins.
func TestIntegrationPinSwitch(t *testing.T) {
	r := newRig(t, map[gpio.Pin][]int{
		"538": {0},
		"539": {1},
	}, 0)
	r.start(t)

	r.tickAt(t, 0)
	r.tickAt(t, 200*time.Millisecond)
	if err := r.loop.Select(context.Background(), "539"); err != nil {
		t.Fatalf("select: %v", err)
	}
	r.tickAt(t, 400*time.Millisecond)
	r.tickAt(t, 600*time.Millisecond)

	if len(r.publisher.Events) != 0 {
		t.Errorf("expected no edges across a pin switch, got %+v", r.publisher.Events)
	}
	if r.frame.Pin != "539" || len(r.frame.Samples) != 2 {
		t.Errorf("frame: pin %s with %d samples", r.frame.Pin, len(r.frame.Samples))
	}
	if r.frame.Samples[0].Elapsed != 0.2 {
		t.Errorf("first sample after switch at %v, want 0.2s after select", r.frame.Samples[0].Elapsed)
	}
	want := []string{"START", "SELECT"}
	if got := r.publisher.SystemEventNames(); len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("system events: got %v, want %v", got, want)
	}
}

// TestIntegrationPublishFailureKeepsSampling checks MQTT errors never
// stop the loop.
func TestIntegrationPublishFailureKeepsSampling(t *testing.T) {
	r := newRig(t, map[gpio.Pin][]int{"538": {0, 1, 0, 1}}, 0)
	r.publisher.EventErr = errors.New("broker unreachable")
	r.publisher.SystemErr = errors.New("broker unreachable")
	r.start(t)

	for i := 0; i < 4; i++ {
		r.tickAt(t, time.Duration(i)*200*time.Millisecond)
	}

	if len(r.frame.Samples) != 4 {
		t.Errorf("expected 4 samples, got %d", len(r.frame.Samples))
	}
	if c := r.tracker.Snapshot().Counts; c.Rising != 2 || c.Falling != 1 {
		t.Errorf("tracker counts: got %+v", c)
	}
}

// TestIntegrationReadFailureStopsLoop checks a broken reader ends Run.
func TestIntegrationReadFailureStopsLoop(t *testing.T) {
	r := newRig(t, nil, 0)
	r.reader.ReadError = gpio.ErrMalformedValue
	r.start(t)

	r.clock.t = startTime
	r.ticks <- r.clock.t

	select {
	case err := <-r.errCh:
		if !errors.Is(err, gpio.ErrMalformedValue) {
			t.Errorf("got %v, want ErrMalformedValue", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop")
	}

	if err := r.loop.Start(context.Background()); !errors.Is(err, session.ErrLoopStopped) {
		t.Errorf("command after stop: got %v, want ErrLoopStopped", err)
	}
}
