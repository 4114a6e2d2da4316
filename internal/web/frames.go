package web

import (
	"sync"

	"github.com/sweeney/gpio-scope/internal/chart"
	"github.com/sweeney/gpio-scope/internal/gpio"
	"github.com/sweeney/gpio-scope/internal/history"
	"github.com/sweeney/gpio-scope/internal/pubsub"
	"github.com/sweeney/gpio-scope/internal/session"
)

// Message kinds sent to websocket clients.
const (
	KindFrame  = "frame"  // full replacement of the chart
	KindSample = "sample" // one appended sample
)

// Message is one websocket update. A sample message carries the index
// the sample has in the series; a client whose series length differs
// has missed an update and should refetch /chart.json.
type Message struct {
	Kind   string          `json:"kind"`
	Frame  *chart.Frame    `json:"frame,omitempty"`
	Index  int             `json:"index"`
	Sample *history.Sample `json:"sample,omitempty"`
	Axes   *chart.Axes     `json:"axes,omitempty"`
}

// subscriberBuffer is how many updates a websocket client may lag behind.
const subscriberBuffer = 64

// FrameSink keeps the latest chart frame for HTTP handlers and streams
// updates to subscribers. It is a session.Sink.
type FrameSink struct {
	mu    sync.RWMutex
	frame chart.Frame
	hub   *pubsub.Pubsub[Message]
}

// NewFrameSink creates a sink showing an empty chart for pin.
func NewFrameSink(pin gpio.Pin) *FrameSink {
	return &FrameSink{
		frame: chart.Build(session.View{Pin: pin}),
		hub:   pubsub.New[Message](subscriberBuffer),
	}
}

// Refresh implements session.Sink.
func (f *FrameSink) Refresh(v session.View) error {
	frame := chart.Build(v)

	f.mu.Lock()
	f.frame = frame
	f.mu.Unlock()

	if v.Reason == session.ReasonTick {
		if s, ok := v.Latest(); ok {
			axes := frame.Axes
			f.hub.Publish(Message{Kind: KindSample, Index: len(v.Samples) - 1, Sample: &s, Axes: &axes})
			return nil
		}
	}
	f.hub.Publish(Message{Kind: KindFrame, Frame: &frame})
	return nil
}

// Frame returns the current frame. Its samples must not be modified.
func (f *FrameSink) Frame() chart.Frame {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.frame
}

// Subscribe registers for updates.
func (f *FrameSink) Subscribe() (pubsub.SubscriptionID, <-chan Message) {
	return f.hub.Subscribe()
}

// Unsubscribe stops updates for id and closes its channel.
func (f *FrameSink) Unsubscribe(id pubsub.SubscriptionID) {
	f.hub.Unsubscribe(id)
}

// Close ends every subscription.
func (f *FrameSink) Close() {
	f.hub.Close()
}
