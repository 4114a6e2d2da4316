package mqtt

import (
	"github.com/sweeney/gpio-scope/internal/logic"
)

// Sent is a message the FakePublisher accepted.
type Sent struct {
	Topic    string
	Payload  []byte
	QoS      byte
	Retained bool
}

// FakePublisher records what would have reached the broker, addressed
// the same way RealPublisher addresses it.
type FakePublisher struct {
	Events       []logic.Event
	SystemEvents []SystemEvent

	// Sent holds every accepted message in publish order.
	Sent []Sent

	// EventErr and SystemErr, if set, reject Publish and PublishSystem.
	EventErr  error
	SystemErr error

	Closed    bool
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// Publish records the edge event.
func (f *FakePublisher) Publish(event logic.Event) error {
	if f.EventErr != nil {
		return f.EventErr
	}
	m, err := edgeMessage(event)
	if err != nil {
		return err
	}
	f.Events = append(f.Events, event)
	f.record(m)
	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.SystemErr != nil {
		return f.SystemErr
	}
	m, err := systemMessage(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.record(m)
	return nil
}

func (f *FakePublisher) record(m message) {
	f.Sent = append(f.Sent, Sent{Topic: m.topic, Payload: m.payload, QoS: m.qos, Retained: m.retained})
}

// Payloads returns the payloads sent to topic, oldest first.
func (f *FakePublisher) Payloads(topic string) [][]byte {
	var out [][]byte
	for _, s := range f.Sent {
		if s.Topic == topic {
			out = append(out, s.Payload)
		}
	}
	return out
}

// SystemEventNames returns the Event field of every recorded system event.
func (f *FakePublisher) SystemEventNames() []string {
	out := make([]string, len(f.SystemEvents))
	for i, e := range f.SystemEvents {
		out[i] = e.Event
	}
	return out
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected reports the Connected field.
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}
