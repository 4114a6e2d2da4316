package mqtt

import (
	"fmt"
	"slices"

	"github.com/sweeney/gpio-scope/internal/logic"
)

// message is one serialized publish: where it goes and how it is sent.
type message struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// edgeMessage addresses an edge event: QoS 0, not retained.
func edgeMessage(event logic.Event) (message, error) {
	payload, err := FormatPayload(event)
	if err != nil {
		return message{}, fmt.Errorf("format payload: %w", err)
	}
	return message{topic: Topic, payload: payload}, nil
}

// systemMessage addresses a lifecycle event: QoS 1, retained on request.
func systemMessage(event SystemEvent) (message, error) {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return message{}, fmt.Errorf("format system payload: %w", err)
	}
	return message{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained}, nil
}

// outbox queues messages while the broker is unreachable. When full it
// evicts the oldest QoS 0 message, so lifecycle events outlive a burst
// of edges. Callers synchronize.
type outbox struct {
	msgs    []message
	limit   int
	evicted int
}

func newOutbox(limit int) *outbox {
	return &outbox{limit: max(limit, 1)}
}

// add queues m and returns the number of messages evicted since the
// last flush.
func (o *outbox) add(m message) int {
	if len(o.msgs) >= o.limit {
		i := slices.IndexFunc(o.msgs, func(q message) bool { return q.qos == 0 })
		if i < 0 {
			i = 0
		}
		o.msgs = slices.Delete(o.msgs, i, i+1)
		o.evicted++
	}
	o.msgs = append(o.msgs, m)
	return o.evicted
}

// flush empties the outbox, returning the queue oldest first and how
// many messages were evicted while it filled.
func (o *outbox) flush() ([]message, int) {
	msgs, evicted := o.msgs, o.evicted
	o.msgs, o.evicted = nil, 0
	return msgs, evicted
}

func (o *outbox) len() int {
	return len(o.msgs)
}
