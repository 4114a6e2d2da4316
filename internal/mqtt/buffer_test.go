package mqtt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/gpio-scope/internal/logic"
)

func edge(b byte) message {
	return message{topic: Topic, payload: []byte{b}}
}

func lifecycle(b byte) message {
	return message{topic: TopicSystem, payload: []byte{b}, qos: 1, retained: true}
}

func firstBytes(msgs []message) []byte {
	out := make([]byte, len(msgs))
	for i, m := range msgs {
		out[i] = m.payload[0]
	}
	return out
}

func TestOutboxEmptyFlush(t *testing.T) {
	msgs, evicted := newOutbox(4).flush()
	assert.Nil(t, msgs)
	assert.Zero(t, evicted)
}

func TestOutboxKeepsOrder(t *testing.T) {
	o := newOutbox(8)
	for i := 0; i < 3; i++ {
		assert.Zero(t, o.add(edge(byte(i))))
	}
	assert.Equal(t, 3, o.len())

	msgs, evicted := o.flush()
	assert.Equal(t, []byte{0, 1, 2}, firstBytes(msgs))
	assert.Zero(t, evicted)
	assert.Zero(t, o.len())
}

func TestOutboxEvictsEdgesBeforeLifecycle(t *testing.T) {
	o := newOutbox(3)
	o.add(lifecycle(0))
	o.add(edge(1))
	o.add(edge(2))

	assert.Equal(t, 1, o.add(edge(3)))
	assert.Equal(t, 2, o.add(lifecycle(4)))

	msgs, evicted := o.flush()
	assert.Equal(t, []byte{0, 3, 4}, firstBytes(msgs))
	assert.Equal(t, 2, evicted)

	// The count restarts after a flush.
	o.add(edge(5))
	msgs, evicted = o.flush()
	assert.Len(t, msgs, 1)
	assert.Zero(t, evicted)
}

func TestOutboxEvictsOldestLifecycleWhenNoEdges(t *testing.T) {
	o := newOutbox(2)
	o.add(lifecycle(0))
	o.add(lifecycle(1))
	assert.Equal(t, 1, o.add(lifecycle(2)))

	msgs, _ := o.flush()
	assert.Equal(t, []byte{1, 2}, firstBytes(msgs))
}

func TestOutboxMinimumLimit(t *testing.T) {
	o := newOutbox(0)
	o.add(edge(0))
	assert.Equal(t, 1, o.add(edge(1)))
	assert.Equal(t, 1, o.len())
}

func TestMessageRouting(t *testing.T) {
	m, err := edgeMessage(logic.Event{Timestamp: epoch, Pin: "538", Type: logic.EventRising, Level: logic.LevelHigh})
	require.NoError(t, err)
	assert.Equal(t, Topic, m.topic)
	assert.Equal(t, byte(0), m.qos)
	assert.False(t, m.retained)

	m, err = systemMessage(SystemEvent{Timestamp: epoch.Add(time.Second), Event: "STARTUP", Retained: true})
	require.NoError(t, err)
	assert.Equal(t, TopicSystem, m.topic)
	assert.Equal(t, byte(1), m.qos)
	assert.True(t, m.retained)
}
