package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sweeney/gpio-scope/internal/logic"
)

// outboxLimit bounds how many messages are kept while the broker is away.
const outboxLimit = 256

// RealPublisher publishes to an actual MQTT broker. Messages produced
// while disconnected are buffered and replayed on reconnect.
type RealPublisher struct {
	client paho.Client
	mu     sync.Mutex
	out    *outbox
	log    zerolog.Logger
}

// NewRealPublisher starts connecting to broker in the background and
// returns immediately. The broker gets a retained OFFLINE will.
func NewRealPublisher(broker, clientID string) (*RealPublisher, error) {
	p := &RealPublisher{
		out: newOutbox(outboxLimit),
		log: log.With().Str("component", "mqtt").Str("broker", broker).Logger(),
	}

	will, err := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "OFFLINE", Reason: "LWT"})
	if err != nil {
		return nil, fmt.Errorf("format will payload: %w", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetBinaryWill(TopicSystem, will, 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			p.log.Warn().Err(err).Msg("connection lost")
		})

	p.client = paho.NewClient(opts)
	p.client.Connect()
	return p, nil
}

func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	pending, evicted := p.out.flush()
	p.mu.Unlock()

	p.log.Info().Int("replayed", len(pending)).Int("evicted", evicted).Msg("connected")
	for _, m := range pending {
		if err := p.send(m); err != nil {
			p.log.Warn().Err(err).Str("topic", m.topic).Msg("replay failed")
		}
	}
}

// Publish sends an edge event to the MQTT broker.
func (p *RealPublisher) Publish(event logic.Event) error {
	m, err := edgeMessage(event)
	if err != nil {
		return err
	}
	return p.publish(m)
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	m, err := systemMessage(event)
	if err != nil {
		return err
	}
	return p.publish(m)
}

func (p *RealPublisher) publish(m message) error {
	if !p.client.IsConnectionOpen() {
		p.mu.Lock()
		evicted := p.out.add(m)
		p.mu.Unlock()
		if evicted == 1 {
			p.log.Warn().Int("limit", outboxLimit).Msg("outbox full, evicting oldest")
		}
		return nil
	}
	return p.send(m)
}

func (p *RealPublisher) send(m message) error {
	token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish %s: timeout", m.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", m.topic, err)
	}
	return nil
}

// IsConnected reports whether the client currently has a broker connection.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
