// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/gpio-scope/internal/logic"
)

// Topic is the MQTT topic for edge events.
const Topic = "gpio-scope/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "gpio-scope/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends an edge event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SELECT", "HEARTBEAT", "SHUTDOWN"
	Pin        string
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	Counts     *logic.EventCounts
	Uptime     time.Duration
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	GPIO EdgePayload `json:"gpio"`
}

// EdgePayload contains the edge event details.
type EdgePayload struct {
	Timestamp string `json:"timestamp"`
	Pin       string `json:"pin"`
	Event     string `json:"event"`
	Level     string `json:"level"`
}

// FormatPayload creates the JSON payload for an edge event.
func FormatPayload(event logic.Event) ([]byte, error) {
	payload := Payload{
		GPIO: EdgePayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339Nano),
			Pin:       event.Pin,
			Event:     string(event.Type),
			Level:     string(event.Level),
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp     string         `json:"timestamp"`
	Event         string         `json:"event"`
	Pin           string         `json:"pin,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	UptimeSeconds int64          `json:"uptime_seconds,omitempty"`
	Counts        *CountsPayload `json:"edge_counts,omitempty"`
}

// CountsPayload is the JSON representation of edge counts.
type CountsPayload struct {
	Rising  int `json:"rising"`
	Falling int `json:"falling"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	inner := SystemPayloadInner{
		Timestamp:     event.Timestamp.UTC().Format(time.RFC3339),
		Event:         event.Event,
		Pin:           event.Pin,
		Reason:        event.Reason,
		UptimeSeconds: int64(event.Uptime.Truncate(time.Second).Seconds()),
	}
	if event.Counts != nil {
		inner.Counts = &CountsPayload{Rising: event.Counts.Rising, Falling: event.Counts.Falling}
	}
	return json.Marshal(SystemPayload{System: inner})
}
