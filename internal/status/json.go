package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string     `json:"event,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	Pin           string     `json:"pin"`
	State         string     `json:"state"`
	Level         string     `json:"level"`
	Ready         bool       `json:"ready"`
	Samples       int        `json:"samples"`
	ElapsedSec    float64    `json:"elapsed_seconds"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	MQTT          MQTTStatus `json:"mqtt"`
	Counts        CountsJSON `json:"edge_counts"`
	Config        ConfigJSON `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of edge counts.
type CountsJSON struct {
	Rising  int `json:"rising"`
	Falling int `json:"falling"`
}

// ConfigJSON is the JSON representation of the process config.
type ConfigJSON struct {
	IntervalMs  int64    `json:"interval_ms"`
	DebounceMs  int64    `json:"debounce_ms"`
	HeartbeatMs int64    `json:"heartbeat_ms"`
	Broker      string   `json:"broker"`
	HTTPAddr    string   `json:"http_addr"`
	Backend     string   `json:"backend"`
	Pins        []string `json:"pins"`
	Bare        bool     `json:"bare"`
}

func buildInner(snap Snapshot) StatusInner {
	level := string(snap.Level)
	if level == "" {
		level = "UNKNOWN"
	}
	pins := snap.Config.Pins
	if pins == nil {
		pins = []string{}
	}

	return StatusInner{
		Pin:           snap.Pin,
		State:         snap.State,
		Level:         level,
		Ready:         snap.Baselined,
		Samples:       snap.Samples,
		ElapsedSec:    snap.Elapsed,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts:        CountsJSON{Rising: snap.Counts.Rising, Falling: snap.Counts.Falling},
		Config: ConfigJSON{
			IntervalMs:  snap.Config.IntervalMs,
			DebounceMs:  snap.Config.DebounceMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			Backend:     snap.Config.Backend,
			Pins:        pins,
			Bare:        snap.Config.Bare,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
