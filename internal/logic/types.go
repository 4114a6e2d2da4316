// Package logic contains pure edge-detection logic for a sampled GPIO line.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// Level is the logical level of a line.
type Level string

const (
	LevelHigh Level = "HIGH"
	LevelLow  Level = "LOW"
)

// EventType represents a level transition.
type EventType string

const (
	EventRising  EventType = "RISING"
	EventFalling EventType = "FALLING"
)

// Event represents a transition to be published.
type Event struct {
	Timestamp time.Time
	Pin       string
	Type      EventType
	Level     Level
}

// LineState tracks debounce state for the watched line.
type LineState struct {
	// Current stable (debounced) level
	Stable Level
	// Pending level during debounce
	Pending Level
	// Time when pending level was first observed
	PendingSince time.Time
	// Whether we have established a baseline
	Baselined bool
}

// Input represents a single sample.
type Input struct {
	Pin   string
	Value int // 0 or 1
	Time  time.Time
}

// EventCounts tracks the number of each event type since startup.
type EventCounts struct {
	Rising  int
	Falling int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}
