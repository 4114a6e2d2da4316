package config

import "errors"

// Configuration loading errors
var (
	ErrConfigFileRead  = errors.New("failed to read config file")
	ErrConfigUnmarshal = errors.New("failed to unmarshal config")
)

// Configuration validation errors
var (
	ErrNoPins         = errors.New("at least one pin is required")
	ErrBadPin         = errors.New("pin must be a non-negative integer")
	ErrDefaultPin     = errors.New("default pin is not one of the configured pins")
	ErrBadInterval    = errors.New("interval must be positive")
	ErrBadFallback    = errors.New("fallback must be 0 or 1")
	ErrBadBackend     = errors.New("unknown backend")
	ErrNegativeTiming = errors.New("debounce and heartbeat must not be negative")
)
