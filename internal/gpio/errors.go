package gpio

import "errors"

var (
	ErrMalformedValue  = errors.New("malformed gpio value")
	ErrInvalidPinName  = errors.New("invalid gpio pin name")
	ErrUnknownBackend  = errors.New("unknown gpio backend")
	ErrNotSupported    = errors.New("gpio backend not supported on this platform")
	ErrNotifierRefused = errors.New("gpio select device refused pin")
)
