package session

import "errors"

var (
	ErrInvalidPin   = errors.New("invalid pin selection")
	ErrNoPins       = errors.New("no pins configured")
	ErrDuplicatePin = errors.New("duplicate pin")
	ErrIdle         = errors.New("session is not sampling")
	ErrLoopStopped  = errors.New("session loop stopped")
)
