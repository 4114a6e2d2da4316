package session

import (
	"fmt"
	"strings"

	"github.com/sweeney/gpio-scope/internal/gpio"
)

// PinSet is the fixed, ordered set of selectable pins.
type PinSet []gpio.Pin

// NewPinSet validates ids and returns them as a PinSet.
func NewPinSet(ids ...string) (PinSet, error) {
	if len(ids) == 0 {
		return nil, ErrNoPins
	}

	set := make(PinSet, 0, len(ids))
	seen := make(map[gpio.Pin]bool, len(ids))
	for _, id := range ids {
		pin := gpio.Pin(strings.TrimSpace(id))
		if _, err := pin.Number(); err != nil {
			return nil, err
		}
		if seen[pin] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePin, pin)
		}
		seen[pin] = true
		set = append(set, pin)
	}
	return set, nil
}

// Contains reports whether pin is selectable.
func (s PinSet) Contains(pin gpio.Pin) bool {
	for _, p := range s {
		if p == pin {
			return true
		}
	}
	return false
}

// Parse trims input and returns the matching pin.
func (s PinSet) Parse(input string) (gpio.Pin, error) {
	pin := gpio.Pin(strings.TrimSpace(input))
	if !s.Contains(pin) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPin, input)
	}
	return pin, nil
}

// Choices formats the set for a prompt: "539/540".
func (s PinSet) Choices() string {
	return strings.Join(s.strings(), "/")
}

// Alternatives formats the set for an error message: "539 or 540",
// "538, 539 or 540".
func (s PinSet) Alternatives() string {
	ids := s.strings()
	if len(ids) == 1 {
		return ids[0]
	}
	return strings.Join(ids[:len(ids)-1], ", ") + " or " + ids[len(ids)-1]
}

func (s PinSet) strings() []string {
	out := make([]string, len(s))
	for i, p := range s {
		out[i] = string(p)
	}
	return out
}
