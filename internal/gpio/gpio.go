// Package gpio reads the digital state of a single GPIO line.
// The default backend reads the sysfs value file exported by the kernel.
// Character device and periph.io backends talk to the line directly.
// The fake implementation allows testing without hardware.
package gpio

import (
	"fmt"
	"strconv"
)

// Pin names a GPIO line by its sysfs number, e.g. "538".
type Pin string

// DefaultFallback is the value reported for a pin whose value file is absent.
const DefaultFallback = 0

// Reader reads GPIO input states.
type Reader interface {
	// Read returns the current level of pin as 0 or 1.
	Read(pin Pin) (int, error)

	// Close releases GPIO resources.
	Close() error
}

// Number returns the numeric sysfs line number of the pin.
func (p Pin) Number() (int, error) {
	n, err := strconv.Atoi(string(p))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPinName, string(p))
	}
	return n, nil
}

func (p Pin) String() string {
	return string(p)
}

// Offset converts a sysfs line number into a chip-relative offset.
// Kernels since 6.6 number the first Raspberry Pi bank from 512, so
// sysfs GPIO 538 is BCM line 26.
func (p Pin) Offset(chipBase int) (int, error) {
	n, err := p.Number()
	if err != nil {
		return 0, err
	}
	if n < chipBase {
		return 0, fmt.Errorf("%w: %s is below chip base %d", ErrInvalidPinName, p, chipBase)
	}
	return n - chipBase, nil
}

// parseLevel validates a raw level. Anything other than 0 or 1 is malformed.
func parseLevel(raw string) (int, error) {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedValue, raw)
	}
	if v != 0 && v != 1 {
		return 0, fmt.Errorf("%w: %d", ErrMalformedValue, v)
	}
	return v, nil
}
