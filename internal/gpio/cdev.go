//go:build linux

package gpio

import (
	"errors"
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

// CdevReader reads GPIO from the Linux GPIO character device.
// Lines are requested on first read and held until Close.
type CdevReader struct {
	mu       sync.Mutex
	chip     *gpiocdev.Chip
	chipBase int
	lines    map[Pin]*gpiocdev.Line
}

// NewCdevReader opens the named chip (e.g. "gpiochip0"). chipBase is the
// sysfs number of the chip's first line.
func NewCdevReader(chipName string, chipBase int) (*CdevReader, error) {
	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer("gpio-scope"))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	return &CdevReader{
		chip:     chip,
		chipBase: chipBase,
		lines:    make(map[Pin]*gpiocdev.Line),
	}, nil
}

// Read returns the level of pin.
func (r *CdevReader) Read(pin Pin) (int, error) {
	line, err := r.line(pin)
	if err != nil {
		return 0, err
	}

	v, err := line.Value()
	if err != nil {
		return 0, fmt.Errorf("read pin %s: %w", pin, err)
	}
	return v, nil
}

func (r *CdevReader) line(pin Pin) (*gpiocdev.Line, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.lines[pin]; ok {
		return l, nil
	}

	offset, err := pin.Offset(r.chipBase)
	if err != nil {
		return nil, err
	}

	l, err := r.chip.RequestLine(offset, gpiocdev.AsInput)
	if err != nil {
		return nil, fmt.Errorf("request pin %s (offset %d): %w", pin, offset, err)
	}
	r.lines[pin] = l
	return l, nil
}

// Close releases all requested lines and the chip.
func (r *CdevReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for pin, l := range r.lines {
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin %s: %w", pin, err))
		}
		delete(r.lines, pin)
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		r.chip = nil
	}
	return errors.Join(errs...)
}
