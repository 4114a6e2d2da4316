package gpio

import (
	"fmt"
	"strconv"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// PeriphReader reads GPIO through periph.io, which resolves lines by
// their BCM number.
type PeriphReader struct {
	mu       sync.Mutex
	chipBase int
	pins     map[Pin]gpio.PinIO
}

// NewPeriphReader initialises the periph host drivers.
func NewPeriphReader(chipBase int) (*PeriphReader, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to init periph: %w", err)
	}
	return &PeriphReader{
		chipBase: chipBase,
		pins:     make(map[Pin]gpio.PinIO),
	}, nil
}

// Read returns the level of pin.
func (r *PeriphReader) Read(pin Pin) (int, error) {
	p, err := r.lookup(pin)
	if err != nil {
		return 0, err
	}
	if p.Read() == gpio.High {
		return 1, nil
	}
	return 0, nil
}

func (r *PeriphReader) lookup(pin Pin) (gpio.PinIO, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.pins[pin]; ok {
		return p, nil
	}

	offset, err := pin.Offset(r.chipBase)
	if err != nil {
		return nil, err
	}

	p := gpioreg.ByName(strconv.Itoa(offset))
	if p == nil {
		return nil, fmt.Errorf("failed to find pin %s (line %d)", pin, offset)
	}
	if err := p.In(gpio.Float, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("failed to set pin %s to input mode: %w", pin, err)
	}
	r.pins[pin] = p
	return p, nil
}

// Close forgets configured pins. periph has no per-pin release.
func (r *PeriphReader) Close() error {
	r.mu.Lock()
	r.pins = make(map[Pin]gpio.PinIO)
	r.mu.Unlock()
	return nil
}
