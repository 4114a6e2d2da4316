package gpio

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
)

// DefaultSelectDevice is the control file of the pin multiplexer driver.
const DefaultSelectDevice = "/dev/gpio_select"

// Notifier tells an external driver which pin is now active.
type Notifier interface {
	Notify(pin Pin) error
}

// NopNotifier is used when no external driver is present.
type NopNotifier struct{}

// Notify does nothing.
func (NopNotifier) Notify(Pin) error { return nil }

// DeviceNotifier writes the pin id to a write-only control file.
type DeviceNotifier struct {
	fs   afero.Fs
	path string
}

// NewDeviceNotifier creates a notifier for the control file at path.
func NewDeviceNotifier(fsys afero.Fs, path string) *DeviceNotifier {
	return &DeviceNotifier{fs: fsys, path: path}
}

// Notify writes the pin id with no trailing newline. The driver rejects
// ids it does not know with EINVAL.
func (n *DeviceNotifier) Notify(pin Pin) error {
	f, err := n.fs.OpenFile(n.path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("open %s: %w", n.path, err)
	}

	if _, err := f.Write([]byte(pin)); err != nil {
		f.Close()
		return fmt.Errorf("%w: write %s to %s: %w", ErrNotifierRefused, pin, n.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", n.path, err)
	}
	return nil
}

// FakeNotifier records notified pins.
type FakeNotifier struct {
	Pins  []Pin
	Error error
}

// Notify records pin or returns the scripted error.
func (f *FakeNotifier) Notify(pin Pin) error {
	if f.Error != nil {
		return f.Error
	}
	f.Pins = append(f.Pins, pin)
	return nil
}
