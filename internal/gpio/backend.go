package gpio

import (
	"fmt"

	"github.com/spf13/afero"
)

// Backend names accepted by NewReader.
const (
	BackendSysfs  = "sysfs"
	BackendCdev   = "cdev"
	BackendPeriph = "periph"
)

// Options configures NewReader.
type Options struct {
	Backend   string
	SysfsRoot string
	Fallback  int
	Chip      string
	ChipBase  int
}

// NewReader builds the Reader for the configured backend.
func NewReader(opts Options) (Reader, error) {
	switch opts.Backend {
	case "", BackendSysfs:
		return NewSysfsReader(afero.NewOsFs(), opts.SysfsRoot, opts.Fallback), nil
	case BackendCdev:
		r, err := NewCdevReader(opts.Chip, opts.ChipBase)
		if err != nil {
			return nil, err
		}
		return r, nil
	case BackendPeriph:
		r, err := NewPeriphReader(opts.ChipBase)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, opts.Backend)
	}
}

// NewNotifier returns a DeviceNotifier for path, or a NopNotifier when
// path is empty.
func NewNotifier(path string) Notifier {
	if path == "" {
		return NopNotifier{}
	}
	return NewDeviceNotifier(afero.NewOsFs(), path)
}
