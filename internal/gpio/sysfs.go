package gpio

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// DefaultSysfsRoot is where the kernel exports GPIO lines.
const DefaultSysfsRoot = "/sys/class/gpio"

// SysfsReader reads {root}/gpio{N}/value.
type SysfsReader struct {
	fs       afero.Fs
	root     string
	fallback int
}

// NewSysfsReader creates a reader over the given filesystem. A missing
// value file reads as fallback instead of failing.
func NewSysfsReader(fsys afero.Fs, root string, fallback int) *SysfsReader {
	if root == "" {
		root = DefaultSysfsRoot
	}
	return &SysfsReader{fs: fsys, root: root, fallback: fallback}
}

// ValuePath returns the value file for pin.
func (r *SysfsReader) ValuePath(pin Pin) string {
	return path.Join(r.root, "gpio"+string(pin), "value")
}

// Read returns the pin level.
func (r *SysfsReader) Read(pin Pin) (int, error) {
	p := r.ValuePath(pin)
	data, err := afero.ReadFile(r.fs, p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return r.fallback, nil
		}
		return 0, fmt.Errorf("read %s: %w", p, err)
	}

	v, err := parseLevel(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", p, err)
	}
	return v, nil
}

// Close is a no-op; sysfs reads hold no open files between calls.
func (r *SysfsReader) Close() error {
	return nil
}
