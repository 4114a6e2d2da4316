//go:build !linux

package gpio

// CdevReader is not available on non-Linux platforms.
type CdevReader struct{}

// NewCdevReader returns an error on non-Linux platforms.
func NewCdevReader(chipName string, chipBase int) (*CdevReader, error) {
	return nil, ErrNotSupported
}

// Read is not implemented on non-Linux platforms.
func (r *CdevReader) Read(pin Pin) (int, error) {
	return 0, ErrNotSupported
}

// Close is not implemented on non-Linux platforms.
func (r *CdevReader) Close() error {
	return nil
}
