package gpio

// FakeReader is a test double that returns scripted GPIO values per pin.
type FakeReader struct {
	// Values maps a pin to its scripted levels. Each Read consumes the
	// next value; once exhausted the last value repeats.
	Values map[Pin][]int

	// Fallback is returned for pins with no script, mirroring a missing
	// sysfs value file.
	Fallback int

	// ReadError, if set, will be returned by Read().
	ReadError error

	// Reads counts Read calls per pin. Read allocates it when nil.
	Reads map[Pin]int

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeReader creates a FakeReader with the given scripts.
func NewFakeReader(values map[Pin][]int) *FakeReader {
	if values == nil {
		values = make(map[Pin][]int)
	}
	return &FakeReader{Values: values, Reads: make(map[Pin]int)}
}

// Read returns the next scripted value for pin.
func (f *FakeReader) Read(pin Pin) (int, error) {
	if f.ReadError != nil {
		return 0, f.ReadError
	}

	if f.Reads == nil {
		f.Reads = make(map[Pin]int)
	}
	n := f.Reads[pin]
	f.Reads[pin] = n + 1

	script, ok := f.Values[pin]
	if !ok || len(script) == 0 {
		return f.Fallback, nil
	}
	if n >= len(script) {
		n = len(script) - 1
	}
	return script[n], nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}
