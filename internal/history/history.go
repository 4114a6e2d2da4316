// Package history holds the samples recorded during one viewing session.
// This package has no external dependencies and is not safe for
// concurrent use; the session loop is its only writer.
package history

// Sample is one observation of the active pin.
type Sample struct {
	Elapsed float64 `json:"t"` // seconds since the session origin
	State   int     `json:"v"` // 0 or 1
}

// Buffer is an append-only, insertion-ordered sequence of samples.
type Buffer struct {
	samples []Sample
}

// New creates an empty buffer.
func New() *Buffer {
	return &Buffer{}
}

// Append records s. Timestamps never go backwards: a sample older than
// the last one is stamped with the last timestamp.
func (b *Buffer) Append(s Sample) Sample {
	if n := len(b.samples); n > 0 && s.Elapsed < b.samples[n-1].Elapsed {
		s.Elapsed = b.samples[n-1].Elapsed
	}
	b.samples = append(b.samples, s)
	return s
}

// Len returns the number of samples.
func (b *Buffer) Len() int {
	return len(b.samples)
}

// View returns the current samples without copying. The result is
// read-only; later appends and resets never modify it.
func (b *Buffer) View() []Sample {
	n := len(b.samples)
	return b.samples[:n:n]
}

// Reset discards every sample.
func (b *Buffer) Reset() {
	b.samples = nil
}
