package gpio

import (
	"errors"
	"sync"
)

// FakeReader is a test double that returns scripted line levels.
type FakeReader struct {
	mu sync.Mutex

	// Samples contains scripted mark levels to return.
	// Each call to Read() consumes the next sample.
	Samples []bool

	index  int
	closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples []bool) *FakeReader {
	return &FakeReader{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeReader) Read() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ReadError != nil {
		return false, f.ReadError
	}
	if len(f.Samples) == 0 {
		return false, errors.New("no samples configured")
	}

	if f.index >= len(f.Samples) {
		return f.Samples[len(f.Samples)-1], nil
	}
	sample := f.Samples[f.index]
	f.index++
	return sample, nil
}

// Append queues more samples after the current position.
func (f *FakeReader) Append(samples ...bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Samples = append(f.Samples, samples...)
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Closed reports whether Close was called.
func (f *FakeReader) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Reset resets the reader to the beginning of samples.
func (f *FakeReader) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.index = 0
	f.closed = false
}

// FakeWriter records every value written to it.
type FakeWriter struct {
	mu     sync.Mutex
	values []bool
	closed bool

	// SetError, if set, will be returned by Set()
	SetError error
}

// Set records on.
func (f *FakeWriter) Set(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SetError != nil {
		return f.SetError
	}
	f.values = append(f.values, on)
	return nil
}

// Close marks the writer as closed.
func (f *FakeWriter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Values returns a copy of everything written so far.
func (f *FakeWriter) Values() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]bool, len(f.values))
	copy(out, f.values)
	return out
}

// Level returns the last value written, false if none.
func (f *FakeWriter) Level() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.values) == 0 {
		return false
	}
	return f.values[len(f.values)-1]
}

// Closed reports whether Close was called.
func (f *FakeWriter) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
