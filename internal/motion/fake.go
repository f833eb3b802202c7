package motion

import "sync"

// FakeSensor returns scripted answers to Moving.
type FakeSensor struct {
	mu      sync.Mutex
	samples []bool
	calls   int

	// Err, if set, is returned from Moving.
	Err error
}

// NewFakeSensor creates a sensor that answers with samples in order and
// then false.
func NewFakeSensor(samples ...bool) *FakeSensor {
	return &FakeSensor{samples: samples}
}

func (f *FakeSensor) Moving() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.Err != nil {
		return false, f.Err
	}
	if len(f.samples) == 0 {
		return false, nil
	}
	v := f.samples[0]
	f.samples = f.samples[1:]
	return v, nil
}

// Shake queues one moving sample.
func (f *FakeSensor) Shake() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.samples = append(f.samples, true)
}

// Calls returns how many times Moving was called.
func (f *FakeSensor) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
