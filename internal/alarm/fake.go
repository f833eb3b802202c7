package alarm

import "sync"

// FakeOutput records Start and Stop calls.
type FakeOutput struct {
	mu      sync.Mutex
	starts  int
	stops   int
	ringing bool

	// Err, if set, is returned from Start and Stop.
	Err error
}

func (f *FakeOutput) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	f.ringing = true
	return f.Err
}

func (f *FakeOutput) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	f.ringing = false
	return f.Err
}

// Counts returns the number of Start and Stop calls.
func (f *FakeOutput) Counts() (starts, stops int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts, f.stops
}

// Ringing reports whether the last call was Start.
func (f *FakeOutput) Ringing() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ringing
}
