package motion

import "time"

// Debouncer turns raw Moving samples into a stable level. A new level is
// only accepted once it has been observed continuously for the debounce
// duration. A zero duration accepts every sample immediately.
type Debouncer struct {
	duration     time.Duration
	stable       bool
	pending      bool
	hasPending   bool
	pendingSince time.Time
}

// NewDebouncer creates a debouncer that starts out not moving.
func NewDebouncer(d time.Duration) *Debouncer {
	return &Debouncer{duration: d}
}

// Process feeds one sample taken at now and returns the debounced level.
func (d *Debouncer) Process(moving bool, now time.Time) bool {
	if moving == d.stable {
		// No change from stable state, clear any pending
		d.hasPending = false
		return d.stable
	}

	if !d.hasPending || d.pending != moving {
		d.pending = moving
		d.pendingSince = now
		d.hasPending = true
	}

	if now.Sub(d.pendingSince) >= d.duration {
		d.stable = moving
		d.hasPending = false
	}
	return d.stable
}

// Stable returns the current debounced level.
func (d *Debouncer) Stable() bool {
	return d.stable
}

// Reset returns the debouncer to not moving with nothing pending.
func (d *Debouncer) Reset() {
	d.stable = false
	d.hasPending = false
}
