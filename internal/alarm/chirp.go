// Package alarm drives the audible alarm while the clock is ringing.
package alarm

// Chirp sweep defaults, in Hz.
const (
	ChirpLow  = 1000
	ChirpHigh = 4000
	ChirpStep = 50
)

// Chirp is a rising frequency sweep that wraps back to its low end.
// It is not safe for concurrent use.
type Chirp struct {
	low, high, step int
	freq            int
}

// NewChirp returns the default 1 kHz to 4 kHz sweep.
func NewChirp() *Chirp {
	return &Chirp{low: ChirpLow, high: ChirpHigh, step: ChirpStep, freq: ChirpLow}
}

// Frequency is the tone currently playing.
func (c *Chirp) Frequency() int {
	return c.freq
}

// Next advances the sweep one step and returns the new frequency.
func (c *Chirp) Next() int {
	c.freq += c.step
	if c.freq > c.high {
		c.freq = c.low
	}
	return c.freq
}

// Reset restarts the sweep at its low end.
func (c *Chirp) Reset() {
	c.freq = c.low
}
