// Package motion detects the clock being picked up or shaken, which
// silences a ringing alarm.
package motion

// Sensor reports whether the clock is currently being moved.
type Sensor interface {
	Moving() (bool, error)
}

// Reading is one raw accelerometer sample.
type Reading struct {
	X, Y, Z int16
}

// Threshold is the raw acceleration beyond which an axis counts as moving.
const Threshold = 3000

// Exceeds reports whether the X or Y axis is outside ±threshold.
// Z carries gravity at rest and is not considered.
func (r Reading) Exceeds(threshold int16) bool {
	return outside(r.X, threshold) || outside(r.Y, threshold)
}

func outside(v, threshold int16) bool {
	return v < -threshold || v > threshold
}
