// Package gpio provides the IR sensor input and the alarm outputs with
// hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Reader samples the IR receiver line.
type Reader interface {
	// Read returns true while the receiver reports carrier (a mark).
	// The receiver output is active low: raw 0 = logical mark.
	Read() (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// Writer drives a single digital output.
type Writer interface {
	// Set drives the line high when on is true.
	Set(on bool) error

	// Close drives the line low and releases it.
	Close() error
}

// Pin definitions (BCM numbering)
const (
	PinIR     = 17 // IR receiver data
	PinBuzzer = 18 // piezo buzzer
	PinLED    = 27 // alarm indicator LED
)

// Chip is the GPIO character device on a Raspberry Pi.
const Chip = "gpiochip0"
