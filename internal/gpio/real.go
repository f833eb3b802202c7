//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealReader reads the IR line from actual hardware using Linux GPIO character device.
type RealReader struct {
	line *gpiocdev.Line
}

// NewRealReader requests pin as an input on the given chip.
func NewRealReader(chip string, pin int) (*RealReader, error) {
	// The receiver output is open collector and idles high, so pull up.
	line, err := gpiocdev.RequestLine(chip, pin, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		return nil, fmt.Errorf("request IR pin %d: %w", pin, err)
	}
	return &RealReader{line: line}, nil
}

// Read returns the logical mark level.
// Inverts raw GPIO: raw inactive (0) = mark, raw active (1) = space.
func (r *RealReader) Read() (bool, error) {
	raw, err := r.line.Value()
	if err != nil {
		return false, fmt.Errorf("read IR pin: %w", err)
	}
	return raw == 0, nil
}

// Close releases the line.
// Reconfigures it to input with pull-down (matching Pi boot defaults) first.
func (r *RealReader) Close() error {
	if r.line == nil {
		return nil
	}
	var errs []error
	if err := r.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
		errs = append(errs, fmt.Errorf("reconfigure IR pin: %w", err))
	}
	if err := r.line.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close IR pin: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealWriter drives an output line on actual hardware.
type RealWriter struct {
	pin  int
	line *gpiocdev.Line
}

// NewRealWriter requests pin as an output, initially low.
func NewRealWriter(chip string, pin int) (*RealWriter, error) {
	line, err := gpiocdev.RequestLine(chip, pin, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("request output pin %d: %w", pin, err)
	}
	return &RealWriter{pin: pin, line: line}, nil
}

// Set drives the line.
func (w *RealWriter) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := w.line.SetValue(v); err != nil {
		return fmt.Errorf("set pin %d: %w", w.pin, err)
	}
	return nil
}

// Close drives the line low, returns it to an input and releases it.
func (w *RealWriter) Close() error {
	if w.line == nil {
		return nil
	}
	var errs []error
	if err := w.line.SetValue(0); err != nil {
		errs = append(errs, fmt.Errorf("clear pin %d: %w", w.pin, err))
	}
	if err := w.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
		errs = append(errs, fmt.Errorf("reconfigure pin %d: %w", w.pin, err))
	}
	if err := w.line.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close pin %d: %w", w.pin, err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
