package ir

import (
	"sync/atomic"
	"time"
)

// TickPeriod is the sampling interval the default timing is tuned for.
// It is the NEC base unit, so a short pulse spans one tick.
const TickPeriod = 562500 * time.Nanosecond

// Capacity is the maximum number of bits a single session may hold.
const Capacity = 100

// frameBits is the tail of a message that carries command and complement.
const frameBits = 16

// Phase is the receive state of the decoder.
type Phase int

const (
	PhaseAwaitingLeadOut Phase = iota
	PhaseAwaitingSpace
	PhaseReading
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingLeadOut:
		return "AWAITING_LEAD_OUT"
	case PhaseAwaitingSpace:
		return "AWAITING_SPACE"
	case PhaseReading:
		return "READING"
	default:
		return "INVALID"
	}
}

// Outcome reports what a single tick did to the session.
type Outcome int

const (
	OutcomeNone      Outcome = iota
	OutcomeIgnored           // a completed message is still waiting to be drained
	OutcomeStarted           // message body began
	OutcomeAborted           // lead-out was not followed by a valid space
	OutcomeOverflow          // bit buffer would have overflowed
	OutcomeTruncated         // message ended with too few bits to decode
	OutcomeComplete          // message is available for Poll
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomeIgnored:
		return "ignored"
	case OutcomeStarted:
		return "started"
	case OutcomeAborted:
		return "aborted"
	case OutcomeOverflow:
		return "overflow"
	case OutcomeTruncated:
		return "truncated"
	case OutcomeComplete:
		return "complete"
	default:
		return "invalid"
	}
}

// Timing holds the tick-count thresholds of the receive state machine.
type Timing struct {
	// LeadOut is the number of space ticks that must be exceeded before a mark
	// can open a session.
	LeadOut int
	// LeadOutCap bounds the space counter while idle.
	LeadOutCap int
	// Space is the number of mark ticks that must be exceeded before the
	// message body begins.
	Space int
	// Bit is the longest space run still read as a 0 bit.
	Bit int
	// EndOfMessage is the space run after which the message is complete.
	EndOfMessage int
}

// DefaultTiming returns thresholds for NEC frames sampled every TickPeriod.
func DefaultTiming() Timing {
	return Timing{
		LeadOut:      200,
		LeadOutCap:   300,
		Space:        8,
		Bit:          2,
		EndOfMessage: 50,
	}
}

// Decoder turns a stream of mark/space samples into button events.
//
// Tick must only be called from one goroutine (the sampler). Poll may be
// called from another goroutine; the available flag is the only state the
// two share; the bit buffer is frozen while it is set.
type Decoder struct {
	timing  Timing
	phase   Phase
	counter int
	buf     bitBuffer

	available atomic.Bool
}

// NewDecoder creates a decoder waiting for a lead-out.
func NewDecoder(t Timing) *Decoder {
	return &Decoder{timing: t}
}

// Tick advances the state machine by one sample. mark is true while the
// receiver reports carrier.
func (d *Decoder) Tick(mark bool) Outcome {
	if d.available.Load() {
		return OutcomeIgnored
	}

	switch d.phase {
	case PhaseAwaitingLeadOut:
		if !mark {
			if d.counter < d.timing.LeadOutCap {
				d.counter++
			}
			return OutcomeNone
		}
		if d.counter > d.timing.LeadOut {
			d.counter = 0
			d.phase = PhaseAwaitingSpace
			return OutcomeNone
		}
		// Mark arrived too early: noise.
		d.counter = 0
		return OutcomeNone

	case PhaseAwaitingSpace:
		if !mark {
			d.restart()
			return OutcomeAborted
		}
		d.counter++
		if d.counter > d.timing.Space {
			d.counter = 0
			d.buf.reset()
			d.phase = PhaseReading
			return OutcomeStarted
		}
		return OutcomeNone

	case PhaseReading:
		if mark {
			if !d.buf.push(d.counter > d.timing.Bit) {
				d.restart()
				return OutcomeOverflow
			}
			d.counter = 0
			return OutcomeNone
		}
		d.counter++
		if d.counter <= d.timing.EndOfMessage {
			return OutcomeNone
		}
		if d.buf.len() < frameBits {
			d.restart()
			return OutcomeTruncated
		}
		d.counter = 0
		d.phase = PhaseAwaitingLeadOut
		d.available.Store(true)
		return OutcomeComplete
	}

	return OutcomeNone
}

func (d *Decoder) restart() {
	d.counter = 0
	d.phase = PhaseAwaitingLeadOut
}

// Available reports whether a completed message is waiting to be drained.
func (d *Decoder) Available() bool {
	return d.available.Load()
}

// Phase returns the current receive phase. Only meaningful on the goroutine
// that calls Tick.
func (d *Decoder) Phase() Phase {
	return d.phase
}

// Poll drains a completed message. It returns false when nothing is pending.
// The last 16 bits are read as a command byte followed by its complement;
// a mismatch yields ButtonCommError.
func (d *Decoder) Poll() (Event, bool) {
	if !d.available.Load() {
		return Event{}, false
	}

	n := d.buf.len()
	command := d.buf.byteAt(n - frameBits)
	inverse := d.buf.byteAt(n - frameBits/2)
	d.buf.reset()
	d.available.Store(false)

	if inverse != ^command {
		return Event{Button: ButtonCommError, Command: command}, true
	}
	return Event{Button: Lookup(command), Command: command}, true
}

// bitBuffer is a fixed-capacity MSB-first bit accumulator.
type bitBuffer struct {
	data [(Capacity + 7) / 8]byte
	n    int
}

func (b *bitBuffer) reset() {
	b.data = [len(b.data)]byte{}
	b.n = 0
}

func (b *bitBuffer) push(bit bool) bool {
	if b.n >= Capacity {
		return false
	}
	if bit {
		b.data[b.n/8] |= 0x80 >> (b.n % 8)
	}
	b.n++
	return true
}

func (b *bitBuffer) len() int {
	return b.n
}

func (b *bitBuffer) bit(i int) bool {
	return b.data[i/8]&(0x80>>(i%8)) != 0
}

// byteAt assembles the 8 bits starting at index start, first bit most significant.
func (b *bitBuffer) byteAt(start int) uint8 {
	var v uint8
	for k := 0; k < 8; k++ {
		v <<= 1
		if b.bit(start + k) {
			v |= 1
		}
	}
	return v
}
