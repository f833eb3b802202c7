package alarm

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sweeney/alarm-clock/internal/gpio"
)

// DefaultInterval is the on/off cadence of the buzzer while ringing.
const DefaultInterval = 250 * time.Millisecond

// Buzzer pulses an active buzzer on a GPIO line while the alarm rings.
// It implements clock.AlarmOutput.
type Buzzer struct {
	out      gpio.Writer
	interval time.Duration

	mu      sync.Mutex
	chirp   *Chirp
	cancel  context.CancelFunc
	done    chan struct{}
	ringing bool
}

// NewBuzzer creates a silent buzzer on out.
func NewBuzzer(out gpio.Writer, interval time.Duration) *Buzzer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Buzzer{out: out, interval: interval, chirp: NewChirp()}
}

// Start turns the buzzer on and begins pulsing. Starting a ringing buzzer
// is a no-op.
func (b *Buzzer) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ringing {
		return nil
	}
	if err := b.out.Set(true); err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.done = make(chan struct{})
	b.ringing = true
	b.chirp.Reset()

	go b.pulse(ctx, b.done)
	return nil
}

// Stop silences the buzzer and waits for the pulse loop to exit.
func (b *Buzzer) Stop() error {
	b.mu.Lock()
	if !b.ringing {
		b.mu.Unlock()
		return nil
	}
	b.cancel()
	done := b.done
	b.ringing = false
	b.mu.Unlock()

	<-done
	return b.out.Set(false)
}

// Ringing reports whether the buzzer is active.
func (b *Buzzer) Ringing() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ringing
}

// Frequency is the current chirp frequency, for diagnostics.
func (b *Buzzer) Frequency() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.chirp.Frequency()
}

func (b *Buzzer) pulse(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	level := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			level = !level
			if err := b.out.Set(level); err != nil {
				log.Warn().Err(err).Msg("buzzer write failed")
			}
			b.mu.Lock()
			b.chirp.Next()
			b.mu.Unlock()
		}
	}
}
