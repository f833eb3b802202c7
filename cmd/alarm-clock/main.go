// Command alarm-clock samples an IR remote, keeps the time of day and rings
// an alarm, publishing every transition to MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sweeney/alarm-clock/internal/alarm"
	"github.com/sweeney/alarm-clock/internal/clock"
	"github.com/sweeney/alarm-clock/internal/config"
	"github.com/sweeney/alarm-clock/internal/gpio"
	"github.com/sweeney/alarm-clock/internal/ir"
	"github.com/sweeney/alarm-clock/internal/logging"
	"github.com/sweeney/alarm-clock/internal/metrics"
	"github.com/sweeney/alarm-clock/internal/motion"
	"github.com/sweeney/alarm-clock/internal/mqtt"
	"github.com/sweeney/alarm-clock/internal/status"
	"github.com/sweeney/alarm-clock/internal/web"
)

func main() {
	cfg, err := config.Load(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "alarm-clock: %v\n", err)
		os.Exit(2)
	}
	if err := logging.Init(cfg.LogLevel, cfg.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "alarm-clock: %v\n", err)
		os.Exit(1)
	}

	if len(cfg.Simulate) > 0 {
		err = simulate(cfg, os.Stdout)
	} else {
		err = run(cfg)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("fatal")
	}
}

func run(cfg config.Config) error {
	// Initialize GPIO
	reader, err := gpio.NewRealReader(cfg.Chip, cfg.IRPin)
	if err != nil {
		return fmt.Errorf("init ir input: %w", err)
	}
	defer reader.Close()

	// Print state mode
	if cfg.PrintState {
		mark, err := reader.Read()
		if err != nil {
			return fmt.Errorf("read ir pin: %w", err)
		}
		fmt.Printf("IR: %s\n", levelString(mark))
		return nil
	}

	buzzerOut, err := gpio.NewRealWriter(cfg.Chip, cfg.BuzzerPin)
	if err != nil {
		return fmt.Errorf("init buzzer: %w", err)
	}
	defer buzzerOut.Close()
	led, err := gpio.NewRealWriter(cfg.Chip, cfg.LEDPin)
	if err != nil {
		return fmt.Errorf("init alarm led: %w", err)
	}
	defer led.Close()

	buzzer := alarm.NewBuzzer(buzzerOut, cfg.BuzzerInterval)
	defer buzzer.Stop()

	// A missing motion sensor only loses silence-by-motion.
	var sensor motion.Sensor
	if cfg.I2CBus != "" {
		dev, err := motion.Open(cfg.I2CBus, cfg.MotionAddr)
		if err != nil {
			log.Warn().Err(err).Str("bus", cfg.I2CBus).Msg("motion sensor unavailable")
		} else {
			defer dev.Close()
			sensor = dev
		}
	}

	// Initialize MQTT
	var publisher mqtt.Publisher = discardPublisher{}
	var mqttStatus mqtt.ConnectionStatus
	if cfg.Broker != "" {
		p, err := mqtt.NewRealPublisher(cfg.Broker, cfg.ClientID, mqtt.DefaultBufferSize)
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer p.Close()
		publisher, mqttStatus = p, p
	}

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:      cfg.PollInterval.Milliseconds(),
		ClockTickMs: cfg.ClockTick.Milliseconds(),
		SpeedFactor: cfg.SpeedFactor,
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		Broker:      cfg.Broker,
		HTTPAddr:    cfg.HTTPAddr,
		IRPin:       cfg.IRPin,
		BuzzerPin:   cfg.BuzzerPin,
		LEDPin:      cfg.LEDPin,
		I2CBus:      cfg.I2CBus,
	})
	tracker.SetMotionEnabled(sensor != nil)

	l := &loop{
		decoder:    ir.NewDecoder(ir.DefaultTiming()),
		controller: clock.New(cfg.Clock, buzzer),
		sensor:     sensor,
		debouncer:  motion.NewDebouncer(cfg.MotionDebounce),
		publisher:  publisher,
		mqttStatus: mqttStatus,
		tracker:    tracker,
		led:        led,
		chirp:      buzzer,
		heartbeat:  cfg.Heartbeat,
		now:        time.Now,
		tickPeriod: cfg.TickPeriod(),
	}
	l.refresh()

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Warn().Err(err).Msg("failed to publish startup event")
	}

	// Start HTTP status server
	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("http server error")
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http status server listening")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sampleTicker := time.NewTicker(cfg.SampleInterval)
	defer sampleTicker.Stop()
	go sampleLoop(ctx, reader, l.decoder, tracker, cfg.SampleInterval, sampleTicker.C)

	clockTicker := time.NewTicker(cfg.TickPeriod())
	defer clockTicker.Stop()
	pollTicker := time.NewTicker(cfg.PollInterval)
	defer pollTicker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	log.Info().
		Dur("sample", cfg.SampleInterval).
		Dur("tick", cfg.TickPeriod()).
		Str("time", cfg.Clock.Time.Format(cfg.Clock.HourMode)).
		Str("alarm", cfg.Clock.Alarm.Format(cfg.Clock.HourMode)).
		Bool("armed", cfg.Clock.Armed).
		Msg("started")

	return l.run(clockTicker.C, pollTicker.C, sigCh)
}

// sampleLoop feeds the decoder one line sample per tick until ctx is done.
// It is the only caller of Decoder.Tick.
func sampleLoop(ctx context.Context, reader gpio.Reader, dec *ir.Decoder, tracker *status.Tracker, period time.Duration, tick <-chan time.Time) {
	var last time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-tick:
			if !last.IsZero() && period > 0 {
				if missed := int(t.Sub(last)/period) - 1; missed > 0 {
					metrics.MissedSamples(missed)
				}
			}
			last = t

			mark, err := reader.Read()
			if err != nil {
				metrics.SampleError()
				continue
			}

			o := dec.Tick(mark)
			metrics.ObserveOutcome(o)
			switch o {
			case ir.OutcomeAborted, ir.OutcomeOverflow, ir.OutcomeTruncated:
				tracker.RecordOutcome(o)
				log.Debug().Stringer("outcome", o).Msg("ir frame dropped")
			}
		}
	}
}

// simulate encodes each button as a remote frame, runs it through the
// decoder and controller, and prints the resulting transitions.
func simulate(cfg config.Config, w io.Writer) error {
	timing := ir.DefaultTiming()
	dec := ir.NewDecoder(timing)
	out := &alarm.FakeOutput{}
	c := clock.New(cfg.Clock, out)

	for _, b := range cfg.Simulate {
		cmd, ok := ir.CommandFor(b)
		if !ok {
			return fmt.Errorf("button %s has no remote code", b)
		}
		for _, mark := range ir.Encode(0x00, cmd, timing) {
			dec.Tick(mark)
		}
		ev, ok := dec.Poll()
		if !ok {
			return fmt.Errorf("button %s: frame not decoded", b)
		}
		fmt.Fprintf(w, "%-12s", ev.Button)
		events := c.HandleButton(ev.Button)
		if len(events) == 0 {
			fmt.Fprintln(w, "-")
		}
		for i, e := range events {
			if i > 0 {
				fmt.Fprintf(w, "%-12s", "")
			}
			fmt.Fprintln(w, describe(e))
		}
	}

	snap := c.Snapshot()
	fmt.Fprintf(w, "mode=%s time=%s alarm=%s armed=%v display=%s\n",
		snap.Mode, snap.Current.Format(snap.HourMode), snap.Alarm.Format(snap.HourMode),
		snap.Armed, snap.Display().Format(snap.HourMode))
	return nil
}

func describe(e clock.Event) string {
	s := string(e.Type)
	if e.Type == clock.EventModeChanged {
		return fmt.Sprintf("%s %s -> %s", s, e.From, e.Mode)
	}
	if e.HasTime() {
		s += " " + e.Time.Format(e.HourMode)
	}
	if e.Reason != "" {
		s += " (" + e.Reason + ")"
	}
	return s
}

func levelString(mark bool) string {
	if mark {
		return "MARK"
	}
	return "SPACE"
}

// discardPublisher stands in when MQTT is disabled.
type discardPublisher struct{}

func (discardPublisher) Publish(time.Time, clock.Event) error    { return nil }
func (discardPublisher) PublishButton(time.Time, ir.Event) error { return nil }
func (discardPublisher) PublishSystem(mqtt.SystemEvent) error    { return nil }
func (discardPublisher) Close() error                            { return nil }
