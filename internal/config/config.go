// Package config parses the alarm-clock command line.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sweeney/alarm-clock/internal/clock"
	"github.com/sweeney/alarm-clock/internal/gpio"
	"github.com/sweeney/alarm-clock/internal/ir"
	"github.com/sweeney/alarm-clock/internal/motion"
)

// Config is the fully parsed daemon configuration.
type Config struct {
	LogLevel zerolog.Level
	LogFile  string

	Chip      string
	IRPin     int
	BuzzerPin int
	LEDPin    int

	I2CBus         string // empty disables the motion sensor
	MotionAddr     uint16
	MotionDebounce time.Duration

	Broker    string // empty disables MQTT
	ClientID  string
	Heartbeat time.Duration
	HTTPAddr  string // empty disables the status server

	SampleInterval time.Duration
	PollInterval   time.Duration
	ClockTick      time.Duration
	SpeedFactor    int
	BuzzerInterval time.Duration

	Clock clock.Config

	Simulate   []ir.Button
	PrintState bool
}

// TickPeriod is the real interval between slow ticks after the speed factor.
func (c Config) TickPeriod() time.Duration {
	return c.ClockTick / time.Duration(c.SpeedFactor)
}

// Load parses args (without the program name).
func Load(args []string, stderr io.Writer) (Config, error) {
	var (
		cfg                                  Config
		logLevel, hourMode, initial, alarmAt string
		simulate, i2cBus                     string
		motionAddr                           uint
		alarmOff                             bool
	)

	fs := flag.NewFlagSet("alarm-clock", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFile, "log-file", "", "Append logs to this file instead of stderr")

	fs.StringVar(&cfg.Chip, "gpio-chip", gpio.Chip, "GPIO character device")
	fs.IntVar(&cfg.IRPin, "pin-ir", gpio.PinIR, "BCM pin number for the IR receiver")
	fs.IntVar(&cfg.BuzzerPin, "pin-buzzer", gpio.PinBuzzer, "BCM pin number for the buzzer")
	fs.IntVar(&cfg.LEDPin, "pin-led", gpio.PinLED, "BCM pin number for the alarm LED")

	fs.StringVar(&i2cBus, "i2c-bus", "1", `I2C bus of the motion sensor ("off" disables)`)
	fs.UintVar(&motionAddr, "motion-addr", motion.DefaultAddr, "I2C address of the MPU-6050")
	fs.DurationVar(&cfg.MotionDebounce, "motion-debounce", 0, "How long motion must persist before it counts")

	fs.StringVar(&cfg.Broker, "broker", "tcp://192.168.1.200:1883", "MQTT broker address (empty to disable)")
	fs.StringVar(&cfg.ClientID, "client-id", "alarm-clock", "MQTT client ID")
	fs.DurationVar(&cfg.Heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	fs.StringVar(&cfg.HTTPAddr, "http", ":80", "HTTP status address (empty to disable)")

	fs.DurationVar(&cfg.SampleInterval, "sample", ir.TickPeriod, "IR sampling interval")
	fs.DurationVar(&cfg.PollInterval, "poll", 20*time.Millisecond, "Decoder and motion polling interval")
	fs.DurationVar(&cfg.ClockTick, "clock-tick", 4*time.Second, "Slow tick period; must divide one minute")
	fs.IntVar(&cfg.SpeedFactor, "speed", 1, "Run the clock this many times faster (debugging)")
	fs.DurationVar(&cfg.BuzzerInterval, "buzzer-interval", 250*time.Millisecond, "Buzzer on/off cadence")

	fs.StringVar(&hourMode, "hour-mode", "12h", "Initial hour mode (12h or 24h)")
	fs.StringVar(&initial, "time", "12:00 AM", "Initial time of day")
	fs.StringVar(&alarmAt, "alarm", "12:10 AM", "Initial alarm time")
	fs.BoolVar(&alarmOff, "alarm-off", false, "Start with the alarm disarmed")

	fs.StringVar(&simulate, "simulate", "", "Comma-separated button names to feed through the decoder, then exit")
	fs.BoolVar(&cfg.PrintState, "print-state", false, "Print the IR line level and exit")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.LogLevel = parseLogLevel(logLevel)
	if i2cBus != "off" {
		cfg.I2CBus = i2cBus
	}
	if motionAddr > 0x7F {
		return Config{}, fmt.Errorf("-motion-addr %#x is not a 7-bit address", motionAddr)
	}
	cfg.MotionAddr = uint16(motionAddr)

	mode, err := parseHourMode(hourMode)
	if err != nil {
		return Config{}, err
	}
	cfg.Clock = clock.DefaultConfig()
	cfg.Clock.HourMode = mode
	cfg.Clock.Armed = !alarmOff
	if cfg.Clock.Time, err = clock.Parse(initial, mode); err != nil {
		return Config{}, fmt.Errorf("-time: %w", err)
	}
	if cfg.Clock.Alarm, err = clock.Parse(alarmAt, mode); err != nil {
		return Config{}, fmt.Errorf("-alarm: %w", err)
	}

	if simulate != "" {
		if cfg.Simulate, err = parseButtons(simulate); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	cfg.Clock.TicksPerMinute = int(time.Minute / cfg.ClockTick)
	return cfg, nil
}

func parseLogLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func parseHourMode(s string) (clock.HourMode, error) {
	switch strings.ToLower(s) {
	case "12", "12h":
		return clock.Twelve, nil
	case "24", "24h":
		return clock.TwentyFour, nil
	default:
		return 0, fmt.Errorf("-hour-mode: unknown mode %q", s)
	}
}

func parseButtons(s string) ([]ir.Button, error) {
	var out []ir.Button
	for _, name := range strings.Split(s, ",") {
		b, ok := ir.ParseButton(strings.ToUpper(strings.TrimSpace(name)))
		if !ok {
			return nil, fmt.Errorf("-simulate: unknown button %q", name)
		}
		if _, ok := ir.CommandFor(b); !ok {
			return nil, fmt.Errorf("-simulate: button %s has no remote code", b)
		}
		out = append(out, b)
	}
	return out, nil
}

func (cfg *Config) validate() error {
	var errs []error

	pins := map[int]string{}
	for _, p := range []struct {
		name string
		pin  int
	}{
		{"pin-ir", cfg.IRPin},
		{"pin-buzzer", cfg.BuzzerPin},
		{"pin-led", cfg.LEDPin},
	} {
		if p.pin < 0 {
			errs = append(errs, fmt.Errorf("-%s: negative pin %d", p.name, p.pin))
			continue
		}
		if other, exists := pins[p.pin]; exists {
			errs = append(errs, fmt.Errorf("-%s and -%s both use pin %d", p.name, other, p.pin))
			continue
		}
		pins[p.pin] = p.name
	}

	if cfg.SampleInterval <= 0 || cfg.PollInterval <= 0 {
		errs = append(errs, errors.New("-sample and -poll must be positive"))
	}
	if cfg.ClockTick <= 0 || time.Minute%cfg.ClockTick != 0 {
		errs = append(errs, fmt.Errorf("-clock-tick %v must divide one minute", cfg.ClockTick))
	}
	if cfg.SpeedFactor < 1 {
		errs = append(errs, fmt.Errorf("-speed %d must be at least 1", cfg.SpeedFactor))
	}
	if cfg.Heartbeat < 0 || cfg.MotionDebounce < 0 {
		errs = append(errs, errors.New("-heartbeat and -motion-debounce must not be negative"))
	}
	return errors.Join(errs...)
}
