package clock

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/sweeney/alarm-clock/internal/ir"
)

const cursorPositions = 4

// Controller is the clock and mode state machine. All methods are safe for
// concurrent use; the slow tick and button handling are serialized by mu so
// a multi-field load or commit is never observed half done.
type Controller struct {
	mu  sync.Mutex
	out AlarmOutput

	ticksPerMinute int
	subTicks       int

	hourMode  HourMode
	current   TimeValue
	alarm     TimeValue
	edit      TimeValue
	reference TimeValue
	cursor    int
	mode      Mode
	armed     bool
}

// New creates a controller in ModeShowTime. out may be nil.
func New(cfg Config, out AlarmOutput) *Controller {
	if out == nil {
		out = nopOutput{}
	}
	tpm := cfg.TicksPerMinute
	if tpm <= 0 {
		tpm = DefaultConfig().TicksPerMinute
	}
	return &Controller{
		out:            out,
		ticksPerMinute: tpm,
		hourMode:       cfg.HourMode,
		current:        cfg.Time,
		alarm:          cfg.Alarm,
		mode:           ModeShowTime,
		armed:          cfg.Armed,
	}
}

// HandleButton applies one remote button press and returns the resulting
// transitions. Communication errors and unknown buttons are ignored.
func (c *Controller) HandleButton(b ir.Button) []Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch b {
	case ir.ButtonMode:
		return c.cycleMode()

	case ir.ButtonSilence:
		if c.mode == ModeAlarmRinging {
			return []Event{c.silence(ReasonButton)}
		}

	case ir.ButtonAlarmToggle:
		if c.mode == ModeShowTime {
			c.armed = !c.armed
			typ := EventAlarmDisarmed
			if c.armed {
				typ = EventAlarmArmed
			}
			return []Event{c.event(typ, c.alarm)}
		}

	case ir.ButtonHourMode:
		return []Event{c.toggleHourMode()}

	case ir.ButtonLeft:
		if c.editing() {
			c.moveCursor(-1)
		}

	case ir.ButtonRight:
		if c.editing() {
			c.moveCursor(1)
		}

	case ir.ButtonAMPM:
		if c.editing() && c.hourMode == Twelve {
			c.edit.PM = !c.edit.PM
		}

	default:
		if d, ok := b.Digit(); ok && c.editing() {
			c.edit.Digits[c.cursor] = d
			c.moveCursor(1)
		}
	}
	return nil
}

// MotionDetected silences a ringing alarm, like the silence button.
func (c *Controller) MotionDetected() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode != ModeAlarmRinging {
		return nil
	}
	return []Event{c.silence(ReasonMotion)}
}

// Tick is the slow periodic tick. Every TicksPerMinute ticks spent in
// ModeShowTime advance the clock one minute and check the alarm.
func (c *Controller) Tick() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode != ModeShowTime {
		return nil
	}
	c.subTicks++
	if c.subTicks < c.ticksPerMinute {
		return nil
	}
	c.subTicks = 0
	c.current = c.current.advance(c.hourMode)

	if c.armed && c.current.Equal(c.alarm) {
		return []Event{c.ring()}
	}
	return nil
}

// Snapshot returns a copy of the read-access state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		Current:  c.current,
		Alarm:    c.alarm,
		Edit:     c.edit,
		Cursor:   c.cursor,
		Mode:     c.mode,
		HourMode: c.hourMode,
		Armed:    c.armed,
	}
}

func (c *Controller) editing() bool {
	return c.mode == ModeSetTime || c.mode == ModeSetAlarm
}

func (c *Controller) cycleMode() []Event {
	var events []Event
	from := c.mode

	switch c.mode {
	case ModeShowTime:
		c.load(c.current)
		c.mode = ModeSetTime
	case ModeSetTime:
		if ev, ok := c.commit(&c.current, EventTimeSet); ok {
			events = append(events, ev)
		}
		c.load(c.alarm)
		c.mode = ModeSetAlarm
	case ModeSetAlarm:
		if ev, ok := c.commit(&c.alarm, EventAlarmSet); ok {
			events = append(events, ev)
		}
		c.mode = ModeShowTime
	default:
		return nil
	}

	c.cursor = 0
	ev := c.event(EventModeChanged, TimeValue{})
	ev.From = from
	return append(events, ev)
}

// load copies v into the edit buffer and the reference snapshot.
func (c *Controller) load(v TimeValue) {
	c.edit = v
	c.reference = v
}

// commit writes the edit buffer into target when it is valid and was
// actually changed. Committing the clock time restarts the current minute.
func (c *Controller) commit(target *TimeValue, typ EventType) (Event, bool) {
	if c.edit.Equal(c.reference) {
		return Event{}, false
	}
	if !c.edit.Valid(c.hourMode) {
		log.Debug().
			Str("edit", c.edit.Format(c.hourMode)).
			Str("mode", string(c.mode)).
			Msg("discarding invalid edit")
		return c.event(EventEditDiscarded, c.edit), true
	}

	*target = c.edit
	if target == &c.current {
		c.subTicks = 0
	}
	return c.event(typ, c.edit), true
}

func (c *Controller) moveCursor(delta int) {
	c.cursor = (c.cursor + delta + cursorPositions) % cursorPositions
}

func (c *Controller) toggleHourMode() Event {
	from := c.hourMode
	c.current = c.current.Convert(from)
	c.alarm = c.alarm.Convert(from)
	c.edit = c.edit.Convert(from)
	c.reference = c.reference.Convert(from)
	c.hourMode = from.Toggle()
	return c.event(EventHourModeChanged, c.current)
}

func (c *Controller) ring() Event {
	c.mode = ModeAlarmRinging
	if err := c.out.Start(); err != nil {
		log.Error().Err(err).Msg("failed to start alarm output")
	}
	log.Info().Str("time", c.current.Format(c.hourMode)).Msg("alarm ringing")
	return c.event(EventAlarmRinging, c.current)
}

func (c *Controller) silence(reason string) Event {
	if err := c.out.Stop(); err != nil {
		log.Error().Err(err).Msg("failed to stop alarm output")
	}
	c.mode = ModeShowTime
	log.Info().Str("reason", reason).Msg("alarm silenced")
	ev := c.event(EventAlarmSilenced, c.current)
	ev.Reason = reason
	return ev
}

func (c *Controller) event(typ EventType, v TimeValue) Event {
	return Event{
		Type:     typ,
		Mode:     c.mode,
		Time:     v,
		HourMode: c.hourMode,
		Armed:    c.armed,
	}
}

type nopOutput struct{}

func (nopOutput) Start() error { return nil }
func (nopOutput) Stop() error  { return nil }
