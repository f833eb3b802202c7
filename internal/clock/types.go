package clock

// Mode is the top-level application mode.
type Mode string

const (
	ModeShowTime     Mode = "SHOW_TIME"
	ModeSetTime      Mode = "SET_TIME"
	ModeSetAlarm     Mode = "SET_ALARM"
	ModeAlarmRinging Mode = "ALARM_RINGING"
)

// EventType identifies a controller transition.
type EventType string

const (
	EventModeChanged     EventType = "MODE_CHANGED"
	EventTimeSet         EventType = "TIME_SET"
	EventAlarmSet        EventType = "ALARM_SET"
	EventEditDiscarded   EventType = "EDIT_DISCARDED"
	EventAlarmArmed      EventType = "ALARM_ARMED"
	EventAlarmDisarmed   EventType = "ALARM_DISARMED"
	EventAlarmRinging    EventType = "ALARM_RINGING"
	EventAlarmSilenced   EventType = "ALARM_SILENCED"
	EventHourModeChanged EventType = "HOUR_MODE_CHANGED"
)

// Silence reasons carried in Event.Reason.
const (
	ReasonButton = "BUTTON"
	ReasonMotion = "MOTION"
)

// Event describes one transition, with the state right after it.
type Event struct {
	Type     EventType
	From     Mode // previous mode, MODE_CHANGED only
	Mode     Mode
	Time     TimeValue // value set, discarded, or matched
	HourMode HourMode
	Armed    bool
	Reason   string
}

// HasTime reports whether Time carries a value for this event type.
func (e Event) HasTime() bool {
	return e.Type != EventModeChanged
}

// AlarmOutput is the audible/visual alarm driven on entering and leaving
// ModeAlarmRinging.
type AlarmOutput interface {
	Start() error
	Stop() error
}

// Config holds the power-on state.
type Config struct {
	Time     TimeValue
	Alarm    TimeValue
	HourMode HourMode
	Armed    bool
	// TicksPerMinute is the number of slow ticks in one minute.
	TicksPerMinute int
}

// DefaultConfig matches the appliance power-on state: 12:00 AM with the
// alarm armed for 12:10 AM, one tick every four seconds.
func DefaultConfig() Config {
	return Config{
		Time:           NewTimeValue(12, 0, false),
		Alarm:          NewTimeValue(12, 10, false),
		HourMode:       Twelve,
		Armed:          true,
		TicksPerMinute: 15,
	}
}

// Snapshot is a point-in-time view of everything the display and alarm
// drivers read. It is a value type.
type Snapshot struct {
	Current  TimeValue
	Alarm    TimeValue
	Edit     TimeValue
	Cursor   int
	Mode     Mode
	HourMode HourMode
	Armed    bool
}

// Editing reports whether the edit buffer is on display.
func (s Snapshot) Editing() bool {
	return s.Mode == ModeSetTime || s.Mode == ModeSetAlarm
}

// Display returns the value the four digits should show.
func (s Snapshot) Display() TimeValue {
	if s.Editing() {
		return s.Edit
	}
	return s.Current
}

// AlarmLED reports whether the alarm indicator should be lit.
// It shows the armed flag normally, and distinguishes the two edit modes.
func (s Snapshot) AlarmLED() bool {
	switch s.Mode {
	case ModeSetTime:
		return false
	case ModeSetAlarm:
		return true
	default:
		return s.Armed
	}
}
