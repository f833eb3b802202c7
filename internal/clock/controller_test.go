package clock

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/alarm-clock/internal/ir"
)

type recordingOutput struct {
	starts, stops int
	err           error
}

func (r *recordingOutput) Start() error { r.starts++; return r.err }
func (r *recordingOutput) Stop() error  { r.stops++; return r.err }

func press(c *Controller, buttons ...ir.Button) []Event {
	var events []Event
	for _, b := range buttons {
		events = append(events, c.HandleButton(b)...)
	}
	return events
}

func minutes(c *Controller, n int) []Event {
	var events []Event
	for i := 0; i < n*c.ticksPerMinute; i++ {
		events = append(events, c.Tick()...)
	}
	return events
}

func eventTypes(events []Event) []EventType {
	var types []EventType
	for _, e := range events {
		types = append(types, e.Type)
	}
	return types
}

func TestNewDefaults(t *testing.T) {
	c := New(DefaultConfig(), nil)
	snap := c.Snapshot()

	assert.Equal(t, ModeShowTime, snap.Mode)
	assert.Equal(t, "12:00 AM", snap.Current.Format(snap.HourMode))
	assert.Equal(t, "12:10 AM", snap.Alarm.Format(snap.HourMode))
	assert.True(t, snap.Armed)
	assert.Equal(t, 15, c.ticksPerMinute)
}

func TestModeCycle(t *testing.T) {
	c := New(DefaultConfig(), nil)

	events := press(c, ir.ButtonMode)
	require.Len(t, events, 1)
	assert.Equal(t, EventModeChanged, events[0].Type)
	assert.Equal(t, ModeShowTime, events[0].From)
	assert.Equal(t, ModeSetTime, events[0].Mode)
	snap := c.Snapshot()
	assert.Equal(t, snap.Current, snap.Edit, "edit buffer loaded from current time")

	press(c, ir.ButtonRight, ir.ButtonRight)
	assert.Equal(t, 2, c.Snapshot().Cursor)

	press(c, ir.ButtonMode)
	snap = c.Snapshot()
	assert.Equal(t, ModeSetAlarm, snap.Mode)
	assert.Equal(t, 0, snap.Cursor, "cursor resets on mode change")
	assert.Equal(t, snap.Alarm, snap.Edit, "edit buffer loaded from alarm time")

	press(c, ir.ButtonMode)
	assert.Equal(t, ModeShowTime, c.Snapshot().Mode)
}

func TestCommitAppliesValidEdit(t *testing.T) {
	c := New(DefaultConfig(), nil)

	events := press(c, ir.ButtonMode, ir.Button1, ir.Button2, ir.Button3, ir.Button0, ir.ButtonMode)
	assert.Equal(t, []EventType{EventModeChanged, EventTimeSet, EventModeChanged}, eventTypes(events))

	snap := c.Snapshot()
	assert.Equal(t, "12:30 AM", snap.Current.Format(Twelve))
	assert.Equal(t, ModeSetAlarm, snap.Mode)
}

func TestCommitDiscardsInvalidEdits(t *testing.T) {
	tests := []struct {
		name    string
		digits  []ir.Button
		mode    HourMode
		initial TimeValue
	}{
		{"sixty minutes", []ir.Button{ir.Button1, ir.Button0, ir.Button6, ir.Button0}, Twelve, NewTimeValue(10, 15, false)},
		{"hour thirteen in 12h", []ir.Button{ir.Button1, ir.Button3, ir.Button0, ir.Button0}, Twelve, NewTimeValue(10, 15, false)},
		{"hour zero in 12h", []ir.Button{ir.Button0, ir.Button0, ir.Button3, ir.Button0}, Twelve, NewTimeValue(10, 15, false)},
		{"hour twenty four", []ir.Button{ir.Button2, ir.Button4, ir.Button0, ir.Button0}, TwentyFour, NewTimeValue(10, 15, false)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.HourMode = tt.mode
			cfg.Time = tt.initial
			c := New(cfg, nil)

			press(c, ir.ButtonMode)
			press(c, tt.digits...)
			events := press(c, ir.ButtonMode)

			assert.Equal(t, []EventType{EventEditDiscarded, EventModeChanged}, eventTypes(events))
			assert.Equal(t, tt.initial, c.Snapshot().Current)
		})
	}
}

func TestCommitIgnoresUnchangedEdit(t *testing.T) {
	c := New(DefaultConfig(), nil)
	// Retyping the same digits leaves the value identical to the reference.
	events := press(c, ir.ButtonMode, ir.Button1, ir.Button2, ir.Button0, ir.Button0, ir.ButtonMode)
	assert.Equal(t, []EventType{EventModeChanged, EventModeChanged}, eventTypes(events))
}

func TestSetAlarmCommit(t *testing.T) {
	c := New(DefaultConfig(), nil)
	press(c, ir.ButtonMode, ir.ButtonMode)
	require.Equal(t, ModeSetAlarm, c.Snapshot().Mode)

	events := press(c, ir.Button0, ir.Button6, ir.Button4, ir.Button5, ir.ButtonAMPM, ir.ButtonMode)
	assert.Equal(t, []EventType{EventAlarmSet, EventModeChanged}, eventTypes(events))
	assert.Equal(t, "06:45 PM", c.Snapshot().Alarm.Format(Twelve))
}

func TestCursorWraps(t *testing.T) {
	c := New(DefaultConfig(), nil)
	press(c, ir.ButtonMode)

	press(c, ir.ButtonLeft)
	assert.Equal(t, 3, c.Snapshot().Cursor)
	press(c, ir.ButtonRight)
	assert.Equal(t, 0, c.Snapshot().Cursor)

	press(c, ir.Button1, ir.Button1, ir.Button1, ir.Button1)
	assert.Equal(t, 0, c.Snapshot().Cursor, "digit entry moves right and wraps")
}

func TestEditButtonsIgnoredOutsideEditModes(t *testing.T) {
	c := New(DefaultConfig(), nil)
	before := c.Snapshot()

	events := press(c, ir.ButtonRight, ir.ButtonLeft, ir.Button5, ir.ButtonAMPM, ir.ButtonSilence,
		ir.ButtonCommError, ir.ButtonUnknown, ir.ButtonNone)
	assert.Empty(t, events)
	assert.Equal(t, before, c.Snapshot())
}

func TestAMPMOnlyInTwelveHourMode(t *testing.T) {
	c := New(DefaultConfig(), nil)
	press(c, ir.ButtonMode, ir.ButtonAMPM)
	assert.True(t, c.Snapshot().Edit.PM)

	cfg := DefaultConfig()
	cfg.HourMode = TwentyFour
	cfg.Time = NewTimeValue(0, 0, false)
	c = New(cfg, nil)
	press(c, ir.ButtonMode, ir.ButtonAMPM)
	assert.False(t, c.Snapshot().Edit.PM)
}

func TestAlarmToggleOnlyInShowTime(t *testing.T) {
	c := New(DefaultConfig(), nil)

	events := press(c, ir.ButtonAlarmToggle)
	require.Len(t, events, 1)
	assert.Equal(t, EventAlarmDisarmed, events[0].Type)
	assert.False(t, c.Snapshot().Armed)

	events = press(c, ir.ButtonAlarmToggle)
	assert.Equal(t, EventAlarmArmed, events[0].Type)

	press(c, ir.ButtonMode)
	assert.Empty(t, press(c, ir.ButtonAlarmToggle))
	assert.True(t, c.Snapshot().Armed)
}

func TestHourModeToggleReprojectsEverything(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Time = NewTimeValue(11, 59, true)
	cfg.Alarm = NewTimeValue(12, 0, false)
	c := New(cfg, nil)
	press(c, ir.ButtonMode) // edit buffer holds 11:59 PM

	events := press(c, ir.ButtonHourMode)
	require.Len(t, events, 1)
	assert.Equal(t, EventHourModeChanged, events[0].Type)

	snap := c.Snapshot()
	assert.Equal(t, TwentyFour, snap.HourMode)
	assert.Equal(t, "23:59", snap.Current.Format(TwentyFour))
	assert.Equal(t, "00:00", snap.Alarm.Format(TwentyFour))
	assert.Equal(t, "23:59", snap.Edit.Format(TwentyFour))
	assert.False(t, snap.Current.PM)

	// The reference followed the edit buffer, so an untouched edit is still unchanged.
	events = press(c, ir.ButtonMode)
	assert.Equal(t, []EventType{EventModeChanged}, eventTypes(events))

	press(c, ir.ButtonHourMode)
	snap = c.Snapshot()
	assert.Equal(t, Twelve, snap.HourMode)
	assert.Equal(t, "11:59 PM", snap.Current.Format(Twelve))
	assert.Equal(t, "12:00 AM", snap.Alarm.Format(Twelve))
}

func TestTickAdvancesOncePerMinute(t *testing.T) {
	c := New(DefaultConfig(), nil)

	for i := 0; i < 14; i++ {
		c.Tick()
	}
	assert.Equal(t, "12:00 AM", c.Snapshot().Current.Format(Twelve))
	c.Tick()
	assert.Equal(t, "12:01 AM", c.Snapshot().Current.Format(Twelve))
}

func TestTickFrozenOutsideShowTime(t *testing.T) {
	c := New(DefaultConfig(), nil)
	press(c, ir.ButtonMode)
	minutes(c, 3)
	assert.Equal(t, "12:00 AM", c.Snapshot().Current.Format(Twelve))
}

func TestCommittingTimeRestartsMinute(t *testing.T) {
	c := New(DefaultConfig(), nil)
	for i := 0; i < 10; i++ {
		c.Tick()
	}
	press(c, ir.ButtonMode, ir.Button0, ir.Button8, ir.ButtonMode, ir.ButtonMode)
	require.Equal(t, "08:00 AM", c.Snapshot().Current.Format(Twelve))

	for i := 0; i < 14; i++ {
		c.Tick()
	}
	assert.Equal(t, "08:00 AM", c.Snapshot().Current.Format(Twelve))
	c.Tick()
	assert.Equal(t, "08:01 AM", c.Snapshot().Current.Format(Twelve))
}

func TestAlarmEndToEnd(t *testing.T) {
	out := &recordingOutput{}
	cfg := DefaultConfig()
	cfg.Time = NewTimeValue(6, 55, false)
	cfg.Alarm = NewTimeValue(7, 0, false)
	c := New(cfg, out)

	assert.Empty(t, minutes(c, 4))
	assert.Equal(t, ModeShowTime, c.Snapshot().Mode)

	events := minutes(c, 1)
	require.Len(t, events, 1)
	assert.Equal(t, EventAlarmRinging, events[0].Type)
	assert.Equal(t, ModeAlarmRinging, c.Snapshot().Mode)
	assert.Equal(t, 1, out.starts)

	// Time stands still while ringing and edits are refused.
	minutes(c, 2)
	assert.Equal(t, "07:00 AM", c.Snapshot().Current.Format(Twelve))
	assert.Empty(t, press(c, ir.ButtonMode))

	events = press(c, ir.ButtonSilence)
	require.Len(t, events, 1)
	assert.Equal(t, EventAlarmSilenced, events[0].Type)
	assert.Equal(t, ReasonButton, events[0].Reason)
	assert.Equal(t, ModeShowTime, c.Snapshot().Mode)
	assert.Equal(t, 1, out.stops)
}

func TestAlarmDoesNotRingWhenDisarmed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Time = NewTimeValue(7, 0, false)
	cfg.Alarm = NewTimeValue(7, 1, false)
	cfg.Armed = false
	c := New(cfg, nil)

	assert.Empty(t, minutes(c, 1))
	assert.Equal(t, ModeShowTime, c.Snapshot().Mode)
}

func TestAlarmRequiresMatchingPM(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Time = NewTimeValue(6, 59, true)
	cfg.Alarm = NewTimeValue(7, 0, false)
	c := New(cfg, nil)

	assert.Empty(t, minutes(c, 1))
}

func TestMotionSilencesRingingAlarm(t *testing.T) {
	out := &recordingOutput{}
	cfg := DefaultConfig()
	cfg.Time = NewTimeValue(12, 9, false)
	c := New(cfg, out)

	assert.Empty(t, c.MotionDetected(), "motion is ignored unless ringing")

	minutes(c, 1)
	require.Equal(t, ModeAlarmRinging, c.Snapshot().Mode)

	events := c.MotionDetected()
	require.Len(t, events, 1)
	assert.Equal(t, ReasonMotion, events[0].Reason)
	assert.Equal(t, ModeShowTime, c.Snapshot().Mode)
	assert.Equal(t, 1, out.stops)
}

func TestAlarmOutputErrorDoesNotBlockTransition(t *testing.T) {
	out := &recordingOutput{err: errors.New("gpio gone")}
	cfg := DefaultConfig()
	cfg.Time = NewTimeValue(12, 9, false)
	c := New(cfg, out)

	minutes(c, 1)
	assert.Equal(t, ModeAlarmRinging, c.Snapshot().Mode)
	press(c, ir.ButtonSilence)
	assert.Equal(t, ModeShowTime, c.Snapshot().Mode)
}

func TestSnapshotHelpers(t *testing.T) {
	c := New(DefaultConfig(), nil)
	snap := c.Snapshot()
	assert.False(t, snap.Editing())
	assert.True(t, snap.AlarmLED())
	assert.Equal(t, snap.Current, snap.Display())

	press(c, ir.ButtonMode, ir.Button0)
	snap = c.Snapshot()
	assert.True(t, snap.Editing())
	assert.False(t, snap.AlarmLED())
	assert.Equal(t, snap.Edit, snap.Display())

	press(c, ir.ButtonMode)
	assert.True(t, c.Snapshot().AlarmLED())
}
