// Package ir decodes infrared remote control frames from a sampled receiver line.
// This package has NO external dependencies (no GPIO, MQTT or OS access).
// It is driven one sample at a time by whoever owns the fast tick.
package ir

// Button identifies a key on the remote, or a decode failure.
type Button uint8

const (
	ButtonNone Button = iota
	Button0
	Button1
	Button2
	Button3
	Button4
	Button5
	Button6
	Button7
	Button8
	Button9
	ButtonMode
	ButtonSilence
	ButtonAlarmToggle
	ButtonLeft
	ButtonRight
	ButtonAMPM
	ButtonHourMode
	ButtonUnknown
	ButtonCommError
)

var buttonNames = [...]string{
	ButtonNone:        "NONE",
	Button0:           "DIGIT_0",
	Button1:           "DIGIT_1",
	Button2:           "DIGIT_2",
	Button3:           "DIGIT_3",
	Button4:           "DIGIT_4",
	Button5:           "DIGIT_5",
	Button6:           "DIGIT_6",
	Button7:           "DIGIT_7",
	Button8:           "DIGIT_8",
	Button9:           "DIGIT_9",
	ButtonMode:        "MODE",
	ButtonSilence:     "SILENCE",
	ButtonAlarmToggle: "ALARM_TOGGLE",
	ButtonLeft:        "LEFT",
	ButtonRight:       "RIGHT",
	ButtonAMPM:        "AM_PM",
	ButtonHourMode:    "HOUR_MODE",
	ButtonUnknown:     "UNKNOWN",
	ButtonCommError:   "COMM_ERROR",
}

func (b Button) String() string {
	if int(b) < len(buttonNames) {
		return buttonNames[b]
	}
	return "INVALID"
}

// Digit returns the numeric value of a digit button.
func (b Button) Digit() (uint8, bool) {
	if b >= Button0 && b <= Button9 {
		return uint8(b - Button0), true
	}
	return 0, false
}

// ParseButton is the inverse of String. Used by the -simulate flag.
func ParseButton(s string) (Button, bool) {
	for i, name := range buttonNames {
		if name == s {
			return Button(i), true
		}
	}
	return ButtonNone, false
}

// commandTable maps NEC command bytes of the supplied remote to buttons.
var commandTable = map[uint8]Button{
	0x68: Button0,
	0x30: Button1,
	0x18: Button2,
	0x7A: Button3,
	0x10: Button4,
	0x38: Button5,
	0x5A: Button6,
	0x42: Button7,
	0x4A: Button8,
	0x52: Button9,
	0x62: ButtonMode,
	0xE2: ButtonSilence,
	0xC2: ButtonRight,
	0x02: ButtonLeft,
	0x98: ButtonAMPM,
	0xA2: ButtonAlarmToggle,
	0xA8: ButtonHourMode,
}

// Lookup maps a command byte to its button. Unmapped codes return ButtonUnknown.
func Lookup(command uint8) Button {
	if b, ok := commandTable[command]; ok {
		return b
	}
	return ButtonUnknown
}

// CommandFor returns the command byte that produces b, if any.
func CommandFor(b Button) (uint8, bool) {
	for cmd, btn := range commandTable {
		if btn == b {
			return cmd, true
		}
	}
	return 0, false
}

// Event is one drained button press. It is handed out by value.
type Event struct {
	Button  Button
	Command uint8
}
