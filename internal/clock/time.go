// Package clock owns the time of day, the alarm setpoint and the
// application mode. Time is kept as four BCD digits advanced by a slow tick.
package clock

import (
	"fmt"
	"strconv"
	"strings"
)

// HourMode is the display and validation convention shared by every TimeValue.
type HourMode int

const (
	Twelve HourMode = iota
	TwentyFour
)

func (m HourMode) String() string {
	if m == TwentyFour {
		return "24h"
	}
	return "12h"
}

// Toggle returns the other hour mode.
func (m HourMode) Toggle() HourMode {
	if m == Twelve {
		return TwentyFour
	}
	return Twelve
}

// TimeValue is HH:MM as independent decimal digits plus a PM flag.
// The PM flag is only meaningful in 12-hour mode.
type TimeValue struct {
	Digits [4]uint8
	PM     bool
}

// NewTimeValue builds a TimeValue from a two-digit hour and minute.
func NewTimeValue(hour, minute int, pm bool) TimeValue {
	var v TimeValue
	v.setHour(hour)
	v.Digits[2] = uint8(minute / 10)
	v.Digits[3] = uint8(minute % 10)
	v.PM = pm
	return v
}

// Hour returns the two-digit hour.
func (v TimeValue) Hour() int {
	return int(v.Digits[0])*10 + int(v.Digits[1])
}

// Minute returns the two-digit minute.
func (v TimeValue) Minute() int {
	return int(v.Digits[2])*10 + int(v.Digits[3])
}

func (v *TimeValue) setHour(h int) {
	v.Digits[0] = uint8(h / 10)
	v.Digits[1] = uint8(h % 10)
}

// Valid reports whether v is a legal time under mode.
func (v TimeValue) Valid(mode HourMode) bool {
	for _, d := range v.Digits {
		if d > 9 {
			return false
		}
	}
	if v.Minute() >= 60 {
		return false
	}
	h := v.Hour()
	if mode == Twelve {
		return h >= 1 && h <= 12
	}
	return h <= 23 && !v.PM
}

// Equal compares digits and the PM flag.
func (v TimeValue) Equal(o TimeValue) bool {
	return v.Digits == o.Digits && v.PM == o.PM
}

// Clock returns "HH:MM" without any AM/PM marker.
func (v TimeValue) Clock() string {
	return fmt.Sprintf("%d%d:%d%d", v.Digits[0], v.Digits[1], v.Digits[2], v.Digits[3])
}

// Format renders v the way it reads under mode.
func (v TimeValue) Format(mode HourMode) string {
	if mode == TwentyFour {
		return v.Clock()
	}
	if v.PM {
		return v.Clock() + " PM"
	}
	return v.Clock() + " AM"
}

// Convert re-projects v, currently expressed under from, into the other mode.
func (v TimeValue) Convert(from HourMode) TimeValue {
	h := v.Hour()
	if from == Twelve {
		if h == 12 {
			h = 0
		}
		if v.PM {
			h += 12
		}
		v.setHour(h)
		v.PM = false
		return v
	}

	if h > 12 {
		h -= 12
		v.PM = true
	}
	if h == 12 {
		v.PM = true
	}
	if h == 0 {
		h = 12
	}
	v.setHour(h)
	return v
}

// advance adds one minute with digit carries, then applies the hour
// wraparound of mode. In 12-hour mode PM flips on reaching 12:00.
func (v TimeValue) advance(mode HourMode) TimeValue {
	d := &v.Digits
	d[3]++
	if d[3] > 9 {
		d[3] = 0
		d[2]++
	}
	if d[2] > 5 {
		d[2] = 0
		d[1]++
	}
	if d[1] > 9 {
		d[1] = 0
		d[0]++
	}

	if mode == Twelve {
		if v.Hour() == 13 {
			v.setHour(1)
		}
		if v.Hour() == 12 && v.Minute() == 0 {
			v.PM = !v.PM
		}
		return v
	}

	if v.Hour() == 24 {
		v.setHour(0)
	}
	return v
}

// Parse reads "HH:MM" with an optional AM/PM suffix (12-hour mode only).
func Parse(s string, mode HourMode) (TimeValue, error) {
	str := strings.ToUpper(strings.TrimSpace(s))

	pm := false
	suffix := false
	switch {
	case strings.HasSuffix(str, "PM"):
		pm, suffix = true, true
	case strings.HasSuffix(str, "AM"):
		suffix = true
	}
	if suffix {
		if mode == TwentyFour {
			return TimeValue{}, fmt.Errorf("parse time %q: AM/PM not allowed in 24-hour mode", s)
		}
		str = strings.TrimSpace(str[:len(str)-2])
	}

	hh, mm, ok := strings.Cut(str, ":")
	if !ok || !twoDigits(hh) || !twoDigits(mm) {
		return TimeValue{}, fmt.Errorf("parse time %q: expected HH:MM", s)
	}
	hour, _ := strconv.Atoi(hh)
	minute, _ := strconv.Atoi(mm)

	v := NewTimeValue(hour, minute, pm)
	if !v.Valid(mode) {
		return TimeValue{}, fmt.Errorf("parse time %q: not a valid %s time", s, mode)
	}
	return v, nil
}

func twoDigits(s string) bool {
	return len(s) == 2 && s[0] >= '0' && s[0] <= '9' && s[1] >= '0' && s[1] <= '9'
}
