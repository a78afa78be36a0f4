package scheduling

import (
	"fmt"
	"time"
)

// TimeOfDay is a wall-clock time expressed as minutes since midnight. All
// slot and booking comparisons go through it and its On method, never through
// formatted strings.
type TimeOfDay int

// ParseTimeOfDay accepts "15:04" and "15:04:05" (seconds are discarded).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var h, m, sec int
	if _, err := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec); err != nil {
		if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
			return 0, fmt.Errorf("parse time of day %q: %w", s, err)
		}
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("time of day %q out of range", s)
	}
	return TimeOfDay(h*60 + m), nil
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// Add returns the time of day shifted forward by the given minutes.
func (t TimeOfDay) Add(minutes int) TimeOfDay {
	return t + TimeOfDay(minutes)
}

func (t TimeOfDay) Before(o TimeOfDay) bool { return t < o }

// On combines the time of day with the calendar date of d, in the given
// location, producing the one instant both slot filtering and booking
// validation compare against.
func (t TimeOfDay) On(d time.Time, loc *time.Location) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day, t.Hour(), t.Minute(), 0, 0, loc)
}

// DateOf truncates an instant to midnight of its calendar day, keeping the
// location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DayLabel maps a weekday to the three-letter label stored on availability
// windows ("Mon" .. "Sun").
func DayLabel(d time.Weekday) string {
	return d.String()[:3]
}

// ValidDayLabel reports whether s is one of the seven stored weekday labels.
func ValidDayLabel(s string) bool {
	switch s {
	case "Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun":
		return true
	}
	return false
}
