package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/ticktask/internal/constants"
)

// TimeOfDay is a wall-clock checkpoint (HH:MM) within a calendar day.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses a time string in the standard format (HH:MM).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse(constants.TimeFormat, strings.TrimSpace(s))
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time %q (expected HH:MM): %w", s, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// ParseTimesOfDay parses a comma separated list of HH:MM values.
func ParseTimesOfDay(s string) ([]TimeOfDay, error) {
	var out []TimeOfDay
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		tod, err := ParseTimeOfDay(part)
		if err != nil {
			return nil, err
		}
		out = append(out, tod)
	}
	return out, nil
}

// FormatTimesOfDay is the inverse of ParseTimesOfDay.
func FormatTimesOfDay(times []TimeOfDay) string {
	parts := make([]string, len(times))
	for i, t := range times {
		parts[i] = t.String()
	}
	return strings.Join(parts, ",")
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Minutes returns the number of minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

// Valid reports whether hour and minute are in range.
func (t TimeOfDay) Valid() bool {
	return t.Hour >= 0 && t.Hour <= 23 && t.Minute >= 0 && t.Minute <= 59
}

// On anchors the time of day to the calendar date of d in d's location.
func (t TimeOfDay) On(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour, t.Minute, 0, 0, d.Location())
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(b []byte) error {
	parsed, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
