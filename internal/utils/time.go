package utils

import (
	"fmt"
	"time"

	"github.com/julianstephens/ticktask/internal/constants"
	"github.com/julianstephens/ticktask/internal/models"
)

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(timezone)
}

// LocationFromSettings resolves the configured timezone of the user.
func LocationFromSettings(settings models.Settings) (*time.Location, error) {
	loc, err := LoadLocation(settings.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", settings.Timezone, err)
	}
	return loc, nil
}

// ParseDateInLocation parses a date string (YYYY-MM-DD) in the specified timezone.
func ParseDateInLocation(dateStr string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse(constants.DateFormat, dateStr)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), nil
}

// StartOfDay truncates t to midnight of its calendar date in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// AddDays moves a calendar date by n days, keeping wall-clock midnight across DST changes.
func AddDays(d time.Time, n int) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day()+n, 0, 0, 0, 0, d.Location())
}

// FormatDate formats t with the standard date layout.
func FormatDate(t time.Time) string {
	return t.Format(constants.DateFormat)
}

// CombineDateAndTime combines a calendar date with a time of day in the specified timezone.
// A time of day skipped by a DST transition resolves forward by the length of the gap,
// so 02:30 on a spring-forward date becomes 03:30 rather than 01:30.
func CombineDateAndTime(date time.Time, tod models.TimeOfDay, loc *time.Location) time.Time {
	t := time.Date(date.Year(), date.Month(), date.Day(), tod.Hour, tod.Minute, 0, 0, loc)
	if t.Hour() == tod.Hour && t.Minute() == tod.Minute {
		return t
	}
	want := time.Date(date.Year(), date.Month(), date.Day(), tod.Hour, tod.Minute, 0, 0, time.UTC)
	got := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
	return t.Add(want.Sub(got))
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ValidateTimezone checks if the timezone name is valid.
func ValidateTimezone(timezone string) bool {
	if timezone == "" || timezone == "Local" {
		return true
	}
	_, err := time.LoadLocation(timezone)
	return err == nil
}

// DateRange is an inclusive range of calendar dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether d's calendar date lies within the range, bounds included.
func (r DateRange) Contains(d time.Time) bool {
	key := FormatDate(d)
	return key >= FormatDate(r.Start) && key <= FormatDate(r.End)
}

// Days lists every calendar date in the range in ascending order.
func (r DateRange) Days() []time.Time {
	var out []time.Time
	end := StartOfDay(r.End)
	for d := StartOfDay(r.Start); !d.After(end); d = AddDays(d, 1) {
		out = append(out, d)
	}
	return out
}

// LastNDays returns the range of n calendar dates ending on today's date.
func LastNDays(today time.Time, n int) DateRange {
	end := StartOfDay(today)
	return DateRange{Start: AddDays(end, -(n - 1)), End: end}
}
