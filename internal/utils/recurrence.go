package utils

import (
	"sort"
	"time"

	"github.com/julianstephens/ticktask/internal/constants"
	"github.com/julianstephens/ticktask/internal/models"
)

// OccursOn determines if a task has an occurrence on the calendar date of date.
// This logic is shared between validation, status evaluation and scheduling.
func OccursOn(def models.TaskDefinition, date time.Time) bool {
	switch def.Recurrence.Type {
	case constants.RecurrenceDaily:
		return true
	case constants.RecurrenceWeekly:
		return date.Weekday() == def.Recurrence.Weekday
	case constants.RecurrenceMonthly:
		// Months shorter than DayOfMonth are skipped, never clamped to the last day
		return date.Day() == def.Recurrence.DayOfMonth
	case constants.RecurrenceYearly:
		// Feb 29 only matches in leap years
		return date.Month() == time.Month(def.Recurrence.Month) && date.Day() == def.Recurrence.Day
	default:
		return false
	}
}

// TargetInstantsFor anchors each completion time of def to date, ascending.
// It returns nil when the task does not occur on date.
func TargetInstantsFor(def models.TaskDefinition, date time.Time) []time.Time {
	if !OccursOn(def, date) {
		return nil
	}

	out := make([]time.Time, 0, len(def.CompletionTimes))
	for _, ct := range def.CompletionTimes {
		out = append(out, CombineDateAndTime(date, ct, date.Location()))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// ResolveOccurrence materializes the occurrence of def on date.
func ResolveOccurrence(def models.TaskDefinition, date time.Time) (models.Occurrence, error) {
	targets := TargetInstantsFor(def, date)
	if len(targets) == 0 {
		return models.Occurrence{}, models.ErrInvalidOccurrence
	}
	return models.Occurrence{
		TaskID:         def.ID,
		Date:           StartOfDay(date),
		TargetInstants: targets,
	}, nil
}

// OccurrencesBetween lists the occurrences of def for every date in r.
func OccurrencesBetween(def models.TaskDefinition, r DateRange) []models.Occurrence {
	var out []models.Occurrence
	for _, d := range r.Days() {
		if occ, err := ResolveOccurrence(def, d); err == nil {
			out = append(out, occ)
		}
	}
	return out
}

// CanEverOccur reports whether the recurrence matches at least one real calendar date.
// Monthly rules match in some month for any day 1-31; yearly Feb 29 matches in leap years.
func CanEverOccur(r models.Recurrence) bool {
	switch r.Type {
	case constants.RecurrenceDaily, constants.RecurrenceWeekly:
		return true
	case constants.RecurrenceMonthly:
		return r.DayOfMonth >= 1 && r.DayOfMonth <= 31
	case constants.RecurrenceYearly:
		// 2024 is a leap year, so every valid month/day pair exists in it
		return r.Month >= 1 && r.Month <= 12 && r.Day >= 1 && r.Day <= DaysIn(2024, time.Month(r.Month))
	default:
		return false
	}
}
