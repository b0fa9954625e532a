package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/hay-kot/criterio"

	"github.com/julianstephens/ticktask/internal/constants"
)

// Recurrence selects the calendar dates on which a task occurs. Only the fields
// belonging to Type are meaningful.
type Recurrence struct {
	Type       constants.RecurrenceType `json:"type"`
	Weekday    time.Weekday             `json:"weekday,omitempty"`      // weekly, 0 = Sunday
	DayOfMonth int                      `json:"day_of_month,omitempty"` // monthly, 1-31
	Month      int                      `json:"month,omitempty"`        // yearly, 1-12
	Day        int                      `json:"day,omitempty"`          // yearly, 1-31
}

// ReminderRule decides when a reminder is due for an occurrence.
type ReminderRule struct {
	Type    constants.ReminderType `json:"type"`
	Days    int                    `json:"days,omitempty"`     // advance_days
	SameDay bool                   `json:"same_day,omitempty"` // advance_days
	Minutes int                    `json:"minutes,omitempty"`  // advance_minutes, overdue_after
}

// TaskDefinition is an authored recurring task template.
type TaskDefinition struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	Description     string       `json:"description,omitempty"`
	Category        string       `json:"category"`
	Recurrence      Recurrence   `json:"recurrence"`
	CompletionTimes []TimeOfDay  `json:"completion_times"`
	Reminder        ReminderRule `json:"reminder"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
	DeletedAt       *string      `json:"deleted_at,omitempty"` // RFC3339 timestamp
}

// Validate checks the structural invariants of the definition. Category membership
// is checked against a registry by the validation package.
func (t *TaskDefinition) Validate() error {
	return validationError(criterio.ValidateStruct(
		criterio.Run("title", t.Title, requiredText),
		t.validateCompletionTimes(),
		t.Recurrence.validate(),
		t.Reminder.validate(),
	))
}

// IsDeleted reports whether the definition carries a tombstone.
func (t *TaskDefinition) IsDeleted() bool {
	return t.DeletedAt != nil
}

// LastCheckpoint returns the latest completion time of the definition.
func (t *TaskDefinition) LastCheckpoint() TimeOfDay {
	var last TimeOfDay
	for i, ct := range t.CompletionTimes {
		if i == 0 || ct.Minutes() > last.Minutes() {
			last = ct
		}
	}
	return last
}

func (t *TaskDefinition) validateCompletionTimes() error {
	if len(t.CompletionTimes) == 0 {
		return criterio.NewFieldErrors("completion_times", fmt.Errorf("at least one completion time is required"))
	}

	var errs criterio.FieldErrorsBuilder
	seen := make(map[int]bool, len(t.CompletionTimes))
	for i, ct := range t.CompletionTimes {
		field := fmt.Sprintf("completion_times[%d]", i)
		if !ct.Valid() {
			errs = errs.Append(field, fmt.Errorf("%02d:%02d is not a valid time of day", ct.Hour, ct.Minute))
			continue
		}
		if seen[ct.Minutes()] {
			errs = errs.Append(field, fmt.Errorf("duplicate completion time %s", ct))
		}
		seen[ct.Minutes()] = true
	}
	return errs.ToError()
}

func (r Recurrence) validate() error {
	switch r.Type {
	case constants.RecurrenceDaily:
		return nil
	case constants.RecurrenceWeekly:
		return criterio.Run("recurrence.weekday", int(r.Weekday), intRange(0, 6))
	case constants.RecurrenceMonthly:
		return criterio.Run("recurrence.day_of_month", r.DayOfMonth, intRange(1, 31))
	case constants.RecurrenceYearly:
		if err := criterio.Run("recurrence.month", r.Month, intRange(1, 12)); err != nil {
			return err
		}
		return criterio.Run("recurrence.day", r.Day, intRange(1, daysInMonthMax(time.Month(r.Month))))
	default:
		return criterio.NewFieldErrors("recurrence.type", fmt.Errorf("unknown recurrence type %q", r.Type))
	}
}

func (r ReminderRule) validate() error {
	switch r.Type {
	case constants.ReminderNone, "":
		return nil
	case constants.ReminderAdvanceByDuration:
		return criterio.Run("reminder_rule.days", r.Days, intRange(1, 366))
	case constants.ReminderAdvanceByMinutes, constants.ReminderOverdueAfter:
		return criterio.Run("reminder_rule.minutes", r.Minutes, intRange(1, 24*60))
	default:
		return criterio.NewFieldErrors("reminder_rule.type", fmt.Errorf("unknown reminder type %q", r.Type))
	}
}

// String returns a human-readable description of the recurrence
func (r Recurrence) String() string {
	switch r.Type {
	case constants.RecurrenceDaily:
		return "daily"
	case constants.RecurrenceWeekly:
		return fmt.Sprintf("weekly on %s", r.Weekday)
	case constants.RecurrenceMonthly:
		return fmt.Sprintf("monthly on day %d", r.DayOfMonth)
	case constants.RecurrenceYearly:
		return fmt.Sprintf("yearly on %s %d", time.Month(r.Month), r.Day)
	default:
		return string(r.Type)
	}
}

func (r ReminderRule) String() string {
	switch r.Type {
	case constants.ReminderAdvanceByDuration:
		if r.SameDay {
			return "on the day"
		}
		return fmt.Sprintf("%d day(s) before", r.Days)
	case constants.ReminderAdvanceByMinutes:
		return fmt.Sprintf("%d min before", r.Minutes)
	case constants.ReminderOverdueAfter:
		return fmt.Sprintf("%d min overdue", r.Minutes)
	default:
		return "none"
	}
}

func requiredText(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("is required")
	}
	return nil
}

func intRange(lo, hi int) func(int) error {
	return func(v int) error {
		if v < lo || v > hi {
			return fmt.Errorf("%d is out of range [%d, %d]", v, lo, hi)
		}
		return nil
	}
}

// daysInMonthMax is the largest day a month can have in any year (February allows 29).
func daysInMonthMax(m time.Month) int {
	switch m {
	case time.February:
		return 29
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		return 31
	}
}
