// Package status derives the display status of an occurrence and decides when its
// reminders are due. Every function is pure: the caller supplies "now" and the
// completion record, and is responsible for suppressing repeated deliveries.
package status

import (
	"sort"
	"time"

	"github.com/julianstephens/ticktask/internal/constants"
	"github.com/julianstephens/ticktask/internal/models"
	"github.com/julianstephens/ticktask/internal/utils"
)

// Window is the half-open interval [Start, End) during which one reminder may fire.
type Window struct {
	Checkpoint int // index into the occurrence's target instants
	Kind       constants.ReminderKind
	Start      time.Time
	End        time.Time
}

// Contains reports whether t lies within the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Key identifies the window in fire-once bookkeeping.
func (w Window) Key(occ models.Occurrence) models.ReminderKey {
	return models.ReminderKey{
		TaskID:     occ.TaskID,
		Date:       occ.DateKey(),
		Checkpoint: w.Checkpoint,
		Kind:       w.Kind,
	}
}

// checkOccurrence rejects occurrences the definition does not produce.
func checkOccurrence(def models.TaskDefinition, occ models.Occurrence) error {
	if occ.TaskID != def.ID || len(occ.TargetInstants) == 0 || !utils.OccursOn(def, occ.Date) {
		return models.ErrInvalidOccurrence
	}
	return nil
}

// StatusOf computes the display status of occ. Completed wins over everything; an
// uncompleted occurrence is missed once now is past its latest target instant.
func StatusOf(def models.TaskDefinition, occ models.Occurrence, rec models.CompletionRecord, now time.Time) (constants.Status, error) {
	if err := checkOccurrence(def, occ); err != nil {
		return "", err
	}
	if rec.Completed {
		return constants.StatusCompleted, nil
	}
	if isMissed(def, occ, now) {
		return constants.StatusMissed, nil
	}
	return constants.StatusPending, nil
}

// isMissed applies the latest-checkpoint policy. An overdue rule gives the last
// checkpoint a grace period: the occurrence turns missed exactly when the overdue
// reminder for that checkpoint becomes due.
func isMissed(def models.TaskDefinition, occ models.Occurrence, now time.Time) bool {
	deadline := occ.Deadline()
	if def.Reminder.Type == constants.ReminderOverdueAfter && def.Reminder.Minutes > 0 {
		return !now.Before(deadline.Add(time.Duration(def.Reminder.Minutes) * time.Minute))
	}
	return now.After(deadline)
}

// Windows lists the reminder windows of occ under def's reminder rule, ordered by start.
func Windows(def models.TaskDefinition, occ models.Occurrence) ([]Window, error) {
	if err := checkOccurrence(def, occ); err != nil {
		return nil, err
	}

	rule := def.Reminder
	var out []Window
	for i, target := range occ.TargetInstants {
		switch rule.Type {
		case constants.ReminderAdvanceByMinutes:
			out = append(out, Window{
				Checkpoint: i,
				Kind:       constants.ReminderKindAdvance,
				Start:      target.Add(-time.Duration(rule.Minutes) * time.Minute),
				End:        target,
			})
		case constants.ReminderAdvanceByDuration:
			out = append(out, advanceByDays(i, target, rule))
		case constants.ReminderOverdueAfter:
			at := target.Add(time.Duration(rule.Minutes) * time.Minute)
			out = append(out, Window{
				Checkpoint: i,
				Kind:       constants.ReminderKindOverdue,
				Start:      at,
				End:        at.Add(constants.ReminderGracePeriod),
			})
		}
	}

	sort.SliceStable(out, func(a, b int) bool { return out[a].Start.Before(out[b].Start) })
	return out, nil
}

// advanceByDays is a date-level reminder. With SameDay it fires from the start of the
// occurrence date until the checkpoint; otherwise it fires on the date Days earlier,
// from the checkpoint's time of day until the end of that date.
func advanceByDays(checkpoint int, target time.Time, rule models.ReminderRule) Window {
	if rule.SameDay {
		return Window{
			Checkpoint: checkpoint,
			Kind:       constants.ReminderKindAdvance,
			Start:      utils.StartOfDay(target),
			End:        target,
		}
	}

	start := target.AddDate(0, 0, -rule.Days)
	return Window{
		Checkpoint: checkpoint,
		Kind:       constants.ReminderKindAdvance,
		Start:      start,
		End:        utils.AddDays(utils.StartOfDay(start), 1),
	}
}

// DueWindows returns the windows that contain now. Nothing is due for a completed occurrence.
func DueWindows(def models.TaskDefinition, occ models.Occurrence, rec models.CompletionRecord, now time.Time) ([]Window, error) {
	windows, err := Windows(def, occ)
	if err != nil {
		return nil, err
	}
	if rec.Completed {
		return nil, nil
	}

	var due []Window
	for _, w := range windows {
		if w.Contains(now) {
			due = append(due, w)
		}
	}
	return due, nil
}

// ShouldFireReminderNow reports whether any reminder of occ is due at now.
func ShouldFireReminderNow(def models.TaskDefinition, occ models.Occurrence, rec models.CompletionRecord, now time.Time) (bool, error) {
	due, err := DueWindows(def, occ, rec, now)
	if err != nil {
		return false, err
	}
	return len(due) > 0, nil
}

// NextReminderInstant returns the start of the earliest reminder window that opens at or
// after now. It reports false when no further reminder can fire for occ.
func NextReminderInstant(def models.TaskDefinition, occ models.Occurrence, rec models.CompletionRecord, now time.Time) (time.Time, bool, error) {
	windows, err := Windows(def, occ)
	if err != nil {
		return time.Time{}, false, err
	}
	if rec.Completed {
		return time.Time{}, false, nil
	}
	for _, w := range windows {
		if !w.Start.Before(now) {
			return w.Start, true, nil
		}
	}
	return time.Time{}, false, nil
}
