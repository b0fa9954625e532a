package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/julianstephens/ticktask/internal/constants"
	"github.com/julianstephens/ticktask/internal/models"
)

// Timestamps are stored as RFC3339 text in every backend.
const timestampLayout = time.RFC3339Nano

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed timestamp %q: %w", s, err)
	}
	return t, nil
}

// TaskColumns lists the task columns in the order ScanTask expects.
const TaskColumns = `id, title, description, category, recurrence_type, weekday, day_of_month, month, day,
	completion_times, reminder_type, reminder_days, reminder_same_day, reminder_minutes,
	created_at, updated_at, deleted_at`

// Scanner is satisfied by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// ScanTask decodes one row selected with TaskColumns.
func ScanTask(row Scanner) (models.TaskDefinition, error) {
	var (
		t                    models.TaskDefinition
		recType, remType     string
		weekday              int
		times                string
		createdAt, updatedAt string
		deletedAt            sql.NullString
	)

	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Category,
		&recType, &weekday, &t.Recurrence.DayOfMonth, &t.Recurrence.Month, &t.Recurrence.Day,
		&times, &remType, &t.Reminder.Days, &t.Reminder.SameDay, &t.Reminder.Minutes,
		&createdAt, &updatedAt, &deletedAt,
	)
	if err != nil {
		return models.TaskDefinition{}, err
	}

	t.Recurrence.Type = constants.RecurrenceType(recType)
	t.Recurrence.Weekday = time.Weekday(weekday)
	t.Reminder.Type = constants.ReminderType(remType)

	if t.CompletionTimes, err = models.ParseTimesOfDay(times); err != nil {
		return models.TaskDefinition{}, fmt.Errorf("task %s: %w", t.ID, err)
	}
	if t.CreatedAt, err = ParseTimestamp(createdAt); err != nil {
		return models.TaskDefinition{}, fmt.Errorf("task %s: %w", t.ID, err)
	}
	if t.UpdatedAt, err = ParseTimestamp(updatedAt); err != nil {
		return models.TaskDefinition{}, fmt.Errorf("task %s: %w", t.ID, err)
	}
	if deletedAt.Valid {
		t.DeletedAt = &deletedAt.String
	}
	return t, nil
}

// TaskArgs returns the column values of t in TaskColumns order.
func TaskArgs(t models.TaskDefinition) []any {
	var deletedAt any
	if t.DeletedAt != nil {
		deletedAt = *t.DeletedAt
	}
	remType := t.Reminder.Type
	if remType == "" {
		remType = constants.ReminderNone
	}
	return []any{
		t.ID, t.Title, t.Description, t.Category,
		string(t.Recurrence.Type), int(t.Recurrence.Weekday), t.Recurrence.DayOfMonth, t.Recurrence.Month, t.Recurrence.Day,
		models.FormatTimesOfDay(t.CompletionTimes), string(remType), t.Reminder.Days, t.Reminder.SameDay, t.Reminder.Minutes,
		FormatTimestamp(t.CreatedAt), FormatTimestamp(t.UpdatedAt), deletedAt,
	}
}

// ScanCompletion decodes task_id, date, completed, completed_at, updated_at.
func ScanCompletion(row Scanner) (models.CompletionRecord, error) {
	var (
		rec         models.CompletionRecord
		completedAt sql.NullString
		updatedAt   string
	)
	if err := row.Scan(&rec.TaskID, &rec.Date, &rec.Completed, &completedAt, &updatedAt); err != nil {
		return models.CompletionRecord{}, err
	}
	if completedAt.Valid {
		t, err := ParseTimestamp(completedAt.String)
		if err != nil {
			return models.CompletionRecord{}, err
		}
		rec.CompletedAt = &t
	}
	t, err := ParseTimestamp(updatedAt)
	if err != nil {
		return models.CompletionRecord{}, err
	}
	rec.UpdatedAt = t
	return rec, nil
}

// ScanEvent decodes task_id, date, action, at.
func ScanEvent(row Scanner) (models.CompletionEvent, error) {
	var (
		ev     models.CompletionEvent
		action string
		at     string
	)
	if err := row.Scan(&ev.TaskID, &ev.Date, &action, &at); err != nil {
		return models.CompletionEvent{}, err
	}
	ev.Action = models.CompletionAction(action)
	t, err := ParseTimestamp(at)
	if err != nil {
		return models.CompletionEvent{}, err
	}
	ev.At = t
	return ev, nil
}

// DeletedTimestamp formats the tombstone written by DeleteTask.
func DeletedTimestamp(now time.Time) string {
	return now.UTC().Format(time.RFC3339)
}
