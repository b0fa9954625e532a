package models

import (
	"time"

	"github.com/julianstephens/ticktask/internal/constants"
)

// Occurrence is one calendar-date instance of a task definition. It is derived
// from the definition and never stored.
type Occurrence struct {
	TaskID string    `json:"task_id"`
	Date   time.Time `json:"date"` // midnight in the user's location
	// TargetInstants holds one instant per completion time, ascending.
	TargetInstants []time.Time `json:"target_instants"`
}

// DateKey returns the ledger key component for the occurrence date.
func (o Occurrence) DateKey() string {
	return o.Date.Format(constants.DateFormat)
}

// Deadline returns the latest target instant, which decides whether the occurrence is missed.
func (o Occurrence) Deadline() time.Time {
	if len(o.TargetInstants) == 0 {
		return time.Time{}
	}
	return o.TargetInstants[len(o.TargetInstants)-1]
}

// CompletionRecord is the authoritative completion state of one occurrence.
// The zero value is the default not-completed record.
type CompletionRecord struct {
	TaskID      string     `json:"task_id"`
	Date        string     `json:"date"` // YYYY-MM-DD
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at,omitempty"`
}

// RecordKey builds the lookup key of a completion record in maps returned by the ledger.
func RecordKey(taskID, date string) string {
	return taskID + "|" + date
}

// Key returns the RecordKey of r.
func (r CompletionRecord) Key() string {
	return RecordKey(r.TaskID, r.Date)
}

// CompletionAction is a toggle written to the ledger history.
type CompletionAction string

const (
	ActionComplete CompletionAction = "complete"
	ActionUndo     CompletionAction = "undo"
)

// CompletionEvent is one retained toggle of a ledger key.
type CompletionEvent struct {
	TaskID string           `json:"task_id"`
	Date   string           `json:"date"`
	Action CompletionAction `json:"action"`
	At     time.Time        `json:"at"`
}

// ReminderKey identifies one reminder window so it is sent at most once.
type ReminderKey struct {
	TaskID     string
	Date       string
	Checkpoint int
	Kind       constants.ReminderKind
}

// StatisticsRecord is one reporting row joining an occurrence with its completion state.
type StatisticsRecord struct {
	Date        time.Time        `json:"date"`
	TaskID      string           `json:"task_id"`
	Title       string           `json:"title"`
	Category    string           `json:"category"`
	Status      constants.Status `json:"status"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
}
