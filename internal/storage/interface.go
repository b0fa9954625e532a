package storage

import (
	"context"
	"errors"
	"time"

	"github.com/julianstephens/ticktask/internal/models"
)

var (
	// ErrNotFound is returned when a task or task type does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNotInitialized is returned by Load when storage has not been created yet.
	ErrNotInitialized = errors.New("storage not initialized, run 'ticktask init' first")
)

// Ledger is the authoritative store of per-occurrence completion state, keyed by
// (task ID, date). Writes to one key are atomic and the last write wins.
type Ledger interface {
	// RecordCompletion marks the occurrence completed at now, overwriting any prior state.
	RecordCompletion(ctx context.Context, taskID, date string, now time.Time) (models.CompletionRecord, error)
	// ClearCompletion resets the occurrence to not completed. Clearing a key that was never
	// written is a no-op returning the default record.
	ClearCompletion(ctx context.Context, taskID, date string, now time.Time) (models.CompletionRecord, error)
	// GetCompletion returns the record of the key and whether it was ever written.
	GetCompletion(ctx context.Context, taskID, date string) (models.CompletionRecord, bool, error)
	// GetCompletionsInRange returns every record with start <= date <= end, keyed by models.RecordKey.
	GetCompletionsInRange(ctx context.Context, start, end string) (map[string]models.CompletionRecord, error)
	// GetCompletionEvents returns the toggle history of the key, oldest first.
	GetCompletionEvents(ctx context.Context, taskID, date string) ([]models.CompletionEvent, error)
}

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Settings
	GetSettings() (models.Settings, error)
	SaveSettings(models.Settings) error

	// Task definitions
	AddTask(models.TaskDefinition) error
	GetTask(id string) (models.TaskDefinition, error)
	GetAllTasks() ([]models.TaskDefinition, error)
	GetAllTasksIncludingDeleted() ([]models.TaskDefinition, error)
	UpdateTask(models.TaskDefinition) error
	DeleteTask(id string) error
	RestoreTask(id string) error

	// Task types
	GetTaskTypes() ([]models.TaskType, error)
	SaveTaskType(models.TaskType) error
	DeleteTaskType(key string) error

	// Completion ledger
	Ledger() Ledger

	// MarkReminderSent records that the reminder window identified by key was delivered.
	// It returns false when the key had already been recorded.
	MarkReminderSent(ctx context.Context, key models.ReminderKey, at time.Time) (bool, error)

	// Utils
	GetConfigPath() string
}
