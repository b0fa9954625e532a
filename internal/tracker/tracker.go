// Package tracker is the application layer shared by the CLI and the HTTP API. It binds
// storage to the pure scheduling, status and statistics packages, and fixes the user's
// location and "now" for each call.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/ticktask/internal/categories"
	"github.com/julianstephens/ticktask/internal/constants"
	"github.com/julianstephens/ticktask/internal/models"
	"github.com/julianstephens/ticktask/internal/scheduler"
	"github.com/julianstephens/ticktask/internal/storage"
	"github.com/julianstephens/ticktask/internal/utils"
	"github.com/julianstephens/ticktask/internal/validation"
)

var (
	// ErrCategoryInUse is returned when strict categories forbid removing a referenced type.
	ErrCategoryInUse = errors.New("category is still referenced by tasks")

	// ErrLastTaskType is returned when removing a type would leave the registry empty.
	ErrLastTaskType = errors.New("cannot remove the last task type")

	// ErrUnknownAction is returned for completion actions other than complete and undo.
	ErrUnknownAction = errors.New("unknown completion action")

	// ErrInvalidQuery wraps malformed dates, ranges and filters supplied by the caller.
	ErrInvalidQuery = errors.New("invalid query")
)

type Tracker struct {
	store     storage.Provider
	scheduler *scheduler.Scheduler
	now       func() time.Time
	overlay   func(models.Settings) models.Settings
}

type Option func(*Tracker)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithSettingsOverlay adjusts stored settings before use, e.g. with config file values.
func WithSettingsOverlay(fn func(models.Settings) models.Settings) Option {
	return func(t *Tracker) { t.overlay = fn }
}

func New(store storage.Provider, opts ...Option) *Tracker {
	t := &Tracker{
		store:     store,
		scheduler: scheduler.New(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracker) Store() storage.Provider {
	return t.store
}

// Settings returns the effective settings.
func (t *Tracker) Settings() (models.Settings, error) {
	settings, err := t.store.GetSettings()
	if err != nil {
		return models.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	models.ApplyDefaultSettings(&settings)
	if t.overlay != nil {
		settings = t.overlay(settings)
	}
	return settings, nil
}

// Clock returns the current instant in the user's location together with that location.
func (t *Tracker) Clock() (time.Time, *time.Location, error) {
	settings, err := t.Settings()
	if err != nil {
		return time.Time{}, nil, err
	}
	loc, err := utils.LocationFromSettings(settings)
	if err != nil {
		return time.Time{}, nil, err
	}
	return t.now().In(loc), loc, nil
}

// Registry builds a category registry snapshot from the stored task types.
func (t *Tracker) Registry() (*categories.Registry, error) {
	types, err := t.store.GetTaskTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to load task types: %w", err)
	}
	return categories.New(types...)
}

// TaskInput is the authored part of a task definition.
type TaskInput struct {
	Title           string              `json:"title" minLength:"1" doc:"Task title"`
	Description     string              `json:"description,omitempty" doc:"Markdown description"`
	Category        string              `json:"category" doc:"Task type key"`
	Recurrence      models.Recurrence   `json:"recurrence"`
	CompletionTimes []string            `json:"completion_times" doc:"HH:MM checkpoints"`
	Reminder        models.ReminderRule `json:"reminder,omitempty"`
}

// InputFromDefinition is the inverse of apply, used to edit a stored task.
func InputFromDefinition(def models.TaskDefinition) TaskInput {
	times := make([]string, len(def.CompletionTimes))
	for i, ct := range def.CompletionTimes {
		times[i] = ct.String()
	}
	return TaskInput{
		Title:           def.Title,
		Description:     def.Description,
		Category:        def.Category,
		Recurrence:      def.Recurrence,
		CompletionTimes: times,
		Reminder:        def.Reminder,
	}
}

func (in TaskInput) apply(def *models.TaskDefinition) error {
	times := make([]models.TimeOfDay, 0, len(in.CompletionTimes))
	for _, s := range in.CompletionTimes {
		tod, err := models.ParseTimeOfDay(s)
		if err != nil {
			return fmt.Errorf("%w: completion_times: %w", models.ErrValidation, err)
		}
		times = append(times, tod)
	}
	def.Title = strings.TrimSpace(in.Title)
	def.Description = in.Description
	def.Category = in.Category
	def.Recurrence = in.Recurrence
	def.CompletionTimes = times
	def.Reminder = in.Reminder
	if def.Reminder.Type == "" {
		def.Reminder.Type = constants.ReminderNone
	}
	return nil
}

// CreateTask validates in and stores it under a fresh ID.
func (t *Tracker) CreateTask(in TaskInput) (models.TaskDefinition, error) {
	now := t.now().UTC()
	def := models.TaskDefinition{
		ID:        uuid.New().String(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := in.apply(&def); err != nil {
		return models.TaskDefinition{}, err
	}
	if err := t.checkDefinition(def); err != nil {
		return models.TaskDefinition{}, err
	}
	if err := t.store.AddTask(def); err != nil {
		return models.TaskDefinition{}, fmt.Errorf("failed to save task: %w", err)
	}
	return def, nil
}

// UpdateTask replaces the authored fields of a live task. Completion history is kept.
func (t *Tracker) UpdateTask(id string, in TaskInput) (models.TaskDefinition, error) {
	def, err := t.store.GetTask(id)
	if err != nil {
		return models.TaskDefinition{}, err
	}
	if err := in.apply(&def); err != nil {
		return models.TaskDefinition{}, err
	}
	def.UpdatedAt = t.now().UTC()
	if err := t.checkDefinition(def); err != nil {
		return models.TaskDefinition{}, err
	}
	if err := t.store.UpdateTask(def); err != nil {
		return models.TaskDefinition{}, fmt.Errorf("failed to save task: %w", err)
	}
	return def, nil
}

// SaveTask validates and stores an already assembled definition, as the CLI editor does.
func (t *Tracker) SaveTask(def models.TaskDefinition) error {
	def.UpdatedAt = t.now().UTC()
	if err := t.checkDefinition(def); err != nil {
		return err
	}
	return t.store.UpdateTask(def)
}

func (t *Tracker) checkDefinition(def models.TaskDefinition) error {
	reg, err := t.Registry()
	if err != nil {
		return err
	}
	return validation.Definition(def, reg)
}

func (t *Tracker) GetTask(id string) (models.TaskDefinition, error) {
	return t.store.GetTask(id)
}

func (t *Tracker) ListTasks(includeDeleted bool) ([]models.TaskDefinition, error) {
	if includeDeleted {
		return t.store.GetAllTasksIncludingDeleted()
	}
	return t.store.GetAllTasks()
}

func (t *Tracker) DeleteTask(id string) error {
	return t.store.DeleteTask(id)
}

func (t *Tracker) RestoreTask(id string) error {
	return t.store.RestoreTask(id)
}

func (t *Tracker) ListTypes() ([]models.TaskType, error) {
	reg, err := t.Registry()
	if err != nil {
		return nil, err
	}
	return reg.List(), nil
}

// AddType registers a new task type whose key is derived from labelEn.
func (t *Tracker) AddType(labelEn, labelZh string) (models.TaskType, error) {
	reg, err := t.Registry()
	if err != nil {
		return models.TaskType{}, err
	}
	_, tt, err := reg.Add(labelEn, labelZh)
	if err != nil {
		return models.TaskType{}, err
	}
	if err := t.store.SaveTaskType(tt); err != nil {
		return models.TaskType{}, fmt.Errorf("failed to save task type: %w", err)
	}
	return tt, nil
}

// RemoveType deletes a task type. Tasks referencing it keep the key and are reported by
// Validate, unless strict categories are enabled, in which case removal is refused.
// At least one type always remains.
func (t *Tracker) RemoveType(key string) (int, error) {
	reg, err := t.Registry()
	if err != nil {
		return 0, err
	}
	next, removed := reg.Remove(key)
	if !removed {
		return 0, fmt.Errorf("task type %s: %w", key, storage.ErrNotFound)
	}
	if next.Len() == 0 {
		return 0, ErrLastTaskType
	}

	tasks, err := t.store.GetAllTasks()
	if err != nil {
		return 0, err
	}
	inUse := validation.CategoryUsage(tasks)[key]

	settings, err := t.Settings()
	if err != nil {
		return 0, err
	}
	if settings.StrictCategories && inUse > 0 {
		return inUse, fmt.Errorf("%w: %s is used by %d task(s)", ErrCategoryInUse, key, inUse)
	}
	if err := t.store.DeleteTaskType(key); err != nil {
		return inUse, err
	}
	return inUse, nil
}

// Validate reports conflicts across the stored task set.
func (t *Tracker) Validate() (validation.ValidationResult, error) {
	reg, err := t.Registry()
	if err != nil {
		return validation.ValidationResult{}, err
	}
	tasks, err := t.store.GetAllTasks()
	if err != nil {
		return validation.ValidationResult{}, err
	}
	return validation.New(reg).ValidateTasks(tasks), nil
}

// Agenda builds the display list for date (YYYY-MM-DD, empty for today).
func (t *Tracker) Agenda(ctx context.Context, date string) (scheduler.Agenda, error) {
	now, loc, err := t.Clock()
	if err != nil {
		return scheduler.Agenda{}, err
	}
	day, err := scheduler.ParseDate(date, now, loc)
	if err != nil {
		return scheduler.Agenda{}, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	tasks, err := t.store.GetAllTasks()
	if err != nil {
		return scheduler.Agenda{}, err
	}
	key := utils.FormatDate(day)
	records, err := t.store.Ledger().GetCompletionsInRange(ctx, key, key)
	if err != nil {
		return scheduler.Agenda{}, fmt.Errorf("failed to load completions: %w", err)
	}
	return t.scheduler.BuildAgenda(day, tasks, records, now)
}

// Month summarizes the month (YYYY-MM, empty for the current month).
func (t *Tracker) Month(ctx context.Context, month string) (time.Time, []scheduler.DaySummary, error) {
	now, loc, err := t.Clock()
	if err != nil {
		return time.Time{}, nil, err
	}
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	if month != "" {
		m, err := time.ParseInLocation(constants.MonthFormat, month, loc)
		if err != nil {
			return time.Time{}, nil, fmt.Errorf("%w: month %q (expected %s): %w", ErrInvalidQuery, month, constants.MonthFormat, err)
		}
		first = m
	}
	last := utils.AddDays(first, utils.DaysIn(first.Year(), first.Month())-1)

	tasks, err := t.store.GetAllTasks()
	if err != nil {
		return first, nil, err
	}
	records, err := t.store.Ledger().GetCompletionsInRange(ctx, utils.FormatDate(first), utils.FormatDate(last))
	if err != nil {
		return first, nil, fmt.Errorf("failed to load completions: %w", err)
	}
	days, err := t.scheduler.MonthView(first, tasks, records, now)
	return first, days, err
}

// SetCompletion applies a complete or undo action to the occurrence of taskID on date.
// The date must be one the task's recurrence produces.
func (t *Tracker) SetCompletion(ctx context.Context, taskID, date string, action models.CompletionAction) (models.CompletionRecord, error) {
	now, loc, err := t.Clock()
	if err != nil {
		return models.CompletionRecord{}, err
	}
	task, err := t.store.GetTask(taskID)
	if err != nil {
		return models.CompletionRecord{}, err
	}
	day, err := scheduler.ParseDate(date, now, loc)
	if err != nil {
		return models.CompletionRecord{}, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	if !utils.OccursOn(task, day) {
		return models.CompletionRecord{}, fmt.Errorf("%w: %s does not occur on %s", models.ErrInvalidOccurrence, task.Title, utils.FormatDate(day))
	}

	key := utils.FormatDate(day)
	switch action {
	case models.ActionComplete:
		return t.store.Ledger().RecordCompletion(ctx, task.ID, key, now)
	case models.ActionUndo:
		return t.store.Ledger().ClearCompletion(ctx, task.ID, key, now)
	default:
		return models.CompletionRecord{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
}

// History returns the completion toggles of one occurrence, oldest first.
func (t *Tracker) History(ctx context.Context, taskID, date string) ([]models.CompletionEvent, error) {
	return t.store.Ledger().GetCompletionEvents(ctx, taskID, date)
}
