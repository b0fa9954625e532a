// Package memory is an ephemeral storage.Provider for tests and "memory://" sessions.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/julianstephens/ticktask/internal/constants"
	"github.com/julianstephens/ticktask/internal/models"
	"github.com/julianstephens/ticktask/internal/storage"
)

type Store struct {
	mu          sync.RWMutex
	settings    *models.Settings
	tasks       map[string]models.TaskDefinition
	types       []models.TaskType
	completions map[string]models.CompletionRecord
	events      map[string][]models.CompletionEvent
	reminders   map[models.ReminderKey]time.Time
}

var _ storage.Provider = (*Store)(nil)

func New() *Store {
	return &Store{
		tasks:       make(map[string]models.TaskDefinition),
		completions: make(map[string]models.CompletionRecord),
		events:      make(map[string][]models.CompletionEvent),
		reminders:   make(map[models.ReminderKey]time.Time),
	}
}

func (s *Store) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.settings == nil {
		defaults := models.DefaultSettings()
		s.settings = &defaults
	}
	if len(s.types) == 0 {
		s.types = models.DefaultTaskTypes()
	}
	return nil
}

func (s *Store) Load() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.settings == nil {
		return storage.ErrNotInitialized
	}
	return nil
}

func (s *Store) Close() error { return nil }

func (s *Store) GetConfigPath() string { return constants.MemoryConnection }

func (s *Store) GetSettings() (models.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.settings == nil {
		return models.Settings{}, fmt.Errorf("settings not found")
	}
	return *s.settings, nil
}

func (s *Store) SaveSettings(settings models.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = &settings
	return nil
}

func cloneTask(t models.TaskDefinition) models.TaskDefinition {
	t.CompletionTimes = append([]models.TimeOfDay(nil), t.CompletionTimes...)
	if t.DeletedAt != nil {
		d := *t.DeletedAt
		t.DeletedAt = &d
	}
	return t
}

func (s *Store) AddTask(task models.TaskDefinition) error {
	return s.UpdateTask(task)
}

func (s *Store) GetTask(id string) (models.TaskDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok || t.IsDeleted() {
		return models.TaskDefinition{}, fmt.Errorf("task %s: %w", id, storage.ErrNotFound)
	}
	return cloneTask(t), nil
}

func (s *Store) GetAllTasks() ([]models.TaskDefinition, error) {
	return s.listTasks(false), nil
}

func (s *Store) GetAllTasksIncludingDeleted() ([]models.TaskDefinition, error) {
	return s.listTasks(true), nil
}

func (s *Store) listTasks(includeDeleted bool) []models.TaskDefinition {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.TaskDefinition
	for _, t := range s.tasks {
		if !includeDeleted && t.IsDeleted() {
			continue
		}
		out = append(out, cloneTask(t))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) UpdateTask(task models.TaskDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.tasks[task.ID]; ok {
		task.CreatedAt = existing.CreatedAt
	}
	s.tasks[task.ID] = cloneTask(task)
	return nil
}

func (s *Store) DeleteTask(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok || t.IsDeleted() {
		return fmt.Errorf("task %s: %w", id, storage.ErrNotFound)
	}
	deletedAt := storage.DeletedTimestamp(time.Now())
	t.DeletedAt = &deletedAt
	s.tasks[id] = t
	return nil
}

func (s *Store) RestoreTask(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok || !t.IsDeleted() {
		return fmt.Errorf("deleted task %s: %w", id, storage.ErrNotFound)
	}
	t.DeletedAt = nil
	s.tasks[id] = t
	return nil
}

func (s *Store) GetTaskTypes() ([]models.TaskType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.TaskType(nil), s.types...), nil
}

func (s *Store) SaveTaskType(tt models.TaskType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.types {
		if s.types[i].Key == tt.Key {
			s.types[i] = tt
			return nil
		}
	}
	s.types = append(s.types, tt)
	return nil
}

func (s *Store) DeleteTaskType(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.types {
		if s.types[i].Key == key {
			s.types = append(s.types[:i], s.types[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("task type %s: %w", key, storage.ErrNotFound)
}

func (s *Store) MarkReminderSent(_ context.Context, key models.ReminderKey, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reminders[key]; ok {
		return false, nil
	}
	s.reminders[key] = at
	return true, nil
}

func (s *Store) Ledger() storage.Ledger {
	return (*ledger)(s)
}
