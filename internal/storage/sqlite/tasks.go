package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/ticktask/internal/models"
	"github.com/julianstephens/ticktask/internal/storage"
)

func (s *Store) AddTask(task models.TaskDefinition) error {
	return s.UpdateTask(task)
}

func (s *Store) GetTask(id string) (models.TaskDefinition, error) {
	row := s.db.QueryRow(`SELECT `+storage.TaskColumns+` FROM tasks WHERE id = ? AND deleted_at IS NULL`, id)
	t, err := storage.ScanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.TaskDefinition{}, fmt.Errorf("task %s: %w", id, storage.ErrNotFound)
	}
	return t, err
}

func (s *Store) GetAllTasks() ([]models.TaskDefinition, error) {
	return s.queryTasks(`SELECT ` + storage.TaskColumns + ` FROM tasks WHERE deleted_at IS NULL ORDER BY created_at, id`)
}

func (s *Store) GetAllTasksIncludingDeleted() ([]models.TaskDefinition, error) {
	return s.queryTasks(`SELECT ` + storage.TaskColumns + ` FROM tasks ORDER BY created_at, id`)
}

func (s *Store) queryTasks(query string) ([]models.TaskDefinition, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.TaskDefinition
	for rows.Next() {
		t, err := storage.ScanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// UpdateTask upserts the definition. Writing a definition never touches the ledger.
func (s *Store) UpdateTask(t models.TaskDefinition) error {
	_, err := s.db.Exec(`
		INSERT INTO tasks (`+storage.TaskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			category = excluded.category,
			recurrence_type = excluded.recurrence_type,
			weekday = excluded.weekday,
			day_of_month = excluded.day_of_month,
			month = excluded.month,
			day = excluded.day,
			completion_times = excluded.completion_times,
			reminder_type = excluded.reminder_type,
			reminder_days = excluded.reminder_days,
			reminder_same_day = excluded.reminder_same_day,
			reminder_minutes = excluded.reminder_minutes,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at`,
		storage.TaskArgs(t)...,
	)
	return err
}

func (s *Store) DeleteTask(id string) error {
	result, err := s.db.Exec("UPDATE tasks SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL", storage.DeletedTimestamp(time.Now()), id)
	if err != nil {
		return err
	}
	return expectOneRow(result, fmt.Errorf("task %s: %w", id, storage.ErrNotFound))
}

func (s *Store) RestoreTask(id string) error {
	result, err := s.db.Exec("UPDATE tasks SET deleted_at = NULL WHERE id = ? AND deleted_at IS NOT NULL", id)
	if err != nil {
		return err
	}
	return expectOneRow(result, fmt.Errorf("deleted task %s: %w", id, storage.ErrNotFound))
}

func expectOneRow(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
