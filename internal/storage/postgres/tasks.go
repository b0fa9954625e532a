package postgres

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
	row := s.db.QueryRow(`SELECT `+storage.TaskColumns+` FROM tasks WHERE id = $1 AND deleted_at IS NULL`, id)
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

func (s *Store) UpdateTask(t models.TaskDefinition) error {
	_, err := s.db.Exec(`
		INSERT INTO tasks (`+storage.TaskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			recurrence_type = EXCLUDED.recurrence_type,
			weekday = EXCLUDED.weekday,
			day_of_month = EXCLUDED.day_of_month,
			month = EXCLUDED.month,
			day = EXCLUDED.day,
			completion_times = EXCLUDED.completion_times,
			reminder_type = EXCLUDED.reminder_type,
			reminder_days = EXCLUDED.reminder_days,
			reminder_same_day = EXCLUDED.reminder_same_day,
			reminder_minutes = EXCLUDED.reminder_minutes,
			updated_at = EXCLUDED.updated_at,
			deleted_at = EXCLUDED.deleted_at`,
		storage.TaskArgs(t)...,
	)
	return err
}

func (s *Store) DeleteTask(id string) error {
	result, err := s.db.Exec("UPDATE tasks SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL", storage.DeletedTimestamp(time.Now()), id)
	if err != nil {
		return err
	}
	return expectOneRow(result, fmt.Errorf("task %s: %w", id, storage.ErrNotFound))
}

func (s *Store) RestoreTask(id string) error {
	result, err := s.db.Exec("UPDATE tasks SET deleted_at = NULL WHERE id = $1 AND deleted_at IS NOT NULL", id)
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
