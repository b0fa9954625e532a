package sqlite

import (
	"fmt"
	"time"

	"github.com/julianstephens/ticktask/internal/models"
	"github.com/julianstephens/ticktask/internal/storage"
)

func (s *Store) GetTaskTypes() ([]models.TaskType, error) {
	rows, err := s.db.Query("SELECT key, label_en, label_zh FROM task_types ORDER BY sort_order, key")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []models.TaskType
	for rows.Next() {
		var tt models.TaskType
		if err := rows.Scan(&tt.Key, &tt.LabelEn, &tt.LabelZh); err != nil {
			return nil, err
		}
		types = append(types, tt)
	}
	return types, rows.Err()
}

// SaveTaskType inserts tt at the end of the list or updates its labels in place.
func (s *Store) SaveTaskType(tt models.TaskType) error {
	_, err := s.db.Exec(`
		INSERT INTO task_types (key, label_en, label_zh, sort_order, created_at)
		VALUES (?, ?, ?, (SELECT COALESCE(MAX(sort_order), 0) + 1 FROM task_types), ?)
		ON CONFLICT(key) DO UPDATE SET
			label_en = excluded.label_en,
			label_zh = excluded.label_zh`,
		tt.Key, tt.LabelEn, tt.LabelZh, storage.FormatTimestamp(time.Now()),
	)
	return err
}

func (s *Store) DeleteTaskType(key string) error {
	result, err := s.db.Exec("DELETE FROM task_types WHERE key = ?", key)
	if err != nil {
		return err
	}
	return expectOneRow(result, fmt.Errorf("task type %s: %w", key, storage.ErrNotFound))
}
