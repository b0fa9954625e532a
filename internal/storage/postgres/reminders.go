package postgres

import (
	"context"
	"time"

	"github.com/julianstephens/ticktask/internal/models"
	"github.com/julianstephens/ticktask/internal/storage"
)

func (s *Store) MarkReminderSent(ctx context.Context, key models.ReminderKey, at time.Time) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO reminder_log (task_id, date, checkpoint, kind, sent_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (task_id, date, checkpoint, kind) DO NOTHING`,
		key.TaskID, key.Date, key.Checkpoint, string(key.Kind), storage.FormatTimestamp(at),
	)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
