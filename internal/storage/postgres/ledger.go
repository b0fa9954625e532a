package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/julianstephens/ticktask/internal/models"
	"github.com/julianstephens/ticktask/internal/storage"
)

type ledger struct {
	db *sql.DB
}

const completionColumns = "task_id, date, completed, completed_at, updated_at"

func (l *ledger) RecordCompletion(ctx context.Context, taskID, date string, now time.Time) (models.CompletionRecord, error) {
	ts := storage.FormatTimestamp(now)

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return models.CompletionRecord{}, err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		INSERT INTO completions (task_id, date, completed, completed_at, updated_at)
		VALUES ($1, $2, TRUE, $3, $3)
		ON CONFLICT (task_id, date) DO UPDATE SET
			completed = TRUE,
			completed_at = EXCLUDED.completed_at,
			updated_at = EXCLUDED.updated_at
		RETURNING `+completionColumns,
		taskID, date, ts,
	)
	rec, err := storage.ScanCompletion(row)
	if err != nil {
		return models.CompletionRecord{}, err
	}

	if err := appendEvent(ctx, tx, taskID, date, models.ActionComplete, ts); err != nil {
		return models.CompletionRecord{}, err
	}
	return rec, tx.Commit()
}

func (l *ledger) ClearCompletion(ctx context.Context, taskID, date string, now time.Time) (models.CompletionRecord, error) {
	ts := storage.FormatTimestamp(now)

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return models.CompletionRecord{}, err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		UPDATE completions SET completed = FALSE, completed_at = NULL, updated_at = $1
		WHERE task_id = $2 AND date = $3
		RETURNING `+completionColumns,
		ts, taskID, date,
	)
	rec, err := storage.ScanCompletion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.CompletionRecord{TaskID: taskID, Date: date}, nil
	}
	if err != nil {
		return models.CompletionRecord{}, err
	}

	if err := appendEvent(ctx, tx, taskID, date, models.ActionUndo, ts); err != nil {
		return models.CompletionRecord{}, err
	}
	return rec, tx.Commit()
}

func appendEvent(ctx context.Context, tx *sql.Tx, taskID, date string, action models.CompletionAction, ts string) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO completion_events (task_id, date, action, at) VALUES ($1, $2, $3, $4)",
		taskID, date, string(action), ts,
	)
	return err
}

func (l *ledger) GetCompletion(ctx context.Context, taskID, date string) (models.CompletionRecord, bool, error) {
	row := l.db.QueryRowContext(ctx, "SELECT "+completionColumns+" FROM completions WHERE task_id = $1 AND date = $2", taskID, date)
	rec, err := storage.ScanCompletion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.CompletionRecord{TaskID: taskID, Date: date}, false, nil
	}
	if err != nil {
		return models.CompletionRecord{}, false, err
	}
	return rec, true, nil
}

func (l *ledger) GetCompletionsInRange(ctx context.Context, start, end string) (map[string]models.CompletionRecord, error) {
	rows, err := l.db.QueryContext(ctx, "SELECT "+completionColumns+" FROM completions WHERE date >= $1 AND date <= $2", start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]models.CompletionRecord)
	for rows.Next() {
		rec, err := storage.ScanCompletion(rows)
		if err != nil {
			return nil, err
		}
		out[rec.Key()] = rec
	}
	return out, rows.Err()
}

func (l *ledger) GetCompletionEvents(ctx context.Context, taskID, date string) ([]models.CompletionEvent, error) {
	rows, err := l.db.QueryContext(ctx,
		"SELECT task_id, date, action, at FROM completion_events WHERE task_id = $1 AND date = $2 ORDER BY id",
		taskID, date,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.CompletionEvent
	for rows.Next() {
		ev, err := storage.ScanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
