package memory

import (
	"context"
	"time"

	"github.com/julianstephens/ticktask/internal/models"
)

// ledger shares the store's lock so each key is written atomically.
type ledger Store

func (l *ledger) RecordCompletion(_ context.Context, taskID, date string, now time.Time) (models.CompletionRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	at := now.UTC()
	rec := models.CompletionRecord{
		TaskID:      taskID,
		Date:        date,
		Completed:   true,
		CompletedAt: &at,
		UpdatedAt:   at,
	}
	key := rec.Key()
	l.completions[key] = rec
	l.events[key] = append(l.events[key], models.CompletionEvent{TaskID: taskID, Date: date, Action: models.ActionComplete, At: at})
	return copyRecord(rec), nil
}

func (l *ledger) ClearCompletion(_ context.Context, taskID, date string, now time.Time) (models.CompletionRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := models.RecordKey(taskID, date)
	if _, ok := l.completions[key]; !ok {
		return models.CompletionRecord{TaskID: taskID, Date: date}, nil
	}

	at := now.UTC()
	rec := models.CompletionRecord{TaskID: taskID, Date: date, UpdatedAt: at}
	l.completions[key] = rec
	l.events[key] = append(l.events[key], models.CompletionEvent{TaskID: taskID, Date: date, Action: models.ActionUndo, At: at})
	return rec, nil
}

func (l *ledger) GetCompletion(_ context.Context, taskID, date string) (models.CompletionRecord, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rec, ok := l.completions[models.RecordKey(taskID, date)]
	if !ok {
		return models.CompletionRecord{TaskID: taskID, Date: date}, false, nil
	}
	return copyRecord(rec), true, nil
}

func (l *ledger) GetCompletionsInRange(_ context.Context, start, end string) (map[string]models.CompletionRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make(map[string]models.CompletionRecord)
	for key, rec := range l.completions {
		if rec.Date >= start && rec.Date <= end {
			out[key] = copyRecord(rec)
		}
	}
	return out, nil
}

func (l *ledger) GetCompletionEvents(_ context.Context, taskID, date string) ([]models.CompletionEvent, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]models.CompletionEvent(nil), l.events[models.RecordKey(taskID, date)]...), nil
}

func copyRecord(rec models.CompletionRecord) models.CompletionRecord {
	if rec.CompletedAt != nil {
		at := *rec.CompletedAt
		rec.CompletedAt = &at
	}
	return rec
}
