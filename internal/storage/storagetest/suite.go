// Package storagetest holds the behavior every storage.Provider must share. Backend
// packages run it from their own tests against a freshly initialized store.
package storagetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/julianstephens/ticktask/internal/constants"
	"github.com/julianstephens/ticktask/internal/models"
	"github.com/julianstephens/ticktask/internal/storage"
)

// Factory returns an initialized, empty provider. Cleanup is the caller's job via t.Cleanup.
type Factory func(t *testing.T) storage.Provider

// SampleTask returns a valid daily definition with a fixed timestamp.
func SampleTask(id, title string) models.TaskDefinition {
	created := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	return models.TaskDefinition{
		ID:              id,
		Title:           title,
		Description:     "**markdown** notes",
		Category:        "work",
		Recurrence:      models.Recurrence{Type: constants.RecurrenceWeekly, Weekday: time.Wednesday},
		CompletionTimes: []models.TimeOfDay{{Hour: 9}, {Hour: 18, Minute: 30}},
		Reminder:        models.ReminderRule{Type: constants.ReminderOverdueAfter, Minutes: 10},
		CreatedAt:       created,
		UpdatedAt:       created,
	}
}

// Run executes the shared provider behavior against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("InitSeedsDefaults", func(t *testing.T) { testInitSeedsDefaults(t, newStore(t)) })
	t.Run("SettingsRoundTrip", func(t *testing.T) { testSettingsRoundTrip(t, newStore(t)) })
	t.Run("TaskRoundTrip", func(t *testing.T) { testTaskRoundTrip(t, newStore(t)) })
	t.Run("TaskSoftDelete", func(t *testing.T) { testTaskSoftDelete(t, newStore(t)) })
	t.Run("TaskTypes", func(t *testing.T) { testTaskTypes(t, newStore(t)) })
	t.Run("LedgerLastWriteWins", func(t *testing.T) { testLedgerLastWriteWins(t, newStore(t)) })
	t.Run("LedgerClearAbsentKey", func(t *testing.T) { testLedgerClearAbsentKey(t, newStore(t)) })
	t.Run("LedgerRange", func(t *testing.T) { testLedgerRange(t, newStore(t)) })
	t.Run("LedgerConcurrentWriters", func(t *testing.T) { testLedgerConcurrentWriters(t, newStore(t)) })
	t.Run("ReminderLogFiresOnce", func(t *testing.T) { testReminderLogFiresOnce(t, newStore(t)) })
}

func testInitSeedsDefaults(t *testing.T, store storage.Provider) {
	settings, err := store.GetSettings()
	if err != nil {
		t.Fatalf("GetSettings() error: %v", err)
	}
	if settings != models.DefaultSettings() {
		t.Errorf("GetSettings() = %+v, want defaults", settings)
	}

	types, err := store.GetTaskTypes()
	if err != nil {
		t.Fatalf("GetTaskTypes() error: %v", err)
	}
	defaults := models.DefaultTaskTypes()
	if len(types) != len(defaults) {
		t.Fatalf("GetTaskTypes() returned %d types, want %d", len(types), len(defaults))
	}
	for i := range defaults {
		if types[i] != defaults[i] {
			t.Errorf("type %d = %+v, want %+v", i, types[i], defaults[i])
		}
	}

	// A second Init must not duplicate seeds
	if err := store.Init(); err != nil {
		t.Fatalf("second Init() error: %v", err)
	}
	types, _ = store.GetTaskTypes()
	if len(types) != len(defaults) {
		t.Errorf("after re-init got %d types, want %d", len(types), len(defaults))
	}
}

func testSettingsRoundTrip(t *testing.T, store storage.Provider) {
	want := models.Settings{
		Timezone:               "Asia/Shanghai",
		Language:               constants.LanguageEn,
		NotificationsEnabled:   false,
		NotificationDurationMs: 8000,
		StrictCategories:       true,
	}
	if err := store.SaveSettings(want); err != nil {
		t.Fatalf("SaveSettings() error: %v", err)
	}
	got, err := store.GetSettings()
	if err != nil {
		t.Fatalf("GetSettings() error: %v", err)
	}
	if got != want {
		t.Errorf("GetSettings() = %+v, want %+v", got, want)
	}
}

func testTaskRoundTrip(t *testing.T, store storage.Provider) {
	task := SampleTask("task-1", "Water plants")
	task.Reminder = models.ReminderRule{Type: constants.ReminderAdvanceByDuration, Days: 2, SameDay: true}
	if err := store.AddTask(task); err != nil {
		t.Fatalf("AddTask() error: %v", err)
	}

	got, err := store.GetTask(task.ID)
	if err != nil {
		t.Fatalf("GetTask() error: %v", err)
	}
	if got.Title != task.Title || got.Description != task.Description || got.Category != task.Category {
		t.Errorf("GetTask() = %+v, want %+v", got, task)
	}
	if got.Recurrence != task.Recurrence {
		t.Errorf("Recurrence = %+v, want %+v", got.Recurrence, task.Recurrence)
	}
	if got.Reminder != task.Reminder {
		t.Errorf("Reminder = %+v, want %+v", got.Reminder, task.Reminder)
	}
	if models.FormatTimesOfDay(got.CompletionTimes) != "09:00,18:30" {
		t.Errorf("CompletionTimes = %v", got.CompletionTimes)
	}
	if !got.CreatedAt.Equal(task.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, task.CreatedAt)
	}

	task.Title = "Water all plants"
	task.UpdatedAt = task.UpdatedAt.Add(time.Hour)
	if err := store.UpdateTask(task); err != nil {
		t.Fatalf("UpdateTask() error: %v", err)
	}
	got, _ = store.GetTask(task.ID)
	if got.Title != "Water all plants" {
		t.Errorf("UpdateTask() did not persist title, got %q", got.Title)
	}

	if _, err := store.GetTask("missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetTask(missing) error = %v, want ErrNotFound", err)
	}
}

func testTaskSoftDelete(t *testing.T, store storage.Provider) {
	ctx := context.Background()
	task := SampleTask("task-1", "Stand-up")
	if err := store.AddTask(task); err != nil {
		t.Fatalf("AddTask() error: %v", err)
	}
	if _, err := store.Ledger().RecordCompletion(ctx, task.ID, "2024-05-01", time.Now()); err != nil {
		t.Fatalf("RecordCompletion() error: %v", err)
	}

	if err := store.DeleteTask(task.ID); err != nil {
		t.Fatalf("DeleteTask() error: %v", err)
	}
	if _, err := store.GetTask(task.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetTask(deleted) error = %v, want ErrNotFound", err)
	}
	if err := store.DeleteTask(task.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("second DeleteTask() error = %v, want ErrNotFound", err)
	}

	live, _ := store.GetAllTasks()
	if len(live) != 0 {
		t.Errorf("GetAllTasks() returned %d tasks, want 0", len(live))
	}
	all, _ := store.GetAllTasksIncludingDeleted()
	if len(all) != 1 || !all[0].IsDeleted() {
		t.Fatalf("GetAllTasksIncludingDeleted() = %+v, want one tombstoned task", all)
	}

	// History survives deletion
	if _, ok, _ := store.Ledger().GetCompletion(ctx, task.ID, "2024-05-01"); !ok {
		t.Error("ledger entry should survive task deletion")
	}

	if err := store.RestoreTask(task.ID); err != nil {
		t.Fatalf("RestoreTask() error: %v", err)
	}
	if _, err := store.GetTask(task.ID); err != nil {
		t.Errorf("GetTask(restored) error = %v", err)
	}
	if err := store.RestoreTask(task.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("RestoreTask(live) error = %v, want ErrNotFound", err)
	}
}

func testTaskTypes(t *testing.T, store storage.Provider) {
	custom, err := models.NewTaskType("Side Project", "副业")
	if err != nil {
		t.Fatalf("NewTaskType() error: %v", err)
	}
	if err := store.SaveTaskType(custom); err != nil {
		t.Fatalf("SaveTaskType() error: %v", err)
	}
	types, _ := store.GetTaskTypes()
	if types[len(types)-1] != custom {
		t.Errorf("new type should be listed last, got %+v", types[len(types)-1])
	}

	custom.LabelZh = "兼职"
	if err := store.SaveTaskType(custom); err != nil {
		t.Fatalf("SaveTaskType(update) error: %v", err)
	}
	types, _ = store.GetTaskTypes()
	if types[len(types)-1].LabelZh != "兼职" {
		t.Errorf("label update not persisted: %+v", types[len(types)-1])
	}

	if err := store.DeleteTaskType(custom.Key); err != nil {
		t.Fatalf("DeleteTaskType() error: %v", err)
	}
	if err := store.DeleteTaskType(custom.Key); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("second DeleteTaskType() error = %v, want ErrNotFound", err)
	}
}

func testLedgerLastWriteWins(t *testing.T, store storage.Provider) {
	ctx := context.Background()
	ledger := store.Ledger()
	first := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	second := first.Add(2 * time.Hour)

	if _, err := ledger.RecordCompletion(ctx, "t1", "2024-05-01", first); err != nil {
		t.Fatalf("RecordCompletion() error: %v", err)
	}
	rec, err := ledger.RecordCompletion(ctx, "t1", "2024-05-01", second)
	if err != nil {
		t.Fatalf("RecordCompletion() error: %v", err)
	}
	if !rec.Completed || rec.CompletedAt == nil || !rec.CompletedAt.Equal(second) {
		t.Errorf("RecordCompletion() = %+v, want completed at %v", rec, second)
	}

	cleared, err := ledger.ClearCompletion(ctx, "t1", "2024-05-01", second.Add(time.Minute))
	if err != nil {
		t.Fatalf("ClearCompletion() error: %v", err)
	}
	if cleared.Completed || cleared.CompletedAt != nil {
		t.Errorf("ClearCompletion() = %+v, want not completed", cleared)
	}

	got, ok, err := ledger.GetCompletion(ctx, "t1", "2024-05-01")
	if err != nil || !ok {
		t.Fatalf("GetCompletion() = %v, %v", ok, err)
	}
	if got.Completed {
		t.Error("record -> clear must leave the occurrence not completed")
	}

	events, err := ledger.GetCompletionEvents(ctx, "t1", "2024-05-01")
	if err != nil {
		t.Fatalf("GetCompletionEvents() error: %v", err)
	}
	wantActions := []models.CompletionAction{models.ActionComplete, models.ActionComplete, models.ActionUndo}
	if len(events) != len(wantActions) {
		t.Fatalf("GetCompletionEvents() returned %d events, want %d", len(events), len(wantActions))
	}
	for i, a := range wantActions {
		if events[i].Action != a {
			t.Errorf("event %d = %s, want %s", i, events[i].Action, a)
		}
	}
}

func testLedgerClearAbsentKey(t *testing.T, store storage.Provider) {
	ctx := context.Background()
	ledger := store.Ledger()

	rec, err := ledger.ClearCompletion(ctx, "never", "2024-05-01", time.Now())
	if err != nil {
		t.Fatalf("ClearCompletion() error: %v", err)
	}
	if rec.Completed || rec.TaskID != "never" || rec.Date != "2024-05-01" {
		t.Errorf("ClearCompletion() = %+v, want default record", rec)
	}
	if _, ok, _ := ledger.GetCompletion(ctx, "never", "2024-05-01"); ok {
		t.Error("clearing an absent key must not create it")
	}
	events, _ := ledger.GetCompletionEvents(ctx, "never", "2024-05-01")
	if len(events) != 0 {
		t.Errorf("clearing an absent key must not append history, got %d events", len(events))
	}
}

func testLedgerRange(t *testing.T, store storage.Provider) {
	ctx := context.Background()
	ledger := store.Ledger()
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)

	for _, date := range []string{"2024-04-30", "2024-05-01", "2024-05-15", "2024-05-31", "2024-06-01"} {
		if _, err := ledger.RecordCompletion(ctx, "t1", date, now); err != nil {
			t.Fatalf("RecordCompletion(%s) error: %v", date, err)
		}
	}

	got, err := ledger.GetCompletionsInRange(ctx, "2024-05-01", "2024-05-31")
	if err != nil {
		t.Fatalf("GetCompletionsInRange() error: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("GetCompletionsInRange() returned %d records, want 3", len(got))
	}
	if _, ok := got[models.RecordKey("t1", "2024-05-15")]; !ok {
		t.Error("range result should be keyed by RecordKey")
	}
}

func testLedgerConcurrentWriters(t *testing.T, store storage.Provider) {
	ctx := context.Background()
	ledger := store.Ledger()
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				_, err = ledger.RecordCompletion(ctx, "t1", "2024-05-01", base.Add(time.Duration(i)*time.Second))
			} else {
				_, err = ledger.ClearCompletion(ctx, "t1", "2024-05-01", base.Add(time.Duration(i)*time.Second))
			}
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent write error: %v", err)
		}
	}

	rec, ok, err := ledger.GetCompletion(ctx, "t1", "2024-05-01")
	if err != nil || !ok {
		t.Fatalf("GetCompletion() = %v, %v", ok, err)
	}
	// The record is one of the two whole states, never a mix
	if rec.Completed != (rec.CompletedAt != nil) {
		t.Errorf("torn record: %+v", rec)
	}
}

func testReminderLogFiresOnce(t *testing.T, store storage.Provider) {
	ctx := context.Background()
	key := models.ReminderKey{TaskID: "t1", Date: "2024-05-01", Checkpoint: 1, Kind: constants.ReminderKindOverdue}

	first, err := store.MarkReminderSent(ctx, key, time.Now())
	if err != nil {
		t.Fatalf("MarkReminderSent() error: %v", err)
	}
	if !first {
		t.Error("first MarkReminderSent() should report a new entry")
	}

	again, err := store.MarkReminderSent(ctx, key, time.Now())
	if err != nil {
		t.Fatalf("MarkReminderSent() error: %v", err)
	}
	if again {
		t.Error("second MarkReminderSent() must report an existing entry")
	}

	other := key
	other.Checkpoint = 0
	if fresh, _ := store.MarkReminderSent(ctx, other, time.Now()); !fresh {
		t.Error("a different checkpoint is a separate reminder")
	}
}
