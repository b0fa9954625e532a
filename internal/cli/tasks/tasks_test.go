package tasks

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/ticktask/internal/cli"
	"github.com/julianstephens/ticktask/internal/constants"
	"github.com/julianstephens/ticktask/internal/models"
	"github.com/julianstephens/ticktask/internal/storage/sqlite"
	"github.com/julianstephens/ticktask/internal/tracker"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) (*cli.Context, *bytes.Buffer, func()) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "test.db")

	store := sqlite.NewStore(dbPath)
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	settings := models.DefaultSettings()
	settings.Timezone = "UTC"
	settings.Language = constants.LanguageEn
	if err := store.SaveSettings(settings); err != nil {
		t.Fatalf("failed to save settings: %v", err)
	}

	out := &bytes.Buffer{}
	ctx := &cli.Context{
		Store:     store,
		Tracker:   tracker.New(store, tracker.WithClock(func() time.Time { return testNow })),
		Out:       out,
		AssumeYes: true,
	}

	cleanup := func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	}

	return ctx, out, cleanup
}

func addTask(t *testing.T, ctx *cli.Context, title string, flags TaskFlags) models.TaskDefinition {
	t.Helper()
	cmd := &TaskAddCmd{Title: title, TaskFlags: flags}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("task add failed: %v", err)
	}
	tasks, err := ctx.Store.GetAllTasks()
	if err != nil {
		t.Fatalf("failed to get tasks: %v", err)
	}
	for _, task := range tasks {
		if task.Title == title {
			return task
		}
	}
	t.Fatalf("task %q was not stored", title)
	return models.TaskDefinition{}
}

func TestTaskAddCmd_Defaults(t *testing.T) {
	ctx, out, cleanup := setupTestDB(t)
	defer cleanup()

	task := addTask(t, ctx, "Stretch", TaskFlags{Times: "07:30"})

	if task.Category != "other" {
		t.Errorf("expected category other, got %s", task.Category)
	}
	if task.Recurrence.Type != constants.RecurrenceDaily {
		t.Errorf("expected daily recurrence, got %s", task.Recurrence.Type)
	}
	if task.Reminder.Type != constants.ReminderNone {
		t.Errorf("expected no reminder, got %s", task.Reminder.Type)
	}
	if !strings.Contains(out.String(), "Added task: Stretch") {
		t.Errorf("unexpected output: %q", out.String())
	}
}

func TestTaskAddCmd_Flags(t *testing.T) {
	ctx, _, cleanup := setupTestDB(t)
	defer cleanup()

	sameDay := true
	task := addTask(t, ctx, "Pay rent", TaskFlags{
		Category:   "personal",
		Recurrence: "monthly",
		Day:        31,
		Times:      "09:00, 18:00",
		Remind:     "advance_days",
		RemindDays: 2,
		SameDay:    &sameDay,
	})

	if task.Recurrence.DayOfMonth != 31 {
		t.Errorf("expected day of month 31, got %d", task.Recurrence.DayOfMonth)
	}
	if len(task.CompletionTimes) != 2 {
		t.Fatalf("expected 2 completion times, got %d", len(task.CompletionTimes))
	}
	if task.Reminder.Days != 2 || !task.Reminder.SameDay {
		t.Errorf("unexpected reminder: %+v", task.Reminder)
	}
}

func TestTaskAddCmd_Validate(t *testing.T) {
	if err := (&TaskAddCmd{}).Validate(); err == nil {
		t.Error("expected error without title")
	}
	if err := (&TaskAddCmd{File: "-"}).Validate(); err != nil {
		t.Errorf("unexpected error with --file: %v", err)
	}
}

func TestTaskAddCmd_InvalidDefinition(t *testing.T) {
	ctx, _, cleanup := setupTestDB(t)
	defer cleanup()

	tests := []struct {
		name  string
		flags TaskFlags
	}{
		{"bad time", TaskFlags{Times: "25:00"}},
		{"no times", TaskFlags{}},
		{"unknown category", TaskFlags{Times: "08:00", Category: "chores"}},
		{"yearly without month", TaskFlags{Times: "08:00", Recurrence: "yearly", Day: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &TaskAddCmd{Title: "Broken", TaskFlags: tt.flags}
			if err := cmd.Run(ctx); err == nil {
				t.Error("expected error")
			}
		})
	}

	tasks, err := ctx.Store.GetAllTasks()
	if err != nil {
		t.Fatalf("failed to get tasks: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("expected no stored tasks, got %d", len(tasks))
	}
}

func TestTaskAddCmd_FromFile(t *testing.T) {
	ctx, _, cleanup := setupTestDB(t)
	defer cleanup()

	path := filepath.Join(t.TempDir(), "task.json")
	body := `{"title":"Team sync","category":"work","recurrence":{"type":"weekly","weekday":1},"completion_times":["10:00"]}`
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("failed to write input: %v", err)
	}

	cmd := &TaskAddCmd{File: path, TaskFlags: TaskFlags{Times: "10:30"}}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("task add failed: %v", err)
	}

	tasks, _ := ctx.Store.GetAllTasks()
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	task := tasks[0]
	if task.Recurrence.Type != constants.RecurrenceWeekly || task.Recurrence.Weekday != time.Monday {
		t.Errorf("unexpected recurrence: %+v", task.Recurrence)
	}
	if got := models.FormatTimesOfDay(task.CompletionTimes); got != "10:30" {
		t.Errorf("flags should override the file, got times %s", got)
	}
}

func TestTaskAddCmd_FromStdin(t *testing.T) {
	ctx, _, cleanup := setupTestDB(t)
	defer cleanup()

	ctx.In = strings.NewReader(`{"title":"Read","category":"learning","recurrence":{"type":"daily"},"completion_times":["21:00"]}`)
	cmd := &TaskAddCmd{File: "-"}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("task add failed: %v", err)
	}

	tasks, _ := ctx.Store.GetAllTasks()
	if len(tasks) != 1 || tasks[0].Category != "learning" {
		t.Errorf("unexpected tasks: %+v", tasks)
	}
}

func TestTaskEditCmd_ByPrefix(t *testing.T) {
	ctx, out, cleanup := setupTestDB(t)
	defer cleanup()

	task := addTask(t, ctx, "Walk", TaskFlags{Times: "08:00"})

	cmd := &TaskEditCmd{ID: cli.ShortID(task.ID), Title: "Long walk", TaskFlags: TaskFlags{Times: "08:00,20:00"}}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("task edit failed: %v", err)
	}

	updated, err := ctx.Store.GetTask(task.ID)
	if err != nil {
		t.Fatalf("failed to get task: %v", err)
	}
	if updated.Title != "Long walk" {
		t.Errorf("expected title Long walk, got %s", updated.Title)
	}
	if len(updated.CompletionTimes) != 2 {
		t.Errorf("expected 2 completion times, got %d", len(updated.CompletionTimes))
	}
	if updated.Category != task.Category || updated.Recurrence != task.Recurrence {
		t.Error("unset flags should keep the stored values")
	}
	if !strings.Contains(out.String(), "Updated task: Long walk") {
		t.Errorf("unexpected output: %q", out.String())
	}
}

func TestTaskEditCmd_NotFound(t *testing.T) {
	ctx, _, cleanup := setupTestDB(t)
	defer cleanup()

	cmd := &TaskEditCmd{ID: "does-not-exist", Title: "x"}
	if err := cmd.Run(ctx); err == nil {
		t.Error("expected error for unknown task")
	}
}

func TestTaskDeleteAndRestore(t *testing.T) {
	ctx, _, cleanup := setupTestDB(t)
	defer cleanup()

	task := addTask(t, ctx, "Water plants", TaskFlags{Times: "18:00"})

	if err := (&TaskDeleteCmd{ID: task.ID}).Run(ctx); err != nil {
		t.Fatalf("task delete failed: %v", err)
	}
	live, _ := ctx.Store.GetAllTasks()
	if len(live) != 0 {
		t.Errorf("expected no live tasks after delete, got %d", len(live))
	}

	// deleting twice fails: the task is no longer live
	if err := (&TaskDeleteCmd{ID: task.ID}).Run(ctx); err == nil {
		t.Error("expected error deleting a deleted task")
	}

	if err := (&TaskRestoreCmd{ID: task.ID}).Run(ctx); err != nil {
		t.Fatalf("task restore failed: %v", err)
	}
	live, _ = ctx.Store.GetAllTasks()
	if len(live) != 1 {
		t.Errorf("expected 1 live task after restore, got %d", len(live))
	}

	if err := (&TaskRestoreCmd{ID: task.ID}).Run(ctx); err == nil {
		t.Error("expected error restoring a live task")
	}
}

func TestTaskDeleteCmd_NeedsConfirmation(t *testing.T) {
	ctx, _, cleanup := setupTestDB(t)
	defer cleanup()

	task := addTask(t, ctx, "Journal", TaskFlags{Times: "22:00"})
	ctx.AssumeYes = false
	ctx.In = strings.NewReader("")

	if err := (&TaskDeleteCmd{ID: task.ID}).Run(ctx); err == nil {
		t.Error("expected confirmation error without a terminal")
	}
	if _, err := ctx.Store.GetTask(task.ID); err != nil {
		t.Errorf("task should still exist: %v", err)
	}
}

func TestTaskListCmd(t *testing.T) {
	ctx, out, cleanup := setupTestDB(t)
	defer cleanup()

	addTask(t, ctx, "Walk", TaskFlags{Times: "08:00", Category: "health"})
	gone := addTask(t, ctx, "Old habit", TaskFlags{Times: "08:00"})
	if err := ctx.T().DeleteTask(gone.ID); err != nil {
		t.Fatalf("failed to delete: %v", err)
	}

	out.Reset()
	if err := (&TaskListCmd{}).Run(ctx); err != nil {
		t.Fatalf("task list failed: %v", err)
	}
	if !strings.Contains(out.String(), "Walk") || !strings.Contains(out.String(), "Health") {
		t.Errorf("expected Walk with its type label, got %q", out.String())
	}
	if strings.Contains(out.String(), "Old habit") {
		t.Error("deleted task should be hidden")
	}

	out.Reset()
	if err := (&TaskListCmd{All: true}).Run(ctx); err != nil {
		t.Fatalf("task list failed: %v", err)
	}
	if !strings.Contains(out.String(), "Old habit (deleted)") {
		t.Errorf("expected deleted task with --all, got %q", out.String())
	}

	out.Reset()
	if err := (&TaskListCmd{Category: "work"}).Run(ctx); err != nil {
		t.Fatalf("task list failed: %v", err)
	}
	if !strings.Contains(out.String(), "No tasks found") {
		t.Errorf("expected empty listing, got %q", out.String())
	}
}

func TestTaskShowCmd(t *testing.T) {
	ctx, out, cleanup := setupTestDB(t)
	defer cleanup()

	task := addTask(t, ctx, "Team sync", TaskFlags{
		Recurrence:  "weekly",
		Weekday:     "fri",
		Times:       "10:00",
		Description: "Bring **notes**",
	})

	out.Reset()
	if err := (&TaskShowCmd{ID: task.ID, Next: 2}).Run(ctx); err != nil {
		t.Fatalf("task show failed: %v", err)
	}
	got := out.String()
	for _, want := range []string{"Team sync", "Bring **notes**", "Upcoming:", "2024-05-03 Fri  10:00", "2024-05-10 Fri  10:00"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected output to contain %q, got %q", want, got)
		}
	}
	if strings.Contains(got, "2024-05-17") {
		t.Error("expected only 2 upcoming occurrences")
	}
}
