package system

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
	"github.com/julianstephens/ticktask/internal/storage/memory"
	"github.com/julianstephens/ticktask/internal/storage/sqlite"
	"github.com/julianstephens/ticktask/internal/tracker"
)

func setupTestInitDB(t *testing.T) (*cli.Context, *bytes.Buffer, string, func()) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "test.db")

	store := sqlite.NewStore(dbPath)
	out := &bytes.Buffer{}
	ctx := &cli.Context{
		Store: store,
		Out:   out,
	}

	cleanup := func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	}

	return ctx, out, dbPath, cleanup
}

func TestInitCmd_Success(t *testing.T) {
	ctx, out, dbPath, cleanup := setupTestInitDB(t)
	defer cleanup()

	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatalf("init command failed: %v", err)
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("database file was not created at %s", dbPath)
	}
	if !strings.Contains(out.String(), "Initialized ticktask storage") {
		t.Errorf("unexpected output: %q", out.String())
	}

	types, err := ctx.Store.GetTaskTypes()
	if err != nil {
		t.Fatalf("failed to get task types: %v", err)
	}
	if len(types) != len(models.DefaultTaskTypes()) {
		t.Errorf("expected %d seeded task types, got %d", len(models.DefaultTaskTypes()), len(types))
	}
}

func TestInitCmd_Idempotent(t *testing.T) {
	ctx, _, _, cleanup := setupTestInitDB(t)
	defer cleanup()

	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatalf("first init failed: %v", err)
	}
	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Errorf("second init failed (should be idempotent): %v", err)
	}
}

func TestInitCmd_ForceDeletesExisting(t *testing.T) {
	ctx, _, _, cleanup := setupTestInitDB(t)
	defer cleanup()

	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatalf("initial init failed: %v", err)
	}
	if _, err := ctx.T().CreateTask(tracker.TaskInput{
		Title:           "Stretch",
		Category:        "health",
		Recurrence:      models.Recurrence{Type: constants.RecurrenceDaily},
		CompletionTimes: []string{"07:00"},
	}); err != nil {
		t.Fatalf("failed to create task: %v", err)
	}

	if err := (&InitCmd{Force: true}).Run(ctx); err != nil {
		t.Fatalf("force init failed: %v", err)
	}
	tasks, err := ctx.Store.GetAllTasks()
	if err != nil {
		t.Fatalf("failed to get tasks: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("expected an empty database after --force, got %d tasks", len(tasks))
	}
}

func TestInitCmd_CopiesSource(t *testing.T) {
	srcPath := filepath.Join(t.TempDir(), "source.db")
	src := sqlite.NewStore(srcPath)
	if err := src.Init(); err != nil {
		t.Fatalf("failed to init source: %v", err)
	}
	srcTracker := tracker.New(src, tracker.WithClock(func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }))
	if _, err := srcTracker.AddType("Errands", "杂事"); err != nil {
		t.Fatalf("failed to add type: %v", err)
	}
	task, err := srcTracker.CreateTask(tracker.TaskInput{
		Title:           "Groceries",
		Category:        "errands",
		Recurrence:      models.Recurrence{Type: constants.RecurrenceWeekly, Weekday: time.Saturday},
		CompletionTimes: []string{"10:00"},
	})
	if err != nil {
		t.Fatalf("failed to create task: %v", err)
	}
	for _, action := range []models.CompletionAction{models.ActionComplete, models.ActionUndo, models.ActionComplete} {
		if _, err := srcTracker.SetCompletion(t.Context(), task.ID, "2024-04-27", action); err != nil {
			t.Fatalf("failed to toggle completion: %v", err)
		}
	}
	if err := src.Close(); err != nil {
		t.Fatalf("failed to close source: %v", err)
	}

	ctx, _, _, cleanup := setupTestInitDB(t)
	defer cleanup()
	if err := (&InitCmd{Source: srcPath}).Run(ctx); err != nil {
		t.Fatalf("init with source failed: %v", err)
	}

	copied, err := ctx.Store.GetTask(task.ID)
	if err != nil {
		t.Fatalf("task was not copied: %v", err)
	}
	if copied.Category != "errands" {
		t.Errorf("expected category errands, got %s", copied.Category)
	}
	rec, ok, err := ctx.Store.Ledger().GetCompletion(t.Context(), task.ID, "2024-04-27")
	if err != nil || !ok || !rec.Completed {
		t.Errorf("expected a completed record, got %+v (ok=%v, err=%v)", rec, ok, err)
	}
	events, err := ctx.Store.Ledger().GetCompletionEvents(t.Context(), task.ID, "2024-04-27")
	if err != nil {
		t.Fatalf("failed to get events: %v", err)
	}
	if len(events) != 3 {
		t.Errorf("expected 3 replayed events, got %d", len(events))
	}
}

func TestMigrateCmd(t *testing.T) {
	ctx, out, _, cleanup := setupTestInitDB(t)
	defer cleanup()

	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	out.Reset()
	if err := (&MigrateCmd{}).Run(ctx); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if !strings.Contains(out.String(), "Database is up to date") {
		t.Errorf("unexpected output: %q", out.String())
	}

	memCtx := &cli.Context{Store: memory.New(), Out: &bytes.Buffer{}}
	if err := (&MigrateCmd{}).Run(memCtx); err == nil {
		t.Error("expected migrate to reject the memory store")
	}
}

func TestDoctorCmd(t *testing.T) {
	ctx, out, _, cleanup := setupTestInitDB(t)
	defer cleanup()

	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	out.Reset()
	if err := (&DoctorCmd{}).Run(ctx); err != nil {
		t.Fatalf("doctor failed: %v\n%s", err, out.String())
	}
	got := out.String()
	for _, want := range []string{"✓ Database reachable: OK", "✓ Schema version: OK", "✓ Migrations complete: OK", "⚠ Backups present: WARNING", "All diagnostics passed!"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected output to contain %q, got %q", want, got)
		}
	}
}

func TestDoctorCmd_Unreachable(t *testing.T) {
	ctx, out, _, cleanup := setupTestInitDB(t)
	defer cleanup()

	if err := (&DoctorCmd{}).Run(ctx); err == nil {
		t.Error("expected doctor to fail on an uninitialized database")
	}
	if !strings.Contains(out.String(), "⊘ Schema version: SKIPPED") {
		t.Errorf("expected skipped checks, got %q", out.String())
	}
}

func newMemoryContext(t *testing.T) (*cli.Context, *bytes.Buffer) {
	store := memory.New()
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	out := &bytes.Buffer{}
	return &cli.Context{
		Store:   store,
		Tracker: tracker.New(store, tracker.WithClock(func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) })),
		Out:     out,
	}, out
}

func TestValidateCmd(t *testing.T) {
	ctx, out := newMemoryContext(t)

	if err := (&ValidateCmd{}).Run(ctx); err != nil {
		t.Fatalf("validate failed on an empty store: %v", err)
	}
	if !strings.Contains(out.String(), "No conflicts detected.") {
		t.Errorf("unexpected output: %q", out.String())
	}

	for i := 0; i < 2; i++ {
		if _, err := ctx.T().CreateTask(tracker.TaskInput{
			Title:           "Standup",
			Category:        "work",
			Recurrence:      models.Recurrence{Type: constants.RecurrenceDaily},
			CompletionTimes: []string{"09:00"},
		}); err != nil {
			t.Fatalf("failed to create task: %v", err)
		}
	}

	out.Reset()
	if err := (&ValidateCmd{}).Run(ctx); err == nil {
		t.Error("expected validate to fail with duplicate titles")
	}
	if !strings.Contains(out.String(), "Duplicate task title") || !strings.Contains(out.String(), string(constants.ConflictDuplicateTaskTitle)) {
		t.Errorf("unexpected output: %q", out.String())
	}
}

func TestNotifyCmd_Disabled(t *testing.T) {
	ctx, out := newMemoryContext(t)
	settings, _ := ctx.Store.GetSettings()
	settings.NotificationsEnabled = false
	if err := ctx.Store.SaveSettings(settings); err != nil {
		t.Fatalf("failed to save settings: %v", err)
	}

	if err := (&NotifyCmd{}).Run(ctx); err != nil {
		t.Fatalf("notify failed: %v", err)
	}
	if !strings.Contains(out.String(), "Notifications are disabled") {
		t.Errorf("unexpected output: %q", out.String())
	}
}

func TestNotifyCmd_DryRunNothingDue(t *testing.T) {
	ctx, out := newMemoryContext(t)

	if err := (&NotifyCmd{DryRun: true}).Run(ctx); err != nil {
		t.Fatalf("notify failed: %v", err)
	}
	if !strings.Contains(out.String(), "No reminders due.") {
		t.Errorf("unexpected output: %q", out.String())
	}
}

func TestDebugDumpTaskCmd(t *testing.T) {
	ctx, out := newMemoryContext(t)
	task, err := ctx.T().CreateTask(tracker.TaskInput{
		Title:           "Standup",
		Category:        "work",
		Recurrence:      models.Recurrence{Type: constants.RecurrenceDaily},
		CompletionTimes: []string{"09:00"},
	})
	if err != nil {
		t.Fatalf("failed to create task: %v", err)
	}

	if err := (&DebugDumpTaskCmd{ID: cli.ShortID(task.ID)}).Run(ctx); err != nil {
		t.Fatalf("dump task failed: %v", err)
	}
	if !strings.Contains(out.String(), `"id": "`+task.ID+`"`) {
		t.Errorf("unexpected output: %q", out.String())
	}
}
