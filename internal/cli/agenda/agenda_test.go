package agenda

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/ticktask/internal/cli"
	"github.com/julianstephens/ticktask/internal/constants"
	"github.com/julianstephens/ticktask/internal/models"
	"github.com/julianstephens/ticktask/internal/storage/memory"
	"github.com/julianstephens/ticktask/internal/tracker"
)

// 2024-05-01 is a Wednesday.
var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func setupTestContext(t *testing.T) (*cli.Context, *bytes.Buffer) {
	store := memory.New()
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
	return &cli.Context{
		Store:   store,
		Tracker: tracker.New(store, tracker.WithClock(func() time.Time { return testNow })),
		Out:     out,
	}, out
}

func mustCreate(t *testing.T, ctx *cli.Context, title string, rec models.Recurrence, times ...string) models.TaskDefinition {
	t.Helper()
	task, err := ctx.T().CreateTask(tracker.TaskInput{
		Title:           title,
		Category:        "work",
		Recurrence:      rec,
		CompletionTimes: times,
	})
	if err != nil {
		t.Fatalf("failed to create task: %v", err)
	}
	return task
}

func TestTodayCmd(t *testing.T) {
	ctx, out := setupTestContext(t)
	daily := models.Recurrence{Type: constants.RecurrenceDaily}
	mustCreate(t, ctx, "Standup", daily, "09:00")
	mustCreate(t, ctx, "Review", daily, "17:00")
	mustCreate(t, ctx, "Friday demo", models.Recurrence{Type: constants.RecurrenceWeekly, Weekday: time.Friday}, "15:00")

	if err := (&TodayCmd{}).Run(ctx); err != nil {
		t.Fatalf("today failed: %v", err)
	}
	got := out.String()
	for _, want := range []string{"Agenda for 2024-05-01", "Standup", "Missed", "Review", "Pending", "2 total: 0 Completed, 1 Pending, 1 Missed"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected output to contain %q, got %q", want, got)
		}
	}
	if strings.Contains(got, "Friday demo") {
		t.Error("weekly task should not appear on a Wednesday")
	}
}

func TestTodayCmd_EmptyAndInvalid(t *testing.T) {
	ctx, out := setupTestContext(t)

	if err := (&TodayCmd{Date: "2024-05-02"}).Run(ctx); err != nil {
		t.Fatalf("today failed: %v", err)
	}
	if !strings.Contains(out.String(), "Nothing scheduled.") {
		t.Errorf("unexpected output: %q", out.String())
	}

	if err := (&TodayCmd{Date: "05/02/2024"}).Run(ctx); err == nil {
		t.Error("expected error for malformed date")
	}
}

func TestCompleteAndUndo(t *testing.T) {
	ctx, out := setupTestContext(t)
	task := mustCreate(t, ctx, "Standup", models.Recurrence{Type: constants.RecurrenceDaily}, "09:00")

	if err := (&CompleteCmd{ID: cli.ShortID(task.ID)}).Run(ctx); err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if !strings.Contains(out.String(), "Completed Standup on 2024-05-01 (at 12:00)") {
		t.Errorf("unexpected output: %q", out.String())
	}

	out.Reset()
	if err := (&TodayCmd{}).Run(ctx); err != nil {
		t.Fatalf("today failed: %v", err)
	}
	if !strings.Contains(out.String(), "1 total: 1 Completed") {
		t.Errorf("expected completed agenda, got %q", out.String())
	}

	out.Reset()
	if err := (&UndoCmd{ID: task.ID}).Run(ctx); err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	if !strings.Contains(out.String(), "Cleared completion of Standup on 2024-05-01") {
		t.Errorf("unexpected output: %q", out.String())
	}

	out.Reset()
	if err := (&HistoryCmd{ID: task.ID}).Run(ctx); err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(out.String(), "complete") || !strings.Contains(out.String(), "undo") {
		t.Errorf("expected both toggles in history, got %q", out.String())
	}
}

func TestCompleteCmd_NotAnOccurrence(t *testing.T) {
	ctx, _ := setupTestContext(t)
	task := mustCreate(t, ctx, "Friday demo", models.Recurrence{Type: constants.RecurrenceWeekly, Weekday: time.Friday}, "15:00")

	if err := (&CompleteCmd{ID: task.ID, Date: "2024-05-01"}).Run(ctx); err == nil {
		t.Error("expected error completing a date the task does not occur on")
	}
	if err := (&CompleteCmd{ID: task.ID, Date: "2024-05-03"}).Run(ctx); err != nil {
		t.Errorf("complete on a Friday failed: %v", err)
	}
}

func TestCalendarCmd(t *testing.T) {
	ctx, out := setupTestContext(t)
	mustCreate(t, ctx, "Standup", models.Recurrence{Type: constants.RecurrenceDaily}, "09:00")

	if err := (&CalendarCmd{Month: "2024-02"}).Run(ctx); err != nil {
		t.Fatalf("calendar failed: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "February 2024") || !strings.Contains(got, "29 0/1") {
		t.Errorf("unexpected calendar output: %q", got)
	}

	if err := (&CalendarCmd{Month: "2024-13"}).Run(ctx); err == nil {
		t.Error("expected error for invalid month")
	}
}
