package scheduler

import (
	"testing"
	"time"

	"github.com/julianstephens/ticktask/internal/constants"
	"github.com/julianstephens/ticktask/internal/models"
)

var day = time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC) // Monday

func at(h, m int) time.Time {
	return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func task(id, title string, r models.Recurrence, times ...models.TimeOfDay) models.TaskDefinition {
	return models.TaskDefinition{
		ID:              id,
		Title:           title,
		Category:        "work",
		Recurrence:      r,
		CompletionTimes: times,
		Reminder:        models.ReminderRule{Type: constants.ReminderAdvanceByMinutes, Minutes: 15},
	}
}

func TestBuildAgendaSortsByEarliestUnmetTarget(t *testing.T) {
	daily := models.Recurrence{Type: constants.RecurrenceDaily}
	tasks := []models.TaskDefinition{
		task("evening", "Evening review", daily, models.TimeOfDay{Hour: 18}),
		task("morning", "Morning run", daily, models.TimeOfDay{Hour: 7}),
		task("noon-b", "B lunch walk", daily, models.TimeOfDay{Hour: 12}),
		task("noon-a", "A lunch stretch", daily, models.TimeOfDay{Hour: 12}),
		task("done", "Already done", daily, models.TimeOfDay{Hour: 8}),
		task("tuesday", "Tuesday only", models.Recurrence{Type: constants.RecurrenceWeekly, Weekday: time.Tuesday}, models.TimeOfDay{Hour: 9}),
	}
	completedAt := at(7, 55)
	records := map[string]models.CompletionRecord{
		models.RecordKey("done", "2024-05-06"): {TaskID: "done", Date: "2024-05-06", Completed: true, CompletedAt: &completedAt},
	}

	agenda, err := New().BuildAgenda(day, tasks, records, at(10, 0))
	if err != nil {
		t.Fatalf("BuildAgenda() error: %v", err)
	}

	wantOrder := []string{"morning", "noon-a", "noon-b", "evening", "done"}
	if len(agenda.Items) != len(wantOrder) {
		t.Fatalf("BuildAgenda() returned %d items, want %d", len(agenda.Items), len(wantOrder))
	}
	for i, id := range wantOrder {
		if agenda.Items[i].Task.ID != id {
			t.Errorf("item %d = %s, want %s", i, agenda.Items[i].Task.ID, id)
		}
	}

	if agenda.Items[0].Status != constants.StatusMissed {
		t.Errorf("morning status = %s, want missed", agenda.Items[0].Status)
	}
	if agenda.Items[4].Status != constants.StatusCompleted {
		t.Errorf("done status = %s, want completed", agenda.Items[4].Status)
	}

	want := Counts{Total: 5, Completed: 1, Pending: 3, Missed: 1}
	if agenda.Counts != want {
		t.Errorf("Counts = %+v, want %+v", agenda.Counts, want)
	}
}

func TestBuildAgendaNextReminder(t *testing.T) {
	tasks := []models.TaskDefinition{
		task("evening", "Evening review", models.Recurrence{Type: constants.RecurrenceDaily}, models.TimeOfDay{Hour: 18}),
	}

	agenda, err := New().BuildAgenda(day, tasks, nil, at(10, 0))
	if err != nil {
		t.Fatalf("BuildAgenda() error: %v", err)
	}
	next := agenda.Items[0].NextReminderInstant
	if next == nil || !next.Equal(at(17, 45)) {
		t.Errorf("NextReminderInstant = %v, want 17:45", next)
	}

	agenda, err = New().BuildAgenda(day, tasks, nil, at(17, 50))
	if err != nil {
		t.Fatalf("BuildAgenda() error: %v", err)
	}
	if agenda.Items[0].NextReminderInstant != nil {
		t.Errorf("NextReminderInstant = %v, want nil once the window opened", agenda.Items[0].NextReminderInstant)
	}
}

func TestBuildAgendaSkipsDeleted(t *testing.T) {
	deletedAt := "2024-05-01T00:00:00Z"
	gone := task("gone", "Gone", models.Recurrence{Type: constants.RecurrenceDaily}, models.TimeOfDay{Hour: 9})
	gone.DeletedAt = &deletedAt

	agenda, err := New().BuildAgenda(day, []models.TaskDefinition{gone}, nil, at(8, 0))
	if err != nil {
		t.Fatalf("BuildAgenda() error: %v", err)
	}
	if len(agenda.Items) != 0 {
		t.Errorf("expected deleted task to be skipped, got %d items", len(agenda.Items))
	}
}

func TestMonthView(t *testing.T) {
	tasks := []models.TaskDefinition{
		task("monthly", "Pay rent", models.Recurrence{Type: constants.RecurrenceMonthly, DayOfMonth: 31}, models.TimeOfDay{Hour: 9}),
		task("weekly", "Team sync", models.Recurrence{Type: constants.RecurrenceWeekly, Weekday: time.Monday}, models.TimeOfDay{Hour: 10}),
	}

	days, err := New().MonthView(time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC), tasks, nil, at(0, 0))
	if err != nil {
		t.Fatalf("MonthView() error: %v", err)
	}
	// April 2024 has no 31st; Mondays are 1, 8, 15, 22, 29
	if len(days) != 5 {
		t.Fatalf("MonthView() = %d days, want 5", len(days))
	}
	if days[0].Date != "2024-04-01" || days[4].Date != "2024-04-29" {
		t.Errorf("unexpected days %s..%s", days[0].Date, days[4].Date)
	}
}

func TestParseDate(t *testing.T) {
	now := time.Date(2024, 5, 6, 23, 30, 0, 0, time.UTC)
	loc := time.FixedZone("UTC+8", 8*3600)

	d, err := ParseDate("", now, loc)
	if err != nil {
		t.Fatalf("ParseDate() error: %v", err)
	}
	if d.Format(constants.DateFormat) != "2024-05-07" {
		t.Errorf("ParseDate(\"\") = %v, want local today 2024-05-07", d)
	}

	if _, err := ParseDate("05/06/2024", now, loc); err == nil {
		t.Error("expected error for malformed date")
	}
}
