package validation

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hay-kot/criterio"

	"github.com/julianstephens/ticktask/internal/categories"
	"github.com/julianstephens/ticktask/internal/constants"
	"github.com/julianstephens/ticktask/internal/models"
)

func validTask(id, title, category string) models.TaskDefinition {
	return models.TaskDefinition{
		ID:              id,
		Title:           title,
		Category:        category,
		Recurrence:      models.Recurrence{Type: constants.RecurrenceWeekly, Weekday: time.Friday},
		CompletionTimes: []models.TimeOfDay{{Hour: 17, Minute: 30}},
		Reminder:        models.ReminderRule{Type: constants.ReminderAdvanceByMinutes, Minutes: 30},
	}
}

func TestDefinition(t *testing.T) {
	reg := categories.Default()

	tests := []struct {
		name       string
		mutate     func(*models.TaskDefinition)
		wantFields []string
	}{
		{
			name:   "valid",
			mutate: func(*models.TaskDefinition) {},
		},
		{
			name:       "unknown category",
			mutate:     func(d *models.TaskDefinition) { d.Category = "gardening" },
			wantFields: []string{"category"},
		},
		{
			name:       "missing category",
			mutate:     func(d *models.TaskDefinition) { d.Category = "" },
			wantFields: []string{"category"},
		},
		{
			name: "structural and category errors together",
			mutate: func(d *models.TaskDefinition) {
				d.Title = " "
				d.Category = "gardening"
			},
			wantFields: []string{"title", "category"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := validTask("t1", "Weekly report", "work")
			tt.mutate(&def)

			err := Definition(def, reg)
			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("Definition() error = %v, want nil", err)
				}
				return
			}

			if !errors.Is(err, models.ErrValidation) {
				t.Fatalf("Definition() error = %v, want ErrValidation", err)
			}
			var fieldErrs criterio.FieldErrors
			if !errors.As(err, &fieldErrs) {
				t.Fatalf("Definition() error is not FieldErrors: %v", err)
			}
			got := make(map[string]bool)
			for _, fe := range fieldErrs {
				got[fe.Field] = true
			}
			for _, f := range tt.wantFields {
				if !got[f] {
					t.Errorf("missing field error for %q in %v", f, err)
				}
			}
		})
	}
}

func TestDefinitionWithoutRegistry(t *testing.T) {
	def := validTask("t1", "Weekly report", "anything")
	if err := Definition(def, nil); err != nil {
		t.Errorf("Definition() without registry error = %v", err)
	}
}

func TestValidateTasks(t *testing.T) {
	reg, _ := categories.Default().Remove("other")

	deletedAt := "2024-01-01T00:00:00Z"
	deletedDup := validTask("t4", "Weekly report", "work")
	deletedDup.DeletedAt = &deletedAt

	broken := validTask("t5", "Broken", "work")
	broken.CompletionTimes = nil

	tasks := []models.TaskDefinition{
		validTask("t1", "Weekly report", "work"),
		validTask("t2", "weekly REPORT ", "work"),
		validTask("t3", "Tidy desk", "other"),
		deletedDup,
		broken,
	}

	result := New(reg).ValidateTasks(tasks)
	if !result.HasConflicts() {
		t.Fatal("expected conflicts")
	}

	byType := make(map[constants.ConflictType][]Conflict)
	for _, c := range result.Conflicts {
		byType[c.Type] = append(byType[c.Type], c)
	}

	if dups := byType[constants.ConflictDuplicateTaskTitle]; len(dups) != 1 || len(dups[0].TaskIDs) != 2 {
		t.Errorf("duplicate title conflicts = %+v, want one covering t1 and t2", dups)
	}
	if dangling := byType[constants.ConflictDanglingCategory]; len(dangling) != 1 || dangling[0].TaskIDs[0] != "t3" {
		t.Errorf("dangling category conflicts = %+v, want t3", dangling)
	}
	if invalid := byType[constants.ConflictInvalidDefinition]; len(invalid) != 1 || invalid[0].TaskIDs[0] != "t5" {
		t.Errorf("invalid definition conflicts = %+v, want t5", invalid)
	}

	report := result.FormatReport()
	if !strings.HasPrefix(report, "Conflicts detected:") {
		t.Errorf("FormatReport() = %q", report)
	}
}

func TestValidateTasksClean(t *testing.T) {
	result := New(categories.Default()).ValidateTasks([]models.TaskDefinition{validTask("t1", "Weekly report", "work")})
	if result.HasConflicts() {
		t.Errorf("unexpected conflicts: %s", result.FormatReport())
	}
	if result.FormatReport() != "No conflicts detected." {
		t.Errorf("FormatReport() = %q", result.FormatReport())
	}
}

func TestCategoryUsage(t *testing.T) {
	deletedAt := "2024-01-01T00:00:00Z"
	gone := validTask("t3", "Gone", "health")
	gone.DeletedAt = &deletedAt

	usage := CategoryUsage([]models.TaskDefinition{
		validTask("t1", "A", "work"),
		validTask("t2", "B", "work"),
		gone,
	})
	if usage["work"] != 2 || usage["health"] != 0 {
		t.Errorf("CategoryUsage() = %v", usage)
	}
}
