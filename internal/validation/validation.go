package validation

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hay-kot/criterio"

	"github.com/julianstephens/ticktask/internal/categories"
	"github.com/julianstephens/ticktask/internal/constants"
	"github.com/julianstephens/ticktask/internal/models"
	"github.com/julianstephens/ticktask/internal/utils"
)

// Definition validates def and checks that its category exists in reg.
// Field errors are reported together, wrapped in models.ErrValidation.
func Definition(def models.TaskDefinition, reg *categories.Registry) error {
	var fieldErrs criterio.FieldErrors

	if err := def.Validate(); err != nil {
		if !errors.As(err, &fieldErrs) {
			return err
		}
	}

	if reg != nil {
		if err := criterio.Run("category", def.Category, func(key string) error {
			if key == "" {
				return fmt.Errorf("is required")
			}
			if !reg.Has(key) {
				return fmt.Errorf("unknown category %q", key)
			}
			return nil
		}); err != nil {
			var catErrs criterio.FieldErrors
			if errors.As(err, &catErrs) {
				fieldErrs = append(fieldErrs, catErrs...)
			}
		}
	}

	if len(fieldErrs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", models.ErrValidation, fieldErrs)
}

// Conflict represents a problem detected across the stored task set
type Conflict struct {
	Type        constants.ConflictType
	Description string
	Items       []string // Task titles or category keys involved
	TaskIDs     []string
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict
}

// HasConflicts returns true if there are any conflicts
func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No conflicts detected."
	}

	var b strings.Builder
	b.WriteString("Conflicts detected:\n")
	for _, conflict := range vr.Conflicts {
		fmt.Fprintf(&b, "- %s\n", conflict.Description)
	}
	return b.String()
}

// Validator checks a stored task set for conflicts
type Validator struct {
	registry *categories.Registry
}

// New creates a Validator checking categories against reg
func New(reg *categories.Registry) *Validator {
	return &Validator{registry: reg}
}

// ValidateTasks checks every live definition. Deleted tasks are ignored.
func (v *Validator) ValidateTasks(tasks []models.TaskDefinition) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}

	titles := make(map[string][]string)
	var titleOrder []string

	for _, task := range tasks {
		if task.IsDeleted() {
			continue
		}

		if err := task.Validate(); err != nil {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        constants.ConflictInvalidDefinition,
				Description: fmt.Sprintf("Task \"%s\" is invalid: %v", task.Title, err),
				Items:       []string{task.Title},
				TaskIDs:     []string{task.ID},
			})
		} else if !utils.CanEverOccur(task.Recurrence) {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        constants.ConflictUnreachableDay,
				Description: fmt.Sprintf("Task \"%s\" recurs %s, which never occurs", task.Title, task.Recurrence),
				Items:       []string{task.Title},
				TaskIDs:     []string{task.ID},
			})
		}

		if v.registry != nil && task.Category != "" && !v.registry.Has(task.Category) {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        constants.ConflictDanglingCategory,
				Description: fmt.Sprintf("Task \"%s\" references removed category %q", task.Title, task.Category),
				Items:       []string{task.Category},
				TaskIDs:     []string{task.ID},
			})
		}

		key := strings.ToLower(strings.TrimSpace(task.Title))
		if key == "" {
			continue
		}
		if _, ok := titles[key]; !ok {
			titleOrder = append(titleOrder, key)
		}
		titles[key] = append(titles[key], task.ID)
	}

	sort.Strings(titleOrder)
	for _, key := range titleOrder {
		ids := titles[key]
		if len(ids) > 1 {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        constants.ConflictDuplicateTaskTitle,
				Description: fmt.Sprintf("Duplicate task title: \"%s\" (IDs: %v)", key, ids),
				Items:       []string{key},
				TaskIDs:     ids,
			})
		}
	}

	return result
}

// CategoryUsage counts live tasks per category key.
func CategoryUsage(tasks []models.TaskDefinition) map[string]int {
	usage := make(map[string]int)
	for _, task := range tasks {
		if !task.IsDeleted() {
			usage[task.Category]++
		}
	}
	return usage
}
