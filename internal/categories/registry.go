// Package categories holds the task type registry. A Registry is an immutable
// snapshot; Add and Remove return a new snapshot and leave the receiver untouched,
// so a registry can be shared between goroutines without locking.
package categories

import (
	"fmt"
	"sort"

	"github.com/julianstephens/ticktask/internal/models"
)

type Registry struct {
	types []models.TaskType
	index map[string]int
}

// New builds a registry from types, rejecting invalid or colliding entries.
func New(types ...models.TaskType) (*Registry, error) {
	r := &Registry{index: make(map[string]int, len(types))}
	for _, tt := range types {
		if err := tt.Validate(); err != nil {
			return nil, err
		}
		if _, ok := r.index[tt.Key]; ok {
			return nil, fmt.Errorf("%w: %q", models.ErrDuplicateCategoryKey, tt.Key)
		}
		r.index[tt.Key] = len(r.types)
		r.types = append(r.types, tt)
	}
	return r, nil
}

// Default returns the built-in registry.
func Default() *Registry {
	r, err := New(models.DefaultTaskTypes()...)
	if err != nil {
		panic(err)
	}
	return r
}

// Add returns a snapshot containing a new type derived from the labels.
func (r *Registry) Add(labelEn, labelZh string) (*Registry, models.TaskType, error) {
	tt, err := models.NewTaskType(labelEn, labelZh)
	if err != nil {
		return r, models.TaskType{}, err
	}
	if r.Has(tt.Key) {
		return r, models.TaskType{}, fmt.Errorf("%w: %q", models.ErrDuplicateCategoryKey, tt.Key)
	}

	types := make([]models.TaskType, 0, len(r.types)+1)
	types = append(types, r.types...)
	types = append(types, tt)
	next, err := New(types...)
	if err != nil {
		return r, models.TaskType{}, err
	}
	return next, tt, nil
}

// Remove returns a snapshot without key. It reports false when key is not registered.
func (r *Registry) Remove(key string) (*Registry, bool) {
	if !r.Has(key) {
		return r, false
	}
	types := make([]models.TaskType, 0, len(r.types)-1)
	for _, tt := range r.types {
		if tt.Key != key {
			types = append(types, tt)
		}
	}
	next, _ := New(types...)
	return next, true
}

func (r *Registry) Has(key string) bool {
	_, ok := r.index[key]
	return ok
}

func (r *Registry) Lookup(key string) (models.TaskType, bool) {
	i, ok := r.index[key]
	if !ok {
		return models.TaskType{}, false
	}
	return r.types[i], true
}

// List returns a copy of the registered types in insertion order.
func (r *Registry) List() []models.TaskType {
	out := make([]models.TaskType, len(r.types))
	copy(out, r.types)
	return out
}

// Keys returns the registered keys sorted alphabetically.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.types))
	for _, tt := range r.types {
		keys = append(keys, tt.Key)
	}
	sort.Strings(keys)
	return keys
}

func (r *Registry) Len() int {
	return len(r.types)
}

// Label resolves the display label of key, falling back to the raw key for
// references the registry no longer knows.
func (r *Registry) Label(key, lang string) string {
	if tt, ok := r.Lookup(key); ok {
		return tt.Label(lang)
	}
	return key
}
