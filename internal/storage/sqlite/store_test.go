package sqlite

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/julianstephens/ticktask/internal/storage"
	"github.com/julianstephens/ticktask/internal/storage/storagetest"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to initialize test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestProvider(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Provider {
		return setupTestStore(t)
	})
}

func TestLoadUninitialized(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing.db"))
	if err := store.Load(); !errors.Is(err, storage.ErrNotInitialized) {
		t.Errorf("Load() error = %v, want ErrNotInitialized", err)
	}
}

func TestReopenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	store := NewStore(path)
	if err := store.Init(); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	if err := store.AddTask(storagetest.SampleTask("task-1", "Persisted")); err != nil {
		t.Fatalf("AddTask() error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	reopened := NewStore(path)
	if err := reopened.Load(); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	defer reopened.Close()

	task, err := reopened.GetTask("task-1")
	if err != nil {
		t.Fatalf("GetTask() error: %v", err)
	}
	if task.Title != "Persisted" {
		t.Errorf("GetTask() title = %q", task.Title)
	}
	if reopened.GetConfigPath() != path {
		t.Errorf("GetConfigPath() = %q, want %q", reopened.GetConfigPath(), path)
	}
}

func TestLoadRejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	store := NewStore(path)
	if err := store.Init(); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	if _, err := store.GetDB().Exec("UPDATE schema_version SET version = 999"); err != nil {
		t.Fatalf("failed to bump version: %v", err)
	}
	store.Close()

	if err := NewStore(path).Load(); err == nil {
		t.Error("Load() should fail for a schema newer than the binary")
	}
}
