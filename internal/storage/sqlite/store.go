package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/ticktask/internal/logger"
	"github.com/julianstephens/ticktask/internal/migration"
	"github.com/julianstephens/ticktask/internal/models"
	"github.com/julianstephens/ticktask/internal/storage"
	"github.com/julianstephens/ticktask/migrations"
)

type Store struct {
	path string
	db   *sql.DB
}

var _ storage.Provider = (*Store)(nil)

func NewStore(path string) *Store {
	return &Store{
		path: path,
	}
}

func (s *Store) open() error {
	// Concurrent writers (CLI and reminder loop) wait instead of failing with SQLITE_BUSY
	db, err := sql.Open("sqlite", s.path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	s.db = db
	return nil
}

func (s *Store) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if s.db == nil {
		if err := s.open(); err != nil {
			return err
		}
	}

	if err := s.runMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if _, err := s.GetSettings(); err != nil {
		if err := s.SaveSettings(models.DefaultSettings()); err != nil {
			return fmt.Errorf("failed to save default settings: %w", err)
		}
	}

	types, err := s.GetTaskTypes()
	if err != nil {
		return fmt.Errorf("failed to read task types: %w", err)
	}
	if len(types) == 0 {
		for _, tt := range models.DefaultTaskTypes() {
			if err := s.SaveTaskType(tt); err != nil {
				return fmt.Errorf("failed to seed task type %s: %w", tt.Key, err)
			}
		}
	}

	return nil
}

func (s *Store) Load() error {
	if s.db != nil {
		return nil
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return storage.ErrNotInitialized
	}

	if err := s.open(); err != nil {
		return err
	}

	return s.validateSchemaVersion()
}

func (s *Store) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

func (s *Store) runner() *migration.Runner {
	return migration.NewRunner(s.db, migrations.SQLite(), migration.DriverSQLite)
}

func (s *Store) runMigrations() error {
	_, err := s.runner().ApplyMigrations(context.Background(), func(msg string) {
		logger.Info(msg)
	})
	return err
}

func (s *Store) validateSchemaVersion() error {
	return s.runner().ValidateVersion(context.Background())
}

// SchemaVersion reports the applied and the latest known schema versions.
func (s *Store) SchemaVersion(ctx context.Context) (current, latest int, err error) {
	r := s.runner()
	if current, err = r.GetCurrentVersion(ctx); err != nil {
		return 0, 0, err
	}
	latest, err = r.GetLatestVersion()
	return current, latest, err
}

// PendingMigrations counts the migrations not yet applied.
func (s *Store) PendingMigrations(ctx context.Context) (int, error) {
	return s.runner().Pending(ctx)
}

// Migrate applies pending migrations to an already loaded database.
func (s *Store) Migrate(ctx context.Context, logFn func(string)) (int, error) {
	return s.runner().ApplyMigrations(ctx, logFn)
}

func (s *Store) GetConfigPath() string {
	return s.path
}

// GetDB returns the underlying database connection.
// Returns nil until Init or Load succeeds.
func (s *Store) GetDB() *sql.DB {
	return s.db
}

func (s *Store) Ledger() storage.Ledger {
	return &ledger{db: s.db}
}
