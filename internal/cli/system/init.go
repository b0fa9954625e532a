package system

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/julianstephens/ticktask/internal/cli"
	"github.com/julianstephens/ticktask/internal/models"
	"github.com/julianstephens/ticktask/internal/storage"
	"github.com/julianstephens/ticktask/internal/storage/postgres"
	"github.com/julianstephens/ticktask/internal/storage/sqlite"
)

type InitCmd struct {
	Force  bool   `help:"Force reset by deleting existing database before initialization."`
	Source string `help:"Source database path or connection string to copy data from."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		if err := c.reset(ctx); err != nil {
			return err
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	ctx.Printf("Initialized ticktask storage at: %s\n", ctx.Store.GetConfigPath())

	if c.Source != "" {
		ctx.Printf("Copying data from: %s\n", c.Source)
		if err := c.copyData(ctx, c.Source); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		ctx.Println("Migration completed successfully!")
	}
	return nil
}

// reset deletes an existing SQLite database file. Other backends are left alone.
func (c *InitCmd) reset(ctx *cli.Context) error {
	if _, ok := ctx.Store.(*sqlite.Store); !ok {
		return fmt.Errorf("--force only supports SQLite storage")
	}
	dbPath := ctx.Store.GetConfigPath()
	if abs, err := filepath.Abs(dbPath); err == nil {
		dbPath = abs
	}
	if c.Source != "" {
		if absSource, err := filepath.Abs(c.Source); err == nil && absSource == dbPath {
			return fmt.Errorf("cannot use --force when source and destination are the same: %s", dbPath)
		}
	}

	if _, err := os.Stat(dbPath); err == nil {
		if err := ctx.Store.Close(); err != nil {
			return fmt.Errorf("failed to close existing database: %w", err)
		}
		if err := os.Remove(dbPath); err != nil {
			return fmt.Errorf("failed to delete existing database: %w", err)
		}
		ctx.Printf("Deleted existing database at: %s\n", dbPath)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to access existing database: %w", err)
	}
	return nil
}

func openSource(source string) (storage.Provider, error) {
	if postgres.IsConnString(source) {
		if valid, err := postgres.ValidateConnString(source); !valid {
			if errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return nil, fmt.Errorf("PostgreSQL source connection string contains embedded credentials. Use environment variables or .pgpass instead")
			}
			return nil, err
		}
		return postgres.New(source), nil
	}
	return sqlite.NewStore(source), nil
}

func (c *InitCmd) copyData(ctx *cli.Context, source string) error {
	src, err := openSource(source)
	if err != nil {
		return err
	}
	if err := src.Load(); err != nil {
		return fmt.Errorf("failed to load source database: %w", err)
	}
	defer func() { _ = src.Close() }()

	return copyStore(context.Background(), ctx, src, ctx.Store)
}

// copyStore copies every record of src into dst. Completion history is replayed event
// by event so dst ends with the same state and the same toggles.
func copyStore(bg context.Context, ctx *cli.Context, src, dst storage.Provider) error {
	ctx.Println("  Migrating settings...")
	settings, err := src.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings from source: %w", err)
	}
	if err := dst.SaveSettings(settings); err != nil {
		return fmt.Errorf("failed to save settings to destination: %w", err)
	}

	ctx.Println("  Migrating task types...")
	types, err := src.GetTaskTypes()
	if err != nil {
		return fmt.Errorf("failed to get task types from source: %w", err)
	}
	for _, tt := range types {
		if err := dst.SaveTaskType(tt); err != nil {
			return fmt.Errorf("failed to save task type %s: %w", tt.Key, err)
		}
	}
	ctx.Printf("    Migrated %d task types\n", len(types))

	ctx.Println("  Migrating tasks...")
	tasks, err := src.GetAllTasksIncludingDeleted()
	if err != nil {
		return fmt.Errorf("failed to get tasks from source: %w", err)
	}
	for _, task := range tasks {
		if err := dst.AddTask(task); err != nil {
			return fmt.Errorf("failed to add task %s: %w", task.ID, err)
		}
	}
	ctx.Printf("    Migrated %d tasks\n", len(tasks))

	ctx.Println("  Migrating completions...")
	records, err := src.Ledger().GetCompletionsInRange(bg, "0000-01-01", "9999-12-31")
	if err != nil {
		return fmt.Errorf("failed to get completions from source: %w", err)
	}
	keys := make([]string, 0, len(records))
	for k := range records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := copyLedgerKey(bg, src.Ledger(), dst.Ledger(), records[k]); err != nil {
			return err
		}
	}
	ctx.Printf("    Migrated %d completion records\n", len(records))
	return nil
}

func copyLedgerKey(bg context.Context, src, dst storage.Ledger, rec models.CompletionRecord) error {
	events, err := src.GetCompletionEvents(bg, rec.TaskID, rec.Date)
	if err != nil {
		return fmt.Errorf("failed to get history of %s on %s: %w", rec.TaskID, rec.Date, err)
	}
	if len(events) == 0 {
		if !rec.Completed || rec.CompletedAt == nil {
			return nil
		}
		_, err := dst.RecordCompletion(bg, rec.TaskID, rec.Date, *rec.CompletedAt)
		return err
	}
	for _, ev := range events {
		switch ev.Action {
		case models.ActionComplete:
			_, err = dst.RecordCompletion(bg, rec.TaskID, rec.Date, ev.At)
		default:
			_, err = dst.ClearCompletion(bg, rec.TaskID, rec.Date, ev.At)
		}
		if err != nil {
			return fmt.Errorf("failed to replay history of %s on %s: %w", rec.TaskID, rec.Date, err)
		}
	}
	return nil
}
