package system

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/ticktask/internal/backup"
	"github.com/julianstephens/ticktask/internal/cli"
	"github.com/julianstephens/ticktask/internal/storage/sqlite"
	"github.com/julianstephens/ticktask/internal/utils"
)

// schemaReporter is implemented by the SQL-backed stores.
type schemaReporter interface {
	SchemaVersion(ctx context.Context) (current, latest int, err error)
	PendingMigrations(ctx context.Context) (int, error)
}

type DoctorCmd struct{}

type check struct {
	name string
	// needsDB checks are skipped when the database cannot be reached.
	needsDB bool
	// warnOnly failures do not fail the command.
	warnOnly bool
	run      func(*cli.Context) error
}

var checks = []check{
	{name: "Schema version", needsDB: true, run: checkSchemaVersion},
	{name: "Migrations complete", needsDB: true, run: checkMigrationsComplete},
	{name: "Backups present", warnOnly: true, run: checkBackupsPresent},
	{name: "Task definitions", needsDB: true, run: checkValidation},
	{name: "Clock", run: checkClock},
	{name: "Timezone", needsDB: true, run: checkTimezone},
	{name: "Config file", run: checkConfig},
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	hasError := false
	dbReachable := true
	if err := checkDBReachable(ctx); err != nil {
		ctx.Printf("❌ Database reachable: FAIL\n")
		ctx.Printf("   Error: %v\n", err)
		hasError = true
		dbReachable = false
	} else {
		ctx.Printf("✓ Database reachable: OK\n")
	}

	for _, c := range checks {
		if c.needsDB && !dbReachable {
			ctx.Printf("⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx)
		switch {
		case err == nil:
			ctx.Printf("✓ %s: OK\n", c.name)
		case c.warnOnly:
			ctx.Printf("⚠ %s: WARNING\n", c.name)
			ctx.Printf("   %v\n", err)
		default:
			ctx.Printf("❌ %s: FAIL\n", c.name)
			ctx.Printf("   Error: %v\n", err)
			hasError = true
		}
	}

	ctx.Println()
	if hasError {
		ctx.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}
	ctx.Println("All diagnostics passed!")
	return nil
}

func checkDBReachable(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}
	if s, ok := ctx.Store.(*sqlite.Store); ok {
		db := s.GetDB()
		if db == nil {
			return fmt.Errorf("database connection is nil")
		}
		var result int
		if err := db.QueryRow("SELECT 1").Scan(&result); err != nil {
			return fmt.Errorf("failed to query database: %w", err)
		}
	}
	return nil
}

func checkSchemaVersion(ctx *cli.Context) error {
	r, ok := ctx.Store.(schemaReporter)
	if !ok {
		return nil
	}
	current, latest, err := r.SchemaVersion(context.Background())
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}
	if current > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	}
	return nil
}

func checkMigrationsComplete(ctx *cli.Context) error {
	r, ok := ctx.Store.(schemaReporter)
	if !ok {
		return nil
	}
	pending, err := r.PendingMigrations(context.Background())
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}
	if pending > 0 {
		return fmt.Errorf("migrations incomplete: %d pending (run 'ticktask migrate')", pending)
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	if _, ok := ctx.Store.(*sqlite.Store); !ok {
		return nil
	}
	backups, err := backup.NewManager(ctx.Store.GetConfigPath()).ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found - consider creating one with 'ticktask backup create'")
	}
	return nil
}

func checkValidation(ctx *cli.Context) error {
	res, err := ctx.T().Validate()
	if err != nil {
		return err
	}
	if res.HasConflicts() {
		return fmt.Errorf("%d conflict(s) found - run 'ticktask validate' for details", len(res.Conflicts))
	}
	return nil
}

func checkClock(*cli.Context) error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	return nil
}

func checkTimezone(ctx *cli.Context) error {
	settings, err := ctx.T().Settings()
	if err != nil {
		return err
	}
	if _, err := utils.LocationFromSettings(settings); err != nil {
		return fmt.Errorf("timezone %q cannot be loaded: %w", settings.Timezone, err)
	}
	return nil
}

func checkConfig(ctx *cli.Context) error {
	return ctx.Cfg().Validate()
}
