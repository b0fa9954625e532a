package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/ticktask/internal/backup"
	"github.com/julianstephens/ticktask/internal/config"
	"github.com/julianstephens/ticktask/internal/logger"
	"github.com/julianstephens/ticktask/internal/models"
	"github.com/julianstephens/ticktask/internal/storage"
	"github.com/julianstephens/ticktask/internal/storage/sqlite"
	"github.com/julianstephens/ticktask/internal/tracker"
)

// Context is handed to every command's Run method.
type Context struct {
	Store   storage.Provider
	Config  *config.Config
	Tracker *tracker.Tracker

	// Out and In default to the process stdout and stdin.
	Out io.Writer
	In  io.Reader

	// AssumeYes skips confirmation prompts.
	AssumeYes bool
	// Color enables styled output. main turns it on for terminals.
	Color bool
}

// T returns the tracker, building one over Store on first use.
func (c *Context) T() *tracker.Tracker {
	if c.Tracker == nil {
		var opts []tracker.Option
		if c.Config != nil {
			opts = append(opts, tracker.WithSettingsOverlay(c.Config.Overlay))
		}
		c.Tracker = tracker.New(c.Store, opts...)
	}
	return c.Tracker
}

func (c *Context) Writer() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c *Context) Reader() io.Reader {
	if c.In == nil {
		return os.Stdin
	}
	return c.In
}

func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.Writer(), format, args...)
}

func (c *Context) Println(args ...any) {
	fmt.Fprintln(c.Writer(), args...)
}

// Cfg returns the loaded config, or the defaults when none was loaded.
func (c *Context) Cfg() *config.Config {
	if c.Config == nil {
		cfg := config.DefaultConfig()
		c.Config = &cfg
	}
	return c.Config
}

// Slog returns the structured logger used by long-running commands.
func (c *Context) Slog(dev bool) *slog.Logger {
	return logger.Slog(logger.SlogConfig{DevMode: dev, Level: slog.LevelInfo, Console: os.Stderr})
}

// PerformAutomaticBackup snapshots a SQLite database before a destructive change.
// Failures are logged and never interrupt the command.
func (c *Context) PerformAutomaticBackup() {
	if _, ok := c.Store.(*sqlite.Store); !ok {
		return
	}
	mgr := backup.NewManager(c.Store.GetConfigPath())
	if _, err := mgr.CreateBackup(); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// ParseWeekday accepts a weekday name, its three-letter abbreviation or 0-6 (0 = Sunday).
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if wd, ok := weekdayNames[s]; ok {
		return wd, nil
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 && n <= 6 {
		return time.Weekday(n), nil
	}
	return 0, fmt.Errorf("invalid weekday: %s", s)
}

// ShortID trims a UUID for table output.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// ResolveTask finds a task by full ID or by a unique ID prefix.
func (c *Context) ResolveTask(idOrPrefix string, includeDeleted bool) (models.TaskDefinition, error) {
	if task, err := c.Store.GetTask(idOrPrefix); err == nil {
		if includeDeleted || !task.IsDeleted() {
			return task, nil
		}
	}

	tasks, err := c.T().ListTasks(includeDeleted)
	if err != nil {
		return models.TaskDefinition{}, err
	}
	var matches []models.TaskDefinition
	for _, t := range tasks {
		if strings.HasPrefix(t.ID, idOrPrefix) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return models.TaskDefinition{}, fmt.Errorf("task %s: %w", idOrPrefix, storage.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return models.TaskDefinition{}, fmt.Errorf("task ID prefix %q is ambiguous (%d matches)", idOrPrefix, len(matches))
	}
}
