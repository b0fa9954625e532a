package system

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/julianstephens/ticktask/internal/cli"
	"github.com/julianstephens/ticktask/internal/notifier"
	"github.com/julianstephens/ticktask/internal/reminder"
)

type NotifyCmd struct {
	DryRun bool `help:"Print due reminders instead of sending them. Nothing is recorded."`
	Loop   bool `help:"Keep running and deliver reminders as their windows open."`
}

// newReminderService wires the reminder service to the tray with a log fallback.
func newReminderService(ctx *cli.Context, logger *slog.Logger, dryRun bool) (*reminder.Service, error) {
	settings, err := ctx.T().Settings()
	if err != nil {
		return nil, err
	}
	cfg := ctx.Cfg()
	n := notifier.Fallback{
		Primary:   notifier.NewTray(settings.NotificationDurationMs),
		Secondary: notifier.NewLog(logger),
	}
	return reminder.NewService(ctx.Store, n, reminder.Options{
		Interval: cfg.Reminders.Tick,
		Buffer:   cfg.Reminders.Buffer,
		DryRun:   dryRun,
		Settings: ctx.T().Settings,
		Logger:   logger,
	}), nil
}

func (c *NotifyCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.T().Settings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if !settings.NotificationsEnabled && !c.DryRun {
		ctx.Println("Notifications are disabled in settings.")
		return nil
	}

	logger := ctx.Slog(ctx.Cfg().Server.Dev)
	svc, err := newReminderService(ctx, logger, c.DryRun)
	if err != nil {
		return err
	}

	if c.Loop {
		runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		ctx.Println("Watching reminders. Press Ctrl+C to stop.")
		return svc.Run(runCtx)
	}

	res, err := svc.Tick(context.Background())
	if err != nil {
		return err
	}
	if len(res.Fired) == 0 {
		ctx.Println("No reminders due.")
	}
	for _, f := range res.Fired {
		prefix := ""
		if c.DryRun {
			prefix = "[DryRun] "
		}
		ctx.Printf("%s%s\n", prefix, f.Message.Text())
		if f.Err != nil {
			ctx.Printf("  Failed to send notification: %v\n", f.Err)
		}
	}
	if !res.Next.IsZero() {
		_, loc, err := ctx.T().Clock()
		if err == nil {
			ctx.Printf("Next reminder window opens at %s\n", res.Next.In(loc).Format(time.DateTime))
		}
	}
	return nil
}
