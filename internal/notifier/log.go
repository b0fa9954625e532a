package notifier

import (
	"context"
	"errors"
	"log/slog"
)

// LogNotifier writes reminders to a structured logger. It backs dry runs and hosts
// without the tray app.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, msg Message) error {
	n.logger.InfoContext(ctx, "reminder", "title", msg.Title, "body", msg.Body)
	return nil
}

// Fallback tries Primary and hands the message to Secondary when it fails.
type Fallback struct {
	Primary   Notifier
	Secondary Notifier
}

func (f Fallback) Notify(ctx context.Context, msg Message) error {
	err := f.Primary.Notify(ctx, msg)
	if err == nil {
		return nil
	}
	if serr := f.Secondary.Notify(ctx, msg); serr != nil {
		return errors.Join(err, serr)
	}
	return nil
}
