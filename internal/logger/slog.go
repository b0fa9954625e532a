package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
)

// SlogConfig controls the structured logger handed to the HTTP server and reminder loop.
type SlogConfig struct {
	// DevMode adds a colorized console handler on Console.
	DevMode bool
	Level   slog.Level
	Console io.Writer
}

// MultiHandler fans out log records to multiple slog handlers.
type MultiHandler struct {
	handlers []slog.Handler
}

// NewMultiHandler returns a handler writing each record to every enabled handler.
func NewMultiHandler(handlers ...slog.Handler) *MultiHandler {
	return &MultiHandler{handlers: handlers}
}

func (m *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &MultiHandler{handlers: handlers}
}

func (m *MultiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &MultiHandler{handlers: handlers}
}

// Slog builds a *slog.Logger that writes to the rotating file logger set up by Init
// and, in dev mode, to a tint console handler as well.
func Slog(cfg SlogConfig) *slog.Logger {
	var handlers []slog.Handler
	if Logger != nil {
		handlers = append(handlers, Logger)
	}

	if cfg.DevMode {
		console := cfg.Console
		if console == nil {
			console = os.Stderr
		}
		handlers = append(handlers, tint.NewHandler(console, &tint.Options{
			Level:      cfg.Level,
			TimeFormat: "15:04:05",
		}))
	}

	if len(handlers) == 0 {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(NewMultiHandler(handlers...))
}
