// Package reminder evaluates reminder windows for upcoming occurrences and delivers each
// one at most once. Run drives evaluation from a timer heap; Tick is a single pass.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/julianstephens/ticktask/internal/constants"
	"github.com/julianstephens/ticktask/internal/models"
	"github.com/julianstephens/ticktask/internal/notifier"
	"github.com/julianstephens/ticktask/internal/status"
	"github.com/julianstephens/ticktask/internal/storage"
	"github.com/julianstephens/ticktask/internal/utils"
)

const (
	DefaultInterval = time.Minute
	DefaultBuffer   = 16
)

type Options struct {
	// Interval bounds the time between two passes when no window opens sooner.
	Interval time.Duration
	// Buffer is the wakeup channel capacity of the engine.
	Buffer int
	// DryRun reports due reminders without recording or delivering them.
	DryRun bool
	Now    func() time.Time
	// Settings replaces the stored settings, e.g. with config file overrides applied.
	Settings func() (models.Settings, error)
	Logger   *slog.Logger
}

// Fired is one reminder window that was delivered, or would be on a dry run.
type Fired struct {
	Task       models.TaskDefinition
	Occurrence models.Occurrence
	Window     status.Window
	Message    notifier.Message
	// Err is the delivery error, if any. The window stays recorded as sent.
	Err error
}

// Result is the outcome of one evaluation pass.
type Result struct {
	Fired []Fired
	// Next is the earliest window start after the pass, zero when none is known.
	Next time.Time
}

type Service struct {
	store    storage.Provider
	notifier notifier.Notifier
	opts     Options
	logger   *slog.Logger
}

func NewService(store storage.Provider, n notifier.Notifier, opts Options) *Service {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Buffer <= 0 {
		opts.Buffer = DefaultBuffer
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Settings == nil {
		opts.Settings = store.GetSettings
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{store: store, notifier: n, opts: opts, logger: logger}
}

// Tick evaluates every live task against a single "now" and a ledger snapshot taken in
// the same pass.
func (s *Service) Tick(ctx context.Context) (Result, error) {
	settings, err := s.opts.Settings()
	if err != nil {
		return Result{}, fmt.Errorf("failed to load settings: %w", err)
	}
	if !settings.NotificationsEnabled && !s.opts.DryRun {
		s.logger.DebugContext(ctx, "notifications disabled, skipping pass")
		return Result{}, nil
	}

	loc, err := utils.LocationFromSettings(settings)
	if err != nil {
		return Result{}, err
	}
	now := s.opts.Now().In(loc)
	today := utils.StartOfDay(now)

	tasks, err := s.store.GetAllTasks()
	if err != nil {
		return Result{}, fmt.Errorf("failed to load tasks: %w", err)
	}

	type candidate struct {
		task models.TaskDefinition
		date time.Time
	}
	var candidates []candidate
	last := utils.AddDays(today, 1)
	for _, task := range tasks {
		if task.IsDeleted() {
			continue
		}
		for _, d := range candidateDates(task, today) {
			if !utils.OccursOn(task, d) {
				continue
			}
			candidates = append(candidates, candidate{task: task, date: d})
			if d.After(last) {
				last = d
			}
		}
	}
	if len(candidates) == 0 {
		return Result{}, nil
	}

	records, err := s.store.Ledger().GetCompletionsInRange(ctx, utils.FormatDate(utils.AddDays(today, -1)), utils.FormatDate(last))
	if err != nil {
		return Result{}, fmt.Errorf("failed to load completions: %w", err)
	}

	var res Result
	for _, c := range candidates {
		occ, err := utils.ResolveOccurrence(c.task, c.date)
		if err != nil {
			return res, err
		}
		rec := records[models.RecordKey(c.task.ID, occ.DateKey())]

		due, err := status.DueWindows(c.task, occ, rec, now)
		if err != nil {
			return res, err
		}
		for _, w := range due {
			fired, ok, err := s.fire(ctx, c.task, occ, w, settings.Language, now)
			if err != nil {
				return res, err
			}
			if ok {
				res.Fired = append(res.Fired, fired)
			}
		}

		if next, ok, err := status.NextReminderInstant(c.task, occ, rec, now); err == nil && ok && next.After(now) {
			if res.Next.IsZero() || next.Before(res.Next) {
				res.Next = next
			}
		}
	}
	return res, nil
}

func (s *Service) fire(ctx context.Context, task models.TaskDefinition, occ models.Occurrence, w status.Window, lang string, now time.Time) (Fired, bool, error) {
	f := Fired{
		Task:       task,
		Occurrence: occ,
		Window:     w,
		Message:    buildMessage(task, occ, w, lang),
	}
	if s.opts.DryRun {
		return f, true, nil
	}

	key := w.Key(occ)
	sent, err := s.store.MarkReminderSent(ctx, key, now)
	if err != nil {
		return f, false, fmt.Errorf("failed to record reminder %s/%s: %w", key.TaskID, key.Date, err)
	}
	if !sent {
		return f, false, nil
	}

	if err := s.notifier.Notify(ctx, f.Message); err != nil {
		s.logger.WarnContext(ctx, "reminder delivery failed", "task", task.ID, "date", key.Date, "error", err)
		f.Err = err
	} else {
		s.logger.InfoContext(ctx, "reminder sent", "task", task.ID, "date", key.Date, "checkpoint", key.Checkpoint, "kind", key.Kind)
	}
	return f, true, nil
}

// Run evaluates reminders until ctx is cancelled. A pass runs at every window start the
// previous pass reported and at least once per Interval.
func (s *Service) Run(ctx context.Context) error {
	engine := NewEngine(s.opts.Buffer)
	engine.Start()
	defer engine.Stop()

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	s.pass(ctx, engine)
	for {
		select {
		case <-ctx.Done():
			if n := engine.Dropped(); n > 0 {
				s.logger.WarnContext(ctx, "reminder wakeups dropped", "count", n)
			}
			return nil
		case <-ticker.C:
			s.pass(ctx, engine)
		case w, ok := <-engine.C():
			if !ok {
				return nil
			}
			s.logger.DebugContext(ctx, "wakeup", "reason", w.Reason, "at", w.At)
			s.pass(ctx, engine)
		}
	}
}

func (s *Service) pass(ctx context.Context, engine *Engine) {
	res, err := s.Tick(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "reminder pass failed", "error", err)
		return
	}
	if res.Next.IsZero() {
		return
	}
	if err := engine.Schedule(Wakeup{At: res.Next, Reason: "window opens"}); err != nil {
		s.logger.WarnContext(ctx, "failed to schedule wakeup", "error", err)
	}
}

// candidateDates are the occurrence dates whose reminder windows can overlap today.
func candidateDates(task models.TaskDefinition, today time.Time) []time.Time {
	dates := []time.Time{utils.AddDays(today, -1), today, utils.AddDays(today, 1)}
	rule := task.Reminder
	if rule.Type == constants.ReminderAdvanceByDuration && !rule.SameDay && rule.Days > 1 {
		dates = append(dates, utils.AddDays(today, rule.Days))
	}
	return dates
}

func buildMessage(task models.TaskDefinition, occ models.Occurrence, w status.Window, lang string) notifier.Message {
	target := occ.Deadline()
	if w.Checkpoint >= 0 && w.Checkpoint < len(occ.TargetInstants) {
		target = occ.TargetInstants[w.Checkpoint]
	}
	date := occ.DateKey()
	at := target.Format(constants.TimeFormat)

	var body string
	switch {
	case lang == constants.LanguageZh && w.Kind == constants.ReminderKindOverdue:
		body = fmt.Sprintf("已超过截止时间 %s %s", date, at)
	case lang == constants.LanguageZh:
		body = fmt.Sprintf("截止时间 %s %s", date, at)
	case w.Kind == constants.ReminderKindOverdue:
		body = fmt.Sprintf("Overdue since %s on %s", at, date)
	default:
		body = fmt.Sprintf("Due at %s on %s", at, date)
	}
	return notifier.Message{Title: task.Title, Body: body}
}
