package tasks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/julianstephens/ticktask/internal/cli"
	"github.com/julianstephens/ticktask/internal/constants"
	"github.com/julianstephens/ticktask/internal/tracker"
)

// TaskFlags are the definition fields shared by add and edit. Zero values leave the
// field unchanged.
type TaskFlags struct {
	Category      string `short:"c" help:"Task type key (see 'ticktask type list')."`
	Description   string `short:"D" help:"Markdown description."`
	Recurrence    string `short:"r" help:"Recurrence (daily|weekly|monthly|yearly)." enum:"daily,weekly,monthly,yearly," default:""`
	Weekday       string `short:"w" help:"Weekday for weekly recurrence (mon, tuesday, 0-6)."`
	Day           int    `help:"Day of month (1-31) for monthly and yearly recurrence."`
	Month         int    `help:"Month (1-12) for yearly recurrence."`
	Times         string `short:"t" help:"Comma-separated completion times (HH:MM)."`
	Remind        string `help:"Reminder rule (none|advance_days|advance_minutes|overdue_after)." enum:"none,advance_days,advance_minutes,overdue_after," default:""`
	RemindDays    int    `help:"Days ahead for advance_days."`
	RemindMinutes int    `help:"Minutes for advance_minutes and overdue_after."`
	SameDay       *bool  `help:"With advance_days, remind from midnight of the due day instead."`
}

// Apply overlays the set flags onto in.
func (f TaskFlags) Apply(in *tracker.TaskInput) error {
	if f.Category != "" {
		in.Category = f.Category
	}
	if f.Description != "" {
		in.Description = f.Description
	}

	if f.Recurrence != "" {
		in.Recurrence.Type = constants.RecurrenceType(f.Recurrence)
	}
	if f.Weekday != "" {
		wd, err := cli.ParseWeekday(f.Weekday)
		if err != nil {
			return err
		}
		in.Recurrence.Weekday = wd
	}
	if f.Day != 0 {
		switch in.Recurrence.Type {
		case constants.RecurrenceYearly:
			in.Recurrence.Day = f.Day
		default:
			in.Recurrence.DayOfMonth = f.Day
		}
	}
	if f.Month != 0 {
		in.Recurrence.Month = f.Month
	}

	if f.Times != "" {
		var times []string
		for _, part := range strings.Split(f.Times, ",") {
			if part = strings.TrimSpace(part); part != "" {
				times = append(times, part)
			}
		}
		in.CompletionTimes = times
	}

	if f.Remind != "" {
		in.Reminder.Type = constants.ReminderType(f.Remind)
	}
	if f.RemindDays != 0 {
		in.Reminder.Days = f.RemindDays
	}
	if f.RemindMinutes != 0 {
		in.Reminder.Minutes = f.RemindMinutes
	}
	if f.SameDay != nil {
		in.Reminder.SameDay = *f.SameDay
	}
	return nil
}

// readInputFile decodes a task definition from path, or from stdin when path is "-".
func readInputFile(ctx *cli.Context, path string) (tracker.TaskInput, error) {
	var in tracker.TaskInput
	var r io.Reader
	if path == "-" {
		if cli.IsTerminal(ctx.Reader()) {
			return in, fmt.Errorf("no input provided (stdin is a terminal); pass a file or pipe JSON input")
		}
		r = ctx.Reader()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return in, fmt.Errorf("open file: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return in, fmt.Errorf("decode JSON: %w", err)
	}
	return in, nil
}
