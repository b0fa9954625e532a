package tasks

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/ticktask/internal/cli"
	"github.com/julianstephens/ticktask/internal/constants"
	"github.com/julianstephens/ticktask/internal/models"
	"github.com/julianstephens/ticktask/internal/tracker"
)

// taskForm holds the string-typed form values for one definition.
type taskForm struct {
	Title         string
	Description   string
	Category      string
	Recurrence    constants.RecurrenceType
	Weekday       string
	Day           string
	Month         string
	Times         string
	Reminder      constants.ReminderType
	ReminderValue string
	SameDay       bool
}

func newTaskForm(in tracker.TaskInput) *taskForm {
	fm := &taskForm{
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Recurrence:  in.Recurrence.Type,
		Weekday:     strings.ToLower(in.Recurrence.Weekday.String()),
		Times:       strings.Join(in.CompletionTimes, ","),
		Reminder:    in.Reminder.Type,
		SameDay:     in.Reminder.SameDay,
	}
	if fm.Recurrence == "" {
		fm.Recurrence = constants.RecurrenceDaily
	}
	if fm.Reminder == "" {
		fm.Reminder = constants.ReminderNone
	}
	switch in.Recurrence.Type {
	case constants.RecurrenceMonthly:
		fm.Day = strconv.Itoa(in.Recurrence.DayOfMonth)
	case constants.RecurrenceYearly:
		fm.Day = strconv.Itoa(in.Recurrence.Day)
		fm.Month = strconv.Itoa(in.Recurrence.Month)
	}
	switch in.Reminder.Type {
	case constants.ReminderAdvanceByDuration:
		fm.ReminderValue = strconv.Itoa(in.Reminder.Days)
	case constants.ReminderAdvanceByMinutes, constants.ReminderOverdueAfter:
		fm.ReminderValue = strconv.Itoa(in.Reminder.Minutes)
	}
	return fm
}

func optionalInt(lo, hi int) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("must be a number")
		}
		if n < lo || n > hi {
			return fmt.Errorf("must be between %d and %d", lo, hi)
		}
		return nil
	}
}

func (fm *taskForm) build(types []models.TaskType, lang string) *huh.Form {
	categoryOpts := make([]huh.Option[string], 0, len(types))
	for _, tt := range types {
		categoryOpts = append(categoryOpts, huh.NewOption(tt.Label(lang), tt.Key))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Value(&fm.Title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("title cannot be empty")
					}
					return nil
				}),
			huh.NewText().
				Title("Description").
				Description("Markdown, optional").
				Value(&fm.Description),
			huh.NewSelect[string]().
				Title("Type").
				Options(categoryOpts...).
				Value(&fm.Category),
		),
		huh.NewGroup(
			huh.NewSelect[constants.RecurrenceType]().
				Title("Recurrence").
				Options(
					huh.NewOption("Daily", constants.RecurrenceDaily),
					huh.NewOption("Weekly", constants.RecurrenceWeekly),
					huh.NewOption("Monthly", constants.RecurrenceMonthly),
					huh.NewOption("Yearly", constants.RecurrenceYearly),
				).
				Value(&fm.Recurrence),
			huh.NewInput().
				Title("Weekday").
				Description("For weekly recurrence (mon, tuesday, 0-6)").
				Value(&fm.Weekday).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					_, err := cli.ParseWeekday(s)
					return err
				}),
			huh.NewInput().
				Title("Day").
				Description("Day of month for monthly and yearly recurrence").
				Value(&fm.Day).
				Validate(optionalInt(1, 31)),
			huh.NewInput().
				Title("Month").
				Description("For yearly recurrence").
				Value(&fm.Month).
				Validate(optionalInt(1, 12)),
			huh.NewInput().
				Title("Completion times").
				Description("Comma-separated HH:MM").
				Value(&fm.Times).
				Validate(func(s string) error {
					times, err := models.ParseTimesOfDay(s)
					if err != nil {
						return err
					}
					if len(times) == 0 {
						return fmt.Errorf("at least one time is required")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewSelect[constants.ReminderType]().
				Title("Reminder").
				Options(
					huh.NewOption("None", constants.ReminderNone),
					huh.NewOption("Days in advance", constants.ReminderAdvanceByDuration),
					huh.NewOption("Minutes in advance", constants.ReminderAdvanceByMinutes),
					huh.NewOption("When overdue", constants.ReminderOverdueAfter),
				).
				Value(&fm.Reminder),
			huh.NewInput().
				Title("Reminder value").
				Description("Days for advance reminders, minutes otherwise").
				Value(&fm.ReminderValue).
				Validate(optionalInt(1, 24*60)),
			huh.NewConfirm().
				Title("Remind on the due day").
				Description("Days in advance only: fire from midnight of the due day").
				Value(&fm.SameDay),
		),
	).WithTheme(huh.ThemeDracula())
}

// input converts the form values. The values were validated by the form.
func (fm *taskForm) input() tracker.TaskInput {
	atoi := func(s string) int {
		n, _ := strconv.Atoi(strings.TrimSpace(s))
		return n
	}

	in := tracker.TaskInput{
		Title:       fm.Title,
		Description: fm.Description,
		Category:    fm.Category,
		Recurrence:  models.Recurrence{Type: fm.Recurrence},
		Reminder:    models.ReminderRule{Type: fm.Reminder},
	}
	switch fm.Recurrence {
	case constants.RecurrenceWeekly:
		wd, _ := cli.ParseWeekday(fm.Weekday)
		in.Recurrence.Weekday = wd
	case constants.RecurrenceMonthly:
		in.Recurrence.DayOfMonth = atoi(fm.Day)
	case constants.RecurrenceYearly:
		in.Recurrence.Day = atoi(fm.Day)
		in.Recurrence.Month = atoi(fm.Month)
	}
	for _, part := range strings.Split(fm.Times, ",") {
		if part = strings.TrimSpace(part); part != "" {
			in.CompletionTimes = append(in.CompletionTimes, part)
		}
	}
	switch fm.Reminder {
	case constants.ReminderAdvanceByDuration:
		in.Reminder.Days = atoi(fm.ReminderValue)
		in.Reminder.SameDay = fm.SameDay
	case constants.ReminderAdvanceByMinutes, constants.ReminderOverdueAfter:
		in.Reminder.Minutes = atoi(fm.ReminderValue)
	}
	return in
}

// runForm fills in interactively, starting from its current values.
func runForm(ctx *cli.Context, in tracker.TaskInput) (tracker.TaskInput, error) {
	if !cli.IsTerminal(ctx.Reader()) {
		return in, fmt.Errorf("interactive mode needs a terminal")
	}
	types, err := ctx.T().ListTypes()
	if err != nil {
		return in, err
	}
	settings, err := ctx.T().Settings()
	if err != nil {
		return in, err
	}

	fm := newTaskForm(in)
	if err := fm.build(types, settings.Language).Run(); err != nil {
		return in, err
	}
	return fm.input(), nil
}
