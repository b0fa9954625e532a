package agenda

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/ticktask/internal/cli"
	"github.com/julianstephens/ticktask/internal/constants"
	"github.com/julianstephens/ticktask/internal/models"
	"github.com/julianstephens/ticktask/internal/utils"
)

type TodayCmd struct {
	Date string `arg:"" optional:"" help:"Date to show (YYYY-MM-DD), defaults to today."`
}

func (c *TodayCmd) Run(ctx *cli.Context) error {
	agenda, err := ctx.T().Agenda(context.Background(), c.Date)
	if err != nil {
		return err
	}
	settings, err := ctx.T().Settings()
	if err != nil {
		return err
	}
	reg, err := ctx.T().Registry()
	if err != nil {
		return err
	}
	_, loc, err := ctx.T().Clock()
	if err != nil {
		return err
	}

	ctx.Println(ctx.Render(cli.TitleStyle, "Agenda for "+agenda.Date))
	if len(agenda.Items) == 0 {
		ctx.Println("Nothing scheduled.")
		return nil
	}

	rows := make([][]string, 0, len(agenda.Items))
	for _, item := range agenda.Items {
		var times []string
		for _, ti := range item.Occurrence.TargetInstants {
			times = append(times, ti.In(loc).Format("15:04"))
		}
		remind := ""
		if item.NextReminderInstant != nil {
			remind = item.NextReminderInstant.In(loc).Format("01-02 15:04")
		}
		rows = append(rows, []string{
			cli.ShortID(item.Task.ID),
			item.Task.Title,
			reg.Label(item.Task.Category, settings.Language),
			strings.Join(times, ", "),
			ctx.RenderStatus(item.Status, models.StatusLabel(item.Status, settings.Language)),
			remind,
		})
	}
	cli.Table(ctx.Writer(), []string{"ID", "TITLE", "TYPE", "DUE", "STATUS", "REMINDER"}, rows)

	n := agenda.Counts
	ctx.Println()
	ctx.Printf("%d total: %d %s, %d %s, %d %s\n", n.Total,
		n.Completed, models.StatusLabel(constants.StatusCompleted, settings.Language),
		n.Pending, models.StatusLabel(constants.StatusPending, settings.Language),
		n.Missed, models.StatusLabel(constants.StatusMissed, settings.Language))
	return nil
}

type CompleteCmd struct {
	ID   string `arg:"" help:"Task ID or unique ID prefix."`
	Date string `arg:"" optional:"" help:"Occurrence date (YYYY-MM-DD), defaults to today."`
}

func (c *CompleteCmd) Run(ctx *cli.Context) error {
	return setCompletion(ctx, c.ID, c.Date, models.ActionComplete)
}

type UndoCmd struct {
	ID   string `arg:"" help:"Task ID or unique ID prefix."`
	Date string `arg:"" optional:"" help:"Occurrence date (YYYY-MM-DD), defaults to today."`
}

func (c *UndoCmd) Run(ctx *cli.Context) error {
	return setCompletion(ctx, c.ID, c.Date, models.ActionUndo)
}

func setCompletion(ctx *cli.Context, id, date string, action models.CompletionAction) error {
	task, err := ctx.ResolveTask(id, false)
	if err != nil {
		return err
	}
	_, loc, err := ctx.T().Clock()
	if err != nil {
		return err
	}
	rec, err := ctx.T().SetCompletion(context.Background(), task.ID, date, action)
	if err != nil {
		return err
	}

	if rec.Completed {
		ctx.Printf("%s %s on %s (at %s)\n", ctx.Render(cli.SuccessStyle, "Completed"), task.Title, rec.Date, rec.CompletedAt.In(loc).Format("15:04"))
		return nil
	}
	ctx.Printf("Cleared completion of %s on %s\n", task.Title, rec.Date)
	return nil
}

type HistoryCmd struct {
	ID   string `arg:"" help:"Task ID or unique ID prefix."`
	Date string `arg:"" optional:"" help:"Occurrence date (YYYY-MM-DD), defaults to today."`
}

func (c *HistoryCmd) Run(ctx *cli.Context) error {
	task, err := ctx.ResolveTask(c.ID, true)
	if err != nil {
		return err
	}
	now, loc, err := ctx.T().Clock()
	if err != nil {
		return err
	}
	date := c.Date
	if date == "" {
		date = utils.FormatDate(now)
	} else if _, err := utils.ParseDateInLocation(date, loc); err != nil {
		return fmt.Errorf("invalid date %q (expected %s)", date, constants.DateFormat)
	}

	events, err := ctx.T().History(context.Background(), task.ID, date)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		ctx.Printf("No completion history for %s on %s\n", task.Title, date)
		return nil
	}
	ctx.Printf("%s on %s:\n", task.Title, date)
	for _, ev := range events {
		ctx.Printf("  %s  %s\n", ev.At.In(loc).Format(time.DateTime), ev.Action)
	}
	return nil
}

type CalendarCmd struct {
	Month string `arg:"" optional:"" help:"Month to show (YYYY-MM), defaults to the current month."`
}

func (c *CalendarCmd) Run(ctx *cli.Context) error {
	first, days, err := ctx.T().Month(context.Background(), c.Month)
	if err != nil {
		return err
	}

	byDate := make(map[string]string, len(days))
	for _, d := range days {
		cell := fmt.Sprintf("%d/%d", d.Counts.Completed, d.Counts.Total)
		switch {
		case d.Counts.Missed > 0:
			cell = ctx.Render(cli.DangerStyle, cell)
		case d.Counts.Completed == d.Counts.Total:
			cell = ctx.Render(cli.SuccessStyle, cell)
		}
		byDate[d.Date] = cell
	}

	ctx.Println(ctx.Render(cli.TitleStyle, first.Format("January 2006")))
	header := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	var rows [][]string
	week := make([]string, 7)
	for _, d := range (utils.DateRange{Start: first, End: utils.AddDays(first, utils.DaysIn(first.Year(), first.Month())-1)}).Days() {
		cell := fmt.Sprintf("%2d", d.Day())
		if s, ok := byDate[utils.FormatDate(d)]; ok {
			cell += " " + s
		}
		week[d.Weekday()] = cell
		if d.Weekday() == time.Saturday {
			rows = append(rows, week)
			week = make([]string, 7)
		}
	}
	if strings.Join(week, "") != "" {
		rows = append(rows, week)
	}
	cli.Table(ctx.Writer(), header, rows)
	ctx.Println()
	ctx.Println(ctx.Render(cli.MutedStyle, "Cells show completed/total occurrences."))
	return nil
}
