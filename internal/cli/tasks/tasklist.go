package tasks

import (
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/ticktask/internal/cli"
	"github.com/julianstephens/ticktask/internal/models"
	"github.com/julianstephens/ticktask/internal/utils"
)

type TaskListCmd struct {
	All      bool   `short:"a" help:"Include deleted tasks."`
	Category string `short:"c" help:"Only tasks of this type."`
	ShowIDs  bool   `help:"Show full task IDs." name:"show-ids"`
}

func (c *TaskListCmd) Run(ctx *cli.Context) error {
	tasks, err := ctx.T().ListTasks(c.All)
	if err != nil {
		return fmt.Errorf("failed to get tasks: %w", err)
	}
	reg, err := ctx.T().Registry()
	if err != nil {
		return err
	}
	settings, err := ctx.T().Settings()
	if err != nil {
		return err
	}

	var rows [][]string
	for _, task := range tasks {
		if c.Category != "" && task.Category != c.Category {
			continue
		}
		id := cli.ShortID(task.ID)
		if c.ShowIDs {
			id = task.ID
		}
		title := task.Title
		if task.IsDeleted() {
			title = ctx.Render(cli.MutedStyle, title+" (deleted)")
		}
		rows = append(rows, []string{
			id,
			title,
			reg.Label(task.Category, settings.Language),
			task.Recurrence.String(),
			models.FormatTimesOfDay(task.CompletionTimes),
			task.Reminder.String(),
		})
	}

	if len(rows) == 0 {
		ctx.Println("No tasks found")
		return nil
	}
	cli.Table(ctx.Writer(), []string{"ID", "TITLE", "TYPE", "RECURRENCE", "TIMES", "REMINDER"}, rows)
	return nil
}

type TaskShowCmd struct {
	ID   string `arg:"" help:"Task ID or unique ID prefix."`
	Next int    `short:"n" help:"Number of upcoming occurrences to list." default:"5"`
}

func (c *TaskShowCmd) Run(ctx *cli.Context) error {
	task, err := ctx.ResolveTask(c.ID, true)
	if err != nil {
		return err
	}
	reg, err := ctx.T().Registry()
	if err != nil {
		return err
	}
	now, loc, err := ctx.T().Clock()
	if err != nil {
		return err
	}
	settings, err := ctx.T().Settings()
	if err != nil {
		return err
	}

	ctx.Println(ctx.Render(cli.TitleStyle, task.Title))
	ctx.Printf("  ID:         %s\n", task.ID)
	ctx.Printf("  Type:       %s\n", reg.Label(task.Category, settings.Language))
	ctx.Printf("  Recurrence: %s\n", task.Recurrence)
	ctx.Printf("  Times:      %s\n", models.FormatTimesOfDay(task.CompletionTimes))
	ctx.Printf("  Reminder:   %s\n", task.Reminder)
	ctx.Printf("  Created:    %s\n", task.CreatedAt.In(loc).Format(time.DateTime))
	if task.IsDeleted() {
		ctx.Printf("  Deleted:    %s\n", ctx.Render(cli.DangerStyle, *task.DeletedAt))
	}

	if desc := ctx.RenderMarkdown(task.Description); desc != "" {
		ctx.Println()
		ctx.Println(desc)
	}

	if c.Next > 0 && !task.IsDeleted() {
		today := utils.StartOfDay(now)
		occs := utils.OccurrencesBetween(task, utils.DateRange{Start: today, End: utils.AddDays(today, 4*366)})
		if len(occs) > c.Next {
			occs = occs[:c.Next]
		}
		if len(occs) > 0 {
			ctx.Println()
			ctx.Println("Upcoming:")
			for _, occ := range occs {
				var times []string
				for _, ti := range occ.TargetInstants {
					times = append(times, ti.Format("15:04"))
				}
				ctx.Printf("  %s %s  %s\n", utils.FormatDate(occ.Date), occ.Date.Weekday().String()[:3], strings.Join(times, ", "))
			}
		}
	}
	return nil
}
