package tasks

import (
	"github.com/julianstephens/ticktask/internal/cli"
	"github.com/julianstephens/ticktask/internal/tracker"
)

type TaskEditCmd struct {
	ID          string `arg:"" help:"Task ID or unique ID prefix."`
	Title       string `help:"New title."`
	Interactive bool   `short:"i" help:"Edit the definition with a form."`

	TaskFlags `embed:""`
}

func (c *TaskEditCmd) Run(ctx *cli.Context) error {
	task, err := ctx.ResolveTask(c.ID, false)
	if err != nil {
		return err
	}

	in := tracker.InputFromDefinition(task)
	if c.Title != "" {
		in.Title = c.Title
	}
	if err := c.TaskFlags.Apply(&in); err != nil {
		return err
	}
	if c.Interactive {
		if in, err = runForm(ctx, in); err != nil {
			return err
		}
	}

	updated, err := ctx.T().UpdateTask(task.ID, in)
	if err != nil {
		return err
	}

	ctx.Printf("Updated task: %s (ID: %s)\n", updated.Title, updated.ID)
	return nil
}
