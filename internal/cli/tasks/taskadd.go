package tasks

import (
	"fmt"

	"github.com/julianstephens/ticktask/internal/cli"
	"github.com/julianstephens/ticktask/internal/constants"
	"github.com/julianstephens/ticktask/internal/models"
	"github.com/julianstephens/ticktask/internal/tracker"
)

type TaskAddCmd struct {
	Title       string `arg:"" optional:"" help:"Task title."`
	Interactive bool   `short:"i" help:"Fill in the definition with a form."`
	File        string `short:"f" help:"Read the definition as JSON from a file, or - for stdin."`

	TaskFlags `embed:""`
}

func (c *TaskAddCmd) Validate() error {
	if c.Title == "" && !c.Interactive && c.File == "" {
		return fmt.Errorf("a title is required unless --interactive or --file is given")
	}
	return nil
}

func (c *TaskAddCmd) Run(ctx *cli.Context) error {
	in := tracker.TaskInput{
		Category:   "other",
		Recurrence: models.Recurrence{Type: constants.RecurrenceDaily},
		Reminder:   models.ReminderRule{Type: constants.ReminderNone},
	}

	if c.File != "" {
		var err error
		if in, err = readInputFile(ctx, c.File); err != nil {
			return err
		}
	}
	if c.Title != "" {
		in.Title = c.Title
	}
	if err := c.TaskFlags.Apply(&in); err != nil {
		return err
	}
	if c.Interactive {
		var err error
		if in, err = runForm(ctx, in); err != nil {
			return err
		}
	}

	task, err := ctx.T().CreateTask(in)
	if err != nil {
		return err
	}

	ctx.Printf("Added task: %s (ID: %s)\n", task.Title, task.ID)
	return nil
}
