package tasks

import (
	"fmt"

	"github.com/julianstephens/ticktask/internal/cli"
)

type TaskDeleteCmd struct {
	ID string `arg:"" help:"Task ID or unique ID prefix."`
}

func (c *TaskDeleteCmd) Run(ctx *cli.Context) error {
	task, err := ctx.ResolveTask(c.ID, false)
	if err != nil {
		return fmt.Errorf("failed to find task with ID %s: %w", c.ID, err)
	}

	ok, err := ctx.Confirm(fmt.Sprintf("Delete %q?", task.Title), "Completion history is kept and the task can be restored.")
	if err != nil {
		return err
	}
	if !ok {
		ctx.Println("Delete cancelled.")
		return nil
	}

	ctx.PerformAutomaticBackup()
	if err := ctx.T().DeleteTask(task.ID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	ctx.Printf("Deleted task: %s (ID: %s)\n", task.Title, task.ID)
	return nil
}

type TaskRestoreCmd struct {
	ID string `arg:"" help:"Task ID or unique ID prefix of a deleted task."`
}

func (c *TaskRestoreCmd) Run(ctx *cli.Context) error {
	task, err := ctx.ResolveTask(c.ID, true)
	if err != nil {
		return fmt.Errorf("failed to find task with ID %s: %w", c.ID, err)
	}
	if !task.IsDeleted() {
		return fmt.Errorf("task %s is not deleted", task.Title)
	}

	if err := ctx.T().RestoreTask(task.ID); err != nil {
		return fmt.Errorf("failed to restore task: %w", err)
	}

	ctx.Printf("Restored task: %s (ID: %s)\n", task.Title, task.ID)
	return nil
}
