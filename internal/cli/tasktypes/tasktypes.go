package tasktypes

import (
	"fmt"
	"strconv"

	"github.com/julianstephens/ticktask/internal/cli"
	"github.com/julianstephens/ticktask/internal/validation"
)

type TypeListCmd struct{}

func (c *TypeListCmd) Run(ctx *cli.Context) error {
	types, err := ctx.T().ListTypes()
	if err != nil {
		return err
	}
	tasks, err := ctx.Store.GetAllTasks()
	if err != nil {
		return fmt.Errorf("failed to get tasks: %w", err)
	}
	usage := validation.CategoryUsage(tasks)

	rows := make([][]string, 0, len(types))
	for _, tt := range types {
		rows = append(rows, []string{tt.Key, tt.LabelEn, tt.LabelZh, strconv.Itoa(usage[tt.Key])})
	}
	cli.Table(ctx.Writer(), []string{"KEY", "ENGLISH", "CHINESE", "TASKS"}, rows)
	return nil
}

type TypeAddCmd struct {
	LabelEn string `arg:"" name:"label-en" help:"English label. The key is derived from it."`
	LabelZh string `arg:"" optional:"" name:"label-zh" help:"Chinese label."`
}

func (c *TypeAddCmd) Run(ctx *cli.Context) error {
	tt, err := ctx.T().AddType(c.LabelEn, c.LabelZh)
	if err != nil {
		return err
	}
	ctx.Printf("Added task type: %s (key: %s)\n", tt.DisplayLabel(), tt.Key)
	return nil
}

type TypeRemoveCmd struct {
	Key string `arg:"" help:"Key of the task type to remove."`
}

func (c *TypeRemoveCmd) Run(ctx *cli.Context) error {
	ok, err := ctx.Confirm(fmt.Sprintf("Remove task type %q?", c.Key), "Tasks using it keep the key and are reported by 'ticktask validate'.")
	if err != nil {
		return err
	}
	if !ok {
		ctx.Println("Removal cancelled.")
		return nil
	}

	ctx.PerformAutomaticBackup()
	inUse, err := ctx.T().RemoveType(c.Key)
	if err != nil {
		return err
	}

	ctx.Printf("Removed task type: %s\n", c.Key)
	if inUse > 0 {
		ctx.Println(ctx.Render(cli.WarningStyle, fmt.Sprintf("Warning: %d task(s) still reference %s. Run 'ticktask validate' for details.", inUse, c.Key)))
	}
	return nil
}
