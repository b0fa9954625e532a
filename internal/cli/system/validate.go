package system

import (
	"fmt"

	"github.com/julianstephens/ticktask/internal/cli"
)

type ValidateCmd struct{}

func (c *ValidateCmd) Run(ctx *cli.Context) error {
	res, err := ctx.T().Validate()
	if err != nil {
		return err
	}

	if !res.HasConflicts() {
		ctx.Println(ctx.Render(cli.SuccessStyle, res.FormatReport()))
		return nil
	}

	ctx.Printf("%s", ctx.Render(cli.WarningStyle, res.FormatReport()))
	for _, conflict := range res.Conflicts {
		for _, id := range conflict.TaskIDs {
			ctx.Printf("  %s %s\n", ctx.Render(cli.MutedStyle, string(conflict.Type)), id)
		}
	}
	return fmt.Errorf("%d conflict(s) found", len(res.Conflicts))
}
