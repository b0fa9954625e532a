package system

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/julianstephens/ticktask/internal/cli"
	"github.com/julianstephens/ticktask/internal/logger"
)

type DebugCmd struct {
	DBPath       *DebugDBPathCmd       `cmd:"" help:"Show database and log file paths."`
	DumpTask     *DebugDumpTaskCmd     `cmd:"" help:"Dump task data as JSON."`
	DumpAgenda   *DebugDumpAgendaCmd   `cmd:"" help:"Dump the agenda of a date as JSON."`
	DumpSettings *DebugDumpSettingsCmd `cmd:"" help:"Dump settings data as JSON."`
}

func printJSON(ctx *cli.Context, v any) error {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	ctx.Println(string(jsonBytes))
	return nil
}

type DebugDBPathCmd struct{}

func (cmd *DebugDBPathCmd) Run(ctx *cli.Context) error {
	return printJSON(ctx, map[string]string{
		"path": ctx.Store.GetConfigPath(),
		"log":  logger.File(),
	})
}

type DebugDumpTaskCmd struct {
	ID string `arg:"" help:"Task ID or unique ID prefix."`
}

func (cmd *DebugDumpTaskCmd) Run(ctx *cli.Context) error {
	task, err := ctx.ResolveTask(cmd.ID, true)
	if err != nil {
		return err
	}
	return printJSON(ctx, task)
}

type DebugDumpAgendaCmd struct {
	Date string `arg:"" optional:"" help:"Date (YYYY-MM-DD), defaults to today."`
}

func (cmd *DebugDumpAgendaCmd) Run(ctx *cli.Context) error {
	agenda, err := ctx.T().Agenda(context.Background(), cmd.Date)
	if err != nil {
		return err
	}
	return printJSON(ctx, agenda)
}

type DebugDumpSettingsCmd struct{}

func (cmd *DebugDumpSettingsCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.T().Settings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	return printJSON(ctx, settings)
}
