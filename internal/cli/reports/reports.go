package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/julianstephens/ticktask/internal/cli"
	"github.com/julianstephens/ticktask/internal/constants"
	"github.com/julianstephens/ticktask/internal/models"
	"github.com/julianstephens/ticktask/internal/tracker"
)

type StatsCmd struct {
	From     string `help:"First date of the range (YYYY-MM-DD). Defaults to 30 days ago."`
	To       string `help:"Last date of the range (YYYY-MM-DD). Defaults to today."`
	Group    string `short:"g" help:"Group rows by day, month or year." enum:"day,month,year" default:"day"`
	Category string `short:"c" help:"Only count tasks of this type."`
	Status   string `short:"s" help:"Only count occurrences with this status." enum:"all,completed,pending,missed" default:"all"`
	JSON     bool   `help:"Print the report as JSON."`
}

func (c *StatsCmd) Run(ctx *cli.Context) error {
	report, err := ctx.T().Stats(context.Background(), tracker.StatsQuery{
		From:     c.From,
		To:       c.To,
		GroupBy:  c.Group,
		Category: c.Category,
		Status:   c.Status,
	})
	if err != nil {
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(ctx.Writer())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	settings, err := ctx.T().Settings()
	if err != nil {
		return err
	}
	lang := settings.Language

	ctx.Println(ctx.Render(cli.TitleStyle, fmt.Sprintf("Statistics %s to %s", report.From, report.To)))
	if len(report.Groups) == 0 {
		ctx.Println("No occurrences in range.")
		return nil
	}

	rows := make([][]string, 0, len(report.Groups))
	for _, g := range report.Groups {
		rows = append(rows, []string{
			g.Key,
			strconv.Itoa(g.Total),
			strconv.Itoa(g.Completed),
			strconv.Itoa(g.Pending),
			strconv.Itoa(g.Missed),
			fmt.Sprintf("%.0f%%", g.CompletionRate*100),
		})
	}
	cli.Table(ctx.Writer(), []string{
		strings.ToUpper(string(report.GroupBy)),
		"TOTAL",
		models.StatusLabel(constants.StatusCompleted, lang),
		models.StatusLabel(constants.StatusPending, lang),
		models.StatusLabel(constants.StatusMissed, lang),
		"RATE",
	}, rows)

	o := report.Overall
	ctx.Println()
	ctx.Printf("Overall: %d/%d completed (%d%%), %d missed\n", o.Completed, o.Total, o.CompletionPercent, o.Missed)
	return nil
}

type ExportCmd struct {
	From      string `help:"First date to export (YYYY-MM-DD). Defaults to today."`
	To        string `help:"Last date to export (YYYY-MM-DD). Defaults to 30 days from today."`
	Recurring bool   `help:"Export one recurring event per task instead of single occurrences."`
	Alarms    bool   `help:"Attach reminder alarms to the events."`
	Output    string `short:"o" help:"Write to this file instead of stdout."`
}

func (c *ExportCmd) Validate() error {
	if c.Recurring && (c.From != "" || c.To != "") {
		return fmt.Errorf("--recurring cannot be combined with --from or --to")
	}
	return nil
}

func (c *ExportCmd) Run(ctx *cli.Context) error {
	var (
		doc string
		err error
	)
	if c.Recurring {
		doc, err = ctx.T().ExportRecurringICS(c.Alarms)
	} else {
		doc, err = ctx.T().ExportICS(context.Background(), c.From, c.To, c.Alarms)
	}
	if err != nil {
		return err
	}

	if c.Output == "" {
		_, err := fmt.Fprint(ctx.Writer(), doc)
		return err
	}
	if err := os.WriteFile(c.Output, []byte(doc), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", c.Output, err)
	}
	ctx.Printf("Exported calendar to %s\n", c.Output)
	return nil
}
