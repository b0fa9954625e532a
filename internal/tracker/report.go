package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/ticktask/internal/calendar"
	"github.com/julianstephens/ticktask/internal/constants"
	"github.com/julianstephens/ticktask/internal/stats"
	"github.com/julianstephens/ticktask/internal/utils"
)

// StatsQuery selects a statistics report. Empty fields take the defaults: the last 30
// days, every category and status, grouped by day.
type StatsQuery struct {
	From     string
	To       string
	GroupBy  string
	Category string
	Status   string
}

type StatsReport struct {
	From    string               `json:"from"`
	To      string               `json:"to"`
	GroupBy constants.GroupBy    `json:"group_by"`
	Groups  []stats.GroupSummary `json:"groups"`
	Overall stats.Overview       `json:"overall"`
}

// Stats aggregates occurrences in the requested range, deleted tasks included up to
// their deletion date.
func (t *Tracker) Stats(ctx context.Context, q StatsQuery) (StatsReport, error) {
	now, loc, err := t.Clock()
	if err != nil {
		return StatsReport{}, err
	}
	groupBy, err := stats.ParseGroupBy(q.GroupBy)
	if err != nil {
		return StatsReport{}, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	st, err := stats.ParseStatus(q.Status)
	if err != nil {
		return StatsReport{}, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	rng, err := t.dateRange(q.From, q.To, now, loc)
	if err != nil {
		return StatsReport{}, err
	}

	tasks, err := t.store.GetAllTasksIncludingDeleted()
	if err != nil {
		return StatsReport{}, err
	}
	from, to := utils.FormatDate(rng.Start), utils.FormatDate(rng.End)
	records, err := t.store.Ledger().GetCompletionsInRange(ctx, from, to)
	if err != nil {
		return StatsReport{}, fmt.Errorf("failed to load completions: %w", err)
	}

	rows, err := stats.BuildRecords(tasks, records, rng, now)
	if err != nil {
		return StatsReport{}, err
	}
	groups := stats.Aggregate(rows, rng, groupBy, stats.Filters{Category: q.Category, Status: st})
	return StatsReport{
		From:    from,
		To:      to,
		GroupBy: groupBy,
		Groups:  groups,
		Overall: stats.Overall(groups),
	}, nil
}

func (t *Tracker) dateRange(from, to string, now time.Time, loc *time.Location) (utils.DateRange, error) {
	rng := utils.LastNDays(now, constants.DefaultStatsRangeDays)
	if from != "" {
		d, err := utils.ParseDateInLocation(from, loc)
		if err != nil {
			return rng, fmt.Errorf("%w: from date %q: %w", ErrInvalidQuery, from, err)
		}
		rng.Start = d
	}
	if to != "" {
		d, err := utils.ParseDateInLocation(to, loc)
		if err != nil {
			return rng, fmt.Errorf("%w: to date %q: %w", ErrInvalidQuery, to, err)
		}
		rng.End = d
	}
	if rng.End.Before(rng.Start) {
		return rng, fmt.Errorf("%w: range end %s is before start %s", ErrInvalidQuery, utils.FormatDate(rng.End), utils.FormatDate(rng.Start))
	}
	if rng.End.After(rng.Start.AddDate(constants.MaxRangeYears, 0, 0)) {
		return rng, fmt.Errorf("%w: range %s..%s spans more than %d years", ErrInvalidQuery, utils.FormatDate(rng.Start), utils.FormatDate(rng.End), constants.MaxRangeYears)
	}
	return rng, nil
}

// ExportICS renders occurrences from..to as an iCalendar document. An empty range
// exports the next 30 days.
func (t *Tracker) ExportICS(ctx context.Context, from, to string, alarms bool) (string, error) {
	now, loc, err := t.Clock()
	if err != nil {
		return "", err
	}
	today := utils.StartOfDay(now)
	if from == "" {
		from = utils.FormatDate(today)
	}
	if to == "" {
		to = utils.FormatDate(utils.AddDays(today, constants.DefaultStatsRangeDays-1))
	}
	rng, err := t.dateRange(from, to, now, loc)
	if err != nil {
		return "", err
	}

	settings, err := t.Settings()
	if err != nil {
		return "", err
	}
	reg, err := t.Registry()
	if err != nil {
		return "", err
	}
	tasks, err := t.store.GetAllTasks()
	if err != nil {
		return "", err
	}
	records, err := t.store.Ledger().GetCompletionsInRange(ctx, utils.FormatDate(rng.Start), utils.FormatDate(rng.End))
	if err != nil {
		return "", fmt.Errorf("failed to load completions: %w", err)
	}

	return calendar.ExportOccurrences(tasks, records, rng, now, calendar.Options{
		Labels: func(key string) string { return reg.Label(key, settings.Language) },
		Alarms: alarms,
	}), nil
}

// ExportRecurringICS renders each live task as a recurring event starting today.
func (t *Tracker) ExportRecurringICS(alarms bool) (string, error) {
	now, _, err := t.Clock()
	if err != nil {
		return "", err
	}
	settings, err := t.Settings()
	if err != nil {
		return "", err
	}
	reg, err := t.Registry()
	if err != nil {
		return "", err
	}
	tasks, err := t.store.GetAllTasks()
	if err != nil {
		return "", err
	}
	return calendar.ExportDefinitions(tasks, now, now, calendar.Options{
		Labels: func(key string) string { return reg.Label(key, settings.Language) },
		Alarms: alarms,
	}), nil
}
