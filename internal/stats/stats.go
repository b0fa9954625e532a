package stats

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/julianstephens/ticktask/internal/constants"
	"github.com/julianstephens/ticktask/internal/models"
	"github.com/julianstephens/ticktask/internal/status"
	"github.com/julianstephens/ticktask/internal/utils"
)

// Filters restricts the records that are aggregated. Empty values and "all" match everything.
type Filters struct {
	Category string
	Status   constants.Status
}

// GroupSummary holds the counts of one date group.
type GroupSummary struct {
	Key            string  `json:"key"`
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	Missed         int     `json:"missed"`
	Pending        int     `json:"pending"`
	CompletionRate float64 `json:"completion_rate"`
}

// Overview totals every group of a report.
type Overview struct {
	GroupSummary
	// CompletionPercent is CompletionRate rounded to a whole percent.
	CompletionPercent int `json:"completion_percent"`
}

// ParseGroupBy validates a grouping name.
func ParseGroupBy(s string) (constants.GroupBy, error) {
	switch g := constants.GroupBy(s); g {
	case constants.GroupByDay, constants.GroupByMonth, constants.GroupByYear:
		return g, nil
	case "":
		return constants.GroupByDay, nil
	default:
		return "", fmt.Errorf("unknown grouping %q (expected day, month or year)", s)
	}
}

// ParseStatus validates a status filter.
func ParseStatus(s string) (constants.Status, error) {
	switch st := constants.Status(s); st {
	case constants.StatusAll, constants.StatusCompleted, constants.StatusMissed, constants.StatusPending:
		return st, nil
	case "":
		return constants.StatusAll, nil
	default:
		return "", fmt.Errorf("unknown status %q", s)
	}
}

func groupKey(d time.Time, groupBy constants.GroupBy) string {
	switch groupBy {
	case constants.GroupByYear:
		return d.Format(constants.YearFormat)
	case constants.GroupByMonth:
		return d.Format(constants.MonthFormat)
	default:
		return d.Format(constants.DateFormat)
	}
}

func (f Filters) match(rec models.StatisticsRecord) bool {
	if f.Category != "" && f.Category != constants.CategoryAll && rec.Category != f.Category {
		return false
	}
	if f.Status != "" && f.Status != constants.StatusAll && rec.Status != f.Status {
		return false
	}
	return true
}

func (g *GroupSummary) add(st constants.Status) {
	g.Total++
	switch st {
	case constants.StatusCompleted:
		g.Completed++
	case constants.StatusMissed:
		g.Missed++
	case constants.StatusPending:
		g.Pending++
	}
}

func (g *GroupSummary) finish() {
	if g.Total > 0 {
		g.CompletionRate = float64(g.Completed) / float64(g.Total)
	}
}

// Aggregate filters records to rng, category and status, then groups them by date
// granularity in ascending key order. No matching records yields an empty slice.
func Aggregate(records []models.StatisticsRecord, rng utils.DateRange, groupBy constants.GroupBy, filters Filters) []GroupSummary {
	groups := make(map[string]*GroupSummary)
	for _, rec := range records {
		if !rng.Contains(rec.Date) || !filters.match(rec) {
			continue
		}
		key := groupKey(rec.Date, groupBy)
		g, ok := groups[key]
		if !ok {
			g = &GroupSummary{Key: key}
			groups[key] = g
		}
		g.add(rec.Status)
	}

	out := make([]GroupSummary, 0, len(groups))
	for _, g := range groups {
		g.finish()
		out = append(out, *g)
	}
	// Fixed-width date layouts sort chronologically as strings
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Overall folds group summaries into a single total.
func Overall(groups []GroupSummary) Overview {
	var o Overview
	o.Key = "all"
	for _, g := range groups {
		o.Total += g.Total
		o.Completed += g.Completed
		o.Missed += g.Missed
		o.Pending += g.Pending
	}
	o.finish()
	o.CompletionPercent = int(math.Round(o.CompletionRate * 100))
	return o
}

// BuildRecords joins task occurrences in rng with their completion records. Dates after
// now's calendar date are skipped since nothing about them can be reported yet, and a
// deleted task contributes only the dates up to its deletion.
// records is keyed by models.RecordKey.
func BuildRecords(tasks []models.TaskDefinition, records map[string]models.CompletionRecord, rng utils.DateRange, now time.Time) ([]models.StatisticsRecord, error) {
	today := utils.FormatDate(now)
	var out []models.StatisticsRecord

	for _, task := range tasks {
		last := today
		if task.IsDeleted() {
			deletedAt, err := time.Parse(time.RFC3339, *task.DeletedAt)
			if err != nil {
				return nil, fmt.Errorf("task %s has malformed deleted_at: %w", task.ID, err)
			}
			if d := utils.FormatDate(deletedAt.In(now.Location())); d < last {
				last = d
			}
		}
		for _, occ := range utils.OccurrencesBetween(task, rng) {
			date := occ.DateKey()
			if date > last {
				continue
			}
			rec := records[models.RecordKey(task.ID, date)]
			st, err := status.StatusOf(task, occ, rec, now)
			if err != nil {
				return nil, fmt.Errorf("status of %s on %s: %w", task.ID, date, err)
			}
			out = append(out, models.StatisticsRecord{
				Date:        occ.Date,
				TaskID:      task.ID,
				Title:       task.Title,
				Category:    task.Category,
				Status:      st,
				CompletedAt: rec.CompletedAt,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
