package scheduler

import (
	"fmt"
	"sort"
	"time"

	"github.com/julianstephens/ticktask/internal/constants"
	"github.com/julianstephens/ticktask/internal/models"
	"github.com/julianstephens/ticktask/internal/status"
	"github.com/julianstephens/ticktask/internal/utils"
)

// AgendaItem is one occurrence on a requested date with its derived status.
type AgendaItem struct {
	Task                models.TaskDefinition   `json:"task"`
	Occurrence          models.Occurrence       `json:"occurrence"`
	Status              constants.Status        `json:"status"`
	Record              models.CompletionRecord `json:"record"`
	NextReminderInstant *time.Time              `json:"next_reminder_instant,omitempty"`

	sortKey time.Time
}

// Counts summarizes an agenda by status.
type Counts struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
	Missed    int `json:"missed"`
}

// Agenda is the display output for one date.
type Agenda struct {
	Date   string       `json:"date"`
	Items  []AgendaItem `json:"items"`
	Counts Counts       `json:"counts"`
}

type Scheduler struct{}

func New() *Scheduler {
	return &Scheduler{}
}

// BuildAgenda lists the occurrences of tasks on date. Items are sorted by their earliest
// unmet target instant, then by title; completed items have no unmet target and come last.
// records is keyed by models.RecordKey.
func (s *Scheduler) BuildAgenda(date time.Time, tasks []models.TaskDefinition, records map[string]models.CompletionRecord, now time.Time) (Agenda, error) {
	date = utils.StartOfDay(date)
	agenda := Agenda{
		Date:  utils.FormatDate(date),
		Items: []AgendaItem{},
	}

	for _, task := range tasks {
		if task.IsDeleted() || !utils.OccursOn(task, date) {
			continue
		}

		occ, err := utils.ResolveOccurrence(task, date)
		if err != nil {
			return agenda, fmt.Errorf("resolving %s on %s: %w", task.ID, agenda.Date, err)
		}
		rec := records[models.RecordKey(task.ID, agenda.Date)]

		st, err := status.StatusOf(task, occ, rec, now)
		if err != nil {
			return agenda, fmt.Errorf("status of %s on %s: %w", task.ID, agenda.Date, err)
		}

		item := AgendaItem{
			Task:       task,
			Occurrence: occ,
			Status:     st,
			Record:     rec,
			sortKey:    earliestUnmetTarget(occ, rec, now),
		}
		if next, ok, err := status.NextReminderInstant(task, occ, rec, now); err == nil && ok {
			item.NextReminderInstant = &next
		}

		agenda.Items = append(agenda.Items, item)
		agenda.Counts.add(st)
	}

	sort.SliceStable(agenda.Items, func(i, j int) bool {
		a, b := agenda.Items[i], agenda.Items[j]
		switch {
		case a.sortKey.IsZero() != b.sortKey.IsZero():
			return !a.sortKey.IsZero()
		case !a.sortKey.Equal(b.sortKey):
			return a.sortKey.Before(b.sortKey)
		default:
			return a.Task.Title < b.Task.Title
		}
	})

	return agenda, nil
}

// earliestUnmetTarget is the first target instant still ahead of now, or the final
// deadline once all have passed. Completed occurrences have none.
func earliestUnmetTarget(occ models.Occurrence, rec models.CompletionRecord, now time.Time) time.Time {
	if rec.Completed {
		return time.Time{}
	}
	for _, target := range occ.TargetInstants {
		if !target.Before(now) {
			return target
		}
	}
	return occ.Deadline()
}

func (c *Counts) add(st constants.Status) {
	c.Total++
	switch st {
	case constants.StatusCompleted:
		c.Completed++
	case constants.StatusMissed:
		c.Missed++
	case constants.StatusPending:
		c.Pending++
	}
}

// DaySummary is one cell of the calendar month view.
type DaySummary struct {
	Date   string `json:"date"`
	Counts Counts `json:"counts"`
}

// MonthView summarizes every date of the month containing month that has at least
// one occurrence.
func (s *Scheduler) MonthView(month time.Time, tasks []models.TaskDefinition, records map[string]models.CompletionRecord, now time.Time) ([]DaySummary, error) {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	last := utils.AddDays(first, utils.DaysIn(first.Year(), first.Month())-1)

	var out []DaySummary
	for _, d := range (utils.DateRange{Start: first, End: last}).Days() {
		agenda, err := s.BuildAgenda(d, tasks, records, now)
		if err != nil {
			return nil, err
		}
		if agenda.Counts.Total == 0 {
			continue
		}
		out = append(out, DaySummary{Date: agenda.Date, Counts: agenda.Counts})
	}
	return out, nil
}

// ParseDate resolves a YYYY-MM-DD argument, defaulting to today in loc when empty.
func ParseDate(value string, now time.Time, loc *time.Location) (time.Time, error) {
	if value == "" {
		return utils.StartOfDay(now.In(loc)), nil
	}
	d, err := utils.ParseDateInLocation(value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected %s): %w", value, constants.DateFormat, err)
	}
	return d, nil
}
