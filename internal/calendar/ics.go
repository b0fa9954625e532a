// Package calendar renders tasks as iCalendar (RFC 5545) documents.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/ticktask/internal/constants"
	"github.com/julianstephens/ticktask/internal/models"
	"github.com/julianstephens/ticktask/internal/utils"
)

const (
	icsLocalLayout = "20060102T150405"
	icsUTCLayout   = "20060102T150405Z"
	icsDateLayout  = "20060102"
	prodID         = "-//TickTask//Task Export//EN"
	maxLineOctets  = 75
)

// Options tunes the exported document.
type Options struct {
	// Labels maps category keys to display names for CATEGORIES.
	Labels func(key string) string
	// Alarms adds a VALARM derived from each task's reminder rule.
	Alarms bool
}

// ExportOccurrences writes one event per target instant of every occurrence in rng.
// Completed occurrences are marked with a completion timestamp.
func ExportOccurrences(tasks []models.TaskDefinition, records map[string]models.CompletionRecord, rng utils.DateRange, now time.Time, opts Options) string {
	w := newWriter(now)
	for _, task := range tasks {
		if task.IsDeleted() {
			continue
		}
		for _, occ := range utils.OccurrencesBetween(task, rng) {
			rec := records[models.RecordKey(task.ID, occ.DateKey())]
			for i, target := range occ.TargetInstants {
				w.begin("VEVENT")
				w.line("UID", fmt.Sprintf("%s-%s-%d@ticktask", task.ID, occ.Date.Format(icsDateLayout), i))
				w.line("DTSTAMP", w.stamp)
				w.line("DTSTART", target.Format(icsLocalLayout))
				w.text("SUMMARY", task.Title)
				w.eventBody(task, opts)
				if rec.Completed && rec.CompletedAt != nil {
					w.line("COMPLETED", rec.CompletedAt.UTC().Format(icsUTCLayout))
					w.line("STATUS", "CONFIRMED")
				}
				w.end("VEVENT")
			}
		}
	}
	return w.finish()
}

// ExportDefinitions writes one recurring event per completion time of every live task,
// starting at its first occurrence on or after from.
func ExportDefinitions(tasks []models.TaskDefinition, from time.Time, now time.Time, opts Options) string {
	w := newWriter(now)
	for _, task := range tasks {
		if task.IsDeleted() || !utils.CanEverOccur(task.Recurrence) {
			continue
		}
		first, ok := firstOccurrence(task, utils.StartOfDay(from))
		if !ok {
			continue
		}
		for i, target := range utils.TargetInstantsFor(task, first) {
			w.begin("VEVENT")
			w.line("UID", fmt.Sprintf("%s-%d@ticktask", task.ID, i))
			w.line("DTSTAMP", w.stamp)
			w.line("DTSTART", target.Format(icsLocalLayout))
			w.line("RRULE", RRule(task.Recurrence))
			w.text("SUMMARY", task.Title)
			w.eventBody(task, opts)
			w.end("VEVENT")
		}
	}
	return w.finish()
}

// RRule expresses a recurrence as an RFC 5545 rule. BYMONTHDAY values a month lacks are
// skipped by calendar clients, which matches how monthly and yearly tasks behave.
func RRule(r models.Recurrence) string {
	switch r.Type {
	case constants.RecurrenceWeekly:
		return "FREQ=WEEKLY;BYDAY=" + strings.ToUpper(r.Weekday.String()[:2])
	case constants.RecurrenceMonthly:
		return fmt.Sprintf("FREQ=MONTHLY;BYMONTHDAY=%d", r.DayOfMonth)
	case constants.RecurrenceYearly:
		return fmt.Sprintf("FREQ=YEARLY;BYMONTH=%d;BYMONTHDAY=%d", r.Month, r.Day)
	default:
		return "FREQ=DAILY"
	}
}

// firstOccurrence scans forward at most four years, enough to reach a leap day.
func firstOccurrence(task models.TaskDefinition, from time.Time) (time.Time, bool) {
	for i := 0; i < 366*4+1; i++ {
		d := utils.AddDays(from, i)
		if utils.OccursOn(task, d) {
			return d, true
		}
	}
	return time.Time{}, false
}

// Trigger converts a reminder rule to a VALARM trigger relative to the event start.
func Trigger(rule models.ReminderRule) (string, bool) {
	switch rule.Type {
	case constants.ReminderAdvanceByMinutes:
		return fmt.Sprintf("-PT%dM", rule.Minutes), true
	case constants.ReminderAdvanceByDuration:
		if rule.SameDay {
			return "", false
		}
		return fmt.Sprintf("-P%dD", rule.Days), true
	case constants.ReminderOverdueAfter:
		return fmt.Sprintf("PT%dM", rule.Minutes), true
	default:
		return "", false
	}
}

type writer struct {
	b     strings.Builder
	stamp string
}

func newWriter(now time.Time) *writer {
	w := &writer{stamp: now.UTC().Format(icsUTCLayout)}
	w.begin("VCALENDAR")
	w.line("VERSION", "2.0")
	w.line("PRODID", prodID)
	w.line("CALSCALE", "GREGORIAN")
	w.line("METHOD", "PUBLISH")
	return w
}

func (w *writer) eventBody(task models.TaskDefinition, opts Options) {
	if desc := strings.TrimSpace(task.Description); desc != "" {
		w.text("DESCRIPTION", desc)
	}
	if task.Category != "" {
		label := task.Category
		if opts.Labels != nil {
			label = opts.Labels(task.Category)
		}
		w.text("CATEGORIES", label)
	}
	if !opts.Alarms {
		return
	}
	if trigger, ok := Trigger(task.Reminder); ok {
		w.begin("VALARM")
		w.line("ACTION", "DISPLAY")
		w.text("DESCRIPTION", task.Title)
		w.line("TRIGGER", trigger)
		w.end("VALARM")
	}
}

func (w *writer) begin(component string) { w.line("BEGIN", component) }
func (w *writer) end(component string)   { w.line("END", component) }

func (w *writer) text(name, value string) {
	w.line(name, escapeText(value))
}

func (w *writer) line(name, value string) {
	w.b.WriteString(fold(name + ":" + value))
	w.b.WriteString("\r\n")
}

func (w *writer) finish() string {
	w.end("VCALENDAR")
	return w.b.String()
}

func escapeText(s string) string {
	repl := strings.NewReplacer(
		"\\", "\\\\",
		";", "\\;",
		",", "\\,",
		"\r\n", "\\n",
		"\n", "\\n",
		"\r", "\\n",
	)
	return repl.Replace(s)
}

// fold splits a content line into 75-octet chunks without breaking UTF-8 sequences.
func fold(line string) string {
	if len(line) <= maxLineOctets {
		return line
	}
	var b strings.Builder
	limit := maxLineOctets
	width := 0
	for _, r := range line {
		n := len(string(r))
		if width+n > limit {
			b.WriteString("\r\n ")
			width = 0
			limit = maxLineOctets - 1
		}
		b.WriteRune(r)
		width += n
	}
	return b.String()
}
