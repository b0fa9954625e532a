package status

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/ticktask/internal/constants"
	"github.com/julianstephens/ticktask/internal/models"
	"github.com/julianstephens/ticktask/internal/utils"
)

var day = time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC) // a Monday

func at(h, m int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, time.UTC)
}

func dailyTask(rule models.ReminderRule, times ...models.TimeOfDay) models.TaskDefinition {
	return models.TaskDefinition{
		ID:              "task-1",
		Title:           "Evening review",
		Category:        "work",
		Recurrence:      models.Recurrence{Type: constants.RecurrenceDaily},
		CompletionTimes: times,
		Reminder:        rule,
	}
}

func resolve(t *testing.T, def models.TaskDefinition, d time.Time) models.Occurrence {
	t.Helper()
	occ, err := utils.ResolveOccurrence(def, d)
	require.NoError(t, err)
	return occ
}

func TestOverdueAfterScenario(t *testing.T) {
	def := dailyTask(models.ReminderRule{Type: constants.ReminderOverdueAfter, Minutes: 10}, models.TimeOfDay{Hour: 18})
	occ := resolve(t, def, day)
	var none models.CompletionRecord

	st, err := StatusOf(def, occ, none, at(18, 9))
	require.NoError(t, err)
	assert.Equal(t, constants.StatusPending, st)

	fire, err := ShouldFireReminderNow(def, occ, none, at(18, 9))
	require.NoError(t, err)
	assert.False(t, fire)

	st, err = StatusOf(def, occ, none, at(18, 10))
	require.NoError(t, err)
	assert.Equal(t, constants.StatusMissed, st)

	fire, err = ShouldFireReminderNow(def, occ, none, at(18, 10))
	require.NoError(t, err)
	assert.True(t, fire)
}

func TestOverdueAfterGraceDelaysMissed(t *testing.T) {
	def := dailyTask(models.ReminderRule{Type: constants.ReminderOverdueAfter, Minutes: 60}, models.TimeOfDay{Hour: 18})
	occ := resolve(t, def, day)

	tests := []struct {
		now    time.Time
		status constants.Status
		fire   bool
	}{
		{at(18, 0), constants.StatusPending, false},
		{at(18, 30), constants.StatusPending, false},
		{at(18, 59), constants.StatusPending, false},
		{at(19, 0), constants.StatusMissed, true},
		{at(19, 9), constants.StatusMissed, true},
		{at(19, 10), constants.StatusMissed, false},
	}
	for _, tt := range tests {
		st, err := StatusOf(def, occ, models.CompletionRecord{}, tt.now)
		require.NoError(t, err)
		assert.Equal(t, tt.status, st, "now=%s", tt.now.Format(constants.TimeFormat))

		fire, err := ShouldFireReminderNow(def, occ, models.CompletionRecord{}, tt.now)
		require.NoError(t, err)
		assert.Equal(t, tt.fire, fire, "now=%s", tt.now.Format(constants.TimeFormat))
	}
}

func TestOverdueDoesNotFireWhenCompleted(t *testing.T) {
	def := dailyTask(models.ReminderRule{Type: constants.ReminderOverdueAfter, Minutes: 10}, models.TimeOfDay{Hour: 18})
	occ := resolve(t, def, day)
	done := at(17, 30)
	rec := models.CompletionRecord{TaskID: def.ID, Date: occ.DateKey(), Completed: true, CompletedAt: &done}

	fire, err := ShouldFireReminderNow(def, occ, rec, at(18, 10))
	require.NoError(t, err)
	assert.False(t, fire)

	st, err := StatusOf(def, occ, rec, at(23, 0))
	require.NoError(t, err)
	assert.Equal(t, constants.StatusCompleted, st)
}

func TestMultipleCheckpointsLatestWins(t *testing.T) {
	def := dailyTask(models.ReminderRule{Type: constants.ReminderNone}, models.TimeOfDay{Hour: 9}, models.TimeOfDay{Hour: 18})
	occ := resolve(t, def, day)

	tests := []struct {
		now  time.Time
		want constants.Status
	}{
		{at(8, 0), constants.StatusPending},
		{at(12, 0), constants.StatusPending},
		{at(18, 0), constants.StatusPending},
		{at(18, 1), constants.StatusMissed},
	}
	for _, tt := range tests {
		st, err := StatusOf(def, occ, models.CompletionRecord{}, tt.now)
		require.NoError(t, err)
		assert.Equal(t, tt.want, st, "now=%s", tt.now.Format(constants.TimeFormat))
	}
}

func TestCompletingMissedOccurrence(t *testing.T) {
	def := dailyTask(models.ReminderRule{Type: constants.ReminderNone}, models.TimeOfDay{Hour: 9})
	occ := resolve(t, def, day)

	st, err := StatusOf(def, occ, models.CompletionRecord{}, at(10, 0))
	require.NoError(t, err)
	assert.Equal(t, constants.StatusMissed, st)

	late := at(10, 0)
	st, err = StatusOf(def, occ, models.CompletionRecord{Completed: true, CompletedAt: &late}, at(10, 0))
	require.NoError(t, err)
	assert.Equal(t, constants.StatusCompleted, st)

	// Undo re-evaluates live against the deadline
	st, err = StatusOf(def, occ, models.CompletionRecord{}, at(10, 1))
	require.NoError(t, err)
	assert.Equal(t, constants.StatusMissed, st)
}

func TestInvalidOccurrence(t *testing.T) {
	def := models.TaskDefinition{
		ID:              "weekly",
		Title:           "Team sync",
		Recurrence:      models.Recurrence{Type: constants.RecurrenceWeekly, Weekday: time.Monday},
		CompletionTimes: []models.TimeOfDay{{Hour: 10}},
		Reminder:        models.ReminderRule{Type: constants.ReminderAdvanceByMinutes, Minutes: 15},
	}
	tuesday := day.AddDate(0, 0, 1)
	assert.False(t, utils.OccursOn(def, tuesday))

	forged := models.Occurrence{
		TaskID:         def.ID,
		Date:           tuesday,
		TargetInstants: []time.Time{tuesday.Add(10 * time.Hour)},
	}

	_, err := StatusOf(def, forged, models.CompletionRecord{}, tuesday.Add(9*time.Hour))
	assert.ErrorIs(t, err, models.ErrInvalidOccurrence)

	_, err = ShouldFireReminderNow(def, forged, models.CompletionRecord{}, tuesday.Add(9*time.Hour))
	assert.ErrorIs(t, err, models.ErrInvalidOccurrence)

	_, _, err = NextReminderInstant(def, forged, models.CompletionRecord{}, tuesday)
	assert.ErrorIs(t, err, models.ErrInvalidOccurrence)

	// An occurrence of another task is rejected as well
	other := resolve(t, def, day)
	other.TaskID = "someone-else"
	_, err = StatusOf(def, other, models.CompletionRecord{}, at(9, 0))
	assert.ErrorIs(t, err, models.ErrInvalidOccurrence)
}

func TestAdvanceByMinutesWindow(t *testing.T) {
	def := dailyTask(models.ReminderRule{Type: constants.ReminderAdvanceByMinutes, Minutes: 15}, models.TimeOfDay{Hour: 18})
	occ := resolve(t, def, day)

	tests := []struct {
		now  time.Time
		want bool
	}{
		{at(17, 44), false},
		{at(17, 45), true},
		{at(17, 59), true},
		{at(18, 0), false},
	}
	for _, tt := range tests {
		fire, err := ShouldFireReminderNow(def, occ, models.CompletionRecord{}, tt.now)
		require.NoError(t, err)
		assert.Equal(t, tt.want, fire, "now=%s", tt.now.Format(constants.TimeFormat))
	}
}

func TestAdvanceByMinutesPerCheckpoint(t *testing.T) {
	def := dailyTask(models.ReminderRule{Type: constants.ReminderAdvanceByMinutes, Minutes: 10}, models.TimeOfDay{Hour: 18}, models.TimeOfDay{Hour: 9})
	occ := resolve(t, def, day)

	due, err := DueWindows(def, occ, models.CompletionRecord{}, at(8, 55))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, 0, due[0].Checkpoint)
	assert.Equal(t, constants.ReminderKindAdvance, due[0].Kind)

	due, err = DueWindows(def, occ, models.CompletionRecord{}, at(17, 55))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, 1, due[0].Checkpoint)
}

func TestAdvanceByDurationDaysBefore(t *testing.T) {
	def := dailyTask(models.ReminderRule{Type: constants.ReminderAdvanceByDuration, Days: 2}, models.TimeOfDay{Hour: 9})
	occ := resolve(t, def, day)

	twoDaysBefore := day.AddDate(0, 0, -2)
	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"earlier that day", twoDaysBefore.Add(8 * time.Hour), false},
		{"at checkpoint time", twoDaysBefore.Add(9 * time.Hour), true},
		{"late that day", twoDaysBefore.Add(23*time.Hour + 59*time.Minute), true},
		{"next day", twoDaysBefore.AddDate(0, 0, 1).Add(9 * time.Hour), false},
		{"occurrence day", at(8, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fire, err := ShouldFireReminderNow(def, occ, models.CompletionRecord{}, tt.now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, fire)
		})
	}
}

func TestAdvanceByDurationSameDay(t *testing.T) {
	def := dailyTask(models.ReminderRule{Type: constants.ReminderAdvanceByDuration, Days: 3, SameDay: true}, models.TimeOfDay{Hour: 9})
	occ := resolve(t, def, day)

	fire, err := ShouldFireReminderNow(def, occ, models.CompletionRecord{}, at(0, 0))
	require.NoError(t, err)
	assert.True(t, fire, "same-day reminder opens at midnight of the occurrence date")

	fire, err = ShouldFireReminderNow(def, occ, models.CompletionRecord{}, day.AddDate(0, 0, -3).Add(9*time.Hour))
	require.NoError(t, err)
	assert.False(t, fire, "days are not combined with the same-day mode")

	fire, err = ShouldFireReminderNow(def, occ, models.CompletionRecord{}, at(9, 0))
	require.NoError(t, err)
	assert.False(t, fire)
}

func TestNoReminderNeverFires(t *testing.T) {
	def := dailyTask(models.ReminderRule{Type: constants.ReminderNone}, models.TimeOfDay{Hour: 9})
	occ := resolve(t, def, day)
	for h := 0; h < 24; h++ {
		fire, err := ShouldFireReminderNow(def, occ, models.CompletionRecord{}, at(h, 0))
		require.NoError(t, err)
		assert.False(t, fire)
	}
	_, ok, err := NextReminderInstant(def, occ, models.CompletionRecord{}, at(0, 0))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNextReminderInstant(t *testing.T) {
	def := dailyTask(models.ReminderRule{Type: constants.ReminderAdvanceByMinutes, Minutes: 30}, models.TimeOfDay{Hour: 9}, models.TimeOfDay{Hour: 18})
	occ := resolve(t, def, day)

	next, ok, err := NextReminderInstant(def, occ, models.CompletionRecord{}, at(7, 0))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, at(8, 30), next)

	next, ok, err = NextReminderInstant(def, occ, models.CompletionRecord{}, at(8, 45))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, at(17, 30), next)

	_, ok, err = NextReminderInstant(def, occ, models.CompletionRecord{}, at(17, 45))
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = NextReminderInstant(def, occ, models.CompletionRecord{Completed: true}, at(7, 0))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWindowKey(t *testing.T) {
	def := dailyTask(models.ReminderRule{Type: constants.ReminderOverdueAfter, Minutes: 5}, models.TimeOfDay{Hour: 9})
	occ := resolve(t, def, day)
	windows, err := Windows(def, occ)
	require.NoError(t, err)
	require.Len(t, windows, 1)

	key := windows[0].Key(occ)
	assert.Equal(t, models.ReminderKey{TaskID: "task-1", Date: "2024-05-06", Checkpoint: 0, Kind: constants.ReminderKindOverdue}, key)
	assert.Equal(t, at(9, 5), windows[0].Start)
	assert.Equal(t, at(9, 5).Add(constants.ReminderGracePeriod), windows[0].End)
}
