package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/ticktask/internal/constants"
	"github.com/julianstephens/ticktask/internal/models"
	"github.com/julianstephens/ticktask/internal/utils"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func record(d time.Time, category string, st constants.Status) models.StatisticsRecord {
	return models.StatisticsRecord{Date: d, TaskID: "t-" + string(st), Title: "task", Category: category, Status: st}
}

func TestAggregateByDay(t *testing.T) {
	records := []models.StatisticsRecord{
		record(date(2024, 5, 1), "work", constants.StatusCompleted),
		record(date(2024, 5, 1), "work", constants.StatusMissed),
		record(date(2024, 5, 2), "work", constants.StatusCompleted),
	}
	rng := utils.DateRange{Start: date(2024, 5, 1), End: date(2024, 5, 31)}

	groups := Aggregate(records, rng, constants.GroupByDay, Filters{Category: "work", Status: constants.StatusAll})

	require.Len(t, groups, 2)
	assert.Equal(t, GroupSummary{Key: "2024-05-01", Total: 2, Completed: 1, Missed: 1, CompletionRate: 0.5}, groups[0])
	assert.Equal(t, GroupSummary{Key: "2024-05-02", Total: 1, Completed: 1, CompletionRate: 1}, groups[1])
}

func TestAggregateGroupsAscending(t *testing.T) {
	records := []models.StatisticsRecord{
		record(date(2024, 3, 9), "work", constants.StatusMissed),
		record(date(2023, 12, 31), "work", constants.StatusCompleted),
		record(date(2024, 1, 2), "health", constants.StatusPending),
		record(date(2024, 3, 1), "work", constants.StatusCompleted),
	}
	rng := utils.DateRange{Start: date(2023, 1, 1), End: date(2024, 12, 31)}

	months := Aggregate(records, rng, constants.GroupByMonth, Filters{})
	keys := make([]string, len(months))
	for i, g := range months {
		keys[i] = g.Key
	}
	assert.Equal(t, []string{"2023-12", "2024-01", "2024-03"}, keys)
	assert.Equal(t, 2, months[2].Total)

	years := Aggregate(records, rng, constants.GroupByYear, Filters{})
	require.Len(t, years, 2)
	assert.Equal(t, "2023", years[0].Key)
	assert.Equal(t, "2024", years[1].Key)
	assert.Equal(t, 3, years[1].Total)
	assert.InDelta(t, 1.0/3.0, years[1].CompletionRate, 1e-9)
}

func TestAggregateFilters(t *testing.T) {
	records := []models.StatisticsRecord{
		record(date(2024, 5, 1), "work", constants.StatusCompleted),
		record(date(2024, 5, 1), "health", constants.StatusMissed),
		record(date(2024, 5, 3), "work", constants.StatusMissed),
		record(date(2024, 5, 5), "work", constants.StatusCompleted),
	}

	t.Run("range is inclusive", func(t *testing.T) {
		rng := utils.DateRange{Start: date(2024, 5, 1), End: date(2024, 5, 3)}
		groups := Aggregate(records, rng, constants.GroupByMonth, Filters{Category: constants.CategoryAll})
		require.Len(t, groups, 1)
		assert.Equal(t, 3, groups[0].Total)
	})

	t.Run("category", func(t *testing.T) {
		rng := utils.DateRange{Start: date(2024, 5, 1), End: date(2024, 5, 31)}
		groups := Aggregate(records, rng, constants.GroupByMonth, Filters{Category: "health"})
		require.Len(t, groups, 1)
		assert.Equal(t, 1, groups[0].Missed)
		assert.Zero(t, groups[0].CompletionRate)
	})

	t.Run("status", func(t *testing.T) {
		rng := utils.DateRange{Start: date(2024, 5, 1), End: date(2024, 5, 31)}
		groups := Aggregate(records, rng, constants.GroupByDay, Filters{Status: constants.StatusMissed})
		require.Len(t, groups, 2)
		assert.Equal(t, "2024-05-01", groups[0].Key)
		assert.Equal(t, "2024-05-03", groups[1].Key)
	})

	t.Run("no match yields empty list", func(t *testing.T) {
		rng := utils.DateRange{Start: date(2024, 6, 1), End: date(2024, 6, 30)}
		groups := Aggregate(records, rng, constants.GroupByDay, Filters{})
		assert.NotNil(t, groups)
		assert.Empty(t, groups)
	})

	t.Run("empty input", func(t *testing.T) {
		rng := utils.DateRange{Start: date(2024, 5, 1), End: date(2024, 5, 31)}
		assert.Empty(t, Aggregate(nil, rng, constants.GroupByDay, Filters{}))
	})
}

func TestOverall(t *testing.T) {
	groups := []GroupSummary{
		{Key: "2024-05-01", Total: 2, Completed: 1, Missed: 1},
		{Key: "2024-05-02", Total: 1, Completed: 1},
	}
	o := Overall(groups)
	assert.Equal(t, 3, o.Total)
	assert.Equal(t, 2, o.Completed)
	assert.Equal(t, 67, o.CompletionPercent)

	empty := Overall(nil)
	assert.Zero(t, empty.Total)
	assert.Zero(t, empty.CompletionRate)
}

func TestParseHelpers(t *testing.T) {
	g, err := ParseGroupBy("")
	require.NoError(t, err)
	assert.Equal(t, constants.GroupByDay, g)

	_, err = ParseGroupBy("week")
	assert.Error(t, err)

	st, err := ParseStatus("missed")
	require.NoError(t, err)
	assert.Equal(t, constants.StatusMissed, st)

	_, err = ParseStatus("late")
	assert.Error(t, err)
}

func TestBuildRecords(t *testing.T) {
	daily := models.TaskDefinition{
		ID:              "daily",
		Title:           "Journal",
		Category:        "personal",
		Recurrence:      models.Recurrence{Type: constants.RecurrenceDaily},
		CompletionTimes: []models.TimeOfDay{{Hour: 21}},
	}
	deletedAt := "2024-05-02T12:00:00Z"
	removed := models.TaskDefinition{
		ID:              "removed",
		Title:           "Old habit",
		Category:        "health",
		Recurrence:      models.Recurrence{Type: constants.RecurrenceDaily},
		CompletionTimes: []models.TimeOfDay{{Hour: 8}},
		DeletedAt:       &deletedAt,
	}

	doneAt := time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)
	ledger := map[string]models.CompletionRecord{
		models.RecordKey("daily", "2024-05-01"): {TaskID: "daily", Date: "2024-05-01", Completed: true, CompletedAt: &doneAt},
	}
	now := time.Date(2024, 5, 3, 12, 0, 0, 0, time.UTC)
	rng := utils.DateRange{Start: date(2024, 5, 1), End: date(2024, 5, 10)}

	recs, err := BuildRecords([]models.TaskDefinition{daily, removed}, ledger, rng, now)
	require.NoError(t, err)

	// daily: 1st completed, 2nd missed, 3rd pending; removed: 1st and 2nd missed
	require.Len(t, recs, 5)

	counts := map[constants.Status]int{}
	for _, r := range recs {
		counts[r.Status]++
	}
	assert.Equal(t, 1, counts[constants.StatusCompleted])
	assert.Equal(t, 3, counts[constants.StatusMissed])
	assert.Equal(t, 1, counts[constants.StatusPending])

	groups := Aggregate(recs, rng, constants.GroupByDay, Filters{Category: "personal"})
	require.Len(t, groups, 3)
	assert.Equal(t, 1.0, groups[0].CompletionRate)
}
