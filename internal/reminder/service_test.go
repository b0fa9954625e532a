package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/ticktask/internal/constants"
	"github.com/julianstephens/ticktask/internal/models"
	"github.com/julianstephens/ticktask/internal/notifier"
	"github.com/julianstephens/ticktask/internal/storage/memory"
)

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []notifier.Message
	err  error
	sent chan notifier.Message
}

func (r *recordingNotifier) Notify(_ context.Context, msg notifier.Message) error {
	r.mu.Lock()
	r.msgs = append(r.msgs, msg)
	r.mu.Unlock()
	if r.sent != nil {
		select {
		case r.sent <- msg:
		default:
		}
	}
	return r.err
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

func setupStore(t *testing.T, lang string) *memory.Store {
	t.Helper()
	store := memory.New()
	require.NoError(t, store.Init())
	settings := models.DefaultSettings()
	settings.Timezone = "UTC"
	settings.Language = lang
	require.NoError(t, store.SaveSettings(settings))
	return store
}

func dailyTask(id string, times []models.TimeOfDay, rule models.ReminderRule) models.TaskDefinition {
	return models.TaskDefinition{
		ID:              id,
		Title:           "Task " + id,
		Category:        "work",
		Recurrence:      models.Recurrence{Type: constants.RecurrenceDaily},
		CompletionTimes: times,
		Reminder:        rule,
		CreatedAt:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestTickFiresOnce(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t, constants.LanguageEn)
	require.NoError(t, store.AddTask(dailyTask("t1", []models.TimeOfDay{{Hour: 9}}, models.ReminderRule{
		Type: constants.ReminderAdvanceByMinutes, Minutes: 30,
	})))

	rec := &recordingNotifier{}
	svc := NewService(store, rec, Options{Now: fixedNow(time.Date(2024, 5, 1, 8, 45, 0, 0, time.UTC))})

	res, err := svc.Tick(ctx)
	require.NoError(t, err)
	require.Len(t, res.Fired, 1)
	assert.Equal(t, "2024-05-01", res.Fired[0].Occurrence.DateKey())
	assert.Equal(t, constants.ReminderKindAdvance, res.Fired[0].Window.Kind)
	assert.Equal(t, "Due at 09:00 on 2024-05-01", res.Fired[0].Message.Body)
	assert.Equal(t, time.Date(2024, 5, 2, 8, 30, 0, 0, time.UTC), res.Next.UTC())

	res, err = svc.Tick(ctx)
	require.NoError(t, err)
	assert.Empty(t, res.Fired)
	assert.Equal(t, 1, rec.count())
}

func TestTickSkipsCompleted(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t, constants.LanguageEn)
	require.NoError(t, store.AddTask(dailyTask("t1", []models.TimeOfDay{{Hour: 9}}, models.ReminderRule{
		Type: constants.ReminderAdvanceByMinutes, Minutes: 30,
	})))
	now := time.Date(2024, 5, 1, 8, 45, 0, 0, time.UTC)
	_, err := store.Ledger().RecordCompletion(ctx, "t1", "2024-05-01", now.Add(-time.Minute))
	require.NoError(t, err)

	rec := &recordingNotifier{}
	res, err := NewService(store, rec, Options{Now: fixedNow(now)}).Tick(ctx)
	require.NoError(t, err)
	assert.Empty(t, res.Fired)
	assert.Zero(t, rec.count())
}

func TestTickOverdueAcrossMidnight(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t, constants.LanguageZh)
	require.NoError(t, store.AddTask(dailyTask("late", []models.TimeOfDay{{Hour: 23, Minute: 55}}, models.ReminderRule{
		Type: constants.ReminderOverdueAfter, Minutes: 10,
	})))

	rec := &recordingNotifier{}
	res, err := NewService(store, rec, Options{Now: fixedNow(time.Date(2024, 5, 2, 0, 7, 0, 0, time.UTC))}).Tick(ctx)
	require.NoError(t, err)
	require.Len(t, res.Fired, 1)
	assert.Equal(t, "2024-05-01", res.Fired[0].Occurrence.DateKey())
	assert.Equal(t, constants.ReminderKindOverdue, res.Fired[0].Window.Kind)
	assert.Equal(t, "已超过截止时间 2024-05-01 23:55", res.Fired[0].Message.Body)
}

func TestTickAdvanceDaysLooksAhead(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t, constants.LanguageEn)
	task := dailyTask("rent", []models.TimeOfDay{{Hour: 9}}, models.ReminderRule{
		Type: constants.ReminderAdvanceByDuration, Days: 3,
	})
	task.Recurrence = models.Recurrence{Type: constants.RecurrenceMonthly, DayOfMonth: 4}
	require.NoError(t, store.AddTask(task))

	rec := &recordingNotifier{}
	res, err := NewService(store, rec, Options{Now: fixedNow(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))}).Tick(ctx)
	require.NoError(t, err)
	require.Len(t, res.Fired, 1)
	assert.Equal(t, "2024-05-04", res.Fired[0].Occurrence.DateKey())
}

func TestTickDryRunDoesNotRecord(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t, constants.LanguageEn)
	require.NoError(t, store.AddTask(dailyTask("t1", []models.TimeOfDay{{Hour: 9}}, models.ReminderRule{
		Type: constants.ReminderAdvanceByMinutes, Minutes: 30,
	})))

	rec := &recordingNotifier{}
	svc := NewService(store, rec, Options{DryRun: true, Now: fixedNow(time.Date(2024, 5, 1, 8, 45, 0, 0, time.UTC))})
	for i := 0; i < 2; i++ {
		res, err := svc.Tick(ctx)
		require.NoError(t, err)
		assert.Len(t, res.Fired, 1)
	}
	assert.Zero(t, rec.count())
}

func TestTickNotificationsDisabled(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t, constants.LanguageEn)
	settings, err := store.GetSettings()
	require.NoError(t, err)
	settings.NotificationsEnabled = false
	require.NoError(t, store.SaveSettings(settings))
	require.NoError(t, store.AddTask(dailyTask("t1", []models.TimeOfDay{{Hour: 9}}, models.ReminderRule{
		Type: constants.ReminderAdvanceByMinutes, Minutes: 30,
	})))

	rec := &recordingNotifier{}
	res, err := NewService(store, rec, Options{Now: fixedNow(time.Date(2024, 5, 1, 8, 45, 0, 0, time.UTC))}).Tick(ctx)
	require.NoError(t, err)
	assert.Empty(t, res.Fired)
	assert.Zero(t, rec.count())
}

func TestTickDeliveryFailureStaysRecorded(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t, constants.LanguageEn)
	require.NoError(t, store.AddTask(dailyTask("t1", []models.TimeOfDay{{Hour: 9}}, models.ReminderRule{
		Type: constants.ReminderAdvanceByMinutes, Minutes: 30,
	})))

	deliveryErr := errors.New("tray down")
	rec := &recordingNotifier{err: deliveryErr}
	svc := NewService(store, rec, Options{Now: fixedNow(time.Date(2024, 5, 1, 8, 45, 0, 0, time.UTC))})

	res, err := svc.Tick(ctx)
	require.NoError(t, err)
	require.Len(t, res.Fired, 1)
	assert.ErrorIs(t, res.Fired[0].Err, deliveryErr)

	res, err = svc.Tick(ctx)
	require.NoError(t, err)
	assert.Empty(t, res.Fired)
}

func TestRunDeliversAndStops(t *testing.T) {
	store := setupStore(t, constants.LanguageEn)
	target := time.Now().UTC().Add(10 * time.Minute)
	require.NoError(t, store.AddTask(dailyTask("soon", []models.TimeOfDay{{Hour: target.Hour(), Minute: target.Minute()}}, models.ReminderRule{
		Type: constants.ReminderAdvanceByMinutes, Minutes: 30,
	})))

	rec := &recordingNotifier{sent: make(chan notifier.Message, 1)}
	svc := NewService(store, rec, Options{Interval: 50 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	select {
	case msg := <-rec.sent:
		assert.Equal(t, "Task soon", msg.Title)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reminder")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
	assert.Equal(t, 1, rec.count())
}
