package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineEmitsInWakeOrder(t *testing.T) {
	engine := NewEngine(8)
	engine.Start()
	defer engine.Stop()

	now := time.Now()
	require.NoError(t, engine.Schedule(Wakeup{Reason: "later", At: now.Add(80 * time.Millisecond)}))
	require.NoError(t, engine.Schedule(Wakeup{Reason: "sooner", At: now.Add(20 * time.Millisecond)}))

	first := waitWakeup(t, engine.C(), time.Second)
	second := waitWakeup(t, engine.C(), time.Second)
	assert.Equal(t, "sooner", first.Reason)
	assert.Equal(t, "later", second.Reason)
}

func TestEngineCoalescesSameInstant(t *testing.T) {
	engine := NewEngine(8)
	at := time.Now().Add(time.Hour)

	require.NoError(t, engine.Schedule(Wakeup{At: at}))
	require.NoError(t, engine.Schedule(Wakeup{At: at}))
	require.NoError(t, engine.Schedule(Wakeup{At: at.Add(time.Minute)}))
	assert.Equal(t, 2, engine.Pending())
}

func TestEngineDropsWhenConsumerIsSlow(t *testing.T) {
	engine := NewEngine(1)
	engine.Start()
	defer engine.Stop()

	base := time.Now().Add(20 * time.Millisecond)
	for i := 0; i < 25; i++ {
		require.NoError(t, engine.Schedule(Wakeup{At: base.Add(time.Duration(i) * time.Microsecond)}))
	}

	assert.Eventually(t, func() bool { return engine.Dropped() > 0 }, time.Second, 10*time.Millisecond)
}

func TestEngineScheduleValidation(t *testing.T) {
	engine := NewEngine(1)
	assert.ErrorIs(t, engine.Schedule(Wakeup{}), ErrInvalidWakeTime)

	engine.Start()
	engine.Stop()
	assert.ErrorIs(t, engine.Schedule(Wakeup{At: time.Now()}), ErrEngineStopped)

	_, open := <-engine.C()
	assert.False(t, open, "C should be closed after Stop")
}

func waitWakeup(t *testing.T, ch <-chan Wakeup, timeout time.Duration) Wakeup {
	t.Helper()
	select {
	case w := <-ch:
		return w
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for wakeup")
		return Wakeup{}
	}
}
