package ttl

import (
	"context"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"redis-server/internal/logs"
	"redis-server/internal/metrics"
	"redis-server/internal/store"

	"github.com/stretchr/testify/assert"
)

/* ---------------- Mock Store ---------------- */

type mockStore struct {
	sweeps int32
}

func (m *mockStore) RemoveExpired(now time.Time) int {
	atomic.AddInt32(&m.sweeps, 1)
	return 1
}

func newTestLogger() *logs.Logger {
	return logs.NewLoggerWithOutput(10, logs.DEBUG, io.Discard)
}

/* ---------------- Tests ---------------- */

func TestCleaner_RunOnce_RemovesExpiredAndUpdatesMetrics(t *testing.T) {
	st := &mockStore{}
	reg := metrics.NewRegistry()

	cleaner := NewCleaner(st, time.Second, newTestLogger(), reg)

	cleaner.runOnce(time.Now())

	assert.Equal(t, int32(1), atomic.LoadInt32(&st.sweeps))

	snap := reg.Snapshot()
	assert.Equal(t, int64(1), snap[string(metrics.SweepRunsTotal)])
	assert.Equal(t, int64(1), snap[string(metrics.SweepKeysRemovedTotal)])
}

func TestCleaner_RunOnce_SweepsRealStore(t *testing.T) {
	reg := metrics.NewRegistry()
	st := store.NewStore(reg)
	now := time.Now()

	st.Set("temp", []byte("v"), time.Second, now)
	st.Set("live", []byte("v"), 0, now)

	cleaner := NewCleaner(st, time.Second, newTestLogger(), reg)
	cleaner.runOnce(now.Add(2 * time.Second))

	assert.Equal(t, 1, st.Len())
	assert.False(t, st.Exists("temp", now.Add(2*time.Second)))
	assert.True(t, st.Exists("live", now.Add(2*time.Second)))
}

func TestCleaner_Start_RunsPeriodicallyAndTracksRuns(t *testing.T) {
	st := &mockStore{}
	reg := metrics.NewRegistry()

	cleaner := NewCleaner(st, 5*time.Millisecond, newTestLogger(), reg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go cleaner.Start(ctx)

	assert.Eventually(t, func() bool {
		snap := reg.Snapshot()
		return snap[string(metrics.SweepRunsTotal)] >= 2
	}, 100*time.Millisecond, 5*time.Millisecond)
}

func TestCleaner_Start_StopsOnContextCancel(t *testing.T) {
	st := &mockStore{}
	reg := metrics.NewRegistry()

	cleaner := NewCleaner(st, 5*time.Millisecond, newTestLogger(), reg)

	ctx, cancel := context.WithCancel(context.Background())
	go cleaner.Start(ctx)

	time.Sleep(20 * time.Millisecond)
	cancel()

	runsAtCancel := reg.Snapshot()[string(metrics.SweepRunsTotal)]

	time.Sleep(30 * time.Millisecond)
	runsAfter := reg.Snapshot()[string(metrics.SweepRunsTotal)]

	// Allow at most one extra tick due to race with ticker
	assert.LessOrEqual(t, runsAfter, runsAtCancel+1)
}
