package shutdown

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestManager_ShutdownIsLIFOAndSequential(t *testing.T) {
	m := NewManager(zaptest.NewLogger(t), time.Second)

	var mu sync.Mutex
	var order []string
	record := func(name string) ShutdownFunc {
		return func(ctx context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			time.Sleep(5 * time.Millisecond)
			return nil
		}
	}

	m.Register("database", record("database"))
	m.Register("webhooks", record("webhooks"))
	m.Register("http", record("http"))

	require.NoError(t, m.Shutdown())
	assert.Equal(t, []string{"http", "webhooks", "database"}, order)
}

func TestManager_ShutdownJoinsErrors(t *testing.T) {
	m := NewManager(zaptest.NewLogger(t), time.Second)
	boom := errors.New("boom")

	closed := false
	m.RegisterNoErr("pool", func() { closed = true })
	m.Register("grpc", func(ctx context.Context) error { return boom })

	err := m.Shutdown()
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "grpc")
	assert.True(t, closed, "later components still run after a failure")
}

func TestManager_WaitForShutdownOnContextCancel(t *testing.T) {
	m := NewManager(zaptest.NewLogger(t), time.Second)
	var called atomic.Bool
	m.Register("http", func(ctx context.Context) error {
		called.Store(true)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, m.WaitForShutdown(ctx))
	assert.True(t, called.Load())
}

func TestInFlightTracker_RejectsAfterShutdown(t *testing.T) {
	tracker := NewInFlightTracker("test", zaptest.NewLogger(t))

	ran := tracker.RunWithContext(context.Background(), func(context.Context) {})
	assert.True(t, ran)
	assert.False(t, tracker.IsShuttingDown())

	require.NoError(t, tracker.Shutdown(context.Background()))
	assert.True(t, tracker.IsShuttingDown())
	assert.False(t, tracker.Add())

	// second shutdown must not panic on a closed channel
	require.NoError(t, tracker.Shutdown(context.Background()))
}

func TestInFlightTracker_ShutdownTimeout(t *testing.T) {
	tracker := NewInFlightTracker("test", zaptest.NewLogger(t))
	require.True(t, tracker.Add())
	defer tracker.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := tracker.Shutdown(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPeriodicWorker_RunsUntilShutdown(t *testing.T) {
	worker := NewPeriodicWorker("health", 5*time.Millisecond, zaptest.NewLogger(t))
	var runs atomic.Int32
	worker.Start(func(ctx context.Context) { runs.Add(1) })

	require.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, time.Millisecond)
	require.NoError(t, worker.Shutdown(context.Background()))

	after := runs.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, runs.Load())
}
