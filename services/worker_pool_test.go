package services

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/NomadCrew/tripsync-backend/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	resetWorkerPoolMetricsForTesting()
	resetEmailMetricsForTesting()
	os.Exit(m.Run())
}

func testPoolConfig(workers, queue int) config.WorkerPoolConfig {
	return config.WorkerPoolConfig{
		MaxWorkers:             workers,
		QueueSize:              queue,
		ShutdownTimeoutSeconds: 5,
		JobTimeoutSeconds:      5,
	}
}

func TestWorkerPool_SubmitAndExecute(t *testing.T) {
	pool := NewWorkerPool(testPoolConfig(2, 10))
	pool.Start()
	defer pool.Shutdown(context.Background())

	done := make(chan struct{})
	require.True(t, pool.Submit(Job{
		Name: "generate-itinerary",
		Execute: func(ctx context.Context) error {
			close(done)
			return nil
		},
	}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run")
	}
}

func TestWorkerPool_BoundedConcurrency(t *testing.T) {
	pool := NewWorkerPool(testPoolConfig(2, 100))
	pool.Start()
	defer pool.Shutdown(context.Background())

	var current, peak int32
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		require.True(t, pool.Submit(Job{
			Name: "regenerate-image",
			Execute: func(ctx context.Context) error {
				defer wg.Done()
				n := atomic.AddInt32(&current, 1)
				defer atomic.AddInt32(&current, -1)
				mu.Lock()
				if n > peak {
					peak = n
				}
				mu.Unlock()
				time.Sleep(30 * time.Millisecond)
				return nil
			},
		}))
	}
	wg.Wait()

	assert.LessOrEqual(t, peak, int32(2))
}

func TestWorkerPool_QueueFullDrops(t *testing.T) {
	pool := NewWorkerPool(testPoolConfig(1, 1))
	pool.Start()

	blocker := make(chan struct{})
	started := make(chan struct{})
	require.True(t, pool.Submit(Job{Name: "blocker", Execute: func(ctx context.Context) error {
		close(started)
		<-blocker
		return nil
	}}))
	<-started

	noop := func(ctx context.Context) error { return nil }
	assert.True(t, pool.Submit(Job{Name: "queued", Execute: noop}))
	assert.False(t, pool.Submit(Job{Name: "overflow", Execute: noop}))

	close(blocker)
	require.NoError(t, pool.Shutdown(context.Background()))
}

func TestWorkerPool_ShutdownDrainsQueue(t *testing.T) {
	pool := NewWorkerPool(testPoolConfig(1, 10))
	pool.Start()

	var ran int32
	for i := 0; i < 5; i++ {
		pool.Submit(Job{Name: "queued", Execute: func(ctx context.Context) error {
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&ran, 1)
			return nil
		}})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, pool.Shutdown(ctx))

	assert.Equal(t, int32(5), atomic.LoadInt32(&ran))
	assert.False(t, pool.IsRunning())
}

func TestWorkerPool_ShutdownTimeoutCancelsJobs(t *testing.T) {
	pool := NewWorkerPool(testPoolConfig(1, 10))
	pool.Start()

	started := make(chan struct{})
	cancelled := make(chan struct{})
	pool.Submit(Job{Name: "slow", Execute: func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		close(cancelled)
		return ctx.Err()
	}})
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := pool.Shutdown(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("running job was not cancelled")
	}
}

func TestWorkerPool_SubmitAfterShutdown(t *testing.T) {
	pool := NewWorkerPool(testPoolConfig(1, 10))
	pool.Start()
	require.NoError(t, pool.Shutdown(context.Background()))
	require.NoError(t, pool.Shutdown(context.Background()))

	assert.False(t, pool.Submit(Job{Name: "late", Execute: func(ctx context.Context) error { return nil }}))
}

func TestWorkerPool_SurvivesErrorsAndPanics(t *testing.T) {
	pool := NewWorkerPool(testPoolConfig(1, 10))
	pool.Start()
	defer pool.Shutdown(context.Background())

	pool.Submit(Job{Name: "fails", Execute: func(ctx context.Context) error { return assert.AnError }})
	pool.Submit(Job{Name: "panics", Execute: func(ctx context.Context) error { panic("boom") }})

	done := make(chan struct{})
	pool.Submit(Job{Name: "after", Execute: func(ctx context.Context) error {
		close(done)
		return nil
	}})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker died")
	}
}

func TestWorkerPool_JobDeadline(t *testing.T) {
	cfg := testPoolConfig(1, 1)
	cfg.JobTimeoutSeconds = 1
	pool := NewWorkerPool(cfg)
	pool.Start()
	defer pool.Shutdown(context.Background())

	deadline := make(chan time.Time, 1)
	pool.Submit(Job{Name: "deadline", Execute: func(ctx context.Context) error {
		d, _ := ctx.Deadline()
		deadline <- d
		return nil
	}})

	d := <-deadline
	assert.WithinDuration(t, time.Now().Add(time.Second), d, 500*time.Millisecond)
}
