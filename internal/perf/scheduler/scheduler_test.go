package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPriorityOrdering(t *testing.T) {
	s := New(Config{InitialWorkers: 1, MaxWorkers: 1, QueueCapacity: 100})
	defer s.Shutdown(context.Background())

	var mu sync.Mutex
	var order []Priority

	// block the single worker while we queue up a batch across priorities
	block := make(chan struct{})
	first, ok := s.Submit(Critical, time.Time{}, func(ctx context.Context) { <-block })
	require.True(t, ok)

	submissions := []Priority{Low, Normal, Critical, High, Idle, Critical}
	tasks := make([]*Task, 0, len(submissions))
	for _, p := range submissions {
		p := p
		tk, ok := s.Submit(p, time.Time{}, func(ctx context.Context) {
			mu.Lock()
			order = append(order, p)
			mu.Unlock()
		})
		require.True(t, ok)
		tasks = append(tasks, tk)
	}

	close(block)
	first.Wait()
	for _, tk := range tasks {
		tk.Wait()
	}

	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(order); i++ {
		require.LessOrEqual(t, order[i-1], order[i], "priorities must run in non-decreasing ordinal order")
	}
}

func TestQueueFullBackpressure(t *testing.T) {
	s := New(Config{InitialWorkers: 1, MaxWorkers: 1, QueueCapacity: 1})
	defer s.Shutdown(context.Background())

	block := make(chan struct{})
	started := make(chan struct{})
	_, ok := s.Submit(Normal, time.Time{}, func(ctx context.Context) { close(started); <-block })
	require.True(t, ok)
	<-started // the worker has dequeued the blocking task; the queue is empty again

	_, ok = s.Submit(Normal, time.Time{}, func(ctx context.Context) {})
	require.True(t, ok)

	_, ok = s.Submit(Normal, time.Time{}, func(ctx context.Context) {})
	require.False(t, ok, "third submission must be rejected once the queue is at capacity")

	close(block)
}

func TestDeadlineOverdueStillExecutes(t *testing.T) {
	s := New(Config{InitialWorkers: 1, MaxWorkers: 1, QueueCapacity: 10})
	defer s.Shutdown(context.Background())

	ran := make(chan struct{})
	tk, ok := s.Submit(Normal, time.Now().Add(-time.Hour), func(ctx context.Context) { close(ran) })
	require.True(t, ok)
	tk.Wait()

	select {
	case <-ran:
	default:
		t.Fatal("overdue task must still execute")
	}
}
