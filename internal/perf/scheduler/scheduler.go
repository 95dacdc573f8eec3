// Package scheduler implements the multi-worker cooperative priority
// task scheduler of spec.md §4.3: five priority lanes, per-worker local
// queues, opportunistic work stealing, and a dynamic scaling loop.
// Grounded on the pack's worker-pool examples (BJS-kr-multiplayer-server
// worker_pool/worker.go; zJUNAIDz's job-queue "final" project),
// generalized from one FIFO queue into priority lanes with stealing.
package scheduler

import (
	"container/heap"
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Priority orders tasks; lower ordinal runs first, per spec.md §4.3
// ("Critical lowest ordinal = highest priority").
type Priority int

const (
	Critical Priority = iota
	High
	Normal
	Low
	Idle
)

// Task is a unit of work submitted to the scheduler.
type Task struct {
	Priority   Priority
	SubmitTime time.Time
	Deadline   time.Time // zero value means no deadline
	Fn         func(ctx context.Context)

	done chan struct{}
}

// Wait blocks until the task has run to completion.
func (t *Task) Wait() {
	<-t.done
}

// taskHeap orders by priority first, then earlier submission time, per
// spec.md §4.3's comparison order.
type taskHeap []*Task

func (h taskHeap) Len() int { return len(h) }
func (h taskHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority < h[j].Priority
	}
	return h[i].SubmitTime.Before(h[j].SubmitTime)
}
func (h taskHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *taskHeap) Push(x any)        { *h = append(*h, x.(*Task)) }
func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// localQueue is a single worker's task heap, protected by its own mutex
// so stealing and draining never contend on a global lock.
type localQueue struct {
	mu     sync.Mutex
	tasks  taskHeap
	notify chan struct{}
}

func newLocalQueue() *localQueue {
	return &localQueue{notify: make(chan struct{}, 1)}
}

func (q *localQueue) push(t *Task) {
	q.mu.Lock()
	heap.Push(&q.tasks, t)
	q.mu.Unlock()
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *localQueue) pop() (*Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tasks) == 0 {
		return nil, false
	}
	return heap.Pop(&q.tasks).(*Task), true
}

func (q *localQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Config tunes the scheduler's worker pool sizing and scaling behavior.
type Config struct {
	MinWorkers        int
	MaxWorkers        int
	InitialWorkers    int
	QueueCapacity     int // backpressure bound per spec.md §5
	EnableWorkStealing bool
	ScaleUpThreshold  float64
	ScaleDownThreshold float64
	OnDeadlineMissed  func(*Task)
}

func (c *Config) setDefaults() {
	if c.InitialWorkers <= 0 {
		c.InitialWorkers = defaultWorkerCount()
	}
	if c.MinWorkers <= 0 {
		c.MinWorkers = 1
	}
	if c.MaxWorkers <= 0 {
		c.MaxWorkers = c.InitialWorkers * 2
	}
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = 10000
	}
	if c.ScaleUpThreshold <= 0 {
		c.ScaleUpThreshold = 0.8
	}
	if c.ScaleDownThreshold <= 0 {
		c.ScaleDownThreshold = 0.2
	}
}

// Scheduler is the priority task scheduler described by spec.md §4.3.
type Scheduler struct {
	cfg Config

	mu      sync.RWMutex
	workers []*localQueue
	active  int64 // atomic count of currently-running workers

	shutdown int32
	wg       sync.WaitGroup

	submitted  uint64
	executed   uint64
	queueFull  uint64
	deadlineMissed uint64
}

// New constructs and starts a Scheduler per cfg.
func New(cfg Config) *Scheduler {
	cfg.setDefaults()
	s := &Scheduler{cfg: cfg}

	s.workers = make([]*localQueue, cfg.MaxWorkers)
	for i := range s.workers {
		s.workers[i] = newLocalQueue()
	}

	for i := 0; i < cfg.InitialWorkers; i++ {
		s.startWorker(i)
	}
	atomic.StoreInt64(&s.active, int64(cfg.InitialWorkers))

	s.wg.Add(1)
	go s.scaleLoop()

	return s
}

func (s *Scheduler) startWorker(idx int) {
	s.wg.Add(1)
	go s.runWorker(idx)
}

// Submit enqueues fn at the given priority, returning the Task handle.
// Submission fails with false when the target worker's queue is already
// at QueueCapacity (spec.md §5 backpressure): the caller should drop the
// inbound message and bump its own counter.
func (s *Scheduler) Submit(priority Priority, deadline time.Time, fn func(ctx context.Context)) (*Task, bool) {
	return s.submitAffinity(priority, deadline, -1, fn)
}

// SubmitAffinity behaves like Submit but pins the task to a specific
// worker index when affinity >= 0, otherwise selecting the
// least-loaded active worker.
func (s *Scheduler) SubmitAffinity(priority Priority, deadline time.Time, affinity int, fn func(ctx context.Context)) (*Task, bool) {
	return s.submitAffinity(priority, deadline, affinity, fn)
}

func (s *Scheduler) submitAffinity(priority Priority, deadline time.Time, affinity int, fn func(ctx context.Context)) (*Task, bool) {
	if atomic.LoadInt32(&s.shutdown) == 1 {
		return nil, false
	}

	active := int(atomic.LoadInt64(&s.active))
	idx := affinity
	if idx < 0 || idx >= active {
		idx = s.leastLoaded(active)
	}

	q := s.workers[idx]
	if q.len() >= s.cfg.QueueCapacity {
		atomic.AddUint64(&s.queueFull, 1)
		return nil, false
	}

	t := &Task{
		Priority:   priority,
		SubmitTime: time.Now(),
		Deadline:   deadline,
		Fn:         fn,
		done:       make(chan struct{}),
	}
	atomic.AddUint64(&s.submitted, 1)
	q.push(t)
	return t, true
}

func (s *Scheduler) leastLoaded(active int) int {
	best := 0
	bestLen := -1
	for i := 0; i < active; i++ {
		l := s.workers[i].len()
		if bestLen == -1 || l < bestLen {
			bestLen = l
			best = i
		}
	}
	return best
}

// runWorker drains its local queue, steals from peers when idle and
// stealing is enabled, and otherwise sleeps on its notifier with a 10ms
// timeout, per spec.md §4.3.
func (s *Scheduler) runWorker(idx int) {
	defer s.wg.Done()
	q := s.workers[idx]

	for {
		if atomic.LoadInt32(&s.shutdown) == 1 {
			return
		}

		t, ok := q.pop()
		if !ok && s.cfg.EnableWorkStealing {
			t, ok = s.steal(idx)
		}

		if !ok {
			select {
			case <-q.notify:
			case <-time.After(10 * time.Millisecond):
			}
			continue
		}

		s.runTask(t)
	}
}

func (s *Scheduler) steal(idx int) (*Task, bool) {
	active := int(atomic.LoadInt64(&s.active))
	for i := 0; i < active; i++ {
		if i == idx {
			continue
		}
		if t, ok := s.workers[i].pop(); ok {
			return t, true
		}
	}
	return nil, false
}

func (s *Scheduler) runTask(t *Task) {
	if !t.Deadline.IsZero() && time.Now().After(t.Deadline) {
		atomic.AddUint64(&s.deadlineMissed, 1)
		if s.cfg.OnDeadlineMissed != nil {
			s.cfg.OnDeadlineMissed(t)
		}
		// still executed, never silently dropped, per spec.md §4.3
	}

	t.Fn(context.Background())
	atomic.AddUint64(&s.executed, 1)
	close(t.done)
}

// scaleLoop adjusts the active worker count every 100ms based on mean
// queue utilization relative to QueueCapacity, per spec.md §4.3.
func (s *Scheduler) scaleLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	stop := stopSignal(s)

	for {
		select {
		case <-ticker.C:
			s.rescale()
		case <-stop:
			return
		}
	}
}

// stopSignal returns a channel that one polling goroutine closes once
// the shutdown flag is set, so scaleLoop can select on it alongside the
// ticker without a dedicated channel field.
func stopSignal(s *Scheduler) <-chan struct{} {
	ch := make(chan struct{})
	go func() {
		for atomic.LoadInt32(&s.shutdown) == 0 {
			time.Sleep(50 * time.Millisecond)
		}
		close(ch)
	}()
	return ch
}

func (s *Scheduler) rescale() {
	active := int(atomic.LoadInt64(&s.active))
	if active == 0 {
		return
	}

	var total int
	for i := 0; i < active; i++ {
		total += s.workers[i].len()
	}
	mean := float64(total) / float64(active) / float64(s.cfg.QueueCapacity)

	s.mu.Lock()
	defer s.mu.Unlock()

	if mean > s.cfg.ScaleUpThreshold && active < s.cfg.MaxWorkers {
		s.startWorker(active)
		atomic.StoreInt64(&s.active, int64(active+1))
	} else if mean < s.cfg.ScaleDownThreshold && active > s.cfg.MinWorkers {
		// lowering active stops Submit and steal from choosing the
		// worker at active-1; its goroutine keeps running and draining
		// its own queue until shutdown.
		atomic.StoreInt64(&s.active, int64(active-1))
	}
}

// Shutdown sets the cooperative shutdown flag and waits for all
// in-flight and queued tasks to complete. Workers observe the flag
// between tasks; no task is preempted mid-flight, per spec.md §5.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	// Let any queued work drain first: running workers will keep popping
	// until their local queues are empty even after shutdown is set, so
	// wait for queues to empty before flipping the flag off for good.
	for {
		empty := true
		for _, q := range s.workers {
			if q.len() > 0 {
				empty = false
				break
			}
		}
		if empty {
			break
		}
		select {
		case <-ctx.Done():
			atomic.StoreInt32(&s.shutdown, 1)
			return ctx.Err()
		case <-time.After(5 * time.Millisecond):
		}
	}

	atomic.StoreInt32(&s.shutdown, 1)
	done := make(chan struct{})
	go func() { s.wg.Wait(); close(done) }()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats is a snapshot of scheduler-wide counters.
type Stats struct {
	ActiveWorkers  int
	Submitted      uint64
	Executed       uint64
	QueueFull      uint64
	DeadlineMissed uint64
}

func (s *Scheduler) Stats() Stats {
	return Stats{
		ActiveWorkers:  int(atomic.LoadInt64(&s.active)),
		Submitted:      atomic.LoadUint64(&s.submitted),
		Executed:       atomic.LoadUint64(&s.executed),
		QueueFull:      atomic.LoadUint64(&s.queueFull),
		DeadlineMissed: atomic.LoadUint64(&s.deadlineMissed),
	}
}

func defaultWorkerCount() int {
	n := 4
	if c := numCPU(); c > 0 {
		n = c
	}
	return n
}
