package taskrunner

import (
	"container/heap"
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

type queuedTask struct {
	task     Task
	priority int
	seq      uint64
	index    int
}

// taskHeap orders by priority, then by submission order
type taskHeap []*queuedTask

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].seq < h[j].seq
}

func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *taskHeap) Push(x any) {
	qt := x.(*queuedTask)
	qt.index = len(*h)
	*h = append(*h, qt)
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	qt := old[n-1]
	old[n-1] = nil
	qt.index = -1
	*h = old[:n-1]
	return qt
}

// MemoryRunner runs tasks from an in-process priority queue on a fixed
// number of workers. Queued tasks are lost when the process exits.
type MemoryRunner struct {
	workers  int
	handlers handlers

	mu      sync.Mutex
	queue   taskHeap
	seq     uint64
	stopped bool
	signal  chan struct{}

	cancel context.CancelFunc
	group  *errgroup.Group
}

var _ Runner = (*MemoryRunner)(nil)

// NewMemoryRunner creates a runner with the given number of workers
func NewMemoryRunner(workers int) *MemoryRunner {
	if workers <= 0 {
		workers = 1
	}
	return &MemoryRunner{
		workers:  workers,
		handlers: make(handlers),
		signal:   make(chan struct{}, workers),
	}
}

// Register implements Runner
func (m *MemoryRunner) Register(name string, handler Handler) {
	m.handlers[name] = handler
}

// SupportsPriority implements Runner
func (*MemoryRunner) SupportsPriority() bool { return true }

// Submit implements Runner
func (m *MemoryRunner) Submit(_ context.Context, task Task, priority int) error {
	if err := m.handlers.check(task); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return ErrStopped
	}

	m.seq++
	heap.Push(&m.queue, &queuedTask{task: task, priority: priority, seq: m.seq})

	select {
	case m.signal <- struct{}{}:
	default:
	}
	return nil
}

// UnscheduleAll implements Runner
func (m *MemoryRunner) UnscheduleAll(_ context.Context, task Task) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.queue[:0]
	for _, qt := range m.queue {
		if qt.task != task {
			kept = append(kept, qt)
		}
	}
	removed := len(m.queue) - len(kept)
	for i := len(kept); i < len(m.queue); i++ {
		m.queue[i] = nil
	}
	m.queue = kept
	for i, qt := range m.queue {
		qt.index = i
	}
	heap.Init(&m.queue)

	return removed, nil
}

// HasScheduled implements Runner
func (m *MemoryRunner) HasScheduled(_ context.Context, task Task) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, qt := range m.queue {
		if qt.task == task {
			return true, nil
		}
	}
	return false, nil
}

// Len returns the number of queued tasks
func (m *MemoryRunner) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Start implements Runner
func (m *MemoryRunner) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	g, gctx := errgroup.WithContext(ctx)
	for range m.workers {
		g.Go(func() error {
			m.work(gctx)
			return nil
		})
	}
	m.group = g

	slog.Info("Started in-memory task runner", "workers", m.workers)
	return nil
}

// Stop implements Runner
func (m *MemoryRunner) Stop() {
	m.mu.Lock()
	m.stopped = true
	m.mu.Unlock()

	if m.cancel != nil {
		m.cancel()
	}
	if m.group != nil {
		_ = m.group.Wait()
	}
}

func (m *MemoryRunner) work(ctx context.Context) {
	for {
		if qt, ok := m.pop(); ok {
			m.handlers.run(ctx, qt.task)
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-m.signal:
		}
	}
}

func (m *MemoryRunner) pop() (*queuedTask, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped || len(m.queue) == 0 {
		return nil, false
	}
	return heap.Pop(&m.queue).(*queuedTask), true
}
