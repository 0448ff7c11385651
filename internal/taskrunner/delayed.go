package taskrunner

import (
	"context"
	"sync"
	"time"
)

type delayedTimer struct {
	timer *time.Timer
}

// DelayedRunner fires each task once after a fixed delay. It has no queue and
// no priority, and is used when no real task runner is configured.
type DelayedRunner struct {
	delay    time.Duration
	handlers handlers

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	timers  map[Task][]*delayedTimer
	stopped bool
	wg      sync.WaitGroup
}

var _ Runner = (*DelayedRunner)(nil)

// NewDelayedRunner creates a runner that fires tasks after delay
func NewDelayedRunner(delay time.Duration) *DelayedRunner {
	return &DelayedRunner{
		delay:    delay,
		handlers: make(handlers),
		timers:   make(map[Task][]*delayedTimer),
	}
}

// Register implements Runner
func (d *DelayedRunner) Register(name string, handler Handler) {
	d.handlers[name] = handler
}

// SupportsPriority implements Runner
func (*DelayedRunner) SupportsPriority() bool { return false }

// Submit implements Runner. Priority is ignored.
func (d *DelayedRunner) Submit(_ context.Context, task Task, _ int) error {
	if err := d.handlers.check(task); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return ErrStopped
	}

	dt := &delayedTimer{}
	d.wg.Add(1)
	// the callback blocks in claim until dt.timer is set below
	dt.timer = time.AfterFunc(d.delay, func() {
		defer d.wg.Done()
		if !d.claim(task, dt) {
			return
		}
		d.handlers.run(d.runContext(), task)
	})
	d.timers[task] = append(d.timers[task], dt)
	return nil
}

// claim removes a fired timer from the pending set; false means it was unscheduled
func (d *DelayedRunner) claim(task Task, dt *delayedTimer) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	pending := d.timers[task]
	for i, t := range pending {
		if t == dt {
			d.timers[task] = append(pending[:i], pending[i+1:]...)
			if len(d.timers[task]) == 0 {
				delete(d.timers, task)
			}
			return true
		}
	}
	return false
}

func (d *DelayedRunner) runContext() context.Context {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ctx == nil {
		return context.Background()
	}
	return d.ctx
}

// UnscheduleAll implements Runner
func (d *DelayedRunner) UnscheduleAll(_ context.Context, task Task) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	removed := 0
	for _, t := range d.timers[task] {
		if t.timer.Stop() {
			removed++
			d.wg.Done()
		}
	}
	delete(d.timers, task)
	return removed, nil
}

// HasScheduled implements Runner
func (d *DelayedRunner) HasScheduled(_ context.Context, task Task) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.timers[task]) > 0, nil
}

// Start implements Runner
func (d *DelayedRunner) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ctx, d.cancel = context.WithCancel(ctx)
	return nil
}

// Stop cancels pending timers and waits for fired handlers to return
func (d *DelayedRunner) Stop() {
	d.mu.Lock()
	d.stopped = true
	for task, pending := range d.timers {
		for _, t := range pending {
			if t.timer.Stop() {
				d.wg.Done()
			}
		}
		delete(d.timers, task)
	}
	if d.cancel != nil {
		d.cancel()
	}
	d.mu.Unlock()

	d.wg.Wait()
}
