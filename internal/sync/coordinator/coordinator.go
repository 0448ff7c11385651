package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/stacklok/content-sync-server/internal/jobstore"
	"github.com/stacklok/content-sync-server/internal/status"
	"github.com/stacklok/content-sync-server/internal/sync/scheduler"
	"github.com/stacklok/content-sync-server/internal/taskrunner"
	"github.com/stacklok/content-sync-server/internal/telemetry"
)

// Coordinator runs the task runners and the periodic queue maintenance
type Coordinator interface {
	// Start starts the runners, recovers unfinished jobs and runs the
	// maintenance loop. Blocks until the context is cancelled.
	Start(ctx context.Context) error

	// Stop stops the loop and the runners
	Stop() error
}

// defaultCoordinator is the default implementation of Coordinator
type defaultCoordinator struct {
	scheduler scheduler.Scheduler
	jobs      jobstore.Store
	runners   []taskrunner.Runner
	config    Config

	// Lifecycle management
	cancelFunc context.CancelFunc
	done       chan struct{}

	lastAutoRetry time.Time
	now           func() time.Time

	queueMetrics *telemetry.QueueMetrics
}

// Option is a function that configures the coordinator
type Option func(*defaultCoordinator)

// WithQueueMetrics sets the queue metrics updated on every tick
func WithQueueMetrics(metrics *telemetry.QueueMetrics) Option {
	return func(c *defaultCoordinator) {
		c.queueMetrics = metrics
	}
}

// New creates a new coordinator with injected dependencies
func New(
	sched scheduler.Scheduler,
	jobs jobstore.Store,
	runners []taskrunner.Runner,
	cfg Config,
	opts ...Option,
) Coordinator {
	c := &defaultCoordinator{
		scheduler: sched,
		jobs:      jobs,
		runners:   runners,
		config:    cfg,
		done:      make(chan struct{}),
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// calculatePollingInterval returns base with a random jitter of ±25% applied,
// so that several instances sharing a store do not sweep in lockstep.
func calculatePollingInterval(base time.Duration) time.Duration {
	jitter := base / 4
	if jitter <= 0 {
		return base
	}
	//nolint:gosec // G404: Non-cryptographic randomness is sufficient for polling jitter
	return base + time.Duration(rand.Int64N(int64(2*jitter))) - jitter
}

// Start begins background queue coordination
func (c *defaultCoordinator) Start(ctx context.Context) error {
	slog.Info("Starting sync coordinator",
		"runners", len(c.runners),
		"sweep_interval", c.config.SweepInterval,
		"auto_retry_interval", c.config.AutoRetryInterval)

	coordCtx, cancel := context.WithCancel(ctx)
	c.cancelFunc = cancel
	defer func() {
		close(c.done)
		slog.Info("Sync coordinator shutting down")
	}()

	for i, r := range c.runners {
		if err := r.Start(coordCtx); err != nil {
			for _, started := range c.runners[:i] {
				started.Stop()
			}
			return fmt.Errorf("failed to start task runner: %w", err)
		}
	}
	defer func() {
		for _, r := range c.runners {
			r.Stop()
		}
	}()

	if _, err := c.scheduler.Recover(coordCtx); err != nil {
		slog.Error("Failed to recover unfinished jobs", "error", err)
	}
	// a restart counts as an auto-retry round
	c.lastAutoRetry = c.now()

	ticker := time.NewTicker(calculatePollingInterval(c.config.SweepInterval))
	defer ticker.Stop()

	c.tick(coordCtx)

	for {
		select {
		case <-ticker.C:
			c.tick(coordCtx)

			// Recalculate interval with new jitter for next iteration
			ticker.Reset(calculatePollingInterval(c.config.SweepInterval))
		case <-coordCtx.Done():
			slog.Info("Sync coordinator stopping")
			return nil
		}
	}
}

// Stop gracefully stops the coordinator
func (c *defaultCoordinator) Stop() error {
	if c.cancelFunc != nil {
		slog.Info("Stopping sync coordinator")
		c.cancelFunc()
		<-c.done
	}
	return nil
}

// tick runs one round of queue maintenance
func (c *defaultCoordinator) tick(ctx context.Context) {
	if expired, err := c.scheduler.SweepStale(ctx); err != nil {
		slog.Error("Stale sync sweep failed", "error", err)
	} else if expired > 0 {
		slog.Warn("Expired stale syncs", "count", expired)
	}

	// jobs whose worker lost the lock race have no task left
	if _, err := c.scheduler.Reschedule(ctx); err != nil {
		slog.Error("Resubmitting queued jobs failed", "error", err)
	}

	if c.config.AutoRetryInterval > 0 && c.now().Sub(c.lastAutoRetry) >= c.config.AutoRetryInterval {
		c.lastAutoRetry = c.now()
		result, err := c.scheduler.AutoRetry(ctx)
		if err != nil {
			slog.Error("Automatic retry failed", "error", err)
		} else if result.Retried > 0 {
			slog.Info("Retried failed syncs", "retried", result.Retried, "skipped", result.Skipped)
		}
	}

	c.recordQueueMetrics(ctx)
}

func (c *defaultCoordinator) recordQueueMetrics(ctx context.Context) {
	if c.queueMetrics == nil {
		return
	}
	jobs, err := c.jobs.List(ctx)
	if err != nil {
		slog.Warn("Failed to count jobs", "error", err)
		return
	}

	counts := make(map[status.JobStatus]int64, len(status.AllStatuses))
	for _, job := range jobs {
		counts[job.Status]++
	}
	for _, s := range status.AllStatuses {
		c.queueMetrics.RecordJobsTotal(ctx, string(s), counts[s])
	}
}
