package taskrunner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const (
	// priorityWeight spaces priority bands so submission time orders tasks within a band
	priorityWeight = 1e13

	defaultPollTimeout = time.Second
)

// RedisRunner keeps the queue in a Redis sorted set, so tasks survive process
// restarts and can be consumed by several processes. A task is a unique set
// member; submitting it again only updates its position.
type RedisRunner struct {
	client      redis.UniversalClient
	key         string
	workers     int
	pollTimeout time.Duration
	now         func() time.Time
	handlers    handlers

	mu      sync.Mutex
	stopped bool
	cancel  context.CancelFunc
	group   *errgroup.Group
}

var _ Runner = (*RedisRunner)(nil)

// RedisOption configures a RedisRunner
type RedisOption func(*RedisRunner)

// WithPollTimeout sets how long a worker blocks waiting for a task
func WithPollTimeout(d time.Duration) RedisOption {
	return func(r *RedisRunner) {
		r.pollTimeout = d
	}
}

// NewRedisRunner creates a runner over the sorted set "<prefix>:tasks"
func NewRedisRunner(client redis.UniversalClient, prefix string, workers int, opts ...RedisOption) *RedisRunner {
	if workers <= 0 {
		workers = 1
	}
	r := &RedisRunner{
		client:      client,
		key:         prefix + ":tasks",
		workers:     workers,
		pollTimeout: defaultPollTimeout,
		now:         time.Now,
		handlers:    make(handlers),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register implements Runner
func (r *RedisRunner) Register(name string, handler Handler) {
	r.handlers[name] = handler
}

// SupportsPriority implements Runner
func (*RedisRunner) SupportsPriority() bool { return true }

func member(task Task) (string, error) {
	data, err := json.Marshal(task)
	if err != nil {
		return "", fmt.Errorf("failed to encode task %s: %w", task, err)
	}
	return string(data), nil
}

func (r *RedisRunner) score(priority int) float64 {
	return float64(priority)*priorityWeight + float64(r.now().UnixMilli())
}

// Submit implements Runner
func (r *RedisRunner) Submit(ctx context.Context, task Task, priority int) error {
	if err := r.handlers.check(task); err != nil {
		return err
	}
	r.mu.Lock()
	stopped := r.stopped
	r.mu.Unlock()
	if stopped {
		return ErrStopped
	}

	m, err := member(task)
	if err != nil {
		return err
	}
	if err := r.client.ZAdd(ctx, r.key, redis.Z{Score: r.score(priority), Member: m}).Err(); err != nil {
		return fmt.Errorf("failed to submit task %s: %w", task, err)
	}
	return nil
}

// UnscheduleAll implements Runner
func (r *RedisRunner) UnscheduleAll(ctx context.Context, task Task) (int, error) {
	m, err := member(task)
	if err != nil {
		return 0, err
	}
	removed, err := r.client.ZRem(ctx, r.key, m).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to unschedule task %s: %w", task, err)
	}
	return int(removed), nil
}

// HasScheduled implements Runner
func (r *RedisRunner) HasScheduled(ctx context.Context, task Task) (bool, error) {
	m, err := member(task)
	if err != nil {
		return false, err
	}
	err = r.client.ZScore(ctx, r.key, m).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up task %s: %w", task, err)
	}
	return true, nil
}

// Start implements Runner
func (r *RedisRunner) Start(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to reach redis: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	for range r.workers {
		g.Go(func() error {
			r.work(gctx)
			return nil
		})
	}

	r.mu.Lock()
	r.cancel = cancel
	r.group = g
	r.mu.Unlock()

	slog.Info("Started redis task runner", "workers", r.workers, "key", r.key)
	return nil
}

// Stop implements Runner
func (r *RedisRunner) Stop() {
	r.mu.Lock()
	r.stopped = true
	cancel, group := r.cancel, r.group
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if group != nil {
		_ = group.Wait()
	}
}

func (r *RedisRunner) work(ctx context.Context) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 30 * time.Second

	for ctx.Err() == nil {
		res, err := r.client.BZPopMin(ctx, r.pollTimeout, r.key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				// poll timeout, nothing queued
				continue
			}
			if ctx.Err() != nil {
				return
			}
			wait := bo.NextBackOff()
			slog.Warn("Failed to pop task from redis, backing off", "error", err, "wait", wait)
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
			continue
		}
		bo.Reset()

		raw, _ := res.Member.(string)
		var task Task
		if err := json.Unmarshal([]byte(raw), &task); err != nil {
			slog.Error("Dropping malformed task", "member", raw, "error", err)
			continue
		}
		r.handlers.run(ctx, task)
	}
}
