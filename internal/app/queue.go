package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stacklok/content-sync-server/internal/config"
	"github.com/stacklok/content-sync-server/internal/lock"
	"github.com/stacklok/content-sync-server/internal/taskrunner"
)

// fallbackDelay is how long the delayed runner waits before running a task
const fallbackDelay = 5 * time.Second

// queueComponents are the task runners and the lock the scheduler runs on
type queueComponents struct {
	preferred taskrunner.Runner
	fallback  taskrunner.Runner
	locker    lock.Locker
}

// runners returns every configured runner
func (q *queueComponents) runners() []taskrunner.Runner {
	var rs []taskrunner.Runner
	if q.preferred != nil {
		rs = append(rs, q.preferred)
	}
	if q.fallback != nil {
		rs = append(rs, q.fallback)
	}
	return rs
}

// needsRedis reports whether the queue settings use Redis
func needsRedis(q *config.QueueConfig) bool {
	return q.GetRunnerType() == config.RunnerTypeRedis || q.GetLockType() == config.LockTypeRedis
}

// buildRedisClient connects to the configured Redis server
func buildRedisClient(ctx context.Context, cfg *config.RedisConfig) (redis.UniversalClient, error) {
	if cfg == nil || cfg.Addr == "" {
		return nil, fmt.Errorf("redis configuration is required")
	}
	password, err := cfg.GetPassword()
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Addr, err)
	}

	slog.Info("Connected to Redis", "addr", cfg.Addr, "db", cfg.DB)
	return client, nil
}

// buildQueue creates the runners and the lock selected by the queue settings
func buildQueue(cfg *config.Config, client redis.UniversalClient) (*queueComponents, error) {
	q := cfg.GetQueue()
	prefix := cfg.Redis.GetKeyPrefix()

	qc := &queueComponents{}
	switch q.GetRunnerType() {
	case config.RunnerTypeMemory:
		qc.preferred = taskrunner.NewMemoryRunner(q.GetWorkers())
	case config.RunnerTypeRedis:
		if client == nil {
			return nil, fmt.Errorf("the redis runner needs a redis client")
		}
		qc.preferred = taskrunner.NewRedisRunner(client, prefix, q.GetWorkers())
	case config.RunnerTypeDelayed:
		qc.fallback = taskrunner.NewDelayedRunner(fallbackDelay)
	default:
		return nil, fmt.Errorf("unknown runner type: %s", q.GetRunnerType())
	}

	switch q.GetLockType() {
	case config.LockTypeMemory:
		qc.locker = lock.NewMemoryLocker()
	case config.LockTypeRedis:
		if client == nil {
			return nil, fmt.Errorf("redis locks need a redis client")
		}
		qc.locker = lock.NewRedisLocker(client, prefix)
	default:
		return nil, fmt.Errorf("unknown lock type: %s", q.GetLockType())
	}

	slog.Info("Queue configured",
		"runner", q.GetRunnerType(),
		"lock", q.GetLockType(),
		"workers", q.GetWorkers())
	return qc, nil
}
