package coordinator

import (
	"time"

	"github.com/stacklok/content-sync-server/internal/config"
)

// Config holds the coordinator intervals
type Config struct {
	// SweepInterval is the base period of the maintenance loop
	SweepInterval time.Duration
	// AutoRetryInterval is how often failed jobs are retried; zero disables it
	AutoRetryInterval time.Duration
}

// NewConfig extracts the coordinator intervals from the queue configuration
func NewConfig(queue *config.QueueConfig) Config {
	if queue == nil {
		queue = &config.QueueConfig{}
	}
	return Config{
		SweepInterval:     queue.GetSweepInterval(),
		AutoRetryInterval: queue.GetAutoRetryInterval(),
	}
}
