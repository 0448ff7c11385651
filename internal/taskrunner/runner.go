// Package taskrunner executes named, per-item background tasks.
//
// Three backends are provided: an in-process priority queue, a Redis sorted
// set shared between processes, and a fallback that only fires single-shot
// timers and ignores priority. Lower priority values run sooner.
package taskrunner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
)

//go:generate mockgen -destination=mocks/mock_runner.go -package=mocks -source=runner.go Runner

// ErrUnknownTask is returned when a task has no registered handler
var ErrUnknownTask = errors.New("no handler registered for task")

// ErrStopped is returned when submitting to a stopped runner
var ErrStopped = errors.New("task runner stopped")

// Task identifies a unit of work: a named handler applied to a content item
type Task struct {
	Name   string `json:"name"`
	ItemID string `json:"itemId"`
}

func (t Task) String() string {
	return t.Name + ":" + t.ItemID
}

// Handler runs a task for one item. Handlers report failures through their own
// state; the runner only logs panics.
type Handler func(ctx context.Context, itemID string)

// Runner schedules tasks and runs their handlers
type Runner interface {
	// Register binds a handler to a task name. Must be called before Start.
	Register(name string, handler Handler)
	// Submit schedules a task. Runners without priority support ignore priority.
	Submit(ctx context.Context, task Task, priority int) error
	// UnscheduleAll removes every queued occurrence of the task and returns how many were removed
	UnscheduleAll(ctx context.Context, task Task) (int, error)
	// HasScheduled reports whether the task is queued
	HasScheduled(ctx context.Context, task Task) (bool, error)
	// SupportsPriority reports whether Submit honours priority
	SupportsPriority() bool
	// Start launches the workers. It returns once they are running.
	Start(ctx context.Context) error
	// Stop stops the workers and waits for running handlers to return
	Stop()
}

// handlers is the registry shared by every backend
type handlers map[string]Handler

func (h handlers) run(ctx context.Context, task Task) {
	handler, ok := h[task.Name]
	if !ok {
		slog.Error("Dropping task", "task", task.String(), "error", ErrUnknownTask)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Task handler panicked",
				"task", task.String(),
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
		}
	}()

	handler(ctx, task.ItemID)
}

func (h handlers) check(task Task) error {
	if _, ok := h[task.Name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, task.Name)
	}
	return nil
}
