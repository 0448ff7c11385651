// Package coordinator runs the background side of the job queue.
//
// On start it launches the task runners and asks the scheduler to recover the
// jobs a previous process left behind: interrupted syncs are failed, queued
// syncs and deletions are resubmitted unless the runner still holds them.
//
// It then loops on a jittered ticker. Every round expires stale syncs and,
// when an auto-retry interval is configured, re-enqueues failed jobs whose
// failure was not fatal and whose rate limit has reset. The number of jobs in
// each status is exported as a gauge.
//
//	sched := scheduler.New(jobs, contents, locker, manager, scheduler.WithRunner(runner))
//	coord := coordinator.New(sched, jobs, []taskrunner.Runner{runner}, coordinator.NewConfig(cfg.Queue))
//	go coord.Start(ctx)
//	defer coord.Stop()
package coordinator
