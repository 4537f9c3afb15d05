package worker

import "errors"

var (
	// ErrEmptyPoolConfig is returned when a pool is requested with fewer
	// than one worker.
	ErrEmptyPoolConfig = errors.New("worker: pool needs at least one worker")

	// ErrPoolShuttingDown is returned by Execute once Shutdown has begun.
	ErrPoolShuttingDown = errors.New("worker: pool is shutting down")

	// ErrChannelClosed is returned when the job queue has no live worker
	// left to receive from it.
	ErrChannelClosed = errors.New("worker: job queue has no live workers")

	// ErrNilJob is returned when Execute is called with a nil job.
	ErrNilJob = errors.New("worker: job is nil")
)
