package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when trying to submit a job to a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrJobQueueFull is returned when the job queue is full
	ErrJobQueueFull = errors.New("job queue is full")

	// ErrJobAlreadyQueued is returned when a job with the same name is queued or running
	ErrJobAlreadyQueued = errors.New("job already queued or running")

	// ErrUnknownJob is returned when no executor is registered for a job name
	ErrUnknownJob = errors.New("no executor registered for job")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")
)
