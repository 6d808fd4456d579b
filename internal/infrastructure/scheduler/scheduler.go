// Package scheduler runs the coordinator's background jobs on a bounded
// worker pool: retention cleanup, pending hash re-polling, receipt
// reconciliation and listing expiry.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JobStatus represents the status of a scheduled job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// JobName identifies a kind of background work
type JobName string

const (
	JobRetentionCleanup JobName = "RETENTION_CLEANUP"
	JobPendingRepoll    JobName = "PENDING_REPOLL"
	JobReceiptReconcile JobName = "RECEIPT_RECONCILE"
	JobListingExpiry    JobName = "LISTING_EXPIRY"
)

// Job is one run of a named background task
type Job struct {
	ID          uuid.UUID
	Name        JobName
	Status      JobStatus
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
	RetryCount  int
	MaxRetries  int
	// Args carries per-run parameters, e.g. "days_old" for cleanup
	Args map[string]int
}

// NewJob creates a new job instance
func NewJob(name JobName, maxRetries int) *Job {
	return &Job{
		ID:         uuid.New(),
		Name:       name,
		Status:     JobStatusPending,
		MaxRetries: maxRetries,
		Args:       map[string]int{},
	}
}

// WithArg sets a per-run parameter
func (j *Job) WithArg(key string, value int) *Job {
	j.Args[key] = value
	return j
}

// Arg returns a per-run parameter or def when unset
func (j *Job) Arg(key string, def int) int {
	if v, ok := j.Args[key]; ok {
		return v
	}
	return def
}

// Start marks the job as running
func (j *Job) Start() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.Error = ""
}

// Complete marks the job as successful
func (j *Job) Complete() {
	now := time.Now()
	j.Status = JobStatusSuccess
	j.CompletedAt = &now
}

// Fail marks the job as failed
func (j *Job) Fail(err string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// ShouldRetry returns true if the job should be retried
func (j *Job) ShouldRetry() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// JobExecutor executes jobs
type JobExecutor interface {
	Execute(ctx context.Context, job *Job) error
}

// JobFunc runs one job
type JobFunc func(ctx context.Context, job *Job) error

// Registry dispatches jobs to the function registered for their name
type Registry struct {
	mu    sync.RWMutex
	funcs map[JobName]JobFunc
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[JobName]JobFunc)}
}

// Register binds fn to name, replacing any previous binding
func (r *Registry) Register(name JobName, fn JobFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

// Execute implements JobExecutor
func (r *Registry) Execute(ctx context.Context, job *Job) error {
	r.mu.RLock()
	fn, ok := r.funcs[job.Name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, job.Name)
	}
	return fn(ctx, job)
}

// Config holds scheduler configuration
type Config struct {
	Enabled           bool
	MaxConcurrentJobs int
	JobTimeout        time.Duration
	RetryAttempts     int
	RetryDelay        time.Duration
	QueueSize         int
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		Enabled:           true,
		MaxConcurrentJobs: 3,
		JobTimeout:        5 * time.Minute,
		RetryAttempts:     3,
		RetryDelay:        time.Minute,
		QueueSize:         32,
	}
}

// Validate checks the pool settings
func (c Config) Validate() error {
	if c.MaxConcurrentJobs <= 0 {
		return fmt.Errorf("%w: max concurrent jobs must be positive", ErrInvalidConfig)
	}
	if c.JobTimeout <= 0 {
		return fmt.Errorf("%w: job timeout must be positive", ErrInvalidConfig)
	}
	if c.RetryAttempts < 0 {
		return fmt.Errorf("%w: retry attempts cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// Scheduler runs jobs on a fixed pool of workers. At most one job per name
// is queued or running at a time.
type Scheduler struct {
	config   Config
	executor JobExecutor
	logger   *zap.Logger

	jobs      chan *Job
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	active    map[JobName]bool
	retries   map[*time.Timer]struct{}
}

// NewScheduler creates a new scheduler instance
func NewScheduler(config Config, executor JobExecutor, logger *zap.Logger) *Scheduler {
	if config.QueueSize <= 0 {
		config.QueueSize = 32
	}
	return &Scheduler{
		config:   config,
		executor: executor,
		logger:   logger.Named("scheduler"),
		active:   make(map[JobName]bool),
		retries:  make(map[*time.Timer]struct{}),
	}
}

// Start launches the worker pool
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.config.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}
	s.isRunning = true
	s.jobs = make(chan *Job, s.config.QueueSize)

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for i := 0; i < s.config.MaxConcurrentJobs; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i, s.jobs)
	}

	s.logger.Info("Job scheduler started",
		zap.Int("workers", s.config.MaxConcurrentJobs),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop cancels running jobs and waits for the workers to exit
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	for t := range s.retries {
		t.Stop()
	}
	s.retries = make(map[*time.Timer]struct{})
	close(s.jobs)
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Job scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Job scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether the worker pool is accepting jobs
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// Submit queues a new run of name with the configured retry budget
func (s *Scheduler) Submit(name JobName) (*Job, error) {
	job := NewJob(name, s.config.RetryAttempts)
	if err := s.SubmitJob(job); err != nil {
		return nil, err
	}
	return job, nil
}

// SubmitJob queues job unless a job with the same name is already active
func (s *Scheduler) SubmitJob(job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return ErrSchedulerNotRunning
	}
	if s.active[job.Name] {
		return ErrJobAlreadyQueued
	}

	select {
	case s.jobs <- job:
		s.active[job.Name] = true
		s.logger.Debug("Job submitted",
			zap.String("job_id", job.ID.String()),
			zap.String("job", string(job.Name)),
		)
		return nil
	default:
		return ErrJobQueueFull
	}
}

func (s *Scheduler) worker(ctx context.Context, workerID int, jobs <-chan *Job) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			s.processJob(ctx, job, workerID)
		}
	}
}

func (s *Scheduler) processJob(ctx context.Context, job *Job, workerID int) {
	job.Start()
	log := s.logger.With(
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("job", string(job.Name)),
	)
	log.Debug("Processing job")

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	err := s.safeExecute(jobCtx, job)
	cancel()

	if err == nil {
		job.Complete()
		s.release(job.Name)
		log.Info("Job completed", zap.Duration("elapsed", job.CompletedAt.Sub(*job.StartedAt)))
		return
	}

	job.Fail(err.Error())
	log.Error("Job failed", zap.Int("retry_count", job.RetryCount), zap.Error(err))

	if job.ShouldRetry() && ctx.Err() == nil {
		job.RetryCount++
		job.Status = JobStatusPending
		s.scheduleRetry(job)
		return
	}
	s.release(job.Name)
}

func (s *Scheduler) safeExecute(ctx context.Context, job *Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return s.executor.Execute(ctx, job)
}

// scheduleRetry re-queues job after RetryDelay without blocking a worker
func (s *Scheduler) scheduleRetry(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		delete(s.active, job.Name)
		return
	}

	var timer *time.Timer
	timer = time.AfterFunc(s.config.RetryDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.retries, timer)
		if !s.isRunning {
			delete(s.active, job.Name)
			return
		}
		select {
		case s.jobs <- job:
		default:
			delete(s.active, job.Name)
			s.logger.Warn("Dropped job retry, queue full", zap.String("job", string(job.Name)))
		}
	})
	s.retries[timer] = struct{}{}
}

func (s *Scheduler) release(name JobName) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, name)
}
