package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// JobSubmitter accepts named jobs
type JobSubmitter interface {
	SubmitJob(job *Job) error
}

// CronTriggerConfig holds configuration for the daily trigger
type CronTriggerConfig struct {
	// Hour and Minute of the daily run (24h clock, server local time)
	Hour   int
	Minute int

	// CheckInterval is how often to check if it's time to run
	CheckInterval time.Duration
}

// DefaultCronTriggerConfig returns default cron trigger configuration
func DefaultCronTriggerConfig() CronTriggerConfig {
	return CronTriggerConfig{
		Hour:          3,
		Minute:        0,
		CheckInterval: time.Minute,
	}
}

// CronTrigger submits a job once per day at the configured hour and minute
type CronTrigger struct {
	config    CronTriggerConfig
	submitter JobSubmitter
	newJob    func() *Job
	logger    *zap.Logger
	now       func() time.Time

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string
}

// NewCronTrigger creates a daily trigger; newJob builds the job for each run
func NewCronTrigger(config CronTriggerConfig, submitter JobSubmitter, newJob func() *Job, logger *zap.Logger) *CronTrigger {
	if config.CheckInterval <= 0 {
		config.CheckInterval = time.Minute
	}
	return &CronTrigger{
		config:    config,
		submitter: submitter,
		newJob:    newJob,
		logger:    logger.Named("cron"),
		now:       time.Now,
	}
}

// Start starts the cron trigger
func (c *CronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("Cron trigger started",
		zap.Int("hour", c.config.Hour),
		zap.Int("minute", c.config.Minute),
		zap.Duration("check_interval", c.config.CheckInterval),
	)
	return nil
}

// Stop stops the cron trigger
func (c *CronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}
	return waitGroupWithContext(ctx, &c.wg)
}

func (c *CronTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.checkAndTrigger()
		}
	}
}

// checkAndTrigger submits the job when the clock matches and it has not run today.
// It reports whether a job was submitted.
func (c *CronTrigger) checkAndTrigger() bool {
	now := c.now()
	if now.Hour() != c.config.Hour || now.Minute() != c.config.Minute {
		return false
	}

	today := now.Format("2006-01-02")
	c.mu.Lock()
	if c.lastRunDate == today {
		c.mu.Unlock()
		return false
	}
	c.lastRunDate = today
	c.mu.Unlock()

	job := c.newJob()
	if err := c.submitter.SubmitJob(job); err != nil {
		if errors.Is(err, ErrJobAlreadyQueued) {
			c.logger.Info("Daily job still running, skipping", zap.String("job", string(job.Name)))
			return false
		}
		c.logger.Error("Failed to submit daily job", zap.String("job", string(job.Name)), zap.Error(err))
		return false
	}
	c.logger.Info("Daily job submitted", zap.String("job", string(job.Name)))
	return true
}

func waitGroupWithContext(ctx context.Context, wg *sync.WaitGroup) error {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
