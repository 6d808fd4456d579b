package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// IntervalEntry submits a job of Name every Every
type IntervalEntry struct {
	Name  JobName
	Every time.Duration
}

// IntervalTrigger feeds fixed-rate jobs to the scheduler, one ticker per entry.
// A tick is skipped while the previous run of the same job is still active.
type IntervalTrigger struct {
	entries    []IntervalEntry
	submitter  JobSubmitter
	maxRetries int
	logger     *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewIntervalTrigger creates a trigger for the given entries. Entries with a
// non-positive interval are ignored.
func NewIntervalTrigger(entries []IntervalEntry, submitter JobSubmitter, maxRetries int, logger *zap.Logger) *IntervalTrigger {
	valid := make([]IntervalEntry, 0, len(entries))
	for _, e := range entries {
		if e.Every > 0 {
			valid = append(valid, e)
		}
	}
	return &IntervalTrigger{
		entries:    valid,
		submitter:  submitter,
		maxRetries: maxRetries,
		logger:     logger.Named("interval"),
	}
}

// Entries returns the active entries
func (t *IntervalTrigger) Entries() []IntervalEntry {
	return append([]IntervalEntry(nil), t.entries...)
}

// Start launches one loop per entry
func (t *IntervalTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.isRunning {
		return nil
	}
	t.isRunning = true
	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	for _, entry := range t.entries {
		t.wg.Add(1)
		go t.runLoop(ctx, entry)
		t.logger.Info("Interval job registered",
			zap.String("job", string(entry.Name)),
			zap.Duration("every", entry.Every),
		)
	}
	return nil
}

// Stop stops all loops
func (t *IntervalTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}
	return waitGroupWithContext(ctx, &t.wg)
}

func (t *IntervalTrigger) runLoop(ctx context.Context, entry IntervalEntry) {
	defer t.wg.Done()

	ticker := time.NewTicker(entry.Every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.fire(entry.Name)
		}
	}
}

func (t *IntervalTrigger) fire(name JobName) {
	err := t.submitter.SubmitJob(NewJob(name, t.maxRetries))
	switch {
	case err == nil:
	case errors.Is(err, ErrJobAlreadyQueued):
		t.logger.Debug("Previous run still active, skipping tick", zap.String("job", string(name)))
	default:
		t.logger.Warn("Failed to submit interval job", zap.String("job", string(name)), zap.Error(err))
	}
}
