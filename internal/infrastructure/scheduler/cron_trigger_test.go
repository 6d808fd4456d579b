package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newCleanupTrigger(sub JobSubmitter, at time.Time) *CronTrigger {
	c := NewCronTrigger(CronTriggerConfig{Hour: 3, Minute: 0}, sub, func() *Job {
		return NewJob(JobRetentionCleanup, 1).WithArg("days_old", 365)
	}, zap.NewNop())
	c.now = func() time.Time { return at }
	return c
}

func TestCronTrigger_Defaults(t *testing.T) {
	cfg := DefaultCronTriggerConfig()
	assert.Equal(t, 3, cfg.Hour)
	assert.Equal(t, 0, cfg.Minute)
	assert.Equal(t, time.Minute, cfg.CheckInterval)
}

func TestCronTrigger_FiresOncePerDay(t *testing.T) {
	sub := &recordingSubmitter{}
	at := time.Date(2026, 9, 2, 3, 0, 20, 0, time.Local)
	c := newCleanupTrigger(sub, at)

	assert.True(t, c.checkAndTrigger())
	assert.False(t, c.checkAndTrigger())
	require.Equal(t, 1, sub.count())
	assert.Equal(t, JobRetentionCleanup, sub.jobs[0].Name)
	assert.Equal(t, 365, sub.jobs[0].Arg("days_old", 0))

	c.now = func() time.Time { return at.Add(24 * time.Hour) }
	assert.True(t, c.checkAndTrigger())
	assert.Equal(t, 2, sub.count())
}

func TestCronTrigger_IgnoresOtherTimes(t *testing.T) {
	sub := &recordingSubmitter{}
	c := newCleanupTrigger(sub, time.Date(2026, 9, 2, 3, 1, 0, 0, time.Local))
	assert.False(t, c.checkAndTrigger())

	c.now = func() time.Time { return time.Date(2026, 9, 2, 15, 0, 0, 0, time.Local) }
	assert.False(t, c.checkAndTrigger())
	assert.Zero(t, sub.count())
}

func TestCronTrigger_SubmitFailureStillCountsTheDay(t *testing.T) {
	sub := &recordingSubmitter{err: ErrJobAlreadyQueued}
	c := newCleanupTrigger(sub, time.Date(2026, 9, 2, 3, 0, 0, 0, time.Local))
	assert.False(t, c.checkAndTrigger())

	sub.err = nil
	assert.False(t, c.checkAndTrigger())
	assert.Zero(t, sub.count())
}

func TestCronTrigger_StartStop(t *testing.T) {
	c := NewCronTrigger(CronTriggerConfig{CheckInterval: 5 * time.Millisecond}, &recordingSubmitter{},
		func() *Job { return NewJob(JobRetentionCleanup, 0) }, zap.NewNop())
	require.NoError(t, c.Start(context.Background()))
	require.NoError(t, c.Start(context.Background()))
	require.NoError(t, c.Stop(context.Background()))
	require.NoError(t, c.Stop(context.Background()))
}
