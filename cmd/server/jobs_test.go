package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/application/admin"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/application/reconciliation"
	reconciliationdomain "github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/reconciliation"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/infrastructure/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCleaner struct {
	days []int
	err  error
}

func (f *fakeCleaner) Cleanup(_ context.Context, daysOld int) (*admin.CleanupResult, error) {
	f.days = append(f.days, daysOld)
	if f.err != nil {
		return nil, f.err
	}
	return &admin.CleanupResult{}, nil
}

type fakeReconciler struct {
	repolls  int
	receipts int
	err      error
}

func (f *fakeReconciler) RepollPending(context.Context) (*reconciliation.Report, error) {
	f.repolls++
	return &reconciliation.Report{}, f.err
}

func (f *fakeReconciler) ReconcileReceipts(context.Context) (*reconciliation.Report, error) {
	f.receipts++
	return &reconciliation.Report{}, f.err
}

func (f *fakeReconciler) Counts(context.Context) (map[reconciliationdomain.Status]int64, error) {
	return nil, f.err
}

type fakeExpirer struct {
	calls []time.Time
}

func (f *fakeExpirer) ExpireListings(_ context.Context, now time.Time) (int64, error) {
	f.calls = append(f.calls, now)
	return 1, nil
}

func TestNewJobRegistry(t *testing.T) {
	ctx := context.Background()

	t.Run("cleanup uses the job argument", func(t *testing.T) {
		cl := &fakeCleaner{}
		reg := newJobRegistry(cl, &fakeReconciler{}, &fakeExpirer{}, 90)

		job := scheduler.NewJob(scheduler.JobRetentionCleanup, 0).WithArg(cleanupArg, 30)
		require.NoError(t, reg.Execute(ctx, job))
		assert.Equal(t, []int{30}, cl.days)
	})

	t.Run("cleanup falls back to the retention window", func(t *testing.T) {
		cl := &fakeCleaner{}
		reg := newJobRegistry(cl, &fakeReconciler{}, &fakeExpirer{}, 90)

		require.NoError(t, reg.Execute(ctx, scheduler.NewJob(scheduler.JobRetentionCleanup, 0)))
		assert.Equal(t, []int{90}, cl.days)
	})

	t.Run("cleanup errors propagate for retry", func(t *testing.T) {
		boom := errors.New("db down")
		reg := newJobRegistry(&fakeCleaner{err: boom}, &fakeReconciler{}, &fakeExpirer{}, 90)

		err := reg.Execute(ctx, scheduler.NewJob(scheduler.JobRetentionCleanup, 0))
		assert.ErrorIs(t, err, boom)
	})

	t.Run("reconciliation jobs dispatch to the reconciler", func(t *testing.T) {
		rec := &fakeReconciler{}
		reg := newJobRegistry(&fakeCleaner{}, rec, &fakeExpirer{}, 90)

		require.NoError(t, reg.Execute(ctx, scheduler.NewJob(scheduler.JobPendingRepoll, 0)))
		require.NoError(t, reg.Execute(ctx, scheduler.NewJob(scheduler.JobReceiptReconcile, 0)))
		require.NoError(t, reg.Execute(ctx, scheduler.NewJob(scheduler.JobPendingRepoll, 0)))
		assert.Equal(t, 2, rec.repolls)
		assert.Equal(t, 1, rec.receipts)
	})

	t.Run("expiry passes the current time", func(t *testing.T) {
		exp := &fakeExpirer{}
		reg := newJobRegistry(&fakeCleaner{}, &fakeReconciler{}, exp, 90)

		before := time.Now()
		require.NoError(t, reg.Execute(ctx, scheduler.NewJob(scheduler.JobListingExpiry, 0)))
		require.Len(t, exp.calls, 1)
		assert.False(t, exp.calls[0].Before(before))
	})

	t.Run("unknown job", func(t *testing.T) {
		reg := newJobRegistry(&fakeCleaner{}, &fakeReconciler{}, &fakeExpirer{}, 90)

		err := reg.Execute(ctx, scheduler.NewJob("NOPE", 0))
		assert.ErrorIs(t, err, scheduler.ErrUnknownJob)
	})
}
