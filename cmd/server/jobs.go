package main

import (
	"context"
	"time"

	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/application/admin"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/infrastructure/scheduler"
)

// cleanupArg is the job argument carrying the retention window in days
const cleanupArg = "days_old"

type cleaner interface {
	Cleanup(ctx context.Context, daysOld int) (*admin.CleanupResult, error)
}

type expirer interface {
	ExpireListings(ctx context.Context, now time.Time) (int64, error)
}

// newJobRegistry binds the background job names to the services that do
// the work
func newJobRegistry(cleanup cleaner, recon admin.Reconciler, expiry expirer, retentionDays int) *scheduler.Registry {
	reg := scheduler.NewRegistry()

	reg.Register(scheduler.JobRetentionCleanup, func(ctx context.Context, job *scheduler.Job) error {
		days := job.Args[cleanupArg]
		if days <= 0 {
			days = retentionDays
		}
		_, err := cleanup.Cleanup(ctx, days)
		return err
	})
	reg.Register(scheduler.JobPendingRepoll, func(ctx context.Context, _ *scheduler.Job) error {
		_, err := recon.RepollPending(ctx)
		return err
	})
	reg.Register(scheduler.JobReceiptReconcile, func(ctx context.Context, _ *scheduler.Job) error {
		_, err := recon.ReconcileReceipts(ctx)
		return err
	})
	reg.Register(scheduler.JobListingExpiry, func(ctx context.Context, _ *scheduler.Job) error {
		_, err := expiry.ExpireListings(ctx, time.Now())
		return err
	})

	return reg
}
