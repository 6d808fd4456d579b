package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// LedgerMeterName is the instrumentation scope of the ledger metrics
const LedgerMeterName = "ledger-coordinator/ledger"

// LedgerMetrics records submission, simulation and pending-queue metrics.
// It satisfies the soroban pipeline's Observer.
type LedgerMetrics struct {
	submissions  *Counter
	simulations  *Counter
	pollAttempts *Histogram
	confirmation *Histogram
	pending      *Gauge
}

// NewLedgerMetrics registers the ledger instruments on the given meter.
func NewLedgerMetrics(meter metric.Meter) (*LedgerMetrics, error) {
	submissions, err := NewCounter(meter, "ledger_submissions_total",
		"Ledger transaction submissions by method and outcome", "{submission}")
	if err != nil {
		return nil, err
	}
	simulations, err := NewCounter(meter, "ledger_simulations_total",
		"Read-only contract simulations by method and outcome", "{simulation}")
	if err != nil {
		return nil, err
	}
	pollAttempts, err := NewHistogram(meter, HistogramOpts{
		Name:        "ledger_poll_attempts",
		Description: "Status polls needed before a submission reached a final state",
		Unit:        "{attempt}",
		Boundaries:  PollAttemptBuckets,
	})
	if err != nil {
		return nil, err
	}
	confirmation, err := NewHistogram(meter, HistogramOpts{
		Name:        "ledger_confirmation_seconds",
		Description: "Time from submission to a final ledger status",
		Unit:        "s",
		Boundaries:  ConfirmationBuckets,
	})
	if err != nil {
		return nil, err
	}
	pending, err := NewGauge(meter, "ledger_pending_transactions",
		"Pending ledger transactions by status", "{transaction}")
	if err != nil {
		return nil, err
	}

	return &LedgerMetrics{
		submissions:  submissions,
		simulations:  simulations,
		pollAttempts: pollAttempts,
		confirmation: confirmation,
		pending:      pending,
	}, nil
}

// ObserveSubmission records one finished submit-and-poll cycle.
func (m *LedgerMetrics) ObserveSubmission(ctx context.Context, method, outcome string, attempts int, elapsed time.Duration) {
	m.submissions.Inc(ctx, AttrMethod.String(method), AttrOutcome.String(outcome))
	if attempts > 0 {
		m.pollAttempts.Record(ctx, float64(attempts), AttrMethod.String(method))
	}
	m.confirmation.RecordDuration(ctx, elapsed, AttrMethod.String(method), AttrOutcome.String(outcome))
}

// ObserveSimulation records one read-only simulation.
func (m *LedgerMetrics) ObserveSimulation(ctx context.Context, method, outcome string) {
	m.simulations.Inc(ctx, AttrMethod.String(method), AttrOutcome.String(outcome))
}

// RecordPending reports the number of pending rows in a status.
func (m *LedgerMetrics) RecordPending(ctx context.Context, status string, count int64) {
	m.pending.Record(ctx, count, AttrStatus.String(status))
}
