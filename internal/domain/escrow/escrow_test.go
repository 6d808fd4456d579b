package escrow

import (
	"testing"
	"time"

	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lockedRecord(unlock time.Time) *Record {
	return &Record{
		EscrowID:   3,
		Buyer:      "GBUYER",
		Seller:     "GSELLER",
		Amount:     decimal.NewFromInt(500),
		UnlockTime: unlock,
		Status:     StatusLocked,
	}
}

func TestUnlockTimeAfter(t *testing.T) {
	now := time.Date(2026, 9, 1, 10, 30, 15, 999, time.UTC)
	got := UnlockTimeAfter(now, 2)
	assert.Equal(t, now.Unix()+2*86400, got.Unix())
	assert.Zero(t, got.Nanosecond())
}

func TestRecord_IsTimedOut(t *testing.T) {
	unlock := time.Unix(1_800_000_000, 0)
	r := lockedRecord(unlock)

	assert.False(t, r.IsTimedOut(unlock.Add(-time.Second)))
	assert.True(t, r.IsTimedOut(unlock), "timed out exactly at unlock time")
	assert.True(t, r.IsTimedOut(unlock.Add(time.Second)))
}

func TestRecord_EnsureRefundable(t *testing.T) {
	unlock := time.Unix(1_800_000_000, 0)

	t.Run("before unlock", func(t *testing.T) {
		err := lockedRecord(unlock).EnsureRefundable("GSELLER", unlock.Add(-time.Second))
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("at unlock by seller", func(t *testing.T) {
		assert.NoError(t, lockedRecord(unlock).EnsureRefundable("GSELLER", unlock))
	})

	t.Run("wrong caller", func(t *testing.T) {
		err := lockedRecord(unlock).EnsureRefundable("GBUYER", unlock)
		assert.ErrorIs(t, err, shared.ErrUnauthorized)
	})

	t.Run("already released", func(t *testing.T) {
		r := lockedRecord(unlock)
		r.Status = StatusReleased
		assert.ErrorIs(t, r.EnsureRefundable("GSELLER", unlock), shared.ErrInvalidState)
	})
}

func TestStatus(t *testing.T) {
	assert.True(t, StatusLocked.CanTransitionTo(StatusReleased))
	assert.True(t, StatusLocked.CanTransitionTo(StatusRefunded))
	assert.False(t, StatusReleased.CanTransitionTo(StatusRefunded))
	assert.False(t, StatusRefunded.CanTransitionTo(StatusLocked))

	s, err := ParseStatus("Refunded")
	require.NoError(t, err)
	assert.Equal(t, StatusRefunded, s)
	_, err = ParseStatus("open")
	assert.Error(t, err)
}
