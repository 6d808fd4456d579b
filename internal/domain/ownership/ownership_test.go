package ownership

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func rowsFor(t *testing.T, owners ...string) []Ownership {
	t.Helper()
	rows := make([]Ownership, 0, len(owners))
	for _, o := range owners {
		row, err := NewOwnership(1, o)
		require.NoError(t, err)
		rows = append(rows, *row)
	}
	return rows
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, "25", Percentage(d("250"), d("1000")).String())
	assert.Equal(t, "33.3333", Percentage(d("1"), d("3")).String())
	assert.True(t, Percentage(d("5"), decimal.Zero).IsZero())
}

func TestDistribute(t *testing.T) {
	t.Run("full snapshot sums to exactly 100", func(t *testing.T) {
		rows := rowsFor(t, "GA", "GB", "GC")
		Distribute(rows, []decimal.Decimal{d("1"), d("1"), d("1")}, d("3"))

		assert.Equal(t, "33.3333", rows[0].Percentage.String())
		assert.Equal(t, "33.3333", rows[1].Percentage.String())
		assert.Equal(t, "33.3334", rows[2].Percentage.String())
		assert.True(t, TotalPercentage(rows).Equal(decimal.NewFromInt(100)))
	})

	t.Run("partial snapshot keeps plain rounding", func(t *testing.T) {
		rows := rowsFor(t, "GA", "GB")
		Distribute(rows, []decimal.Decimal{d("1"), d("1")}, d("3"))

		assert.Equal(t, "33.3333", rows[1].Percentage.String())
		assert.Equal(t, "66.6666", TotalPercentage(rows).String())
	})

	t.Run("sum stays within tolerance for uneven balances", func(t *testing.T) {
		rows := rowsFor(t, "GA", "GB", "GC", "GD")
		Distribute(rows, []decimal.Decimal{d("4000.1234567"), d("3333.3333333"), d("1666.6666666"), d("999.8765434")}, d("10000"))
		diff := TotalPercentage(rows).Sub(decimal.NewFromInt(100)).Abs()
		assert.True(t, diff.LessThanOrEqual(d("0.01")), "sum off by %s", diff)
		assert.Equal(t, "4000.1234567", rows[0].Balance.String())
	})

	t.Run("empty rows", func(t *testing.T) {
		Distribute(nil, nil, d("10"))
	})
}

func TestNewOwnership(t *testing.T) {
	_, err := NewOwnership(0, "GA")
	assert.Error(t, err)
	_, err = NewOwnership(1, "")
	assert.Error(t, err)

	o, err := NewOwnership(1, "GA")
	require.NoError(t, err)
	o.ApplyBalance(d("50"), d("200"))
	assert.Equal(t, "25", o.Percentage.String())
}
