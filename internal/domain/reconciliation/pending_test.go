package reconciliation

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listPayload struct {
	AssetID int64  `json:"asset_id"`
	Seller  string `json:"seller"`
}

func TestNewPendingTransaction(t *testing.T) {
	p, err := NewPendingTransaction("abc", KindList, listPayload{AssetID: 4, Seller: "GS"})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, p.Status)
	assert.Equal(t, KindList, p.Kind)

	var got listPayload
	require.NoError(t, p.DecodePayload(&got))
	assert.Equal(t, int64(4), got.AssetID)

	_, err = NewPendingTransaction("", KindBuy, nil)
	assert.Error(t, err)
}

func TestPendingTransaction_MarkChecked(t *testing.T) {
	p, err := NewPendingTransaction("abc", KindBuy, map[string]string{})
	require.NoError(t, err)
	now := time.Now()

	p.MarkChecked(now, 3)
	p.MarkChecked(now, 3)
	assert.Equal(t, StatusPending, p.Status)
	assert.Nil(t, p.ResolvedAt)

	p.MarkChecked(now, 3)
	assert.Equal(t, StatusAbandoned, p.Status)
	assert.Equal(t, 3, p.Attempts)
	assert.True(t, p.Status.IsTerminal())
}

func TestPendingTransaction_Transitions(t *testing.T) {
	now := time.Now()
	p, err := NewPendingTransaction("abc", KindCancel, map[string]string{})
	require.NoError(t, err)

	p.MarkConfirmed(now)
	assert.Equal(t, StatusConfirmed, p.Status)
	assert.False(t, p.Status.IsTerminal())

	p.RecordApplyError(now, errors.New("db down"))
	assert.Equal(t, StatusConfirmed, p.Status)
	assert.Equal(t, "db down", p.LastError)
	assert.Equal(t, 1, p.Attempts)

	p.MarkApplied(now)
	assert.Equal(t, StatusApplied, p.Status)
	assert.Empty(t, p.LastError)
	assert.NotNil(t, p.ResolvedAt)

	f, _ := NewPendingTransaction("def", KindLock, map[string]string{})
	f.MarkFailed(now, "tx failed")
	assert.Equal(t, StatusFailed, f.Status)

	a, _ := NewPendingTransaction("ghi", KindBuy, map[string]string{})
	a.Abandon(now, "listing sold out")
	assert.Equal(t, StatusAbandoned, a.Status)
	assert.Equal(t, "listing sold out", a.LastError)
}

func TestPendingTransaction_ResultID(t *testing.T) {
	p, err := NewPendingTransaction("abc", KindList, listPayload{AssetID: 9, Seller: "GS"})
	require.NoError(t, err)

	_, ok := p.ResultID()
	assert.False(t, ok)

	require.NoError(t, p.AttachResultID(42))
	id, ok := p.ResultID()
	require.True(t, ok)
	assert.Equal(t, uint64(42), id)

	var got listPayload
	require.NoError(t, p.DecodePayload(&got))
	assert.Equal(t, int64(9), got.AssetID, "existing fields survive")
}
