package soroban

import (
	"testing"

	"github.com/stellar/go/keypair"
	"github.com/stellar/go/strkey"
	"github.com/stellar/go/xdr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContractID(t *testing.T, fill byte) string {
	t.Helper()
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = fill
	}
	id, err := strkey.Encode(strkey.VersionByteContract, raw)
	require.NoError(t, err)
	return id
}

func TestAddressArg(t *testing.T) {
	t.Run("account round trip", func(t *testing.T) {
		addr := keypair.MustRandom().Address()
		arg, err := AddressArg(addr)
		require.NoError(t, err)
		back, err := DecodeAddress(arg)
		require.NoError(t, err)
		assert.Equal(t, addr, back)
	})

	t.Run("contract round trip", func(t *testing.T) {
		id := testContractID(t, 7)
		arg, err := AddressArg(id)
		require.NoError(t, err)
		sc, ok := arg.GetAddress()
		require.True(t, ok)
		assert.Equal(t, xdr.ScAddressTypeScAddressTypeContract, sc.Type)
		back, err := DecodeAddress(arg)
		require.NoError(t, err)
		assert.Equal(t, id, back)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := AddressArg("not-an-address")
		assert.Error(t, err)
	})
}

func TestDecodeU64(t *testing.T) {
	id, err := DecodeU64(U64Arg(42))
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)

	neg, err := I128Arg(bigInt(-1))
	require.NoError(t, err)
	_, err = DecodeU64(neg)
	assert.Error(t, err)
}

func TestDecodeText(t *testing.T) {
	s, err := DecodeText(SymbolArg("Locked"))
	require.NoError(t, err)
	assert.Equal(t, "Locked", s)

	vec := xdr.ScVec{SymbolArg("Released")}
	vecPtr := &vec
	s, err = DecodeText(xdr.ScVal{Type: xdr.ScValTypeScvVec, Vec: &vecPtr})
	require.NoError(t, err)
	assert.Equal(t, "Released", s)
}

func TestDecodeEscrow(t *testing.T) {
	buyer := keypair.MustRandom().Address()
	seller := keypair.MustRandom().Address()
	buyerArg, err := AddressArg(buyer)
	require.NoError(t, err)
	sellerArg, err := AddressArg(seller)
	require.NoError(t, err)
	amountArg, err := AmountArg(decimalFromString(t, "250.5"))
	require.NoError(t, err)

	v := structVal(map[string]xdr.ScVal{
		"buyer":       buyerArg,
		"seller":      sellerArg,
		"amount":      amountArg,
		"unlock_time": U64Arg(1700000000),
		"status":      SymbolArg("Locked"),
	})

	rec, err := decodeEscrow(9, v)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), rec.EscrowID)
	assert.Equal(t, buyer, rec.Buyer)
	assert.Equal(t, seller, rec.Seller)
	assert.Equal(t, "250.5", rec.Amount.String())
	assert.Equal(t, int64(1700000000), rec.UnlockTime.Unix())
	assert.Equal(t, "LOCKED", string(rec.Status))
}
