package soroban

import (
	"math/big"
	"sort"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stellar/go/xdr"
	"github.com/stretchr/testify/require"
)

func bigInt(v int64) *big.Int {
	return big.NewInt(v)
}

func decimalFromString(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

// structVal builds a contract struct the way the host encodes it: a map
// sorted by symbol key
func structVal(fields map[string]xdr.ScVal) xdr.ScVal {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	m := make(xdr.ScMap, 0, len(keys))
	for _, k := range keys {
		m = append(m, xdr.ScMapEntry{Key: SymbolArg(k), Val: fields[k]})
	}
	mPtr := &m
	return xdr.ScVal{Type: xdr.ScValTypeScvMap, Map: &mPtr}
}

func mustBase64(t *testing.T, v any) string {
	t.Helper()
	s, err := xdr.MarshalBase64(v)
	require.NoError(t, err)
	return s
}
