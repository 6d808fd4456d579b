package soroban

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
	"github.com/stellar/go/xdr"
)

// AmountDecimals is the fixed-point precision of every on-ledger amount
const AmountDecimals = 7

// ScaleFactor is 10^AmountDecimals
var ScaleFactor = decimal.New(1, AmountDecimals)

var (
	two64   = new(big.Int).Lsh(big.NewInt(1), 64)
	two128  = new(big.Int).Lsh(big.NewInt(1), 128)
	mask64  = new(big.Int).Sub(two64, big.NewInt(1))
	maxI128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minI128 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
)

// ScaleAmount converts a human amount to the ledger integer (v * 10^7).
// Amounts with more than seven decimal places are rejected rather than
// silently rounded.
func ScaleAmount(v decimal.Decimal) (*big.Int, error) {
	scaled := v.Shift(AmountDecimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, fmt.Errorf("soroban: amount %s has more than %d decimal places", v.String(), AmountDecimals)
	}
	return scaled.BigInt(), nil
}

// UnscaleAmount converts a ledger integer back to a human amount (v / 10^7)
func UnscaleAmount(v *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(v, -AmountDecimals)
}

// AmountArg encodes a human amount as a scaled i128 call argument
func AmountArg(v decimal.Decimal) (xdr.ScVal, error) {
	scaled, err := ScaleAmount(v)
	if err != nil {
		return xdr.ScVal{}, err
	}
	return I128Arg(scaled)
}

// DecodeAmount decodes a scaled integer return value into a human amount
func DecodeAmount(v xdr.ScVal) (decimal.Decimal, error) {
	raw, err := DecodeInteger(v)
	if err != nil {
		return decimal.Zero, err
	}
	return UnscaleAmount(raw), nil
}

// I128Arg encodes an integer as an i128 ScVal
func I128Arg(v *big.Int) (xdr.ScVal, error) {
	if v.Cmp(minI128) < 0 || v.Cmp(maxI128) > 0 {
		return xdr.ScVal{}, fmt.Errorf("soroban: %s overflows i128", v.String())
	}
	u := new(big.Int).Set(v)
	if u.Sign() < 0 {
		u.Add(u, two128)
	}
	lo := new(big.Int).And(u, mask64).Uint64()
	hi := new(big.Int).Rsh(u, 64).Uint64()
	parts := xdr.Int128Parts{
		Hi: xdr.Int64(int64(hi)),
		Lo: xdr.Uint64(lo),
	}
	return xdr.ScVal{Type: xdr.ScValTypeScvI128, I128: &parts}, nil
}

func int128ToBig(parts xdr.Int128Parts) *big.Int {
	v := big.NewInt(int64(parts.Hi))
	v.Lsh(v, 64)
	return v.Add(v, new(big.Int).SetUint64(uint64(parts.Lo)))
}

func uint128ToBig(parts xdr.UInt128Parts) *big.Int {
	v := new(big.Int).SetUint64(uint64(parts.Hi))
	v.Lsh(v, 64)
	return v.Add(v, new(big.Int).SetUint64(uint64(parts.Lo)))
}

// DecodeInteger decodes any integer ScVal into a big.Int
func DecodeInteger(v xdr.ScVal) (*big.Int, error) {
	switch v.Type {
	case xdr.ScValTypeScvI128:
		parts, _ := v.GetI128()
		return int128ToBig(parts), nil
	case xdr.ScValTypeScvU128:
		parts, _ := v.GetU128()
		return uint128ToBig(parts), nil
	case xdr.ScValTypeScvI64:
		n, _ := v.GetI64()
		return big.NewInt(int64(n)), nil
	case xdr.ScValTypeScvU64:
		n, _ := v.GetU64()
		return new(big.Int).SetUint64(uint64(n)), nil
	case xdr.ScValTypeScvI32:
		n, _ := v.GetI32()
		return big.NewInt(int64(n)), nil
	case xdr.ScValTypeScvU32:
		n, _ := v.GetU32()
		return new(big.Int).SetUint64(uint64(n)), nil
	}
	return nil, fmt.Errorf("soroban: expected integer value, got %s", v.Type.String())
}
