package soroban

import (
	"fmt"
	"strings"

	"github.com/stellar/go/strkey"
	"github.com/stellar/go/xdr"
)

// AddressArg encodes a G... account or C... contract strkey as an address ScVal
func AddressArg(address string) (xdr.ScVal, error) {
	scAddr, err := ParseScAddress(address)
	if err != nil {
		return xdr.ScVal{}, err
	}
	return xdr.ScVal{Type: xdr.ScValTypeScvAddress, Address: &scAddr}, nil
}

// ParseScAddress converts a strkey into an xdr.ScAddress
func ParseScAddress(address string) (xdr.ScAddress, error) {
	switch {
	case strkey.IsValidEd25519PublicKey(address):
		accountID, err := xdr.AddressToAccountId(address)
		if err != nil {
			return xdr.ScAddress{}, fmt.Errorf("soroban: invalid account address %q: %w", address, err)
		}
		return xdr.ScAddress{Type: xdr.ScAddressTypeScAddressTypeAccount, AccountId: &accountID}, nil
	case strings.HasPrefix(address, "C"):
		raw, err := strkey.Decode(strkey.VersionByteContract, address)
		if err != nil {
			return xdr.ScAddress{}, fmt.Errorf("soroban: invalid contract address %q: %w", address, err)
		}
		var id xdr.Hash
		copy(id[:], raw)
		return xdr.ScAddress{Type: xdr.ScAddressTypeScAddressTypeContract, ContractId: &id}, nil
	}
	return xdr.ScAddress{}, fmt.Errorf("soroban: unsupported address %q", address)
}

// U64Arg encodes an unsigned 64-bit id
func U64Arg(v uint64) xdr.ScVal {
	n := xdr.Uint64(v)
	return xdr.ScVal{Type: xdr.ScValTypeScvU64, U64: &n}
}

// U32Arg encodes an unsigned 32-bit value
func U32Arg(v uint32) xdr.ScVal {
	n := xdr.Uint32(v)
	return xdr.ScVal{Type: xdr.ScValTypeScvU32, U32: &n}
}

// SymbolArg encodes a symbol
func SymbolArg(s string) xdr.ScVal {
	sym := xdr.ScSymbol(s)
	return xdr.ScVal{Type: xdr.ScValTypeScvSymbol, Sym: &sym}
}

// DecodeU64 decodes an unsigned id return value
func DecodeU64(v xdr.ScVal) (uint64, error) {
	n, err := DecodeInteger(v)
	if err != nil {
		return 0, err
	}
	if n.Sign() < 0 || !n.IsUint64() {
		return 0, fmt.Errorf("soroban: %s does not fit u64", n.String())
	}
	return n.Uint64(), nil
}

// DecodeAddress decodes an address ScVal into its strkey form
func DecodeAddress(v xdr.ScVal) (string, error) {
	addr, ok := v.GetAddress()
	if !ok {
		return "", fmt.Errorf("soroban: expected address, got %s", v.Type.String())
	}
	switch addr.Type {
	case xdr.ScAddressTypeScAddressTypeAccount:
		if addr.AccountId == nil {
			return "", fmt.Errorf("soroban: empty account address")
		}
		return addr.AccountId.Address(), nil
	case xdr.ScAddressTypeScAddressTypeContract:
		if addr.ContractId == nil {
			return "", fmt.Errorf("soroban: empty contract address")
		}
		return strkey.Encode(strkey.VersionByteContract, addr.ContractId[:])
	}
	return "", fmt.Errorf("soroban: unsupported address type %s", addr.Type.String())
}

// DecodeText decodes a symbol or string ScVal. Unit enum variants, which
// contracts return as a one-element vector holding a symbol, decode to that
// symbol.
func DecodeText(v xdr.ScVal) (string, error) {
	switch v.Type {
	case xdr.ScValTypeScvSymbol:
		sym, _ := v.GetSym()
		return string(sym), nil
	case xdr.ScValTypeScvString:
		str, _ := v.GetStr()
		return string(str), nil
	case xdr.ScValTypeScvVec:
		vec, ok := v.GetVec()
		if ok && vec != nil && len(*vec) > 0 {
			return DecodeText((*vec)[0])
		}
	}
	return "", fmt.Errorf("soroban: expected symbol or string, got %s", v.Type.String())
}

// DecodeBool decodes a boolean ScVal
func DecodeBool(v xdr.ScVal) (bool, error) {
	b, ok := v.GetB()
	if !ok {
		return false, fmt.Errorf("soroban: expected bool, got %s", v.Type.String())
	}
	return b, nil
}

// StructFields is a contract struct decoded into its symbol-keyed fields
type StructFields map[string]xdr.ScVal

// DecodeStruct decodes a contract struct (a symbol-keyed map) into its fields
func DecodeStruct(v xdr.ScVal) (StructFields, error) {
	m, ok := v.GetMap()
	if !ok || m == nil {
		return nil, fmt.Errorf("soroban: expected struct map, got %s", v.Type.String())
	}
	fields := make(StructFields, len(*m))
	for _, entry := range *m {
		key, err := DecodeText(entry.Key)
		if err != nil {
			return nil, fmt.Errorf("soroban: struct key: %w", err)
		}
		fields[key] = entry.Val
	}
	return fields, nil
}

// Field returns a required struct field
func (f StructFields) Field(name string) (xdr.ScVal, error) {
	v, ok := f[name]
	if !ok {
		return xdr.ScVal{}, fmt.Errorf("soroban: struct has no field %q", name)
	}
	return v, nil
}
