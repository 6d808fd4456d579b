package marketplace

import "github.com/shopspring/decimal"

// Asset is the read-only view of a tokenized property. Its metadata is owned
// by another service; the coordinator only needs the token contract and the
// total supply.
type Asset struct {
	ID          int64
	ContractID  string
	Name        string
	TotalSupply decimal.Decimal
	Decimals    int
}
