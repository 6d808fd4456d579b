package marketplace

import "github.com/shopspring/decimal"

// Stats summarizes the mirror for the marketplace dashboard
type Stats struct {
	TotalListings     int64
	ActiveListings    int64
	SoldListings      int64
	CancelledListings int64
	ExpiredListings   int64
	TotalTransactions int64
	TotalVolume       decimal.Decimal
	AssetsListed      int64
}
