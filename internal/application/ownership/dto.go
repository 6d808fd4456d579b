package ownership

import (
	"time"

	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/ownership"
	"github.com/shopspring/decimal"
)

// SyncRequest names extra owners to read besides the ones already mirrored
type SyncRequest struct {
	Owners []string `json:"owners" binding:"omitempty,dive,stellar_address"`
}

// OwnershipResponse represents an ownership row in API responses
type OwnershipResponse struct {
	AssetID      int64           `json:"asset_id"`
	OwnerAddress string          `json:"owner_address"`
	Balance      decimal.Decimal `json:"balance"`
	Percentage   decimal.Decimal `json:"percentage"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// SyncResult summarizes one ledger sync of an asset
type SyncResult struct {
	AssetID         int64               `json:"asset_id"`
	TotalSupply     decimal.Decimal     `json:"total_supply"`
	TotalPercentage decimal.Decimal     `json:"total_percentage"`
	Owners          []OwnershipResponse `json:"owners"`
}

// PercentageResponse is the share of one owner in one asset
type PercentageResponse struct {
	AssetID      int64           `json:"asset_id"`
	OwnerAddress string          `json:"owner_address"`
	Percentage   decimal.Decimal `json:"percentage"`
}

// ToOwnershipResponse converts a domain Ownership to OwnershipResponse
func ToOwnershipResponse(o *ownership.Ownership) OwnershipResponse {
	return OwnershipResponse{
		AssetID:      o.AssetID,
		OwnerAddress: o.OwnerAddress,
		Balance:      o.Balance,
		Percentage:   o.Percentage,
		UpdatedAt:    o.UpdatedAt,
	}
}

// ToOwnershipResponses converts a slice of domain Ownerships
func ToOwnershipResponses(rows []ownership.Ownership) []OwnershipResponse {
	out := make([]OwnershipResponse, len(rows))
	for i := range rows {
		out[i] = ToOwnershipResponse(&rows[i])
	}
	return out
}
