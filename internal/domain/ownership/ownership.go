package ownership

import (
	"context"

	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PercentageScale is the number of decimals kept for ownership percentages
const PercentageScale = 4

var hundred = decimal.NewFromInt(100)

// Ownership is the mirrored token balance of one owner for one asset
type Ownership struct {
	shared.BaseEntity
	AssetID      int64
	OwnerAddress string
	Balance      decimal.Decimal
	Percentage   decimal.Decimal
	LastTxHash   string
}

// NewOwnership creates an empty ownership row
func NewOwnership(assetID int64, ownerAddress string) (*Ownership, error) {
	if assetID <= 0 {
		return nil, shared.NewDomainError("INVALID_ASSET", "Asset ID must be positive")
	}
	if ownerAddress == "" {
		return nil, shared.NewDomainError("INVALID_OWNER", "Owner address cannot be empty")
	}
	return &Ownership{
		BaseEntity:   shared.NewBaseEntity(),
		AssetID:      assetID,
		OwnerAddress: ownerAddress,
		Balance:      decimal.Zero,
		Percentage:   decimal.Zero,
	}, nil
}

// ApplyBalance overwrites the balance with the ledger value and recomputes
// percentage = balance / totalSupply * 100
func (o *Ownership) ApplyBalance(balance, totalSupply decimal.Decimal) {
	o.Balance = balance
	o.Percentage = Percentage(balance, totalSupply)
	o.Touch()
}

// Percentage computes balance / totalSupply * 100 rounded to PercentageScale
func Percentage(balance, totalSupply decimal.Decimal) decimal.Decimal {
	if !totalSupply.IsPositive() {
		return decimal.Zero
	}
	return balance.Mul(hundred).DivRound(totalSupply, PercentageScale+2).Round(PercentageScale)
}

// TotalPercentage sums the percentages of a set of ownerships
func TotalPercentage(rows []Ownership) decimal.Decimal {
	total := decimal.Zero
	for i := range rows {
		total = total.Add(rows[i].Percentage)
	}
	return total
}

// Distribute applies balances to rows and recomputes every percentage. rows
// must be ordered so the final row is the one that may absorb rounding
// residue; that only happens when the balances add up to totalSupply, so
// a full snapshot always sums to exactly 100.
func Distribute(rows []Ownership, balances []decimal.Decimal, totalSupply decimal.Decimal) {
	sumBalance := decimal.Zero
	sumPct := decimal.Zero
	for i := range rows {
		rows[i].ApplyBalance(balances[i], totalSupply)
		sumBalance = sumBalance.Add(balances[i])
		if i < len(rows)-1 {
			sumPct = sumPct.Add(rows[i].Percentage)
		}
	}
	if len(rows) == 0 || !totalSupply.IsPositive() || !sumBalance.Equal(totalSupply) {
		return
	}
	last := &rows[len(rows)-1]
	last.Percentage = hundred.Sub(sumPct)
}

// Repository defines the interface for ownership persistence
type Repository interface {
	// FindByAsset returns all owners of an asset ordered by balance descending
	FindByAsset(ctx context.Context, assetID int64) ([]Ownership, error)

	// FindByOwner returns every asset position of an owner, newest first
	FindByOwner(ctx context.Context, ownerAddress string) ([]Ownership, error)

	// FindOne finds the row for (assetID, ownerAddress)
	FindOne(ctx context.Context, assetID int64, ownerAddress string) (*Ownership, error)

	// SaveAll upserts rows on (asset_id, owner_address) in one transaction
	SaveAll(ctx context.Context, rows []Ownership) error
}
