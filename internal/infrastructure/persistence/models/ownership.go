package models

import (
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/ownership"
	"github.com/shopspring/decimal"
)

// OwnershipModel is the persistence model for an owner's mirrored balance
type OwnershipModel struct {
	BaseModel
	AssetID      int64           `gorm:"not null;uniqueIndex:uq_ownerships_asset_owner,priority:1"`
	OwnerAddress string          `gorm:"type:varchar(56);not null;uniqueIndex:uq_ownerships_asset_owner,priority:2;index"`
	Balance      decimal.Decimal `gorm:"type:decimal(30,7);not null"`
	Percentage   decimal.Decimal `gorm:"type:decimal(7,4);not null"`
	LastTxHash   string          `gorm:"type:varchar(64)"`
}

// TableName returns the table name for GORM
func (OwnershipModel) TableName() string {
	return "ownerships"
}

// ToDomain converts the persistence model to a domain Ownership
func (m *OwnershipModel) ToDomain() *ownership.Ownership {
	return &ownership.Ownership{
		BaseEntity:   m.BaseModel.ToDomain(),
		AssetID:      m.AssetID,
		OwnerAddress: m.OwnerAddress,
		Balance:      m.Balance,
		Percentage:   m.Percentage,
		LastTxHash:   m.LastTxHash,
	}
}

// OwnershipModelFromDomain creates a new persistence model from a domain Ownership
func OwnershipModelFromDomain(o *ownership.Ownership) *OwnershipModel {
	m := &OwnershipModel{
		AssetID:      o.AssetID,
		OwnerAddress: o.OwnerAddress,
		Balance:      o.Balance,
		Percentage:   o.Percentage,
		LastTxHash:   o.LastTxHash,
	}
	m.FromDomainBaseEntity(o.BaseEntity)
	return m
}
