package models

import (
	"time"

	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/marketplace"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AssetModel is the read model of a tokenized property. Rows are owned by
// the property service; this service only reads them and refreshes
// total_supply from the token contract.
type AssetModel struct {
	ID          int64           `gorm:"primaryKey;autoIncrement:false"`
	ContractID  string          `gorm:"type:varchar(56);not null;uniqueIndex"`
	Name        string          `gorm:"type:varchar(200);not null"`
	TotalSupply decimal.Decimal `gorm:"type:decimal(30,7);not null"`
	Decimals    int             `gorm:"not null;default:7"`
	CreatedAt   time.Time       `gorm:"not null"`
	UpdatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AssetModel) TableName() string {
	return "assets"
}

// ToDomain converts the persistence model to a domain Asset
func (m *AssetModel) ToDomain() *marketplace.Asset {
	return &marketplace.Asset{
		ID:          m.ID,
		ContractID:  m.ContractID,
		Name:        m.Name,
		TotalSupply: m.TotalSupply,
		Decimals:    m.Decimals,
	}
}

// ListingModel is the persistence model for a Listing
type ListingModel struct {
	BaseModel
	LedgerListingID uint64                    `gorm:"type:numeric(20,0);not null;uniqueIndex"`
	AssetID         int64                     `gorm:"not null;index"`
	SellerAddress   string                    `gorm:"type:varchar(56);not null;index"`
	Amount          decimal.Decimal           `gorm:"type:decimal(30,7);not null"`
	InitialAmount   decimal.Decimal           `gorm:"type:decimal(30,7);not null"`
	PricePerToken   decimal.Decimal           `gorm:"type:decimal(30,7);not null"`
	TotalPrice      decimal.Decimal           `gorm:"type:decimal(30,7);not null"`
	Status          marketplace.ListingStatus `gorm:"type:varchar(20);not null;index"`
	LedgerTxHash    string                    `gorm:"type:varchar(64);not null"`
	ExpiresAt       time.Time                 `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (ListingModel) TableName() string {
	return "listings"
}

// ToDomain converts the persistence model to a domain Listing
func (m *ListingModel) ToDomain() *marketplace.Listing {
	return &marketplace.Listing{
		BaseEntity:      m.BaseModel.ToDomain(),
		LedgerListingID: m.LedgerListingID,
		AssetID:         m.AssetID,
		SellerAddress:   m.SellerAddress,
		Amount:          m.Amount,
		InitialAmount:   m.InitialAmount,
		PricePerToken:   m.PricePerToken,
		TotalPrice:      m.TotalPrice,
		Status:          m.Status,
		LedgerTxHash:    m.LedgerTxHash,
		ExpiresAt:       m.ExpiresAt,
	}
}

// FromDomain populates the persistence model from a domain Listing
func (m *ListingModel) FromDomain(l *marketplace.Listing) {
	m.FromDomainBaseEntity(l.BaseEntity)
	m.LedgerListingID = l.LedgerListingID
	m.AssetID = l.AssetID
	m.SellerAddress = l.SellerAddress
	m.Amount = l.Amount
	m.InitialAmount = l.InitialAmount
	m.PricePerToken = l.PricePerToken
	m.TotalPrice = l.TotalPrice
	m.Status = l.Status
	m.LedgerTxHash = l.LedgerTxHash
	m.ExpiresAt = l.ExpiresAt
}

// ListingModelFromDomain creates a new persistence model from a domain Listing
func ListingModelFromDomain(l *marketplace.Listing) *ListingModel {
	m := &ListingModel{}
	m.FromDomain(l)
	return m
}

// TransactionModel is the persistence model for a confirmed purchase. Rows
// are insert-only.
type TransactionModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	LedgerTxHash  string          `gorm:"type:varchar(64);not null;uniqueIndex"`
	ListingID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	BuyerAddress  string          `gorm:"type:varchar(56);not null;index"`
	SellerAddress string          `gorm:"type:varchar(56);not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(30,7);not null"`
	PricePerToken decimal.Decimal `gorm:"type:decimal(30,7);not null"`
	TotalPrice    decimal.Decimal `gorm:"type:decimal(30,7);not null"`
	EscrowID      *uint64         `gorm:"type:numeric(20,0)"`
	Metadata      string    `gorm:"type:text"`
	CreatedAt     time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (TransactionModel) TableName() string {
	return "transactions"
}

// ToDomain converts the persistence model to a domain Transaction
func (m *TransactionModel) ToDomain() *marketplace.Transaction {
	return &marketplace.Transaction{
		ID:            m.ID,
		LedgerTxHash:  m.LedgerTxHash,
		ListingID:     m.ListingID,
		BuyerAddress:  m.BuyerAddress,
		SellerAddress: m.SellerAddress,
		Amount:        m.Amount,
		PricePerToken: m.PricePerToken,
		TotalPrice:    m.TotalPrice,
		EscrowID:      m.EscrowID,
		Metadata:      m.Metadata,
		CreatedAt:     m.CreatedAt,
	}
}

// TransactionModelFromDomain creates a new persistence model from a domain Transaction
func TransactionModelFromDomain(t *marketplace.Transaction) *TransactionModel {
	return &TransactionModel{
		ID:            t.ID,
		LedgerTxHash:  t.LedgerTxHash,
		ListingID:     t.ListingID,
		BuyerAddress:  t.BuyerAddress,
		SellerAddress: t.SellerAddress,
		Amount:        t.Amount,
		PricePerToken: t.PricePerToken,
		TotalPrice:    t.TotalPrice,
		EscrowID:      t.EscrowID,
		Metadata:      t.Metadata,
		CreatedAt:     t.CreatedAt,
	}
}
