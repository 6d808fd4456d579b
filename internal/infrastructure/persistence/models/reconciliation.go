package models

import (
	"encoding/json"
	"time"

	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/reconciliation"
)

// PendingLedgerTransactionModel is the persistence model for a submitted
// hash awaiting reconciliation
type PendingLedgerTransactionModel struct {
	BaseModel
	TxHash        string                `gorm:"type:varchar(64);not null;uniqueIndex"`
	Kind          reconciliation.Kind   `gorm:"type:varchar(20);not null"`
	Payload       []byte                `gorm:"type:jsonb;not null"`
	Status        reconciliation.Status `gorm:"type:varchar(20);not null;index:idx_pending_status_created,priority:1"`
	Attempts      int                   `gorm:"not null;default:0"`
	LastError     string                `gorm:"type:text"`
	LastCheckedAt *time.Time
	ResolvedAt    *time.Time
}

// TableName returns the table name for GORM
func (PendingLedgerTransactionModel) TableName() string {
	return "pending_ledger_transactions"
}

// ToDomain converts the persistence model to a domain PendingTransaction
func (m *PendingLedgerTransactionModel) ToDomain() *reconciliation.PendingTransaction {
	return &reconciliation.PendingTransaction{
		BaseEntity:    m.BaseModel.ToDomain(),
		TxHash:        m.TxHash,
		Kind:          m.Kind,
		Payload:       json.RawMessage(m.Payload),
		Status:        m.Status,
		Attempts:      m.Attempts,
		LastError:     m.LastError,
		LastCheckedAt: m.LastCheckedAt,
		ResolvedAt:    m.ResolvedAt,
	}
}

// PendingModelFromDomain creates a new persistence model from a domain PendingTransaction
func PendingModelFromDomain(p *reconciliation.PendingTransaction) *PendingLedgerTransactionModel {
	m := &PendingLedgerTransactionModel{
		TxHash:        p.TxHash,
		Kind:          p.Kind,
		Payload:       []byte(p.Payload),
		Status:        p.Status,
		Attempts:      p.Attempts,
		LastError:     p.LastError,
		LastCheckedAt: p.LastCheckedAt,
		ResolvedAt:    p.ResolvedAt,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	return m
}
