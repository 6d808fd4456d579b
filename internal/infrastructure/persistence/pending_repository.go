package persistence

import (
	"context"
	"errors"

	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/reconciliation"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/shared"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPendingRepository implements reconciliation.Repository using GORM
type GormPendingRepository struct {
	db *gorm.DB
}

// NewGormPendingRepository creates a new GormPendingRepository
func NewGormPendingRepository(db *gorm.DB) *GormPendingRepository {
	return &GormPendingRepository{db: db}
}

// Save inserts a new row or updates an existing one. Inserting a hash that
// is already tracked leaves the stored row untouched.
func (r *GormPendingRepository) Save(ctx context.Context, p *reconciliation.PendingTransaction) error {
	model := models.PendingModelFromDomain(p)

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.PendingLedgerTransactionModel{}).
		Where("id = ?", p.ID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return r.db.WithContext(ctx).Save(model).Error
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "tx_hash"}}, DoNothing: true}).
		Create(model).Error
}

// FindByHash finds a row by transaction hash
func (r *GormPendingRepository) FindByHash(ctx context.Context, txHash string) (*reconciliation.PendingTransaction, error) {
	var model models.PendingLedgerTransactionModel
	if err := r.db.WithContext(ctx).
		Where("tx_hash = ?", txHash).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByID finds a row by id
func (r *GormPendingRepository) FindByID(ctx context.Context, id uuid.UUID) (*reconciliation.PendingTransaction, error) {
	var model models.PendingLedgerTransactionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByStatus returns up to limit rows in status, oldest first
func (r *GormPendingRepository) FindByStatus(ctx context.Context, status reconciliation.Status, limit int) ([]reconciliation.PendingTransaction, error) {
	var rows []models.PendingLedgerTransactionModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Limit(shared.ClampLimit(limit, 50)).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]reconciliation.PendingTransaction, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// CountByStatus counts rows in status
func (r *GormPendingRepository) CountByStatus(ctx context.Context, status reconciliation.Status) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PendingLedgerTransactionModel{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}

var _ reconciliation.Repository = (*GormPendingRepository)(nil)
