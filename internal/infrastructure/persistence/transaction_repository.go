package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/marketplace"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/shared"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormTransactionRepository implements marketplace.TransactionRepository using GORM
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// FindByHash finds a purchase record by ledger transaction hash
func (r *GormTransactionRepository) FindByHash(ctx context.Context, txHash string) (*marketplace.Transaction, error) {
	var model models.TransactionModel
	if err := r.db.WithContext(ctx).
		Where("ledger_tx_hash = ?", txHash).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ExistsByHash reports whether a purchase record exists for txHash
func (r *GormTransactionRepository) ExistsByHash(ctx context.Context, txHash string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.TransactionModel{}).
		Where("ledger_tx_hash = ?", txHash).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindRecent returns the newest purchase records
func (r *GormTransactionRepository) FindRecent(ctx context.Context, limit int) ([]marketplace.Transaction, error) {
	var rows []models.TransactionModel
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(shared.ClampLimit(limit, 20)).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toTransactions(rows), nil
}

// FindByListing returns one page of purchase records for a listing and the total count
func (r *GormTransactionRepository) FindByListing(ctx context.Context, listingID uuid.UUID, limit, offset int) ([]marketplace.Transaction, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.TransactionModel{}).
		Where("listing_id = ?", listingID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if offset < 0 {
		offset = 0
	}
	var rows []models.TransactionModel
	if err := query.
		Order("created_at DESC").
		Limit(shared.ClampLimit(limit, 20)).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toTransactions(rows), total, nil
}

// DeleteOlderThan removes purchase records created before cutoff
func (r *GormTransactionRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.TransactionModel{})
	return result.RowsAffected, result.Error
}

func toTransactions(rows []models.TransactionModel) []marketplace.Transaction {
	out := make([]marketplace.Transaction, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

var _ marketplace.TransactionRepository = (*GormTransactionRepository)(nil)
