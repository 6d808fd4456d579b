package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/marketplace"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/shared"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormAssetRepository implements marketplace.AssetRepository using GORM
type GormAssetRepository struct {
	db *gorm.DB
}

// NewGormAssetRepository creates a new GormAssetRepository
func NewGormAssetRepository(db *gorm.DB) *GormAssetRepository {
	return &GormAssetRepository{db: db}
}

// FindByID finds an asset by id
func (r *GormAssetRepository) FindByID(ctx context.Context, id int64) (*marketplace.Asset, error) {
	var model models.AssetModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound.WithMessage("Asset not found")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// UpdateTotalSupply stores the total supply read from the token contract
func (r *GormAssetRepository) UpdateTotalSupply(ctx context.Context, id int64, totalSupply decimal.Decimal) error {
	result := r.db.WithContext(ctx).
		Model(&models.AssetModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"total_supply": totalSupply,
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound.WithMessage("Asset not found")
	}
	return nil
}

var _ marketplace.AssetRepository = (*GormAssetRepository)(nil)
