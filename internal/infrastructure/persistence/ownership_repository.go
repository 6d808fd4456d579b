package persistence

import (
	"context"
	"errors"

	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/ownership"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/shared"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOwnershipRepository implements ownership.Repository using GORM
type GormOwnershipRepository struct {
	db *gorm.DB
}

// NewGormOwnershipRepository creates a new GormOwnershipRepository
func NewGormOwnershipRepository(db *gorm.DB) *GormOwnershipRepository {
	return &GormOwnershipRepository{db: db}
}

// FindByAsset returns all owners of an asset, largest balance first
func (r *GormOwnershipRepository) FindByAsset(ctx context.Context, assetID int64) ([]ownership.Ownership, error) {
	var rows []models.OwnershipModel
	if err := r.db.WithContext(ctx).
		Where("asset_id = ?", assetID).
		Order("balance DESC").
		Order("owner_address ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toOwnerships(rows), nil
}

// FindByOwner returns every asset position of an owner, newest first
func (r *GormOwnershipRepository) FindByOwner(ctx context.Context, ownerAddress string) ([]ownership.Ownership, error) {
	var rows []models.OwnershipModel
	if err := r.db.WithContext(ctx).
		Where("owner_address = ?", ownerAddress).
		Order("updated_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toOwnerships(rows), nil
}

// FindOne finds the row for (assetID, ownerAddress)
func (r *GormOwnershipRepository) FindOne(ctx context.Context, assetID int64, ownerAddress string) (*ownership.Ownership, error) {
	var model models.OwnershipModel
	if err := r.db.WithContext(ctx).
		Where("asset_id = ? AND owner_address = ?", assetID, ownerAddress).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// SaveAll upserts rows on (asset_id, owner_address) in one transaction
func (r *GormOwnershipRepository) SaveAll(ctx context.Context, rows []ownership.Ownership) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range rows {
			model := models.OwnershipModelFromDomain(&rows[i])
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "asset_id"}, {Name: "owner_address"}},
				DoUpdates: clause.AssignmentColumns([]string{"balance", "percentage", "last_tx_hash", "updated_at"}),
			}).Create(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func toOwnerships(rows []models.OwnershipModel) []ownership.Ownership {
	out := make([]ownership.Ownership, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

var _ ownership.Repository = (*GormOwnershipRepository)(nil)
