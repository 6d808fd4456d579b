package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/marketplace"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/shared"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormListingRepository implements marketplace.ListingRepository using GORM
type GormListingRepository struct {
	db *gorm.DB
}

// NewGormListingRepository creates a new GormListingRepository
func NewGormListingRepository(db *gorm.DB) *GormListingRepository {
	return &GormListingRepository{db: db}
}

// FindByID finds a listing by its mirror ID
func (r *GormListingRepository) FindByID(ctx context.Context, id uuid.UUID) (*marketplace.Listing, error) {
	var model models.ListingModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByLedgerListingID finds a listing by the id the marketplace contract issued
func (r *GormListingRepository) FindByLedgerListingID(ctx context.Context, ledgerListingID uint64) (*marketplace.Listing, error) {
	var model models.ListingModel
	if err := r.db.WithContext(ctx).
		Where("ledger_listing_id = ?", ledgerListingID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns one page of listings matching filter and the total count
func (r *GormListingRepository) FindAll(ctx context.Context, filter marketplace.ListingFilter) ([]marketplace.Listing, int64, error) {
	page := filter.Filter.Normalize()

	query := r.db.WithContext(ctx).Model(&models.ListingModel{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.AssetID != nil {
		query = query.Where("asset_id = ?", *filter.AssetID)
	}
	if filter.SellerAddress != "" {
		query = query.Where("seller_address = ?", filter.SellerAddress)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := ValidateSortField(page.OrderBy, ListingSortFields, "created_at")
	orderDir := ValidateSortOrder(page.OrderDir)

	var rows []models.ListingModel
	if err := query.
		Order(orderBy + " " + orderDir).
		Limit(page.PageSize).
		Offset(page.Offset()).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	listings := make([]marketplace.Listing, len(rows))
	for i := range rows {
		listings[i] = *rows[i].ToDomain()
	}
	return listings, total, nil
}

// Save creates or updates a listing. A second listing with the same ledger
// listing id is reported as shared.ErrAlreadyExists.
func (r *GormListingRepository) Save(ctx context.Context, listing *marketplace.Listing) error {
	model := models.ListingModelFromDomain(listing)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists.WithMessage("A listing with this ledger listing id is already mirrored")
		}
		return err
	}
	return nil
}

// TransitionStatus moves a listing from one status to another as a single
// conditional UPDATE. Returns shared.ErrInvalidState if the listing is no
// longer in from.
func (r *GormListingRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to marketplace.ListingStatus) error {
	if !from.CanTransitionTo(to) {
		return shared.ErrInvalidState.WithMessage("Listing cannot move from " + from.String() + " to " + to.String())
	}

	result := r.db.WithContext(ctx).
		Model(&models.ListingModel{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{
			"status":     to,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
		return shared.ErrInvalidState.WithMessage("Listing is no longer " + from.String())
	}
	return nil
}

// ExpireDue marks every ACTIVE listing whose expiry passed as EXPIRED
func (r *GormListingRepository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ListingModel{}).
		Where("status = ? AND expires_at <= ?", marketplace.ListingStatusActive, now).
		Updates(map[string]any{
			"status":     marketplace.ListingStatusExpired,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}

// Stats aggregates listing counts by status and purchase volume
func (r *GormListingRepository) Stats(ctx context.Context) (*marketplace.Stats, error) {
	var byStatus []struct {
		Status marketplace.ListingStatus
		Count  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.ListingModel{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&byStatus).Error; err != nil {
		return nil, err
	}

	stats := &marketplace.Stats{TotalVolume: decimal.Zero}
	for _, row := range byStatus {
		stats.TotalListings += row.Count
		switch row.Status {
		case marketplace.ListingStatusActive:
			stats.ActiveListings = row.Count
		case marketplace.ListingStatusSold:
			stats.SoldListings = row.Count
		case marketplace.ListingStatusCancelled:
			stats.CancelledListings = row.Count
		case marketplace.ListingStatusExpired:
			stats.ExpiredListings = row.Count
		}
	}

	if err := r.db.WithContext(ctx).
		Model(&models.ListingModel{}).
		Distinct("asset_id").
		Count(&stats.AssetsListed).Error; err != nil {
		return nil, err
	}

	var volume struct {
		Count  int64
		Volume decimal.NullDecimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.TransactionModel{}).
		Select("COUNT(*) AS count, SUM(total_price) AS volume").
		Scan(&volume).Error; err != nil {
		return nil, err
	}
	stats.TotalTransactions = volume.Count
	if volume.Volume.Valid {
		stats.TotalVolume = volume.Volume.Decimal
	}

	return stats, nil
}

var _ marketplace.ListingRepository = (*GormListingRepository)(nil)
