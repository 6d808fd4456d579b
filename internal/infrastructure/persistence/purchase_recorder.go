package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/marketplace"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/shared"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// errAlreadyRecorded rolls back a purchase transaction whose hash another
// writer recorded first
var errAlreadyRecorded = errors.New("purchase already recorded")

// GormPurchaseRecorder implements marketplace.PurchaseRecorder using GORM.
//
// The listing row is locked with SELECT ... FOR UPDATE and then decremented by
// one conditional UPDATE:
//
//	UPDATE listings SET amount = amount - ?, status = CASE WHEN amount - ? <= 0 THEN 'SOLD' ELSE status END
//	WHERE id = ? AND status = 'ACTIVE' AND amount >= ?
//
// so two writers can never both take the same remaining amount. The purchase
// row is inserted in the same transaction; its unique ledger_tx_hash makes a
// replay of the same confirmed hash a no-op.
type GormPurchaseRecorder struct {
	db *gorm.DB
}

// NewGormPurchaseRecorder creates a new GormPurchaseRecorder
func NewGormPurchaseRecorder(db *gorm.DB) *GormPurchaseRecorder {
	return &GormPurchaseRecorder{db: db}
}

// RecordPurchase inserts tx and applies its amount to the listing atomically.
// recorded is false when a record for tx.LedgerTxHash already existed; the
// listing is then returned unchanged.
func (r *GormPurchaseRecorder) RecordPurchase(ctx context.Context, tx *marketplace.Transaction) (*marketplace.Listing, bool, error) {
	if tx == nil || tx.LedgerTxHash == "" {
		return nil, false, shared.ErrInvalidInput.WithMessage("Purchase record needs a ledger transaction hash")
	}
	if !tx.Amount.IsPositive() {
		return nil, false, shared.ErrInvalidInput.WithMessage("Purchase amount must be positive")
	}

	var listing models.ListingModel
	err := r.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		var existing int64
		if err := db.Model(&models.TransactionModel{}).
			Where("ledger_tx_hash = ?", tx.LedgerTxHash).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return errAlreadyRecorded
		}

		if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&listing, "id = ?", tx.ListingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound.WithMessage("Listing not found")
			}
			return err
		}

		result := db.Model(&models.ListingModel{}).
			Where("id = ? AND status = ? AND amount >= ?", tx.ListingID, marketplace.ListingStatusActive, tx.Amount).
			Updates(map[string]any{
				"amount":     gorm.Expr("amount - ?", tx.Amount),
				"status":     gorm.Expr("CASE WHEN amount - ? <= 0 THEN ? ELSE status END", tx.Amount, marketplace.ListingStatusSold),
				"updated_at": time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			if listing.Status != marketplace.ListingStatusActive {
				return shared.ErrInvalidState.WithMessage(
					fmt.Sprintf("Listing is %s, not ACTIVE", listing.Status))
			}
			return shared.ErrInsufficientAmount.WithMessage(
				fmt.Sprintf("Requested %s tokens but only %s remain", tx.Amount.String(), listing.Amount.String()))
		}

		if err := db.Create(models.TransactionModelFromDomain(tx)).Error; err != nil {
			if isUniqueViolation(err) {
				return errAlreadyRecorded
			}
			return err
		}

		return db.First(&listing, "id = ?", tx.ListingID).Error
	})

	if errors.Is(err, errAlreadyRecorded) {
		if err := r.db.WithContext(ctx).First(&listing, "id = ?", tx.ListingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, false, shared.ErrNotFound.WithMessage("Listing not found")
			}
			return nil, false, err
		}
		return listing.ToDomain(), false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return listing.ToDomain(), true, nil
}

var _ marketplace.PurchaseRecorder = (*GormPurchaseRecorder)(nil)
