package marketplace

import (
	"context"
	"errors"

	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/marketplace"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/reconciliation"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/shared"
)

// ApplyList mirrors a confirmed list_property from its pending row. A listing
// already mirrored under the same ledger id is left as is.
func (s *Service) ApplyList(ctx context.Context, p *reconciliation.PendingTransaction) error {
	var payload ListPayload
	if err := p.DecodePayload(&payload); err != nil {
		return err
	}
	ledgerID, ok := p.ResultID()
	if !ok {
		return shared.NewDomainError("MISSING_LISTING_ID", "Confirmed listing has no ledger listing id")
	}

	if _, err := s.listings.FindByLedgerListingID(ctx, ledgerID); err == nil {
		return nil
	} else if !errors.Is(err, shared.ErrNotFound) {
		return err
	}

	listing, err := marketplace.NewListing(ledgerID, payload.AssetID, payload.SellerAddress,
		payload.Amount, payload.PricePerToken, p.TxHash, payload.ExpiresAt)
	if err != nil {
		return err
	}
	if err := s.listings.Save(ctx, listing); err != nil && !errors.Is(err, shared.ErrAlreadyExists) {
		return err
	}
	return nil
}

// ApplyBuy mirrors a confirmed buy_tokens through the idempotent purchase
// recorder
func (s *Service) ApplyBuy(ctx context.Context, p *reconciliation.PendingTransaction) error {
	var payload BuyPayload
	if err := p.DecodePayload(&payload); err != nil {
		return err
	}
	listing, err := s.listings.FindByID(ctx, payload.ListingID)
	if err != nil {
		return err
	}
	tx, err := marketplace.NewTransaction(p.TxHash, listing, payload.BuyerAddress, payload.Amount)
	if err != nil {
		return err
	}
	_, _, err = s.recorder.RecordPurchase(ctx, tx)
	return err
}

// ApplyCancel mirrors a confirmed cancel_listing
func (s *Service) ApplyCancel(ctx context.Context, p *reconciliation.PendingTransaction) error {
	var payload CancelPayload
	if err := p.DecodePayload(&payload); err != nil {
		return err
	}
	err := s.listings.TransitionStatus(ctx, payload.ListingID, marketplace.ListingStatusActive, marketplace.ListingStatusCancelled)
	if errors.Is(err, shared.ErrInvalidState) {
		listing, findErr := s.listings.FindByID(ctx, payload.ListingID)
		if findErr == nil && listing.Status == marketplace.ListingStatusCancelled {
			return nil
		}
	}
	return err
}
