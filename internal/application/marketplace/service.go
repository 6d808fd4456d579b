// Package marketplace coordinates listing, buying and cancelling fractional
// asset tokens: validate against the mirror, invoke the marketplace contract,
// then write the confirmed outcome back to the mirror.
package marketplace

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/ledger"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/marketplace"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/reconciliation"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/shared"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/infrastructure/logger"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultRecentLimit is used when a transaction feed request has no limit
const DefaultRecentLimit = 20

// PendingTracker records ledger hashes the mirror has not absorbed
type PendingTracker interface {
	Track(ctx context.Context, txHash string, kind reconciliation.Kind, payload any) error
	TrackConfirmed(ctx context.Context, txHash string, kind reconciliation.Kind, payload any, resultID *uint64, cause error) error
}

// Service handles marketplace business operations
type Service struct {
	listings     marketplace.ListingRepository
	transactions marketplace.TransactionRepository
	assets       marketplace.AssetRepository
	recorder     marketplace.PurchaseRecorder
	contract     ledger.MarketplaceGateway
	payments     ledger.PaymentGateway
	keys         ledger.KeyResolver
	tracker      PendingTracker
	logger       *zap.Logger
	now          func() time.Time
}

// NewService creates a new marketplace Service
func NewService(
	listings marketplace.ListingRepository,
	transactions marketplace.TransactionRepository,
	assets marketplace.AssetRepository,
	recorder marketplace.PurchaseRecorder,
	contract ledger.MarketplaceGateway,
	payments ledger.PaymentGateway,
	keys ledger.KeyResolver,
	logger *zap.Logger,
) *Service {
	return &Service{
		listings:     listings,
		transactions: transactions,
		assets:       assets,
		recorder:     recorder,
		contract:     contract,
		payments:     payments,
		keys:         keys,
		logger:       logger.Named("marketplace"),
		now:          time.Now,
	}
}

// SetPendingTracker sets where unresolved ledger hashes are recorded
func (s *Service) SetPendingTracker(tracker PendingTracker) {
	s.tracker = tracker
}

// CreateListing lists amount tokens of an asset on the marketplace contract
// and mirrors the listing once the ledger confirmed it
func (s *Service) CreateListing(ctx context.Context, req CreateListingRequest) (*CreateListingResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "marketplace", "create_listing")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrAssetID, req.AssetID,
		telemetry.SpanAttrAmount, req.Amount.String(),
	)

	if !req.Amount.IsPositive() {
		return nil, shared.ErrInvalidInput.WithMessage("Listing amount must be positive")
	}
	if !req.PricePerToken.IsPositive() {
		return nil, shared.ErrInvalidInput.WithMessage("Price per token must be positive")
	}
	if !marketplace.HasLedgerPrecision(req.Amount) || !marketplace.HasLedgerPrecision(req.PricePerToken) {
		return nil, shared.ErrInvalidInput.WithMessage(
			fmt.Sprintf("Amount and price support at most %d decimal places", marketplace.LedgerDecimals))
	}

	asset, err := s.assets.FindByID(ctx, req.AssetID)
	if err != nil {
		return nil, err
	}
	seller, err := s.addressOf(req.SellerSecret)
	if err != nil {
		return nil, err
	}

	expiresAt := marketplace.ExpiresAfter(s.now(), req.ExpirationDays)
	payload := ListPayload{
		AssetID:       asset.ID,
		SellerAddress: seller,
		Amount:        req.Amount,
		PricePerToken: req.PricePerToken,
		ExpiresAt:     expiresAt,
	}

	ledgerID, receipt, err := s.contract.ListProperty(ctx, req.SellerSecret, asset.ContractID, req.Amount, req.PricePerToken)
	if err != nil {
		telemetry.RecordError(span, err)
		if receipt.TxHash != "" {
			// confirmed but the listing id could not be decoded
			s.trackConfirmed(ctx, receipt.TxHash, reconciliation.KindList, payload, nil, err)
		}
		return nil, s.ledgerFailure(ctx, err, reconciliation.KindList, payload)
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrTxHash, receipt.TxHash, telemetry.SpanAttrLedgerID, ledgerID)

	listing, err := marketplace.NewListing(ledgerID, asset.ID, seller, req.Amount, req.PricePerToken, receipt.TxHash, expiresAt)
	if err != nil {
		return nil, err
	}
	if err := s.listings.Save(ctx, listing); err != nil {
		telemetry.RecordError(span, err)
		s.trackConfirmed(ctx, receipt.TxHash, reconciliation.KindList, payload, &ledgerID, err)
		return nil, fmt.Errorf("listing %d confirmed in %s but not mirrored: %w", ledgerID, receipt.TxHash, err)
	}

	s.logger.Info("Listing created",
		zap.String("tx_hash", receipt.TxHash),
		zap.Uint64("ledger_listing_id", ledgerID),
		zap.Int64("asset_id", asset.ID),
		zap.String("seller", seller),
	)
	telemetry.SetOK(span)
	return &CreateListingResult{
		TxHash:          receipt.TxHash,
		LedgerListingID: ledgerID,
		Listing:         ToListingResponse(listing),
	}, nil
}

// BuyTokens buys amount tokens from a listing: approve the payment token for
// amount*price, call buy_tokens, then record the purchase in the mirror
func (s *Service) BuyTokens(ctx context.Context, req BuyTokensRequest) (*PurchaseResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "marketplace", "buy_tokens")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrListingID, req.ListingID.String(),
		telemetry.SpanAttrAmount, req.Amount.String(),
	)

	listing, err := s.listings.FindByID(ctx, req.ListingID)
	if err != nil {
		return nil, err
	}
	buyer, err := s.addressOf(req.BuyerSecret)
	if err != nil {
		return nil, err
	}
	if err := listing.EnsurePurchasable(req.Amount, s.now()); err != nil {
		return nil, err
	}

	total := listing.PurchaseTotal(req.Amount)
	approval, err := s.payments.ApproveMarketplace(ctx, req.BuyerSecret, total)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, s.ledgerFailure(ctx, err, reconciliation.KindApprove, ApprovePayload{Owner: buyer, Amount: total})
	}

	payload := BuyPayload{ListingID: listing.ID, BuyerAddress: buyer, Amount: req.Amount}
	receipt, err := s.contract.BuyTokens(ctx, req.BuyerSecret, listing.LedgerListingID, req.Amount)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, s.ledgerFailure(ctx, err, reconciliation.KindBuy, payload)
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrTxHash, receipt.TxHash)

	tx, err := marketplace.NewTransaction(receipt.TxHash, listing, buyer, req.Amount)
	if err != nil {
		return nil, err
	}
	updated, recorded, err := s.recorder.RecordPurchase(ctx, tx)
	if err != nil {
		telemetry.RecordError(span, err)
		s.trackConfirmed(ctx, receipt.TxHash, reconciliation.KindBuy, payload, nil, err)
		return nil, fmt.Errorf("purchase %s confirmed but not mirrored: %w", receipt.TxHash, err)
	}

	s.logger.Info("Tokens purchased",
		zap.String("tx_hash", receipt.TxHash),
		zap.String("listing_id", listing.ID.String()),
		zap.String("buyer", buyer),
		logger.Amount("amount", req.Amount),
		zap.Bool("recorded", recorded),
	)
	telemetry.SetOK(span)
	return &PurchaseResult{
		TxHash:          receipt.TxHash,
		ApprovalTxHash:  approval.TxHash,
		ListingID:       listing.ID,
		Amount:          req.Amount,
		TotalPrice:      total,
		RemainingAmount: updated.Amount,
		ListingStatus:   updated.Status.String(),
		Recorded:        recorded,
	}, nil
}

// CancelListing cancels an active listing on behalf of its seller. A key
// that does not derive the recorded seller address is rejected before any
// ledger call.
func (s *Service) CancelListing(ctx context.Context, listingID uuid.UUID, sellerSecret string) (*CancelResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "marketplace", "cancel_listing")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrListingID, listingID.String())

	listing, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	caller, err := s.addressOf(sellerSecret)
	if err != nil {
		return nil, err
	}
	if err := listing.EnsureCancellable(caller); err != nil {
		return nil, err
	}

	payload := CancelPayload{ListingID: listing.ID}
	receipt, err := s.contract.CancelListing(ctx, sellerSecret, listing.LedgerListingID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, s.ledgerFailure(ctx, err, reconciliation.KindCancel, payload)
	}

	if err := s.listings.TransitionStatus(ctx, listing.ID, marketplace.ListingStatusActive, marketplace.ListingStatusCancelled); err != nil {
		telemetry.RecordError(span, err)
		s.trackConfirmed(ctx, receipt.TxHash, reconciliation.KindCancel, payload, nil, err)
		return nil, fmt.Errorf("cancellation %s confirmed but not mirrored: %w", receipt.TxHash, err)
	}

	s.logger.Info("Listing cancelled",
		zap.String("tx_hash", receipt.TxHash),
		zap.String("listing_id", listing.ID.String()),
	)
	telemetry.SetOK(span)
	return &CancelResult{
		TxHash:    receipt.TxHash,
		ListingID: listing.ID,
		Status:    marketplace.ListingStatusCancelled.String(),
	}, nil
}

// FindAll returns one page of mirrored listings
func (s *Service) FindAll(ctx context.Context, filter ListingListFilter) ([]ListingResponse, int64, error) {
	domainFilter := marketplace.ListingFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
		}.Normalize(),
		AssetID:       filter.AssetID,
		SellerAddress: filter.SellerAddress,
	}
	if filter.Status != "" {
		status, err := marketplace.ParseListingStatus(filter.Status)
		if err != nil {
			return nil, 0, err
		}
		domainFilter.Status = &status
	}

	listings, total, err := s.listings.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToListingResponses(listings), total, nil
}

// FindOne returns a single mirrored listing
func (s *Service) FindOne(ctx context.Context, id uuid.UUID) (*ListingResponse, error) {
	listing, err := s.listings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToListingResponse(listing)
	return &resp, nil
}

// Stats returns marketplace counters
func (s *Service) Stats(ctx context.Context) (*StatsResponse, error) {
	stats, err := s.listings.Stats(ctx)
	if err != nil {
		return nil, err
	}
	resp := ToStatsResponse(stats)
	return &resp, nil
}

// RecentTransactions returns the newest purchase records
func (s *Service) RecentTransactions(ctx context.Context, limit int) ([]TransactionResponse, error) {
	txs, err := s.transactions.FindRecent(ctx, shared.ClampLimit(limit, DefaultRecentLimit))
	if err != nil {
		return nil, err
	}
	return ToTransactionResponses(txs), nil
}

// ListingTransactions returns the purchase records of one listing
func (s *Service) ListingTransactions(ctx context.Context, listingID uuid.UUID, limit, offset int) ([]TransactionResponse, int64, error) {
	if _, err := s.listings.FindByID(ctx, listingID); err != nil {
		return nil, 0, err
	}
	if offset < 0 {
		offset = 0
	}
	txs, total, err := s.transactions.FindByListing(ctx, listingID, shared.ClampLimit(limit, DefaultRecentLimit), offset)
	if err != nil {
		return nil, 0, err
	}
	return ToTransactionResponses(txs), total, nil
}

// ExpireListings marks ACTIVE listings whose expiry passed as EXPIRED. The
// ledger listing expires on its own; this keeps the mirror in step.
func (s *Service) ExpireListings(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.listings.ExpireDue(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("expire listings: %w", err)
	}
	if n > 0 {
		s.logger.Info("Expired listings", zap.Int64("count", n))
	}
	return n, nil
}

func (s *Service) addressOf(secret string) (string, error) {
	addr, err := s.keys.AddressOf(secret)
	if err != nil {
		return "", shared.ErrInvalidInput.WithMessage("Invalid secret key")
	}
	return addr, nil
}

// ledgerFailure records a timed-out hash for the re-poller and converts the
// error for the caller
func (s *Service) ledgerFailure(ctx context.Context, err error, kind reconciliation.Kind, payload any) error {
	if hash, ok := ledger.TimeoutHash(err); ok && s.tracker != nil {
		if trackErr := s.tracker.Track(ctx, hash, kind, payload); trackErr != nil {
			s.logger.Error("Failed to record pending transaction",
				zap.String("tx_hash", hash),
				zap.String("kind", string(kind)),
				zap.Error(trackErr),
			)
		}
	}
	return ledger.ToDomainError(err)
}

func (s *Service) trackConfirmed(ctx context.Context, hash string, kind reconciliation.Kind, payload any, resultID *uint64, cause error) {
	if s.tracker == nil {
		s.logger.Error("Confirmed transaction not mirrored and no tracker configured",
			zap.String("tx_hash", hash),
			zap.String("kind", string(kind)),
			zap.Error(cause),
		)
		return
	}
	if err := s.tracker.TrackConfirmed(ctx, hash, kind, payload, resultID, cause); err != nil {
		s.logger.Error("Failed to record confirmed transaction",
			zap.String("tx_hash", hash),
			zap.String("kind", string(kind)),
			zap.Error(errors.Join(cause, err)),
		)
	}
}

// payloads stored with pending hashes

// ListPayload replays a list_property confirmation
type ListPayload struct {
	AssetID       int64           `json:"asset_id"`
	SellerAddress string          `json:"seller_address"`
	Amount        decimal.Decimal `json:"amount"`
	PricePerToken decimal.Decimal `json:"price_per_token"`
	ExpiresAt     time.Time       `json:"expires_at"`
}

// BuyPayload replays a buy_tokens confirmation
type BuyPayload struct {
	ListingID    uuid.UUID       `json:"listing_id"`
	BuyerAddress string          `json:"buyer_address"`
	Amount       decimal.Decimal `json:"amount"`
}

// CancelPayload replays a cancel_listing confirmation
type CancelPayload struct {
	ListingID uuid.UUID `json:"listing_id"`
}

// ApprovePayload describes a payment allowance; it has no mirror effect
type ApprovePayload struct {
	Owner  string          `json:"owner"`
	Amount decimal.Decimal `json:"amount"`
}
