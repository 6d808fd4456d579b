// Package ownership keeps the mirrored token balances of each asset in step
// with the property token contracts.
package ownership

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/ledger"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/marketplace"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/ownership"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/shared"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service handles ownership reads and ledger syncs
type Service struct {
	owners ownership.Repository
	assets marketplace.AssetRepository
	tokens ledger.TokenGateway
	logger *zap.Logger
}

// NewService creates a new ownership Service
func NewService(owners ownership.Repository, assets marketplace.AssetRepository, tokens ledger.TokenGateway, logger *zap.Logger) *Service {
	return &Service{
		owners: owners,
		assets: assets,
		tokens: tokens,
		logger: logger.Named("ownership"),
	}
}

// SyncFromLedger reads the balance of every known owner of the asset (plus
// extraOwners) from its token contract and rewrites the ownership rows.
func (s *Service) SyncFromLedger(ctx context.Context, assetID int64, extraOwners []string) (*SyncResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ownership", "sync_from_ledger")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrAssetID, assetID)

	asset, err := s.assets.FindByID(ctx, assetID)
	if err != nil {
		return nil, err
	}
	totalSupply := s.refreshTotalSupply(ctx, asset)

	existing, err := s.owners.FindByAsset(ctx, assetID)
	if err != nil {
		return nil, fmt.Errorf("load ownerships of asset %d: %w", assetID, err)
	}

	type position struct {
		row     ownership.Ownership
		balance decimal.Decimal
	}
	seen := make(map[string]bool, len(existing)+len(extraOwners))
	positions := make([]position, 0, len(existing)+len(extraOwners))
	for i := range existing {
		seen[existing[i].OwnerAddress] = true
		positions = append(positions, position{row: existing[i]})
	}
	for _, addr := range extraOwners {
		if addr == "" || seen[addr] {
			continue
		}
		row, err := ownership.NewOwnership(assetID, addr)
		if err != nil {
			return nil, err
		}
		seen[addr] = true
		positions = append(positions, position{row: *row})
	}

	for i := range positions {
		balance, err := s.tokens.Balance(ctx, asset.ContractID, positions[i].row.OwnerAddress)
		if err != nil {
			if !ledger.IsSimulationError(err) {
				telemetry.RecordError(span, err)
				return nil, ledger.ToDomainError(err)
			}
			balance = decimal.Zero
		}
		positions[i].balance = balance
	}

	sort.SliceStable(positions, func(i, j int) bool {
		return positions[i].balance.GreaterThan(positions[j].balance)
	})
	rows := make([]ownership.Ownership, len(positions))
	balances := make([]decimal.Decimal, len(positions))
	for i := range positions {
		rows[i] = positions[i].row
		balances[i] = positions[i].balance
	}
	ownership.Distribute(rows, balances, totalSupply)

	if err := s.owners.SaveAll(ctx, rows); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("save ownerships of asset %d: %w", assetID, err)
	}

	s.logger.Info("Ownership synced from ledger",
		zap.Int64("asset_id", assetID),
		zap.String("token_contract", asset.ContractID),
		zap.Int("owners", len(rows)),
		zap.String("total_supply", totalSupply.String()),
	)
	telemetry.SetOK(span)
	return &SyncResult{
		AssetID:         assetID,
		TotalSupply:     totalSupply,
		TotalPercentage: ownership.TotalPercentage(rows),
		Owners:          ToOwnershipResponses(rows),
	}, nil
}

// refreshTotalSupply prefers the contract's get_info supply and falls back
// to the mirrored one when the contract cannot be read
func (s *Service) refreshTotalSupply(ctx context.Context, asset *marketplace.Asset) decimal.Decimal {
	info, err := s.tokens.Info(ctx, asset.ContractID)
	if err != nil || info == nil || !info.TotalSupply.IsPositive() {
		if err != nil {
			s.logger.Warn("Token info unavailable, using mirrored total supply",
				zap.Int64("asset_id", asset.ID),
				zap.String("token_contract", asset.ContractID),
				zap.Error(err),
			)
		}
		return asset.TotalSupply
	}
	if !info.TotalSupply.Equal(asset.TotalSupply) {
		if err := s.assets.UpdateTotalSupply(ctx, asset.ID, info.TotalSupply); err != nil {
			s.logger.Warn("Failed to update mirrored total supply",
				zap.Int64("asset_id", asset.ID),
				zap.Error(err),
			)
		}
	}
	return info.TotalSupply
}

// FindByAsset returns the owners of an asset ordered by balance descending
func (s *Service) FindByAsset(ctx context.Context, assetID int64) ([]OwnershipResponse, error) {
	rows, err := s.owners.FindByAsset(ctx, assetID)
	if err != nil {
		return nil, err
	}
	return ToOwnershipResponses(rows), nil
}

// FindByOwner returns every asset position of an owner
func (s *Service) FindByOwner(ctx context.Context, ownerAddress string) ([]OwnershipResponse, error) {
	rows, err := s.owners.FindByOwner(ctx, ownerAddress)
	if err != nil {
		return nil, err
	}
	return ToOwnershipResponses(rows), nil
}

// Percentage returns the mirrored share of owner in asset. An owner without
// a row holds 0%.
func (s *Service) Percentage(ctx context.Context, assetID int64, ownerAddress string) (*PercentageResponse, error) {
	resp := &PercentageResponse{AssetID: assetID, OwnerAddress: ownerAddress, Percentage: decimal.Zero}
	row, err := s.owners.FindOne(ctx, assetID, ownerAddress)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return resp, nil
		}
		return nil, err
	}
	resp.Percentage = row.Percentage
	return resp, nil
}
