package handler

import (
	"context"
	"math"

	marketplaceapp "github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/application/marketplace"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MarketplaceService is the part of the marketplace coordinator the HTTP
// layer uses
type MarketplaceService interface {
	CreateListing(ctx context.Context, req marketplaceapp.CreateListingRequest) (*marketplaceapp.CreateListingResult, error)
	BuyTokens(ctx context.Context, req marketplaceapp.BuyTokensRequest) (*marketplaceapp.PurchaseResult, error)
	CancelListing(ctx context.Context, listingID uuid.UUID, sellerSecret string) (*marketplaceapp.CancelResult, error)
	FindAll(ctx context.Context, filter marketplaceapp.ListingListFilter) ([]marketplaceapp.ListingResponse, int64, error)
	FindOne(ctx context.Context, id uuid.UUID) (*marketplaceapp.ListingResponse, error)
	Stats(ctx context.Context) (*marketplaceapp.StatsResponse, error)
	RecentTransactions(ctx context.Context, limit int) ([]marketplaceapp.TransactionResponse, error)
	ListingTransactions(ctx context.Context, listingID uuid.UUID, limit, offset int) ([]marketplaceapp.TransactionResponse, int64, error)
}

// MarketplaceHandler handles listing, purchase and marketplace read endpoints
type MarketplaceHandler struct {
	BaseHandler
	service MarketplaceService
}

// NewMarketplaceHandler creates a new MarketplaceHandler
func NewMarketplaceHandler(service MarketplaceService) *MarketplaceHandler {
	return &MarketplaceHandler{service: service}
}

// CreateListing godoc
// @ID           createListing
// @Summary      List asset tokens for sale
// @Description  Invokes list_property on the marketplace contract and mirrors the confirmed listing
// @Tags         marketplace
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Client key that makes retries safe"
// @Param        request body marketplace.CreateListingRequest true "Listing request"
// @Success      201 {object} APIResponse[marketplace.CreateListingResult]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Router       /marketplace/listings [post]
func (h *MarketplaceHandler) CreateListing(c *gin.Context) {
	var req marketplaceapp.CreateListingRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.CreateListing(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// BuyTokens godoc
// @ID           buyTokens
// @Summary      Buy tokens from a listing
// @Description  Approves the USDC allowance, invokes buy_tokens and records the purchase
// @Tags         marketplace
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Client key that makes retries safe"
// @Param        request body marketplace.BuyTokensRequest true "Purchase request"
// @Success      200 {object} APIResponse[marketplace.PurchaseResult]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Router       /marketplace/listings/buy [post]
func (h *MarketplaceHandler) BuyTokens(c *gin.Context) {
	var req marketplaceapp.BuyTokensRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.BuyTokens(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// CancelListing godoc
// @ID           cancelListing
// @Summary      Cancel a listing
// @Description  Invokes cancel_listing signed by the seller and marks the mirror CANCELLED
// @Tags         marketplace
// @Accept       json
// @Produce      json
// @Param        id path string true "Listing ID" format(uuid)
// @Param        request body marketplace.CancelListingRequest true "Seller key"
// @Success      200 {object} APIResponse[marketplace.CancelResult]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Router       /marketplace/listings/{id} [delete]
func (h *MarketplaceHandler) CancelListing(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req marketplaceapp.CancelListingRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.CancelListing(c.Request.Context(), id, req.SellerSecret)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ListListings godoc
// @ID           listListings
// @Summary      List mirrored listings
// @Tags         marketplace
// @Produce      json
// @Param        status query string false "ACTIVE, SOLD, CANCELLED or EXPIRED"
// @Param        asset_id query int false "Asset ID"
// @Param        seller query string false "Seller public address"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        order_by query string false "Sort field" default(created_at)
// @Param        order_dir query string false "asc or desc" default(desc)
// @Success      200 {object} APIResponse[[]marketplace.ListingResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /marketplace/listings [get]
func (h *MarketplaceHandler) ListListings(c *gin.Context) {
	var filter marketplaceapp.ListingListFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	listings, total, err := h.service.FindAll(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page := shared.Filter{Page: filter.Page, PageSize: filter.PageSize}.Normalize()
	h.SuccessWithMeta(c, listings, total, page.Page, page.PageSize)
}

// GetListing godoc
// @ID           getListing
// @Summary      Get a listing
// @Tags         marketplace
// @Produce      json
// @Param        id path string true "Listing ID" format(uuid)
// @Success      200 {object} APIResponse[marketplace.ListingResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /marketplace/listings/{id} [get]
func (h *MarketplaceHandler) GetListing(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	listing, err := h.service.FindOne(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, listing)
}

// ListingTransactions godoc
// @ID           listingTransactions
// @Summary      Purchases of one listing
// @Tags         marketplace
// @Produce      json
// @Param        id path string true "Listing ID" format(uuid)
// @Param        limit query int false "Max rows" default(20)
// @Param        offset query int false "Rows to skip" default(0)
// @Success      200 {object} APIResponse[[]marketplace.TransactionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /marketplace/listings/{id}/transactions [get]
func (h *MarketplaceHandler) ListingTransactions(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	limit := queryInt(c, "limit", marketplaceapp.DefaultRecentLimit, 1, shared.MaxPageSize)
	offset := queryInt(c, "offset", 0, 0, math.MaxInt32)

	txs, total, err := h.service.ListingTransactions(c.Request.Context(), id, limit, offset)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, txs, total, offset/limit+1, limit)
}

// Stats godoc
// @ID           marketplaceStats
// @Summary      Marketplace counters
// @Tags         marketplace
// @Produce      json
// @Success      200 {object} APIResponse[marketplace.StatsResponse]
// @Router       /marketplace/stats [get]
func (h *MarketplaceHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// RecentTransactions godoc
// @ID           recentTransactions
// @Summary      Newest purchase records
// @Tags         marketplace
// @Produce      json
// @Param        limit query int false "Max rows" default(20)
// @Success      200 {object} APIResponse[[]marketplace.TransactionResponse]
// @Router       /marketplace/transactions [get]
func (h *MarketplaceHandler) RecentTransactions(c *gin.Context) {
	limit := queryInt(c, "limit", marketplaceapp.DefaultRecentLimit, 1, shared.MaxPageSize)

	txs, err := h.service.RecentTransactions(c.Request.Context(), limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, txs)
}
