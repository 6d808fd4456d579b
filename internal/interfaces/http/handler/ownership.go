package handler

import (
	"context"

	ownershipapp "github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/application/ownership"
	"github.com/gin-gonic/gin"
	"github.com/stellar/go/strkey"
)

// OwnershipService is the part of the ownership mirror the HTTP layer uses
type OwnershipService interface {
	SyncFromLedger(ctx context.Context, assetID int64, extraOwners []string) (*ownershipapp.SyncResult, error)
	FindByAsset(ctx context.Context, assetID int64) ([]ownershipapp.OwnershipResponse, error)
	FindByOwner(ctx context.Context, ownerAddress string) ([]ownershipapp.OwnershipResponse, error)
	Percentage(ctx context.Context, assetID int64, ownerAddress string) (*ownershipapp.PercentageResponse, error)
}

// OwnershipHandler serves the ownership mirror
type OwnershipHandler struct {
	BaseHandler
	service OwnershipService
}

// NewOwnershipHandler creates a new OwnershipHandler
func NewOwnershipHandler(service OwnershipService) *OwnershipHandler {
	return &OwnershipHandler{service: service}
}

// ByAsset godoc
// @ID           ownershipByAsset
// @Summary      Owners of an asset
// @Tags         ownership
// @Produce      json
// @Param        assetId path int true "Asset ID"
// @Success      200 {object} APIResponse[[]ownership.OwnershipResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /ownership/asset/{assetId} [get]
func (h *OwnershipHandler) ByAsset(c *gin.Context) {
	assetID, ok := h.pathAssetID(c)
	if !ok {
		return
	}

	rows, err := h.service.FindByAsset(c.Request.Context(), assetID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rows)
}

// ByOwner godoc
// @ID           ownershipByOwner
// @Summary      Holdings of an address
// @Tags         ownership
// @Produce      json
// @Param        address path string true "Owner public address"
// @Success      200 {object} APIResponse[[]ownership.OwnershipResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /ownership/owner/{address} [get]
func (h *OwnershipHandler) ByOwner(c *gin.Context) {
	address, ok := h.pathAddress(c)
	if !ok {
		return
	}

	rows, err := h.service.FindByOwner(c.Request.Context(), address)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rows)
}

// Percentage godoc
// @ID           ownershipPercentage
// @Summary      Share of one owner in one asset
// @Tags         ownership
// @Produce      json
// @Param        assetId path int true "Asset ID"
// @Param        address path string true "Owner public address"
// @Success      200 {object} APIResponse[ownership.PercentageResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /ownership/asset/{assetId}/owner/{address} [get]
func (h *OwnershipHandler) Percentage(c *gin.Context) {
	assetID, ok := h.pathAssetID(c)
	if !ok {
		return
	}
	address, ok := h.pathAddress(c)
	if !ok {
		return
	}

	resp, err := h.service.Percentage(c.Request.Context(), assetID, address)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Sync godoc
// @ID           ownershipSync
// @Summary      Re-read balances of an asset from the ledger
// @Description  Reads the token balance of every mirrored owner plus the given extra owners and rewrites the percentages
// @Tags         ownership
// @Accept       json
// @Produce      json
// @Param        assetId path int true "Asset ID"
// @Param        request body ownership.SyncRequest false "Extra owners"
// @Success      200 {object} APIResponse[ownership.SyncResult]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /ownership/asset/{assetId}/sync [post]
func (h *OwnershipHandler) Sync(c *gin.Context) {
	assetID, ok := h.pathAssetID(c)
	if !ok {
		return
	}
	var req ownershipapp.SyncRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.SyncFromLedger(c.Request.Context(), assetID, req.Owners)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

func (h *OwnershipHandler) pathAddress(c *gin.Context) (string, bool) {
	address := c.Param("address")
	if !strkey.IsValidEd25519PublicKey(address) {
		h.BadRequest(c, "Invalid address: must be a Stellar public key")
		return "", false
	}
	return address, true
}
