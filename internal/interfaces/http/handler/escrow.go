package handler

import (
	"context"

	escrowapp "github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/application/escrow"
	"github.com/gin-gonic/gin"
)

// EscrowService is the part of the escrow coordinator the HTTP layer uses
type EscrowService interface {
	LockFunds(ctx context.Context, req escrowapp.LockFundsRequest) (*escrowapp.LockResult, error)
	ReleaseToSeller(ctx context.Context, buyerSecret string, escrowID uint64) (*escrowapp.ActionResult, error)
	RefundToBuyer(ctx context.Context, sellerSecret string, escrowID uint64) (*escrowapp.ActionResult, error)
	GetEscrow(ctx context.Context, escrowID uint64) (*escrowapp.EscrowResponse, error)
	IsTimedOut(ctx context.Context, escrowID uint64) (bool, error)
	Status(ctx context.Context, escrowID uint64) (*escrowapp.StatusResponse, error)
}

// EscrowHandler handles escrow lock, release, refund and read endpoints
type EscrowHandler struct {
	BaseHandler
	service EscrowService
}

// NewEscrowHandler creates a new EscrowHandler
func NewEscrowHandler(service EscrowService) *EscrowHandler {
	return &EscrowHandler{service: service}
}

// Lock godoc
// @ID           lockEscrow
// @Summary      Lock a buyer's payment in escrow
// @Tags         escrow
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Client key that makes retries safe"
// @Param        request body escrow.LockFundsRequest true "Lock request"
// @Success      201 {object} APIResponse[escrow.LockResult]
// @Failure      400 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Router       /escrow/lock [post]
func (h *EscrowHandler) Lock(c *gin.Context) {
	var req escrowapp.LockFundsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.LockFunds(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// Release godoc
// @ID           releaseEscrow
// @Summary      Release escrowed funds to the seller
// @Tags         escrow
// @Accept       json
// @Produce      json
// @Param        request body escrow.ReleaseRequest true "Release request signed by the buyer"
// @Success      200 {object} APIResponse[escrow.ActionResult]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Router       /escrow/release [post]
func (h *EscrowHandler) Release(c *gin.Context) {
	var req escrowapp.ReleaseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.ReleaseToSeller(c.Request.Context(), req.BuyerSecret, req.EscrowID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Refund godoc
// @ID           refundEscrow
// @Summary      Refund escrowed funds to the buyer
// @Description  Allowed only after the unlock time and only for the escrow's seller
// @Tags         escrow
// @Accept       json
// @Produce      json
// @Param        request body escrow.RefundRequest true "Refund request signed by the seller"
// @Success      200 {object} APIResponse[escrow.ActionResult]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Router       /escrow/refund [post]
func (h *EscrowHandler) Refund(c *gin.Context) {
	var req escrowapp.RefundRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.RefundToBuyer(c.Request.Context(), req.SellerSecret, req.EscrowID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Get godoc
// @ID           getEscrow
// @Summary      Read an escrow from the ledger
// @Tags         escrow
// @Produce      json
// @Param        id path int true "Escrow ID"
// @Success      200 {object} APIResponse[escrow.EscrowResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /escrow/{id} [get]
func (h *EscrowHandler) Get(c *gin.Context) {
	id, ok := h.pathEscrowID(c)
	if !ok {
		return
	}

	record, err := h.service.GetEscrow(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, record)
}

// Status godoc
// @ID           escrowStatus
// @Summary      Escrow status and refundability
// @Tags         escrow
// @Produce      json
// @Param        id path int true "Escrow ID"
// @Success      200 {object} APIResponse[escrow.StatusResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /escrow/{id}/status [get]
func (h *EscrowHandler) Status(c *gin.Context) {
	id, ok := h.pathEscrowID(c)
	if !ok {
		return
	}

	status, err := h.service.Status(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, status)
}

// TimedOut godoc
// @ID           escrowTimedOut
// @Summary      Whether an escrow passed its unlock time
// @Tags         escrow
// @Produce      json
// @Param        id path int true "Escrow ID"
// @Success      200 {object} APIResponse[TimedOutData]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /escrow/{id}/timed-out [get]
func (h *EscrowHandler) TimedOut(c *gin.Context) {
	id, ok := h.pathEscrowID(c)
	if !ok {
		return
	}

	timedOut, err := h.service.IsTimedOut(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, TimedOutData{EscrowID: id, TimedOut: timedOut})
}
