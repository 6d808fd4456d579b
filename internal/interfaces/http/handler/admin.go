package handler

import (
	"context"

	adminapp "github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/application/admin"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/application/reconciliation"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/infrastructure/logger"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminService is the operator surface the admin routes expose
type AdminService interface {
	Pause(ctx context.Context) (*adminapp.StatusResponse, error)
	Unpause(ctx context.Context) (*adminapp.StatusResponse, error)
	Status(ctx context.Context) (*adminapp.StatusResponse, error)
	Cleanup(ctx context.Context, daysOld int) (*adminapp.CleanupResult, error)
	ReconcilePending(ctx context.Context) (*reconciliation.Report, error)
	ReconcileReceipts(ctx context.Context) (*reconciliation.Report, error)
}

// AdminHandler handles the operator endpoints. Every route sits behind the
// admin bearer token.
type AdminHandler struct {
	BaseHandler
	service AdminService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(service AdminService) *AdminHandler {
	return &AdminHandler{service: service}
}

// Pause godoc
// @ID           adminPause
// @Summary      Pause ledger-mutating endpoints
// @Tags         admin
// @Produce      json
// @Success      200 {object} APIResponse[admin.StatusResponse]
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/pause [post]
func (h *AdminHandler) Pause(c *gin.Context) {
	status, err := h.service.Pause(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.audit(c, "pause")
	h.Success(c, status)
}

// Unpause godoc
// @ID           adminUnpause
// @Summary      Resume ledger-mutating endpoints
// @Tags         admin
// @Produce      json
// @Success      200 {object} APIResponse[admin.StatusResponse]
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/unpause [post]
func (h *AdminHandler) Unpause(c *gin.Context) {
	status, err := h.service.Unpause(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.audit(c, "unpause")
	h.Success(c, status)
}

// Status godoc
// @ID           adminStatus
// @Summary      Pause switch state
// @Tags         admin
// @Produce      json
// @Success      200 {object} APIResponse[admin.StatusResponse]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/status [get]
func (h *AdminHandler) Status(c *gin.Context) {
	status, err := h.service.Status(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, status)
}

// Cleanup godoc
// @ID           adminCleanup
// @Summary      Delete old purchase records
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request body admin.CleanupRequest false "Retention window"
// @Success      200 {object} APIResponse[admin.CleanupResult]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/cleanup [post]
func (h *AdminHandler) Cleanup(c *gin.Context) {
	// An empty body runs the configured retention window.
	var req adminapp.CleanupRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.Cleanup(c.Request.Context(), req.DaysOld)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.audit(c, "cleanup", zap.Int("days_old", req.DaysOld), zap.Int64("deleted", result.Deleted))
	h.Success(c, result)
}

// ReconcilePending godoc
// @ID           adminReconcilePending
// @Summary      Re-poll pending ledger hashes now
// @Tags         admin
// @Produce      json
// @Success      200 {object} APIResponse[reconciliation.Report]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/reconcile/pending [post]
func (h *AdminHandler) ReconcilePending(c *gin.Context) {
	report, err := h.service.ReconcilePending(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// ReconcileReceipts godoc
// @ID           adminReconcileReceipts
// @Summary      Replay confirmed hashes whose mirror write is missing
// @Tags         admin
// @Produce      json
// @Success      200 {object} APIResponse[reconciliation.Report]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/reconcile/receipts [post]
func (h *AdminHandler) ReconcileReceipts(c *gin.Context) {
	report, err := h.service.ReconcileReceipts(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

func (h *AdminHandler) audit(c *gin.Context, action string, fields ...zap.Field) {
	fields = append(fields,
		zap.String("action", action),
		zap.String("admin", middleware.GetAdminSubject(c)),
	)
	logger.FromContext(c.Request.Context()).Info("Admin action", fields...)
}
