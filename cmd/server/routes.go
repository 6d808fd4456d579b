package main

import (
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/interfaces/http/handler"
	"github.com/RobertoIsraelFloresReza/BLOKI-sub001/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
)

// apiHandlers groups the handlers mounted under /api/v1
type apiHandlers struct {
	marketplace *handler.MarketplaceHandler
	escrow      *handler.EscrowHandler
	ownership   *handler.OwnershipHandler
	admin       *handler.AdminHandler
}

// routeGuards are the per-route middleware: the pause switch in front of
// ledger-mutating routes, the admin bearer check and the idempotency key
type routeGuards struct {
	pause       gin.HandlerFunc
	admin       gin.HandlerFunc
	idempotency gin.HandlerFunc
}

func registerAPIRoutes(r *router.Router, h apiHandlers, g routeGuards) {
	marketplace := router.NewDomainGroup("marketplace", "/marketplace").WithPauseGuard(g.pause)
	marketplace.POST("/listings", g.idempotency, h.marketplace.CreateListing).Pausable().
		POST("/listings/buy", g.idempotency, h.marketplace.BuyTokens).Pausable().
		DELETE("/listings/:id", g.idempotency, h.marketplace.CancelListing).Pausable().
		GET("/listings", h.marketplace.ListListings).
		GET("/listings/:id", h.marketplace.GetListing).
		GET("/listings/:id/transactions", h.marketplace.ListingTransactions).
		GET("/stats", h.marketplace.Stats).
		GET("/transactions", h.marketplace.RecentTransactions)

	escrow := router.NewDomainGroup("escrow", "/escrow").WithPauseGuard(g.pause)
	escrow.POST("/lock", g.idempotency, h.escrow.Lock).Pausable().
		POST("/release", g.idempotency, h.escrow.Release).Pausable().
		POST("/refund", g.idempotency, h.escrow.Refund).Pausable().
		GET("/:id", h.escrow.Get).
		GET("/:id/status", h.escrow.Status).
		GET("/:id/timed-out", h.escrow.TimedOut)

	ownership := router.NewDomainGroup("ownership", "/ownership")
	ownership.GET("/asset/:assetId", h.ownership.ByAsset).
		GET("/asset/:assetId/owner/:address", h.ownership.Percentage).
		POST("/asset/:assetId/sync", g.admin, h.ownership.Sync).
		GET("/owner/:address", h.ownership.ByOwner)

	admin := router.NewDomainGroup("admin", "/admin").Use(g.admin)
	admin.POST("/pause", h.admin.Pause).
		POST("/unpause", h.admin.Unpause).
		GET("/status", h.admin.Status).
		POST("/cleanup", h.admin.Cleanup).
		POST("/reconcile/pending", h.admin.ReconcilePending).
		POST("/reconcile/receipts", h.admin.ReconcileReceipts)

	r.Register(marketplace).
		Register(escrow).
		Register(ownership).
		Register(admin)
}
