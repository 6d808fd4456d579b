package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// pathUUID parses a uuid path parameter, answering 400 when it is malformed
func (h *BaseHandler) pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, "Invalid "+name+": must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// pathEscrowID parses the ledger-assigned escrow id
func (h *BaseHandler) pathEscrowID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		h.BadRequest(c, "Invalid escrow id: must be a positive integer")
		return 0, false
	}
	return id, true
}

// pathAssetID parses the asset id used by the ownership routes
func (h *BaseHandler) pathAssetID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("assetId"), 10, 64)
	if err != nil || id <= 0 {
		h.BadRequest(c, "Invalid asset id: must be a positive integer")
		return 0, false
	}
	return id, true
}

// queryInt reads an integer query parameter, falling back to def when the
// value is missing or out of [min, max]
func queryInt(c *gin.Context, name string, def, min, max int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil || v < min || v > max {
		return def
	}
	return v
}
