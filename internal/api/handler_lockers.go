package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"locker-dispatch-backend/internal/mw"
	"locker-dispatch-backend/internal/store"
)

// ListLockers handles the GET /api/lockers request.
func ListLockers(s store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		lockers, err := s.ListLockers(c.Request.Context())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve lockers"})
			return
		}
		c.JSON(http.StatusOK, lockers)
	}
}

type createLockerRequest struct {
	Name     string `json:"name" binding:"required"`
	DeviceID string `json:"deviceId" binding:"required"`
}

// CreateLocker handles the POST /api/lockers request.
func (h *Handler) CreateLocker(c *gin.Context) {
	var req createLockerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name & deviceId required"})
		return
	}

	locker, err := h.store.CreateLocker(c.Request.Context(), req.Name, req.DeviceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create locker"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": locker.ID})
}

// RequestUnlock handles the POST /api/lockers/:id/unlock request. The command
// is acknowledged as accepted; execution happens when the bound device polls.
func (h *Handler) RequestUnlock(c *gin.Context) {
	cmd, err := h.store.EnqueueCommand(c.Request.Context(), c.Param("id"), mw.UserID(c))
	if err != nil {
		if errors.Is(err, store.ErrLockerNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "locker not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue command"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"commandId": cmd.ID})
}
