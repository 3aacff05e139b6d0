package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"locker-dispatch-backend/internal/model"
	"locker-dispatch-backend/internal/mw"
	"locker-dispatch-backend/internal/notification"
	"locker-dispatch-backend/internal/store"
)

type heartbeatRequest struct {
	Status    string `json:"status"`
	FWVersion string `json:"fwVersion"`
}

var knownLockerStatuses = map[model.LockerStatus]struct{}{
	model.LockerStatusLocked:   {},
	model.LockerStatusUnlocked: {},
	model.LockerStatusUnknown:  {},
}

// Heartbeat handles POST /api/device/:device_id/heartbeat. The device's
// liveness is always recorded; a supplied status is propagated to the bound
// locker as advisory presence data.
func (h *Handler) Heartbeat(c *gin.Context) {
	device, ok := mw.AuthedDevice(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unexpected server error"})
		return
	}

	var req heartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	status := model.LockerStatus(req.Status)
	if req.Status != "" {
		if _, known := knownLockerStatuses[status]; !known {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown locker status"})
			return
		}
	}

	if err := h.store.RecordHeartbeat(c.Request.Context(), device, status, req.FWVersion); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record heartbeat"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// NextCommand handles GET /api/device/:device_id/next-command. At most one
// PENDING command for the device's locker is claimed and returned; an empty
// queue is a normal outcome, not an error.
func (h *Handler) NextCommand(c *gin.Context) {
	device, ok := mw.AuthedDevice(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unexpected server error"})
		return
	}

	cmd, err := h.store.ClaimNextCommand(c.Request.Context(), device)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to claim command"})
		return
	}

	if cmd == nil {
		c.JSON(http.StatusOK, gin.H{"command": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"command": cmd})
}

type commandResultRequest struct {
	CommandID  string   `json:"commandId"`
	Success    bool     `json:"success"`
	Method     *string  `json:"method"`
	Confidence *float64 `json:"confidence"`
	Message    *string  `json:"message"`
}

// CommandResult handles POST /api/device/:device_id/command-result. The
// command moves to its terminal state and the audit entry is written before
// the device gets its acknowledgement.
func (h *Handler) CommandResult(c *gin.Context) {
	device, ok := mw.AuthedDevice(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unexpected server error"})
		return
	}

	var req commandResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	if req.CommandID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "commandId required"})
		return
	}

	cmd, err := h.store.CompleteCommand(c.Request.Context(), device, store.ResultReport{
		CommandID:  req.CommandID,
		Success:    req.Success,
		Method:     req.Method,
		Confidence: req.Confidence,
		Message:    req.Message,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrCommandNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "command not found"})
		case errors.Is(err, store.ErrWrongLocker):
			c.JSON(http.StatusForbidden, gin.H{"error": "wrong locker"})
		case errors.Is(err, store.ErrCommandNotClaimable):
			c.JSON(http.StatusConflict, gin.H{"error": "command is not awaiting a result"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record result"})
		}
		return
	}

	if h.notifier != nil {
		h.notifier.Dispatch(notification.Event{LockerID: cmd.LockerID, Success: req.Success})
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
