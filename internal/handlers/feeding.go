package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"petfeeder/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	msgFeedDelivered = "Feeding activated successfully"
	msgStopDelivered = "Feeding stopped successfully"
	msgMaybeOffline  = "Command sent but device may be offline"
	msgSendFailed    = "Command could not be delivered to the broker"
)

// ActivateFeedingRequest is the optional body of POST /api/v1/feeding/activate.
type ActivateFeedingRequest struct {
	// small, medium or large; defaults to medium or to the schedule's size
	PortionSize string `json:"portion_size,omitempty" example:"medium"`
	// Attribute the feed to one of the caller's schedules
	ScheduleID string `json:"schedule_id,omitempty"`
}

func resultMessage(res service.FeedResult, delivered string) string {
	switch {
	case res.Delivered:
		return delivered
	case res.DeviceOffline:
		return msgMaybeOffline
	default:
		return msgSendFailed
	}
}

// @Summary      Dispense food now
// @Description  The command outcome is always logged. delivered=false with device_offline=true means the channel was not connected.
// @Tags         feeding
// @Accept       json
// @Produce      json
// @Param        body  body      ActivateFeedingRequest  false  "Portion and optional schedule"
// @Success      200   {object}  map[string]interface{}  "message, delivered, device_offline, log"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/feeding/activate [post]
// @Security     BearerAuth
func (h *Handler) activateFeeding(c *gin.Context) {
	userID, _ := currentUserID(c)
	var req ActivateFeedingRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
			return
		}
	}

	res, err := h.services.Feeding.Activate(c.Request.Context(), userID, req.PortionSize, req.ScheduleID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPortion):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrScheduleNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		default:
			h.logAndJSONError(c, http.StatusInternalServerError, "failed to activate feeding", "feeding_activate_failed", err, "user_id", userID)
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":        resultMessage(res, msgFeedDelivered),
		"delivered":      res.Delivered,
		"device_offline": res.DeviceOffline,
		"log":            res.Log,
	})
}

// @Summary      Stop the dispenser
// @Tags         feeding
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "message, delivered, device_offline, log"
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/feeding/stop [post]
// @Security     BearerAuth
func (h *Handler) stopFeeding(c *gin.Context) {
	userID, _ := currentUserID(c)
	res, err := h.services.Feeding.Stop(c.Request.Context(), userID)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to stop feeding", "feeding_stop_failed", err, "user_id", userID)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":        resultMessage(res, msgStopDelivered),
		"delivered":      res.Delivered,
		"device_offline": res.DeviceOffline,
		"log":            res.Log,
	})
}

// @Summary      Feeding history
// @Tags         feeding
// @Produce      json
// @Param        limit  query     int  false  "Max entries (default 50, max 500)"
// @Success      200    {object}  map[string]interface{}  "count, logs"
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Failure      500    {object}  map[string]string
// @Router       /api/v1/feeding/logs [get]
// @Security     BearerAuth
func (h *Handler) getFeedingLogs(c *gin.Context) {
	userID, _ := currentUserID(c)
	limit := 0
	if s := c.Query("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = v
	}

	logs, err := h.services.Feeding.Logs(c.Request.Context(), userID, limit)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load logs", "feeding_logs_failed", err, "user_id", userID)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count": len(logs),
		"logs":  logs,
	})
}

// @Summary      Feeder status
// @Tags         feeding
// @Produce      json
// @Success      200  {object}  service.FeederStatus
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/feeding/status [get]
// @Security     BearerAuth
func (h *Handler) getFeedingStatus(c *gin.Context) {
	userID, _ := currentUserID(c)
	st, err := h.services.Feeding.Status(c.Request.Context(), userID)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load status", "feeding_status_failed", err, "user_id", userID)
		return
	}
	c.JSON(http.StatusOK, st)
}
