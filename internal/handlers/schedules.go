package handlers

import (
	"errors"
	"net/http"

	"petfeeder/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateScheduleRequest is the body of POST /api/v1/schedules.
type CreateScheduleRequest struct {
	// Local time of day, H:MM or HH:MM
	FeedingTime string `json:"feeding_time" binding:"required" example:"07:30"`
	// small, medium or large; defaults to medium
	PortionSize string `json:"portion_size,omitempty" example:"small"`
	// Defaults to true
	RepeatDaily *bool `json:"repeat_daily,omitempty"`
}

// UpdateScheduleRequest is the body of PUT /api/v1/schedules/{id}. Omitted fields are unchanged.
type UpdateScheduleRequest struct {
	FeedingTime *string `json:"feeding_time,omitempty" example:"18:00"`
	PortionSize *string `json:"portion_size,omitempty" example:"large"`
	IsActive    *bool   `json:"is_active,omitempty"`
	RepeatDaily *bool   `json:"repeat_daily,omitempty"`
}

// scheduleError maps service errors to status codes.
func (h *Handler) scheduleError(c *gin.Context, logKey string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidSchedule):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrScheduleNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, errInternal, logKey, err, "schedule_id", c.Param("id"))
	}
}

// @Summary      Create schedule
// @Tags         schedules
// @Accept       json
// @Produce      json
// @Param        body  body      CreateScheduleRequest  true  "Schedule"
// @Success      201   {object}  models.Schedule
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/schedules [post]
// @Security     BearerAuth
func (h *Handler) createSchedule(c *gin.Context) {
	userID, _ := currentUserID(c)
	var req CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}

	s, err := h.services.Schedules.Create(c.Request.Context(), userID, service.ScheduleInput{
		FeedingTime: req.FeedingTime,
		PortionSize: req.PortionSize,
		RepeatDaily: req.RepeatDaily,
	})
	if err != nil {
		h.scheduleError(c, "schedule_create_failed", err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

// @Summary      List schedules
// @Tags         schedules
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, schedules"
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/schedules [get]
// @Security     BearerAuth
func (h *Handler) listSchedules(c *gin.Context) {
	userID, _ := currentUserID(c)
	list, err := h.services.Schedules.List(c.Request.Context(), userID)
	if err != nil {
		h.scheduleError(c, "schedule_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":     len(list),
		"schedules": list,
	})
}

// @Summary      Update schedule
// @Description  Moving feeding_time of a schedule that already fired today lets it fire again today.
// @Tags         schedules
// @Accept       json
// @Produce      json
// @Param        id    path      string                 true  "Schedule id"
// @Param        body  body      UpdateScheduleRequest  true  "Fields to change"
// @Success      200   {object}  models.Schedule
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/schedules/{id} [put]
// @Security     BearerAuth
func (h *Handler) updateSchedule(c *gin.Context) {
	userID, _ := currentUserID(c)
	var req UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}

	s, err := h.services.Schedules.Update(c.Request.Context(), userID, c.Param("id"), service.ScheduleUpdate{
		FeedingTime: req.FeedingTime,
		PortionSize: req.PortionSize,
		IsActive:    req.IsActive,
		RepeatDaily: req.RepeatDaily,
	})
	if err != nil {
		h.scheduleError(c, "schedule_update_failed", err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// @Summary      Delete schedule
// @Tags         schedules
// @Produce      json
// @Param        id   path      string  true  "Schedule id"
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/schedules/{id} [delete]
// @Security     BearerAuth
func (h *Handler) deleteSchedule(c *gin.Context) {
	userID, _ := currentUserID(c)
	if err := h.services.Schedules.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.scheduleError(c, "schedule_delete_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
