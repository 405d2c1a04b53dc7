package rooms

import (
	"net/http"
	"time"

	"roomly/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

func (c *Controller) ListRooms(ctx *gin.Context) {
	rooms, err := c.service.ListRooms(ctx.Request.Context())
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to list rooms", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Rooms retrieved successfully", rooms, nil)
}

func (c *Controller) GetRoom(ctx *gin.Context) {
	id := ctx.Param("id")
	if id == "" {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Room ID is required", nil, "missing room ID")
		return
	}

	room, err := c.service.GetRoom(ctx.Request.Context(), id)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusNotFound, "Failed to get room", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Room retrieved successfully", room, nil)
}

func (c *Controller) GetCalendar(ctx *gin.Context) {
	id := ctx.Param("id")
	if id == "" {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Room ID is required", nil, "missing room ID")
		return
	}

	start, err := time.Parse("2006-01-02", ctx.DefaultQuery("start", time.Now().UTC().Format("2006-01-02")))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid start date", nil, err.Error())
		return
	}
	end, err := time.Parse("2006-01-02", ctx.DefaultQuery("end", start.AddDate(0, 1, 0).Format("2006-01-02")))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid end date", nil, err.Error())
		return
	}

	calendar, err := c.service.GetCalendar(ctx.Request.Context(), id, start, end)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to get calendar", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Calendar retrieved successfully", calendar, nil)
}

func (c *Controller) BulkSetAvailability(ctx *gin.Context) {
	id := ctx.Param("id")
	if id == "" {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Room ID is required", nil, "missing room ID")
		return
	}

	var req BulkAvailabilityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	updated, err := c.service.BulkSetAvailability(ctx.Request.Context(), id, req)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Failed to set availability", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Availability updated successfully", gin.H{"updated_count": updated}, nil)
}
