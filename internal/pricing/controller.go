package pricing

import (
	"net/http"
	"strconv"
	"time"

	"roomly/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

func (c *Controller) ResolvePrice(ctx *gin.Context) {
	roomID, err := uuid.Parse(ctx.Param("roomId"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid room ID", nil, err.Error())
		return
	}

	date, err := time.Parse("2006-01-02", ctx.Query("date"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD", nil, err.Error())
		return
	}

	// nights gives long-stay rules their context; single night when omitted
	stayNights, err := strconv.Atoi(ctx.DefaultQuery("nights", "1"))
	if err != nil || stayNights < 1 {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid nights, expected a positive integer", nil, nil)
		return
	}

	price, err := c.service.ResolvePrice(ctx.Request.Context(), roomID, date, stayNights)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to resolve price", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Price resolved successfully", gin.H{
		"room_id": roomID.String(),
		"date":    date.Format("2006-01-02"),
		"nights":  stayNights,
		"price":   price,
	}, nil)
}

func (c *Controller) GetPriceRange(ctx *gin.Context) {
	roomID, err := uuid.Parse(ctx.Param("roomId"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid room ID", nil, err.Error())
		return
	}

	entry, err := c.service.GetPriceRange(ctx.Request.Context(), roomID)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to get price range", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Price range retrieved successfully", entry, nil)
}

func (c *Controller) CreateRule(ctx *gin.Context) {
	var req CreateRuleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	rule, err := c.service.CreateRule(ctx.Request.Context(), req)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Failed to create pricing rule", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Pricing rule created successfully", rule, nil)
}

func (c *Controller) ListRules(ctx *gin.Context) {
	roomID, err := uuid.Parse(ctx.Param("roomId"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid room ID", nil, err.Error())
		return
	}

	rules, err := c.service.ListRules(ctx.Request.Context(), roomID)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to list pricing rules", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Pricing rules retrieved successfully", rules, nil)
}

func (c *Controller) DeactivateRule(ctx *gin.Context) {
	ruleID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid rule ID", nil, err.Error())
		return
	}

	if err := c.service.DeactivateRule(ctx.Request.Context(), ruleID); err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to deactivate pricing rule", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Pricing rule deactivated successfully", nil, nil)
}
