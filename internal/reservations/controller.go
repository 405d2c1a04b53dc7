package reservations

import (
	"errors"
	"net/http"
	"strconv"

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

func (c *Controller) CheckAvailability(ctx *gin.Context) {
	var req CheckAvailabilityRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	result, err := c.service.CheckAvailability(ctx.Request.Context(), req)
	if err != nil {
		status, message := mapError(err)
		response.RespondJSON(ctx, "error", status, message, nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Availability retrieved successfully", result, nil)
}

func (c *Controller) GetUnavailableRooms(ctx *gin.Context) {
	var req SearchUnavailableRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	result, err := c.service.GetUnavailableRoomIds(ctx.Request.Context(), req)
	if err != nil {
		status, message := mapError(err)
		response.RespondJSON(ctx, "error", status, message, nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Unavailable rooms retrieved successfully", result, nil)
}

func (c *Controller) CreateReservation(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Authentication required", nil, "missing user identity")
		return
	}

	var req CreateReservationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	result, err := c.service.CreateReservation(ctx.Request.Context(), userID, req)
	if err != nil {
		status, message := mapError(err)
		response.RespondJSON(ctx, "error", status, message, nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Reservation created successfully", result, nil)
}

func (c *Controller) ExtendReservation(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Authentication required", nil, "missing user identity")
		return
	}

	result, err := c.service.ExtendReservation(ctx.Request.Context(), userID, ctx.Param("reference"))
	if err != nil {
		status, message := mapError(err)
		response.RespondJSON(ctx, "error", status, message, nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Reservation extended successfully", result, nil)
}

func (c *Controller) ConfirmReservation(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Authentication required", nil, "missing user identity")
		return
	}

	// body is optional; confirmations without a payment reference are legal
	var req ConfirmReservationRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
			return
		}
	}

	result, err := c.service.ConfirmReservation(ctx.Request.Context(), userID, ctx.Param("reference"), req.PaymentReference)
	if err != nil {
		status, message := mapError(err)
		response.RespondJSON(ctx, "error", status, message, nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Reservation confirmed successfully", result, nil)
}

func (c *Controller) CancelReservation(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Authentication required", nil, "missing user identity")
		return
	}

	if err := c.service.CancelReservation(ctx.Request.Context(), userID, ctx.Param("reference")); err != nil {
		status, message := mapError(err)
		response.RespondJSON(ctx, "error", status, message, nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Reservation cancelled successfully", nil, nil)
}

func (c *Controller) GetReservation(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Authentication required", nil, "missing user identity")
		return
	}

	result, err := c.service.GetReservation(ctx.Request.Context(), userID, ctx.Param("reference"))
	if err != nil {
		status, message := mapError(err)
		response.RespondJSON(ctx, "error", status, message, nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Reservation retrieved successfully", result, nil)
}

func (c *Controller) GetUserReservations(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "Authentication required", nil, "missing user identity")
		return
	}

	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(ctx.DefaultQuery("offset", "0"))

	result, err := c.service.GetUserReservations(ctx.Request.Context(), userID, limit, offset)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to list reservations", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Reservations retrieved successfully", result, nil)
}

func currentUserID(ctx *gin.Context) (uuid.UUID, bool) {
	raw, exists := ctx.Get("user_id")
	if !exists {
		return uuid.Nil, false
	}
	str, ok := raw.(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(str)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// mapError translates service failures to HTTP semantics. Contention maps to
// 409 so clients retry, capacity to 422, lapsed holds to 410.
func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, ErrLockContention):
		return http.StatusConflict, "Dates are currently being booked by another request"
	case errors.Is(err, ErrCapacityExceeded):
		return http.StatusUnprocessableEntity, "Not enough units available for the requested dates"
	case errors.Is(err, ErrReservationExpired):
		return http.StatusGone, "Reservation has expired"
	case errors.Is(err, ErrReservationNotExtendable):
		return http.StatusConflict, "Reservation can no longer be extended"
	case errors.Is(err, ErrReservationNotFound):
		return http.StatusNotFound, "Reservation not found"
	case errors.Is(err, ErrNotOwner):
		return http.StatusForbidden, "Reservation does not belong to user"
	case errors.Is(err, ErrInvalidRange), errors.Is(err, ErrRangeTooFarAhead):
		return http.StatusBadRequest, "Invalid stay range"
	default:
		return http.StatusInternalServerError, "Reservation operation failed"
	}
}
