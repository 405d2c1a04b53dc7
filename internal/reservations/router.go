package reservations

import (
	"roomly/internal/shared/middleware"
	"roomly/pkg/ratelimit"

	"github.com/gin-gonic/gin"
)

// SetupReservationRoutes registers availability reads and the reservation
// lifecycle. Write operations sit behind the tightest rate limit tier since
// every attempt burns date locks.
func SetupReservationRoutes(rg *gin.RouterGroup, controller *Controller, limiter *ratelimit.RateLimiter) {
	availabilityRoutes := rg.Group("/availability")
	if limiter != nil {
		availabilityRoutes.Use(ratelimit.MiddlewareWithType(limiter, ratelimit.RateLimitTypePublic))
	}
	{
		availabilityRoutes.GET("/check", controller.CheckAvailability)
		availabilityRoutes.GET("/unavailable-rooms", controller.GetUnavailableRooms)
	}

	reservationRoutes := rg.Group("/reservations")
	reservationRoutes.Use(middleware.JWTAuth())
	{
		reads := reservationRoutes.Group("")
		if limiter != nil {
			reads.Use(ratelimit.MiddlewareWithType(limiter, ratelimit.RateLimitTypeBooking))
		}
		{
			reads.GET("", controller.GetUserReservations)
			reads.GET("/:reference", controller.GetReservation)
		}

		writes := reservationRoutes.Group("")
		if limiter != nil {
			writes.Use(ratelimit.MiddlewareWithType(limiter, ratelimit.RateLimitTypeBookingCritical))
		}
		{
			writes.POST("", controller.CreateReservation)
			writes.POST("/:reference/extend", controller.ExtendReservation)
			writes.POST("/:reference/confirm", controller.ConfirmReservation)
			writes.DELETE("/:reference", controller.CancelReservation)
		}
	}
}
