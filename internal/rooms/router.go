package rooms

import (
	"roomly/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRoomRoutes registers room and calendar management routes
func SetupRoomRoutes(rg *gin.RouterGroup, controller *Controller) {
	roomRoutes := rg.Group("/rooms")
	{
		// Public reads
		roomRoutes.GET("", controller.ListRooms)
		roomRoutes.GET("/:id", controller.GetRoom)

		// Admin calendar management
		admin := roomRoutes.Group("")
		admin.Use(middleware.JWTAuth(), middleware.RequireAdmin())
		{
			admin.GET("/:id/calendar", controller.GetCalendar)
			admin.PUT("/:id/availability", controller.BulkSetAvailability)
		}
	}
}
