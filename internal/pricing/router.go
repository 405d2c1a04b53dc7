package pricing

import (
	"roomly/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupPricingRoutes registers price resolution and rule management routes
func SetupPricingRoutes(rg *gin.RouterGroup, controller *Controller) {
	pricingRoutes := rg.Group("/pricing")
	{
		// Public reads for search and quote display
		pricingRoutes.GET("/rooms/:roomId/price", controller.ResolvePrice)
		pricingRoutes.GET("/rooms/:roomId/range", controller.GetPriceRange)

		// Admin rule management
		admin := pricingRoutes.Group("")
		admin.Use(middleware.JWTAuth(), middleware.RequireAdmin())
		{
			admin.POST("/rules", controller.CreateRule)
			admin.GET("/rooms/:roomId/rules", controller.ListRules)
			admin.DELETE("/rules/:id", controller.DeactivateRule)
		}
	}
}
