package routes

import (
	"net/http"
	"time"

	"roomly/internal/availability"
	"roomly/internal/locks"
	"roomly/internal/notifications"
	"roomly/internal/pricing"
	"roomly/internal/reservations"
	"roomly/internal/rooms"
	"roomly/internal/shared/config"
	"roomly/internal/shared/database"
	"roomly/pkg/cache"
	"roomly/pkg/lock"
	"roomly/pkg/ratelimit"

	"github.com/gin-gonic/gin"
)

// Router holds all route dependencies
type Router struct {
	config   *config.Config
	db       *database.DB
	producer notifications.EventProducer
	limiter  *ratelimit.RateLimiter

	// shared services wired across feature packages
	cacheService        cache.Service
	roomService         rooms.ServiceWithInjection
	pricingService      pricing.Service
	availabilityService availability.Service
	reservationService  reservations.Service
}

// NewRouter creates a new router instance
func NewRouter(cfg *config.Config, db *database.DB, producer notifications.EventProducer, limiter *ratelimit.RateLimiter) *Router {
	return &Router{
		config:   cfg,
		db:       db,
		producer: producer,
		limiter:  limiter,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.cacheService = cache.NewService(r.db.GetRedisClient())

	r.setupHealthRoutes(engine)

	api := engine.Group(r.config.GetAPIBasePath())
	{
		// Order matters: rooms first, then pricing and availability which
		// consume the room repository, then the injections back into rooms.
		r.setupRoomRoutes(api)
		r.setupPricingRoutes(api)
		r.setupReservationRoutes(api)

		r.roomService.SetLedgerWarmer(r.availabilityService)
		r.roomService.SetPriceCacheInvalidator(r.pricingService)
	}
}

// AvailabilityService exposes the ledger service for background jobs
func (r *Router) AvailabilityService() availability.Service {
	return r.availabilityService
}

// ReservationService exposes the reservation service for background jobs
func (r *Router) ReservationService() reservations.Service {
	return r.reservationService
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "roomly-engine",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "roomly-engine",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})
}

// setupRoomRoutes configures room and calendar management routes
func (r *Router) setupRoomRoutes(rg *gin.RouterGroup) {
	roomRepo := rooms.NewRepository(r.db.GetPostgreSQL())
	roomService := rooms.NewService(roomRepo)
	roomController := rooms.NewController(roomService)

	r.roomService = roomService

	rooms.SetupRoomRoutes(rg, roomController)
}

// setupPricingRoutes configures price resolution routes
func (r *Router) setupPricingRoutes(rg *gin.RouterGroup) {
	pricingRepo := pricing.NewRepository(r.db.GetPostgreSQL())
	pricingService := pricing.NewService(pricingRepo, r.config.Ledger.PriceCacheTTL)
	pricingService.SetRangeCache(r.cacheService)
	pricingController := pricing.NewController(pricingService)

	r.pricingService = pricingService

	pricing.SetupPricingRoutes(rg, pricingController)
}

// setupReservationRoutes configures availability and reservation routes
func (r *Router) setupReservationRoutes(rg *gin.RouterGroup) {
	roomRepo := rooms.NewRepository(r.db.GetPostgreSQL())

	availabilityRepo := availability.NewRepository(r.db.GetPostgreSQL())
	availabilityService := availability.NewService(
		availabilityRepo, roomRepo, r.cacheService,
		r.config.Ledger.HorizonDays, r.config.Ledger.EntryTTL,
	)
	r.availabilityService = availabilityService

	locker := lock.NewRedisLocker(r.db.GetRedisClient())
	coordinator := locks.NewCoordinator(locker, r.config.Booking.LockTTL)

	reservationRepo := reservations.NewRepository(r.db.GetPostgreSQL())
	reservationService := reservations.NewService(
		reservationRepo, availabilityService, r.pricingService,
		coordinator, r.producer, r.config.Booking,
	)
	r.reservationService = reservationService

	reservationController := reservations.NewController(reservationService)
	reservations.SetupReservationRoutes(rg, reservationController, r.limiter)
}
