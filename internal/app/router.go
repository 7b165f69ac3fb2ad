package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"unilift/internal/handler"
	"unilift/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	UserHandler    *handler.UserHandler
	RideHandler    *handler.RideHandler
	BookingHandler *handler.BookingHandler
	RedisClient    *redis.Client
	NewRelicApp    *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	identified := middleware.RequireIdentity()

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// User routes.
		users := v1.Group("/users")
		{
			users.POST("/register", deps.UserHandler.Register)
			users.GET("/:id", deps.UserHandler.GetUser)
		}

		// Ride routes. Listing and lookup are public; everything that
		// mutates needs the caller identity.
		rides := v1.Group("/rides")
		{
			rides.GET("", deps.RideHandler.GetAll)
			rides.GET("/search", deps.RideHandler.Search)
			rides.GET("/my-rides", identified, deps.RideHandler.GetMyRides)
			rides.GET("/:id", deps.RideHandler.GetRide)
			rides.POST("", identified, deps.RideHandler.CreateRide)
			rides.PUT("/:id", identified, deps.RideHandler.UpdateRide)
			rides.POST("/:id/cancel", identified, deps.RideHandler.CancelRide)
			rides.DELETE("/:id", identified, deps.RideHandler.DeleteRide)
		}

		// Booking routes.
		bookings := v1.Group("/bookings", identified)
		{
			bookings.POST("", deps.BookingHandler.CreateBooking)
			bookings.GET("/my-bookings", deps.BookingHandler.GetMyBookings)
			bookings.GET("/ride-bookings", deps.BookingHandler.GetRideBookings)
			bookings.GET("/:id", deps.BookingHandler.GetBooking)
			bookings.POST("/:id/cancel", deps.BookingHandler.CancelBooking)
			bookings.POST("/:id/rate", deps.BookingHandler.RateBooking)
		}
	}

	return router
}
