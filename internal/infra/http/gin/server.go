package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"vendorbook/internal/infra/config"
	"vendorbook/internal/infra/obs"
)

type AvailabilityHTTP interface {
	Calendar(c *gin.Context)
}

type ListingHTTP interface {
	Get(c *gin.Context)
	Nearby(c *gin.Context)
	UpdateAvailability(c *gin.Context)
}

type SelectionHTTP interface {
	Summary(c *gin.Context)
	Encode(c *gin.Context)
}

type BookingHTTP interface {
	Create(c *gin.Context)
	UpdateStatus(c *gin.Context)
}

type Handlers struct {
	Availability AvailabilityHTTP
	Listing      ListingHTTP
	Selection    SelectionHTTP
	Booking      BookingHTTP
}

// NewServer builds the HTTP server. A nil limiter disables rate limiting.
func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, limiter *obs.RateLimiter, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(obsMW, health, limiter, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func NewRouter(obsMW obs.Middleware, health obs.HealthHandlers, limiter *obs.RateLimiter, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Idempotency-Key", headerUserID, headerHostID},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	api.Use(limiter.Middleware())
	if h.Listing != nil {
		api.GET("/listings/nearby", h.Listing.Nearby)
		api.GET("/listings/:id", h.Listing.Get)
		api.PUT("/host/listings/:id/availability", h.Listing.UpdateAvailability)
	}
	if h.Availability != nil {
		api.GET("/listings/:id/availability", h.Availability.Calendar)
	}
	if h.Selection != nil {
		api.GET("/selection", h.Selection.Summary)
		api.POST("/selection/encode", h.Selection.Encode)
	}
	if h.Booking != nil {
		api.POST("/bookings", h.Booking.Create)
		api.POST("/bookings/:id/status", h.Booking.UpdateStatus)
	}
	return router
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug", "dev", "local":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
