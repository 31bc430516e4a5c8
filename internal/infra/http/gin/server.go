package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"skillbridge/internal/infra/config"
	"skillbridge/internal/infra/obs"
)

type ListingHTTP interface {
	Get(c *gin.Context)
	Delete(c *gin.Context)
	Deactivate(c *gin.Context)
	CreateBooking(c *gin.Context)
	RateTutor(c *gin.Context)
}

type BookingHTTP interface {
	Transition(c *gin.Context)
	Rate(c *gin.Context)
}

type Handlers struct {
	Listing        ListingHTTP
	Booking        BookingHTTP
	Metrics        http.Handler
	AuthMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func NewRouter(obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.AccessLog())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", IdempotencyHeader, DevUserHeader},
		ExposeHeaders: []string{"Content-Length", "Content-Type", obs.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)
	if h.Metrics != nil {
		router.GET("/metrics", gin.WrapH(h.Metrics))
	}

	api := router.Group("/api/v1")
	if h.Listing != nil {
		api.GET("/listings/:id", h.Listing.Get)
		api.DELETE("/listings/:id", h.Listing.Delete)
		api.POST("/listings/:id/deactivate", h.Listing.Deactivate)
		api.POST("/listings/:id/bookings", h.Listing.CreateBooking)
		api.POST("/listings/:id/ratings", h.Listing.RateTutor)
	}
	if h.Booking != nil {
		api.POST("/bookings/:id/ratings", h.Booking.Rate)
		api.POST("/bookings/:id/transitions/:action", h.Booking.Transition)
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
