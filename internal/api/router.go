package api

import (
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"locker-dispatch-backend/config"
	"locker-dispatch-backend/internal/auth"
	"locker-dispatch-backend/internal/mw"
	"locker-dispatch-backend/internal/notification"
	"locker-dispatch-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.Config, s store.Store, jwtService *auth.JWTService, webpushOptions *webpush.Options, notifier *notification.WorkerPool) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, webpushOptions, notifier)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)

	cacheTTL := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	api := r.Group("/api")
	api.Use(rateLimiter)

	// User-facing routes
	users := api.Group("")
	users.Use(mw.UserAuth(jwtService))
	{
		users.GET("/lockers", caching, ListLockers(s))
		users.POST("/lockers", handler.CreateLocker)
		users.POST("/lockers/:id/unlock", handler.RequestUnlock)

		users.GET("/subscriptions", handler.GetSubscription)
		users.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
		users.PUT("/subscriptions", handler.PutSubscription)
		users.DELETE("/subscriptions", handler.DeleteSubscription)
	}

	// Device-facing routes
	devices := api.Group("/device/:device_id")
	devices.Use(mw.DeviceAuth(s))
	{
		devices.POST("/heartbeat", handler.Heartbeat)
		devices.GET("/next-command", handler.NextCommand)
		devices.POST("/command-result", handler.CommandResult)
	}

	return r
}
