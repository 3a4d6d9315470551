// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/GarethCitcom/orphaned-acf-media/internal/application/container"
	"github.com/GarethCitcom/orphaned-acf-media/internal/application/services"
	"github.com/GarethCitcom/orphaned-acf-media/internal/presentation/http/handlers"
	"github.com/GarethCitcom/orphaned-acf-media/internal/presentation/http/middleware"
	"github.com/GarethCitcom/orphaned-acf-media/pkg/config"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(container *container.Container) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.CORSMiddleware(config.CORSAllowedOrigins))

	auth := container.AuthService

	// Initialize handlers
	authHandlers := handlers.NewAuthHandlers(auth, config.SessionTTL, container.Logger, container.PerfTracker)
	mediaHandlers := handlers.NewMediaHandlers(
		container.ScanService,
		container.DeletionService,
		container.ThumbnailService,
		container.Logger,
		container.PerfTracker,
	)
	systemHandlers := handlers.NewSystemHandlers(container.CacheManager, container.PerfTracker, container.Gatherer)

	r.GET("/health", systemHandlers.GetHealth)
	r.GET("/metrics", systemHandlers.Metrics())

	api := r.Group("/api/v1")
	{
		api.POST("/auth/login", authHandlers.PostLogin)

		authed := api.Group("", middleware.RequireSession(auth, container.Logger))
		authed.GET("/auth/nonce", authHandlers.GetNonce)

		scan := authed.Group("/media", middleware.RequireCapability(auth, services.CapabilityMediaScan))
		{
			scan.GET("/orphaned", mediaHandlers.GetOrphaned)
			scan.GET("/:id/thumbnail", mediaHandlers.GetThumbnail)
		}

		del := authed.Group("/media",
			middleware.RequireCapability(auth, services.CapabilityMediaDelete),
			middleware.RequireNonce(auth),
		)
		{
			del.POST("/delete", mediaHandlers.PostDelete)
			del.POST("/delete-all-safe", mediaHandlers.PostDeleteAllSafe)
			del.GET("/delete-all-safe/ws", mediaHandlers.BatchSocket)
		}

		authed.POST("/cache/clear",
			middleware.RequireCapability(auth, services.CapabilityCacheClear),
			middleware.RequireNonce(auth),
			mediaHandlers.PostClearCache,
		)
	}

	return r
}
