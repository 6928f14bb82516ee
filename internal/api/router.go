// Package api - Router setup
package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aethra/hera/internal/config"
	"github.com/aethra/hera/internal/logging"
	"github.com/aethra/hera/internal/metrics"
	"github.com/aethra/hera/internal/preset"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(handler *Handler, cfg *config.Config, log *zap.Logger) *gin.Engine {
	gin.SetMode(ginMode(cfg.Server.Mode))
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(logging.Middleware(log))
	r.Use(metrics.Middleware())

	// CORS - when credentials are used, specific origins must be provided
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", OrgHeader, RequestIDHeader, "Accept"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type", RequestIDHeader},
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           12 * time.Hour,
	}
	r.Use(cors.New(corsConfig))

	// Health and metrics (no auth required)
	r.GET("/api/health", handler.Health)
	r.GET("/metrics", metrics.Handler())

	// ==========================================================================
	// AUTH API - Authentication endpoints (no auth required)
	// ==========================================================================
	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/login", handler.Login)
		authRoutes.POST("/refresh", handler.RefreshToken)
	}

	authProtected := r.Group("/auth")
	authProtected.Use(handler.UserMiddleware())
	authProtected.Use(handler.RequireAuthMiddleware())
	{
		authProtected.GET("/me", handler.GetMe)
	}

	// ==========================================================================
	// UNIVERSAL API - entity, relationship and transaction operations
	// Every route requires an organization context (x-hera-org header)
	// ==========================================================================
	api := r.Group("/api")
	api.Use(handler.UserMiddleware())
	api.Use(handler.OrgMiddleware())
	{
		// Preset metadata and render view models
		api.GET("/presets", handler.ListPresets)
		api.GET("/presets/:entity_type", handler.GetPreset)
		api.GET("/presets/:entity_type/form", handler.GetEntityForm)
		api.GET("/presets/:entity_type/columns", handler.GetEntityColumns)

		// Form specs for the transaction wizard
		api.GET("/form-specs/:smart_code", handler.ResolveFormSpec)
		api.PUT("/form-specs/:smart_code", handler.SaveFormSpec)

		// Entity CRUD with preset permission checking
		entities := api.Group("/entities")
		{
			entities.GET("/:entity_type", handler.PermissionMiddleware(preset.ActionView), handler.ListEntities)
			entities.GET("/:entity_type/:id", handler.PermissionMiddleware(preset.ActionView), handler.GetEntity)
			entities.POST("/:entity_type", handler.PermissionMiddleware(preset.ActionCreate), handler.CreateEntity)
			entities.PUT("/:entity_type/:id", handler.PermissionMiddleware(preset.ActionEdit), handler.UpdateEntity)
			entities.DELETE("/:entity_type/:id", handler.PermissionMiddleware(preset.ActionDelete), handler.DeleteEntity)
			entities.GET("/:entity_type/:id/dynamic-data", handler.PermissionMiddleware(preset.ActionView), handler.GetDynamicData)
			entities.POST("/:entity_type/:id/dynamic-data", handler.PermissionMiddleware(preset.ActionEdit), handler.SetDynamicData)
		}

		// Relationships
		api.GET("/relationships", handler.ListRelationships)
		api.POST("/relationships", handler.CreateRelationship)
		api.DELETE("/relationships/:id", handler.DeleteRelationship)

		// Transactions
		api.GET("/transactions", handler.ListTransactions)
		api.POST("/transactions", handler.CreateTransaction)
		api.GET("/transactions/:id", handler.GetTransaction)
	}

	return r
}

func ginMode(mode string) string {
	switch mode {
	case "release":
		return gin.ReleaseMode
	case "test":
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}
