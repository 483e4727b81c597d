// Package router assembles the gin engine and mounts every domain module.
package router

import (
	"net/http"
	"strings"
	"time"

	"sigorta_portal_backend/internal/config"
	apphttp "sigorta_portal_backend/internal/http"
	"sigorta_portal_backend/internal/http/middleware"
	"sigorta_portal_backend/platform/httpkit"
	"sigorta_portal_backend/platform/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// New builds the engine, applies global middleware, and registers every
// module's routes.
func New(cfg *config.Config, log *logger.Logger, modules ...apphttp.Module) *gin.Engine {
	if !strings.EqualFold(cfg.Env, "development") {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(httpkit.RequestLogger(log))
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(corsMiddleware(cfg))

	engine.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	ctx := &apphttp.RouterContext{
		Engine:           engine,
		V1:               engine.Group("/api/v1"),
		QuoteRateLimiter: httpkit.NewQuoteRateLimiter(log),
	}

	for _, module := range modules {
		module.RegisterRoutes(ctx)
		log.Info("registered module routes", "module", module.Name())
	}

	return engine
}

func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: !cfg.CORSAllowAll,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowAll {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.CORSOrigins
	}
	return cors.New(corsConfig)
}
