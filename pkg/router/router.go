// Package router assembles the Gin engine: middleware chain, CORS and
// route registration.
package router

import (
	"strings"

	"chatbot-demo/backend/internal/api"
	"chatbot-demo/backend/pkg/config"
	"chatbot-demo/backend/pkg/di"
	"chatbot-demo/backend/pkg/errors"
	"chatbot-demo/backend/pkg/health"
	"chatbot-demo/backend/pkg/logger"
	"chatbot-demo/backend/pkg/metrics"
	"chatbot-demo/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Router is the main router for the application
type Router struct {
	Engine    *gin.Engine
	Container *di.Container
	Logger    *logger.Logger
	Config    *config.Config
	Health    *health.Checker
}

// New creates a new router with the given container
func New(container *di.Container) *Router {
	logger.SetGlobal(container.Logger)

	cfg := config.Get()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	if err := engine.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		container.Logger.LogError(err, "Failed to set trusted proxies")
	}

	// Logger middleware first so every later middleware sees the
	// request-scoped logger. Metrics stays outside the error handler so it
	// observes the status the error handler writes.
	engine.Use(logger.Middleware(container.Logger))
	engine.Use(middleware.RequestIDMiddleware())
	engine.Use(metrics.Middleware())
	engine.Use(errors.ErrorHandler())
	engine.Use(errors.RecoveryWithLogger())

	rateLimiter := middleware.NewRateLimiter(container.Logger, middleware.RateLimiterOptions{
		Limit:          rate.Limit(cfg.Security.RateLimit),
		Burst:          cfg.Security.RateLimitBurst,
		ExpiryDuration: middleware.DefaultRateLimiterOptions().ExpiryDuration,
		KeyFunc:        middleware.DefaultRateLimiterOptions().KeyFunc,
	})
	engine.Use(rateLimiter.Middleware())

	checker := health.NewChecker(container.Logger, cfg.Database.Timeout*6)
	checker.RegisterDatabaseCheck(func() error {
		return config.TestConnection(container.DB)
	})

	return &Router{
		Engine:    engine,
		Container: container,
		Logger:    container.Logger,
		Config:    cfg,
		Health:    checker,
	}
}

// SetupRoutes registers all application routes
func (r *Router) SetupRoutes() {
	r.Engine.Use(corsMiddleware(r.Config.Security.AllowedOrigins))

	conversationHandler := api.NewConversationHandler(r.Container.ConversationService)
	messageHandler := api.NewMessageHandler(r.Container.MessageService)

	conversationHandler.RegisterRoutes(r.Engine)
	messageHandler.RegisterRoutes(r.Engine)

	r.Health.Start()
	r.Engine.GET("/health", gin.WrapF(r.Health.HTTPHandler()))
	r.Engine.GET("/metrics", metrics.Handler())
}

// corsMiddleware allows the configured frontend origins to call the API
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[strings.TrimRight(origin, "/")] = true
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" && (allowAll || allowed[origin]) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept, Accept-Encoding, Authorization, Origin, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
