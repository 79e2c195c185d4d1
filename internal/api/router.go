package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/mayor-schedule-api/internal/config"
	"github.com/mayor-schedule-api/internal/database"
	"github.com/mayor-schedule-api/internal/metrics"
	"github.com/mayor-schedule-api/internal/models"
	"github.com/mayor-schedule-api/internal/readmodel"
	"github.com/mayor-schedule-api/internal/service"
)

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, rm *readmodel.ReadModel, cfg *config.Config, gatherer prometheus.Gatherer, db *database.DB, log zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())

	// Handlers
	appointmentHandler := NewAppointmentHandler(services, log)
	dashboardHandler := NewDashboardHandler(rm, log)
	userHandler := NewUserHandler(services, cfg, log)
	notifyHandler := NewNotifyHandler(services, log)

	// Registration and bootstrap are the unauthenticated-adjacent surface;
	// keep bursts from anonymous clients in check.
	limiter := NewRateLimiter(5, 10)

	router.GET("/health", healthCheck(db, rm))
	router.GET("/metrics", gin.WrapH(metrics.Handler(gatherer)))

	v1 := router.Group("/v1")
	{
		v1.GET("/push/vapid-key", userHandler.VAPIDKey)

		authed := v1.Group("", authMiddleware(cfg.Auth.JWTSecret, services.Directory, log))
		{
			authed.POST("/auth/register", rateLimitMiddleware(limiter), userHandler.Register)
			authed.POST("/admin/bootstrap", rateLimitMiddleware(limiter), userHandler.BootstrapAdmin)
			authed.POST("/push/tokens", userHandler.RegisterToken)

			users := authed.Group("/users", requireRole(models.RoleAdmin))
			{
				users.GET("", userHandler.List)
				users.PATCH("/:id", userHandler.Update)
			}

			scheduled := requireRole(models.RoleSecretary, models.RoleMayor, models.RoleAdmin)

			appointments := authed.Group("/appointments", scheduled)
			{
				appointments.GET("/stream", dashboardHandler.Stream)
				appointments.GET("/dashboard", dashboardHandler.View)
				appointments.GET("", appointmentHandler.List)
				appointments.POST("", appointmentHandler.Create)
				appointments.GET("/:id", appointmentHandler.Get)
				appointments.PUT("/:id", appointmentHandler.Update)
				appointments.DELETE("/:id", appointmentHandler.Delete)
			}

			authed.POST("/notify", scheduled, notifyHandler.Notify)
		}
	}

	return router
}

// healthCheck reports process health, store reachability and whether the
// read model is serving live or cached data.
func healthCheck(db *database.DB, rm *readmodel.ReadModel) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		if err := db.HealthCheck(c.Request.Context()); err != nil {
			status = "degraded"
		}
		_, online := rm.Current(models.ScopeAll)

		c.JSON(http.StatusOK, gin.H{
			"status":    status,
			"online":    online,
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   "mayor-schedule-api",
		})
	}
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Msg("Panic recovered")
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
