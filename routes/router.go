package routes

import (
	"net/http"
	"time"

	"docqa-platform/internal/auth"
	"docqa-platform/internal/config"
	"docqa-platform/internal/queue"
	"docqa-platform/internal/telemetry"
	"docqa-platform/middleware"
	"docqa-platform/services"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// Deps carries everything the HTTP layer needs.
type Deps struct {
	Config    *config.Config
	Mongo     *mongo.Client
	Redis     *redis.Client
	Tokens    *auth.TokenService
	Tenants   *services.TenantService
	Documents *services.DocumentService
	Queries   *services.QueryService
	Queue     *queue.Client
	Metrics   *telemetry.Metrics
}

// NewRouter assembles the gin engine: common middleware, health probes and
// the admin, document and query route groups.
func NewRouter(deps Deps) *gin.Engine {
	gin.SetMode(deps.Config.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(middleware.RequestID())
	router.Use(middleware.CORSMiddleware(deps.Config.CORSOrigins))
	if deps.Config.TracingEnabled {
		router.Use(middleware.TracingMiddleware())
	}
	router.Use(middleware.MetricsMiddleware(deps.Metrics))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
	})
	router.GET("/ready", func(c *gin.Context) {
		ctx := c.Request.Context()
		if err := deps.Mongo.Ping(ctx, nil); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "mongo": err.Error()})
			return
		}
		if err := deps.Redis.Ping(ctx).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "redis": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	access := middleware.NewAccessControl(deps.Tokens, deps.Tenants)

	SetupAuthRoutes(router, deps)
	SetupAdminRoutes(router, deps, access)
	SetupDocumentRoutes(router, deps, access)
	SetupQueryRoutes(router, deps, access)

	return router
}
