package routes

import (
	"net/http"

	"docqa-platform/middleware"
	"docqa-platform/models"
	"docqa-platform/utils"

	"github.com/gin-gonic/gin"
)

// SetupQueryRoutes mounts the question answering endpoint and the usage
// counters it feeds. Stats are readable by admins and by the owning tenant.
func SetupQueryRoutes(router *gin.Engine, deps Deps, access *middleware.AccessControl) {
	query := router.Group("/tenants/:tenant_id/query")
	query.Use(access.Authenticate())
	query.Use(middleware.RateLimitMiddleware(deps.Redis, deps.Config))
	query.Use(access.RequireTenant("tenant_id"))
	if deps.Config.TracingEnabled {
		query.Use(middleware.EnrichTrace())
	}

	query.POST("", func(c *gin.Context) {
		tenant := middleware.CurrentTenant(c)

		var req models.AnswerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "A non-empty query is required", gin.H{"error": err.Error()})
			return
		}

		answer, err := deps.Queries.Answer(c.Request.Context(), tenant, req.Query)
		if err != nil {
			utils.RespondWithAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, answer)
	})

	stats := router.Group("/tenants/:tenant_id/stats")
	stats.Use(access.Authenticate())
	stats.Use(middleware.RateLimitMiddleware(deps.Redis, deps.Config))
	stats.Use(access.RequireTenant("tenant_id"))
	if deps.Config.TracingEnabled {
		stats.Use(middleware.EnrichTrace())
	}

	stats.GET("", func(c *gin.Context) {
		stat, err := deps.Tenants.Stats(c.Request.Context(), c.Param("tenant_id"))
		if err != nil {
			utils.RespondWithAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, stat)
	})
}
