package routes

import (
	"net/http"

	"docqa-platform/middleware"
	"docqa-platform/models"
	"docqa-platform/utils"

	"github.com/gin-gonic/gin"
)

// SetupAdminRoutes mounts the tenant registry endpoints. Everything here is
// admin-only; tenant keys are refused regardless of which tenant they name.
func SetupAdminRoutes(router *gin.Engine, deps Deps, access *middleware.AccessControl) {
	admin := router.Group("/admin")
	admin.Use(access.Authenticate())
	admin.Use(middleware.RateLimitMiddleware(deps.Redis, deps.Config))
	admin.Use(access.RequireAdmin())
	if deps.Config.TracingEnabled {
		admin.Use(middleware.EnrichTrace())
	}

	admin.POST("/tenants", func(c *gin.Context) {
		var req models.RegisterTenantRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid registration request", gin.H{"error": err.Error()})
			return
		}

		tenant, err := deps.Tenants.Register(c.Request.Context(), &req)
		if err != nil {
			utils.RespondWithAppError(c, err)
			return
		}
		// The api key is included here and never returned again.
		c.JSON(http.StatusCreated, tenant)
	})

	admin.GET("/tenants", func(c *gin.Context) {
		tenants, err := deps.Tenants.List(c.Request.Context())
		if err != nil {
			utils.RespondWithAppError(c, err)
			return
		}
		// Listing omits api keys.
		for i := range tenants {
			tenants[i].APIKey = ""
		}
		c.JSON(http.StatusOK, gin.H{"tenants": tenants, "count": len(tenants)})
	})

	admin.GET("/tenants/:tenant_id", func(c *gin.Context) {
		tenant, err := deps.Tenants.Get(c.Request.Context(), c.Param("tenant_id"))
		if err != nil {
			utils.RespondWithAppError(c, err)
			return
		}
		tenant.APIKey = ""
		c.JSON(http.StatusOK, tenant)
	})

	admin.PUT("/tenants/:tenant_id", func(c *gin.Context) {
		var req models.UpdateTenantRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid update request", gin.H{"error": err.Error()})
			return
		}

		tenant, err := deps.Tenants.Update(c.Request.Context(), c.Param("tenant_id"), &req)
		if err != nil {
			utils.RespondWithAppError(c, err)
			return
		}
		tenant.APIKey = ""
		c.JSON(http.StatusOK, tenant)
	})

	admin.POST("/tenants/:tenant_id/rotate-key", func(c *gin.Context) {
		tenant, err := deps.Tenants.RotateKey(c.Request.Context(), c.Param("tenant_id"))
		if err != nil {
			utils.RespondWithAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"tenant_id": tenant.TenantID,
			"api_key":   tenant.APIKey,
		})
	})

	admin.DELETE("/tenants/:tenant_id", func(c *gin.Context) {
		if err := deps.Tenants.Delete(c.Request.Context(), c.Param("tenant_id")); err != nil {
			utils.RespondWithAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "tenant removed"})
	})

	admin.GET("/tenants/:tenant_id/stats", func(c *gin.Context) {
		stat, err := deps.Tenants.Stats(c.Request.Context(), c.Param("tenant_id"))
		if err != nil {
			utils.RespondWithAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, stat)
	})
}
