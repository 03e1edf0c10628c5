package routes

import (
	"net/http"
	"strings"

	"docqa-platform/internal/logger"
	"docqa-platform/middleware"
	"docqa-platform/utils"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SetupAuthRoutes mounts admin login and logout. Tenant API keys never pass
// through here; they are issued at registration and rotated by admins.
func SetupAuthRoutes(router *gin.Engine, deps Deps) {
	authGroup := router.Group("/auth")
	// No credential yet, so login and logout are limited per client IP.
	authGroup.Use(middleware.RateLimitMiddleware(deps.Redis, deps.Config))

	authGroup.POST("/login", func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Username and password are required", nil)
			return
		}

		// One credential check covers both unknown user and wrong password.
		if req.Username != deps.Config.AdminUsername ||
			!utils.CheckPassword(req.Password, deps.Config.AdminPasswordHash) {
			logger.Warn("admin login refused", "username", req.Username, "ip", c.ClientIP())
			utils.RespondWithUnauthorized(c, "Invalid username or password")
			return
		}

		token, expiresAt, err := deps.Tokens.Issue(c.Request.Context(), req.Username)
		if err != nil {
			utils.RespondWithAppError(c, err)
			return
		}

		logger.Info("admin logged in", "username", req.Username)
		c.JSON(http.StatusOK, gin.H{
			"access_token": token,
			"token_type":   "Bearer",
			"expires_at":   expiresAt,
		})
	})

	authGroup.POST("/logout", func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString := ""
		if parts := strings.SplitN(header, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			tokenString = strings.TrimSpace(parts[1])
		}
		if tokenString == "" {
			utils.RespondWithUnauthorized(c, "Credential required")
			return
		}

		claims, err := deps.Tokens.Validate(c.Request.Context(), tokenString)
		if err != nil {
			utils.RespondWithAppError(c, err)
			return
		}
		if err := deps.Tokens.Revoke(c.Request.Context(), claims.ID); err != nil {
			utils.RespondWithAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "logged out"})
	})
}
