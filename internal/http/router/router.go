// Package router wires the scheduler's admin HTTP surface.
package router

import (
	"crypto/subtle"
	"net/http"

	"climbx.app/pipeline/internal/http/handler"
	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	AdminAPIKey string
}

func SetupRoutes(router *gin.Engine, adminHandler *handler.AdminHandler, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	admin := router.Group("/admin", adminKeyMiddleware(cfg.AdminAPIKey))
	{
		admin.POST("/scheduler/:job", adminHandler.TriggerJob)
	}
}

// adminKeyMiddleware rejects requests whose X-Admin-Api-Key header does not
// match the configured key. An empty configured key disables the admin
// surface entirely.
func adminKeyMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin api disabled"})
			return
		}
		provided := c.GetHeader("X-Admin-Api-Key")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
			return
		}
		c.Next()
	}
}
