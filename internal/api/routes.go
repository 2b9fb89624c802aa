package api

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all application routes
func SetupRoutes(router *gin.Engine, h *Handlers) {
	api := router.Group("/api")
	{
		api.GET("/health", h.HealthCheck)

		// Staged scrape flow
		api.POST("/scrapes", h.StartScrape)
		api.GET("/scrapes/:id/captcha", h.GetCaptcha)
		api.POST("/scrapes/:id/captcha/refresh", h.RefreshCaptcha)
		api.POST("/scrapes/:id/submit", h.SubmitCaptcha)
		api.DELETE("/scrapes/:id", h.CloseScrape)

		api.GET("/records", h.ListRecords)
		api.GET("/sessions/stats", h.SessionStats)
	}
}
