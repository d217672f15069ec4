package main

import (
	"database/sql"
	"time"

	"outdial-platform/internal/httpapi"
	"outdial-platform/internal/rbac"
	"outdial-platform/pkg/utils"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers delegate to internal modules.
func registerRoutes(r *gin.Engine, authMW gin.HandlerFunc, h httpapi.Handlers, db *sql.DB) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/readyz", func(c *gin.Context) {
		if err := utils.HealthCheck(c.Request.Context(), db, 2*time.Second); err != nil {
			c.JSON(503, gin.H{"status": "degraded"})
			return
		}
		c.JSON(200, gin.H{"status": "ready"})
	})

	v1 := r.Group("/v1")
	v1.Use(authMW)
	{
		campaigns := v1.Group("/campaigns")
		campaigns.Use(rbac.RequireWorkspace())
		{
			// Starting a run places real calls; analysts are read-only.
			start := campaigns.Group("")
			start.Use(rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleAgent))
			{
				start.POST("/:campaign_id/start", h.StartCampaign)
			}

			read := campaigns.Group("")
			read.Use(rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleAgent, rbac.RoleAnalyst))
			{
				read.GET("/:campaign_id/summary", h.CampaignSummary)
				read.GET("/:campaign_id/runs", h.RunHistory)
				read.POST("/:campaign_id/stats/recompute", h.RecomputeStats)
			}
		}
	}
}
