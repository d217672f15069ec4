package httpapi

import (
	"errors"
	"net/http"

	"outdial-platform/internal/audit"
	"outdial-platform/internal/auth"
	"outdial-platform/internal/campaign"
	"outdial-platform/internal/orchestrator"
	"outdial-platform/internal/reporting"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.

type Handlers struct {
	Store        campaign.Store
	Orchestrator *orchestrator.Orchestrator
	Reporting    *reporting.Service
	Runs         *audit.Service
}

// campaignForWorkspace loads the campaign and enforces tenancy: callers only
// see campaigns belonging to their workspace.
func (h Handlers) campaignForWorkspace(c *gin.Context) (campaign.Campaign, bool) {
	workspaceID, err := auth.WorkspaceID(c.Request.Context())
	if err != nil || workspaceID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "workspace_id required"})
		return campaign.Campaign{}, false
	}
	id := c.Param("campaign_id")
	if id == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "campaign_id required"})
		return campaign.Campaign{}, false
	}

	camp, err := h.Store.GetCampaign(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, campaign.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "campaign not found"})
		} else {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "campaign lookup failed"})
		}
		return campaign.Campaign{}, false
	}
	if camp.WorkspaceID != workspaceID {
		// Same response as a missing row; do not leak other tenants' ids.
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "campaign not found"})
		return campaign.Campaign{}, false
	}
	return camp, true
}

// StartCampaign kicks off one orchestration run for the campaign.
func (h Handlers) StartCampaign(c *gin.Context) {
	if h.Orchestrator == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "orchestrator not configured"})
		return
	}
	camp, ok := h.campaignForWorkspace(c)
	if !ok {
		return
	}

	if err := h.Orchestrator.Start(c.Request.Context(), camp.ID); err != nil {
		switch {
		case errors.Is(err, orchestrator.ErrAlreadyRunning):
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "campaign run already in progress"})
		case errors.Is(err, campaign.ErrNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "campaign not found"})
		case errors.Is(err, orchestrator.ErrNoPendingLeads):
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": "campaign has no pending leads"})
		case errors.Is(err, orchestrator.ErrProviderMisconfigured):
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "calling provider not configured"})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "campaign start failed"})
		}
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "started", "campaign_id": camp.ID})
}

// RecomputeStats recomputes the campaign counters on demand.
func (h Handlers) RecomputeStats(c *gin.Context) {
	if h.Reporting == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reporting not configured"})
		return
	}
	camp, ok := h.campaignForWorkspace(c)
	if !ok {
		return
	}

	counters, err := h.Reporting.Recompute(c.Request.Context(), camp.ID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "recompute failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"campaign_id":              camp.ID,
		"total_leads":              counters.TotalLeads,
		"completed_calls":          counters.CompletedCalls,
		"successful_calls":         counters.SuccessfulCalls,
		"failed_calls":             counters.FailedCalls,
		"average_duration_seconds": counters.AverageDurationSeconds,
	})
}

// CampaignSummary returns the dashboard read model.
func (h Handlers) CampaignSummary(c *gin.Context) {
	if h.Reporting == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reporting not configured"})
		return
	}
	camp, ok := h.campaignForWorkspace(c)
	if !ok {
		return
	}

	summary, err := h.Reporting.CampaignSummary(c.Request.Context(), camp.ID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "summary failed"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// RunHistory lists the recorded orchestration milestones for the campaign.
func (h Handlers) RunHistory(c *gin.Context) {
	if h.Runs == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "run history not configured"})
		return
	}
	camp, ok := h.campaignForWorkspace(c)
	if !ok {
		return
	}

	events, err := h.Runs.RunHistory(c.Request.Context(), camp.WorkspaceID, camp.ID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "run history lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"campaign_id": camp.ID, "events": events})
}
