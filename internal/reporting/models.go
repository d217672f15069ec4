package reporting

import "outdial-platform/internal/campaign"

// CampaignSummary is the dashboard read model for one campaign: lifecycle
// status plus counters recomputed from lead and call-record truth.
type CampaignSummary struct {
	CampaignID  string          `json:"campaign_id"`
	WorkspaceID string          `json:"workspace_id"`
	Name        string          `json:"name"`
	Status      campaign.Status `json:"status"`
	BatchJobID  string          `json:"batch_job_id,omitempty"`

	TotalLeads      int `json:"total_leads"`
	PendingLeads    int `json:"pending_leads"`
	CallingLeads    int `json:"calling_leads"`
	CompletedCalls  int `json:"completed_calls"`
	SuccessfulCalls int `json:"successful_calls"`
	FailedCalls     int `json:"failed_calls"`

	AverageDurationSeconds int `json:"average_duration_seconds"`
	TotalDurationSeconds   int `json:"total_duration_seconds"`
}
