package campaign

import "time"

// Campaign is a tenant-scoped unit of outbound calling work.
//
// Multi-tenant invariant: WorkspaceID is required on every row.
//
// The counter fields are denormalized from Lead/CallRecord state and are written
// exclusively by the reporting recompute; nothing else may increment them.
type Campaign struct {
	ID          string `json:"id" db:"id"`
	WorkspaceID string `json:"workspace_id" db:"workspace_id"`
	Name        string `json:"name" db:"name"`

	Status Status `json:"status" db:"status"`

	// BatchJobID references the provider's batch job while a run is active.
	// Non-empty iff the campaign is active or reached a terminal status via active.
	BatchJobID string `json:"batch_job_id,omitempty" db:"batch_job_id"`

	TotalLeads             int `json:"total_leads" db:"total_leads"`
	CompletedCalls         int `json:"completed_calls" db:"completed_calls"`
	SuccessfulCalls        int `json:"successful_calls" db:"successful_calls"`
	FailedCalls            int `json:"failed_calls" db:"failed_calls"`
	AverageDurationSeconds int `json:"average_duration_seconds" db:"average_duration_seconds"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Status string

const (
	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusPaused, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Lead is one phone-number target within a campaign.
//
// Status transitions are monotonic per run: pending -> calling -> terminal.
// The orchestration core never moves a lead backward; the only reset path is the
// CRUD layer's explicit campaign reset.
type Lead struct {
	ID         string `json:"id" db:"id"`
	CampaignID string `json:"campaign_id" db:"campaign_id"`

	Phone     string `json:"phone" db:"phone"`
	FirstName string `json:"first_name,omitempty" db:"first_name"`
	LastName  string `json:"last_name,omitempty" db:"last_name"`

	Status LeadStatus `json:"status" db:"status"`

	// CallDurationSeconds is the duration of the lead's call attempt, 0 until known.
	CallDurationSeconds int `json:"call_duration_seconds" db:"call_duration_seconds"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type LeadStatus string

const (
	LeadStatusPending   LeadStatus = "pending"
	LeadStatusCalling   LeadStatus = "calling"
	LeadStatusCompleted LeadStatus = "completed"
	LeadStatusFailed    LeadStatus = "failed"
	LeadStatusNoAnswer  LeadStatus = "no_answer"
)

// IsTerminal reports whether the lead has reached a final outcome for this run.
func (s LeadStatus) IsTerminal() bool {
	switch s {
	case LeadStatusCompleted, LeadStatusFailed, LeadStatusNoAnswer:
		return true
	}
	return false
}

// CallRecord is the durable record of one call attempt against a lead.
//
// Exactly one record is created per pending lead at batch submission time.
// Records are never deleted by the orchestration core.
//
// NOTE: Status is provider-sourced free-form text kept for operators; business
// decisions are made on Lead.Status, never on this field.
type CallRecord struct {
	ID          string `json:"id" db:"id"`
	WorkspaceID string `json:"workspace_id" db:"workspace_id"`
	CampaignID  string `json:"campaign_id" db:"campaign_id"`

	// LeadID is empty for test calls placed outside a campaign run.
	LeadID string `json:"lead_id,omitempty" db:"lead_id"`

	Phone  string `json:"phone,omitempty" db:"phone"`
	Status string `json:"status" db:"status"`

	// DurationSeconds is nil until the provider reports it.
	DurationSeconds *int `json:"duration_seconds,omitempty" db:"duration_seconds"`

	// Provider correlation: the batch job this attempt belongs to and the
	// conversation/session id once the provider discloses it.
	BatchJobID     string `json:"batch_job_id,omitempty" db:"batch_job_id"`
	ConversationID string `json:"conversation_id,omitempty" db:"conversation_id"`

	Transcript string `json:"transcript,omitempty" db:"transcript"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Record statuses written by the orchestration core. The set is open: values
// echoed from the provider are stored as-is.
const (
	RecordStatusInitiated = "initiated"
	RecordStatusCancelled = "cancelled"
)
