package audit

import "time"

// Event is an immutable, append-only record of an orchestration run milestone.
//
// Invariants:
// - Events are never updated or deleted.
// - workspace_id is required for tenancy isolation.
// - Run logging is best-effort; orchestration flows must not block on it.
//
// Storage recommendation (Postgres):
// - Table run_events with an INSERT-only policy.
// - Optional: partition by time for retention.

type Event struct {
	ID          string `json:"id" db:"id"`
	WorkspaceID string `json:"workspace_id" db:"workspace_id"`

	Type EventType `json:"type" db:"type"`

	CampaignID string `json:"campaign_id" db:"campaign_id"`
	BatchJobID string `json:"batch_job_id,omitempty" db:"batch_job_id"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`

	// Metadata is optional JSON for full details.
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeRunStarted   EventType = "run_started"
	EventTypeRunCompleted EventType = "run_completed"
	EventTypeRunFailed    EventType = "run_failed"

	// EventTypeRunAbandoned marks a run whose batch never reached a terminal
	// provider status before the polling ceiling. Distinct from run_failed so
	// operators can find stale jobs needing follow-up.
	EventTypeRunAbandoned EventType = "run_abandoned"
)
