package dialer

import (
	"context"
	"strings"
)

// BatchDialer is the provider-agnostic contract for external batch calling.
//
// Rules:
// - No provider SDK/HTTP calls outside dialer adapters.
// - Provider status strings are normalized into the closed enums below at this
//   boundary; orchestration logic never compares raw provider text.
// - LeadID rides in an opaque correlation payload and must round-trip through
//   the provider unmodified.
type BatchDialer interface {
	Name() string
	HealthCheck(ctx context.Context) error

	SubmitBatch(ctx context.Context, req SubmitBatchRequest) (SubmitBatchResult, error)
	GetBatchStatus(ctx context.Context, jobID string) (BatchSnapshot, error)
	GetCallDetail(ctx context.Context, conversationID string) (CallDetail, error)
}

type SubmitBatchRequest struct {
	// JobName is a human-readable label for the provider dashboard.
	JobName    string      `json:"job_name"`
	Recipients []Recipient `json:"recipients"`
}

type Recipient struct {
	Phone string `json:"phone"`

	// LeadID is the correlation payload echoed back on every status report.
	LeadID string `json:"lead_id"`
}

type SubmitBatchResult struct {
	JobID string `json:"job_id"`
}

// BatchSnapshot is one point-in-time view of a batch job.
type BatchSnapshot struct {
	JobID      string            `json:"job_id"`
	State      BatchState        `json:"state"`
	Recipients []RecipientStatus `json:"recipients"`
}

type RecipientStatus struct {
	Phone   string      `json:"phone"`
	Outcome CallOutcome `json:"outcome"`

	// DurationSeconds is meaningful only when HasDuration is true; providers
	// often omit it until their call data settles.
	DurationSeconds int  `json:"duration_seconds"`
	HasDuration     bool `json:"has_duration"`

	// ConversationID is empty until the provider discloses it.
	ConversationID string `json:"conversation_id,omitempty"`

	// LeadID is the echoed correlation payload.
	LeadID string `json:"lead_id,omitempty"`
}

type CallDetail struct {
	Outcome         CallOutcome `json:"outcome"`
	DurationSeconds int         `json:"duration_seconds"`
	HasDuration     bool        `json:"has_duration"`
	Transcript      string      `json:"transcript,omitempty"`
}

// BatchState is the normalized lifecycle state of a batch job.
type BatchState string

const (
	BatchStatePending    BatchState = "pending"
	BatchStateInProgress BatchState = "in_progress"
	BatchStateCompleted  BatchState = "completed"
	BatchStateFailed     BatchState = "failed"
	BatchStateUnknown    BatchState = "unknown"
)

func (s BatchState) IsTerminal() bool {
	return s == BatchStateCompleted || s == BatchStateFailed
}

// CallOutcome is the normalized per-recipient call state.
type CallOutcome string

const (
	// OutcomeDialing covers everything the provider reports before the call ends.
	OutcomeDialing CallOutcome = "dialing"
	// OutcomeEnded means the call ran to its end; whether that counts as success
	// depends on whether a positive duration is known.
	OutcomeEnded CallOutcome = "ended"
	// OutcomeFailed covers failed, cancelled and unanswered calls.
	OutcomeFailed  CallOutcome = "failed"
	OutcomeUnknown CallOutcome = "unknown"
)

// NormalizeBatchState folds provider batch-status synonyms into BatchState.
func NormalizeBatchState(raw string) BatchState {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending", "queued", "scheduled":
		return BatchStatePending
	case "in_progress", "processing", "running":
		return BatchStateInProgress
	case "completed", "done", "finished":
		return BatchStateCompleted
	case "failed", "cancelled", "canceled", "error":
		return BatchStateFailed
	default:
		return BatchStateUnknown
	}
}

// NormalizeOutcome folds provider per-call status synonyms into CallOutcome.
func NormalizeOutcome(raw string) CallOutcome {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending", "queued", "initiated", "in_progress", "calling", "ringing":
		return OutcomeDialing
	case "completed", "ended", "done":
		return OutcomeEnded
	case "failed", "cancelled", "canceled", "no_answer", "busy", "voicemail_failed":
		return OutcomeFailed
	default:
		return OutcomeUnknown
	}
}
