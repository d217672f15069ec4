package campaign

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("campaign: not found")

// Counters are the denormalized campaign statistics recomputed from lead and
// call-record state.
type Counters struct {
	TotalLeads             int
	CompletedCalls         int
	SuccessfulCalls        int
	FailedCalls            int
	AverageDurationSeconds int
}

// LeadUpdate describes a partial lead write. Nil fields are left untouched.
type LeadUpdate struct {
	Status              *LeadStatus
	CallDurationSeconds *int
}

// CallRecordUpdate describes a partial call-record write. Nil fields are left
// untouched; correlation fields are only ever filled in, never cleared.
type CallRecordUpdate struct {
	Status          *string
	DurationSeconds *int
	Phone           *string
	BatchJobID      *string
	ConversationID  *string
	Transcript      *string
}

// Store is the persistence contract consumed by the orchestration core.
//
// Implementations must provide atomic single-record updates; the core does not
// rely on multi-record transactions.
type Store interface {
	GetCampaign(ctx context.Context, id string) (Campaign, error)
	// SetCampaignBatch stores the active batch job reference and status together,
	// keeping the "job id non-empty iff active" invariant a single write.
	SetCampaignBatch(ctx context.Context, id string, status Status, batchJobID string) error
	UpdateCampaignStatus(ctx context.Context, id string, status Status) error
	UpdateCampaignCounters(ctx context.Context, id string, c Counters) error

	ListLeads(ctx context.Context, campaignID string, status LeadStatus) ([]Lead, error)
	UpdateLead(ctx context.Context, id string, upd LeadUpdate) error

	CreateCallRecord(ctx context.Context, r CallRecord) error
	ListCallRecords(ctx context.Context, campaignID string) ([]CallRecord, error)
	FindCallRecordByLead(ctx context.Context, campaignID, leadID string) (CallRecord, bool, error)
	UpdateCallRecord(ctx context.Context, id string, upd CallRecordUpdate) error
}
