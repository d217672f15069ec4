package orchestrator

import (
	"context"
	"log/slog"

	"outdial-platform/internal/campaign"
	"outdial-platform/internal/dialer"

	"github.com/google/uuid"
)

// transition is the planned state change for a single recipient.
//
// When needsDetail is set the ended-call verdict is deferred: the caller must
// resolve the duration via GetCallDetail before deciding completed vs failed.
type transition struct {
	leadStatus campaign.LeadStatus

	durationSeconds int
	hasDuration     bool

	needsDetail    bool
	wantTranscript bool
}

// planTransition maps one provider-reported recipient onto a lead transition.
//
// It is pure and idempotent: the same snapshot against the same current status
// always yields the same plan. Terminal lead states are sticky; a late
// "dialing" report never drags a finished lead back to calling, and a repeat
// "ended" report without a duration never rewrites a settled verdict.
func planTransition(r dialer.RecipientStatus, current campaign.LeadStatus) (transition, bool) {
	switch r.Outcome {
	case dialer.OutcomeDialing:
		if current.IsTerminal() {
			return transition{}, false
		}
		if current == campaign.LeadStatusCalling {
			// Already there; skip the write.
			return transition{}, false
		}
		return transition{leadStatus: campaign.LeadStatusCalling}, true

	case dialer.OutcomeEnded:
		if r.HasDuration && r.DurationSeconds > 0 {
			return transition{
				leadStatus:      campaign.LeadStatusCompleted,
				durationSeconds: r.DurationSeconds,
				hasDuration:     true,
				wantTranscript:  r.ConversationID != "",
			}, true
		}
		if current.IsTerminal() {
			// The verdict was already reached on an earlier tick; a repeated
			// report carrying no new duration must not rewrite it. Without
			// this, one flaky detail fetch could demote a completed lead.
			return transition{}, false
		}
		if r.ConversationID != "" {
			// Ended but the provider has not settled the duration yet; the
			// call detail decides completed vs failed.
			return transition{needsDetail: true, wantTranscript: true}, true
		}
		return transition{leadStatus: campaign.LeadStatusFailed}, true

	case dialer.OutcomeFailed:
		t := transition{leadStatus: campaign.LeadStatusFailed}
		if r.HasDuration && r.DurationSeconds > 0 {
			t.durationSeconds = r.DurationSeconds
			t.hasDuration = true
		}
		return t, true

	default:
		// Unknown provider vocabulary: leave the lead untouched rather than guess.
		return transition{}, false
	}
}

// reconcile merges one batch snapshot into lead and call-record state.
// Recipient order is irrelevant: each recipient touches a disjoint lead/record
// pair keyed by the echoed lead id.
func (o *Orchestrator) reconcile(ctx context.Context, camp campaign.Campaign, jobID string, snap dialer.BatchSnapshot, log *slog.Logger) {
	leads, err := o.store.ListLeads(ctx, camp.ID, "")
	if err != nil {
		log.Error("reconcile: lead listing failed", "err", err)
		return
	}
	byID := make(map[string]campaign.Lead, len(leads))
	for _, l := range leads {
		byID[l.ID] = l
	}

	for _, r := range snap.Recipients {
		if r.LeadID == "" {
			log.Warn("reconcile: recipient without correlation payload", "phone", r.Phone)
			continue
		}
		lead, ok := byID[r.LeadID]
		if !ok {
			log.Warn("reconcile: recipient references unknown lead", "lead_id", r.LeadID)
			continue
		}
		o.applyRecipient(ctx, camp, jobID, r, lead, log)
	}
}

// applyRecipient applies one planned transition: resolve the duration if
// needed, update the call record, move the lead, and fetch the transcript
// best-effort.
func (o *Orchestrator) applyRecipient(ctx context.Context, camp campaign.Campaign, jobID string, r dialer.RecipientStatus, lead campaign.Lead, log *slog.Logger) {
	tr, ok := planTransition(r, lead.Status)
	if !ok {
		return
	}

	status := tr.leadStatus
	duration := tr.durationSeconds
	hasDuration := tr.hasDuration

	var detail dialer.CallDetail
	var detailFetched bool

	if tr.needsDetail {
		d, err := o.dial.GetCallDetail(ctx, r.ConversationID)
		if err != nil {
			log.Warn("reconcile: call detail fetch failed", "lead_id", lead.ID, "conversation_id", r.ConversationID, "err", err)
		} else {
			detail = d
			detailFetched = true
			if d.HasDuration && d.DurationSeconds > 0 {
				duration = d.DurationSeconds
				hasDuration = true
			}
		}
		if hasDuration {
			status = campaign.LeadStatusCompleted
		} else {
			status = campaign.LeadStatusFailed
		}
	}

	rec, found, err := o.store.FindCallRecordByLead(ctx, camp.ID, lead.ID)
	if err != nil {
		log.Error("reconcile: call record lookup failed", "lead_id", lead.ID, "err", err)
		return
	}
	if !found {
		// Should have been created at submission; self-heal so the outcome is
		// not lost.
		rec = campaign.CallRecord{
			ID:          uuid.NewString(),
			WorkspaceID: camp.WorkspaceID,
			CampaignID:  camp.ID,
			LeadID:      lead.ID,
			Phone:       r.Phone,
			Status:      campaign.RecordStatusInitiated,
			BatchJobID:  jobID,
		}
		if err := o.store.CreateCallRecord(ctx, rec); err != nil {
			log.Error("reconcile: call record create failed", "lead_id", lead.ID, "err", err)
			return
		}
	}

	upd := campaign.CallRecordUpdate{}
	st := string(r.Outcome)
	upd.Status = &st
	if hasDuration && duration > 0 {
		upd.DurationSeconds = &duration
	}
	if rec.Phone == "" && r.Phone != "" {
		upd.Phone = &r.Phone
	}
	if rec.BatchJobID == "" && jobID != "" {
		upd.BatchJobID = &jobID
	}
	if rec.ConversationID == "" && r.ConversationID != "" {
		upd.ConversationID = &r.ConversationID
	}
	if err := o.store.UpdateCallRecord(ctx, rec.ID, upd); err != nil {
		log.Error("reconcile: call record update failed", "record_id", rec.ID, "err", err)
		return
	}

	leadUpd := campaign.LeadUpdate{Status: &status}
	if hasDuration && duration > 0 {
		leadUpd.CallDurationSeconds = &duration
	}
	if err := o.store.UpdateLead(ctx, lead.ID, leadUpd); err != nil {
		log.Error("reconcile: lead update failed", "lead_id", lead.ID, "err", err)
		return
	}

	// Transcript capture is best-effort and only meaningful for calls that ran.
	if tr.wantTranscript && status == campaign.LeadStatusCompleted && rec.Transcript == "" {
		if !detailFetched {
			d, err := o.dial.GetCallDetail(ctx, r.ConversationID)
			if err != nil {
				log.Warn("reconcile: transcript fetch failed", "conversation_id", r.ConversationID, "err", err)
				return
			}
			detail = d
		}
		if detail.Transcript != "" {
			if err := o.store.UpdateCallRecord(ctx, rec.ID, campaign.CallRecordUpdate{Transcript: &detail.Transcript}); err != nil {
				log.Warn("reconcile: transcript store failed", "record_id", rec.ID, "err", err)
			}
		}
	}
}
