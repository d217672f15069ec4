package orchestrator

import (
	"context"
	"log/slog"

	"outdial-platform/internal/campaign"
)

// The backfill pass exists because the provider's detailed call data is
// eventually consistent: durations and transcripts are often still missing at
// the moment the batch reports a terminal status. Both sweeps run once after
// termination and are best-effort per record.

// backfillDurations fills missing durations from call details and propagates
// them to the owning lead.
func (o *Orchestrator) backfillDurations(ctx context.Context, camp campaign.Campaign, log *slog.Logger) {
	records, err := o.store.ListCallRecords(ctx, camp.ID)
	if err != nil {
		log.Error("duration backfill: record listing failed", "err", err)
		return
	}

	for _, rec := range records {
		if rec.ConversationID == "" {
			continue
		}
		if rec.DurationSeconds != nil && *rec.DurationSeconds > 0 {
			continue
		}

		detail, err := o.dial.GetCallDetail(ctx, rec.ConversationID)
		if err != nil {
			log.Warn("duration backfill: detail fetch failed", "record_id", rec.ID, "conversation_id", rec.ConversationID, "err", err)
			continue
		}
		if !detail.HasDuration || detail.DurationSeconds <= 0 {
			continue
		}

		duration := detail.DurationSeconds
		if err := o.store.UpdateCallRecord(ctx, rec.ID, campaign.CallRecordUpdate{DurationSeconds: &duration}); err != nil {
			log.Warn("duration backfill: record update failed", "record_id", rec.ID, "err", err)
			continue
		}
		if rec.LeadID != "" {
			if err := o.store.UpdateLead(ctx, rec.LeadID, campaign.LeadUpdate{CallDurationSeconds: &duration}); err != nil {
				log.Warn("duration backfill: lead update failed", "lead_id", rec.LeadID, "err", err)
			}
		}
	}
}

// backfillTranscripts fetches transcripts for records that still lack one.
func (o *Orchestrator) backfillTranscripts(ctx context.Context, camp campaign.Campaign, log *slog.Logger) {
	records, err := o.store.ListCallRecords(ctx, camp.ID)
	if err != nil {
		log.Error("transcript backfill: record listing failed", "err", err)
		return
	}

	for _, rec := range records {
		if rec.ConversationID == "" || rec.Transcript != "" {
			continue
		}

		detail, err := o.dial.GetCallDetail(ctx, rec.ConversationID)
		if err != nil {
			log.Warn("transcript backfill: detail fetch failed", "record_id", rec.ID, "conversation_id", rec.ConversationID, "err", err)
			continue
		}
		if detail.Transcript == "" {
			continue
		}

		transcript := detail.Transcript
		if err := o.store.UpdateCallRecord(ctx, rec.ID, campaign.CallRecordUpdate{Transcript: &transcript}); err != nil {
			log.Warn("transcript backfill: record update failed", "record_id", rec.ID, "err", err)
		}
	}
}
