package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"outdial-platform/internal/audit"
	"outdial-platform/internal/campaign"
	"outdial-platform/internal/dialer"

	"github.com/google/uuid"
)

// Errors surfaced synchronously from Start. Everything after submission is
// handled inside the run goroutine; there is no caller left to report to.
var (
	ErrAlreadyRunning        = errors.New("orchestrator: campaign run already in progress")
	ErrNoPendingLeads        = errors.New("orchestrator: campaign has no pending leads")
	ErrProviderMisconfigured = errors.New("orchestrator: calling provider not configured")
)

// StatsRecomputer recomputes a campaign's denormalized counters from lead and
// call-record truth. Implemented by reporting.Service.
type StatsRecomputer interface {
	Recompute(ctx context.Context, campaignID string) (campaign.Counters, error)
}

// Config carries the polling knobs. Zero values fall back to the reference
// cadence: a 30s tick under a 1h wall-clock ceiling.
type Config struct {
	PollInterval time.Duration
	MaxWait      time.Duration
}

func (c Config) withDefaults() Config {
	out := c
	if out.PollInterval <= 0 {
		out.PollInterval = 30 * time.Second
	}
	if out.MaxWait <= 0 {
		out.MaxWait = time.Hour
	}
	return out
}

// Orchestrator drives a campaign's batch-calling lifecycle: precondition
// checks, all-or-nothing submission, the polling loop, reconciliation,
// backfill and finalization. One orchestration run owns a campaign at a time,
// enforced by the Guard.
type Orchestrator struct {
	store campaign.Store
	dial  dialer.BatchDialer
	guard Guard
	stats StatsRecomputer
	runs  *audit.Service // optional

	cfg   Config
	log   *slog.Logger
	clock func() time.Time

	// wg tracks detached run goroutines so shutdown and tests can wait for
	// them to drain.
	wg sync.WaitGroup
}

func New(store campaign.Store, dial dialer.BatchDialer, guard Guard, stats StatsRecomputer, runs *audit.Service, cfg Config, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		store: store,
		dial:  dial,
		guard: guard,
		stats: stats,
		runs:  runs,
		cfg:   cfg.withDefaults(),
		log:   log,
		clock: time.Now,
	}
}

// Wait blocks until every detached run goroutine has finished.
func (o *Orchestrator) Wait() { o.wg.Wait() }

type preparedLead struct {
	lead     campaign.Lead
	recordID string
}

// Start begins one orchestration run for a campaign.
//
// Preconditions, checked in order: guard free, campaign exists, at least one
// pending lead, provider configured. Each failure is surfaced synchronously
// with no side effects.
//
// On success the batch is submitted, the campaign becomes active, and Start
// returns while a detached goroutine polls the batch to completion. A failed
// submission rolls every touched lead back to pending and releases the guard.
func (o *Orchestrator) Start(ctx context.Context, campaignID string) error {
	acquired, err := o.guard.TryAcquire(ctx, campaignID)
	if err != nil {
		return fmt.Errorf("orchestrator: guard acquire: %w", err)
	}
	if !acquired {
		return ErrAlreadyRunning
	}
	release := func() {
		if err := o.guard.Release(ctx, campaignID); err != nil {
			o.log.Error("guard release failed", "campaign_id", campaignID, "err", err)
		}
	}

	camp, err := o.store.GetCampaign(ctx, campaignID)
	if err != nil {
		release()
		return err
	}

	pending, err := o.store.ListLeads(ctx, campaignID, campaign.LeadStatusPending)
	if err != nil {
		release()
		return err
	}
	if len(pending) == 0 {
		release()
		return ErrNoPendingLeads
	}

	if err := o.dial.HealthCheck(ctx); err != nil {
		release()
		return fmt.Errorf("%w: %v", ErrProviderMisconfigured, err)
	}

	log := o.log.With("campaign_id", campaignID)

	// Pair every pending lead with one call record and move it to calling.
	// Any failure mid-way rolls back the whole preparation.
	prepared := make([]preparedLead, 0, len(pending))
	recipients := make([]dialer.Recipient, 0, len(pending))
	for _, l := range pending {
		rec := campaign.CallRecord{
			ID:          uuid.NewString(),
			WorkspaceID: camp.WorkspaceID,
			CampaignID:  campaignID,
			LeadID:      l.ID,
			Phone:       l.Phone,
			Status:      campaign.RecordStatusInitiated,
		}
		if err := o.store.CreateCallRecord(ctx, rec); err != nil {
			o.rollback(ctx, prepared, log)
			release()
			return fmt.Errorf("orchestrator: call record create: %w", err)
		}
		calling := campaign.LeadStatusCalling
		if err := o.store.UpdateLead(ctx, l.ID, campaign.LeadUpdate{Status: &calling}); err != nil {
			// The freshly created record has no calling lead; cancel it along
			// with the rest of the preparation.
			prepared = append(prepared, preparedLead{lead: l, recordID: rec.ID})
			o.rollback(ctx, prepared, log)
			release()
			return fmt.Errorf("orchestrator: lead update: %w", err)
		}
		prepared = append(prepared, preparedLead{lead: l, recordID: rec.ID})
		recipients = append(recipients, dialer.Recipient{Phone: l.Phone, LeadID: l.ID})
	}

	res, err := o.dial.SubmitBatch(ctx, dialer.SubmitBatchRequest{
		JobName:    fmt.Sprintf("%s %s", camp.Name, o.clock().UTC().Format("2006-01-02 15:04")),
		Recipients: recipients,
	})
	if err != nil {
		o.rollback(ctx, prepared, log)
		release()
		return fmt.Errorf("orchestrator: batch submit: %w", err)
	}

	if err := o.store.SetCampaignBatch(ctx, campaignID, campaign.StatusActive, res.JobID); err != nil {
		// The batch is already in flight at the provider; keep tracking it with
		// the in-memory job id rather than orphaning the run.
		log.Error("campaign activation write failed; continuing with in-memory job id", "batch_job_id", res.JobID, "err", err)
	}
	for _, p := range prepared {
		jobID := res.JobID
		if err := o.store.UpdateCallRecord(ctx, p.recordID, campaign.CallRecordUpdate{BatchJobID: &jobID}); err != nil {
			log.Warn("job id stamp failed", "record_id", p.recordID, "err", err)
		}
	}

	o.logRun(ctx, audit.EventTypeRunStarted, camp, res.JobID, fmt.Sprintf("batch submitted with %d recipients", len(recipients)))
	log.Info("batch submitted", "batch_job_id", res.JobID, "recipients", len(recipients))

	// The run outlives the Start caller; detach from its cancellation but keep
	// its values (request-scoped logger etc).
	runCtx := context.WithoutCancel(ctx)
	o.wg.Add(1)
	go o.run(runCtx, camp, res.JobID, log.With("batch_job_id", res.JobID))

	return nil
}

// rollback restores every prepared lead to pending and cancels its call
// record. Best-effort per lead: one failed write must not strand the rest.
func (o *Orchestrator) rollback(ctx context.Context, prepared []preparedLead, log *slog.Logger) {
	pendingStatus := campaign.LeadStatusPending
	cancelled := campaign.RecordStatusCancelled
	for _, p := range prepared {
		if err := o.store.UpdateLead(ctx, p.lead.ID, campaign.LeadUpdate{Status: &pendingStatus}); err != nil {
			log.Error("rollback: lead restore failed", "lead_id", p.lead.ID, "err", err)
		}
		if err := o.store.UpdateCallRecord(ctx, p.recordID, campaign.CallRecordUpdate{Status: &cancelled}); err != nil {
			log.Error("rollback: record cancel failed", "record_id", p.recordID, "err", err)
		}
	}
}

// run owns the polling loop for one submitted batch. It always releases the
// guard on exit, whatever path got it there.
func (o *Orchestrator) run(ctx context.Context, camp campaign.Campaign, jobID string, log *slog.Logger) {
	defer o.wg.Done()
	defer func() {
		if err := o.guard.Release(ctx, camp.ID); err != nil {
			log.Error("guard release failed", "err", err)
		}
	}()

	deadline := o.clock().Add(o.cfg.MaxWait)
	ticker := time.NewTicker(o.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Warn("run cancelled before batch termination")
			return
		case <-ticker.C:
		}

		if o.clock().After(deadline) {
			// Abandoned, not failed: the campaign keeps whatever partial state
			// was reconciled, and operators pick it up from the run event.
			log.Warn("polling ceiling exceeded; abandoning run", "max_wait", o.cfg.MaxWait.String())
			o.logRun(ctx, audit.EventTypeRunAbandoned, camp, jobID, "batch did not reach a terminal status before the polling ceiling")
			return
		}

		snap, err := o.dial.GetBatchStatus(ctx, jobID)
		if err != nil {
			// Provider flakiness is expected; the next tick retries.
			log.Warn("batch status fetch failed; retrying next tick", "err", err)
			continue
		}

		o.reconcile(ctx, camp, jobID, snap, log)
		o.recompute(ctx, camp.ID, log)

		if snap.State.IsTerminal() {
			o.finish(ctx, camp, jobID, log)
			return
		}
	}
}

// finish runs the backfill pass, refreshes statistics and finalizes the
// campaign status.
func (o *Orchestrator) finish(ctx context.Context, camp campaign.Campaign, jobID string, log *slog.Logger) {
	o.backfillDurations(ctx, camp, log)
	o.backfillTranscripts(ctx, camp, log)
	o.recompute(ctx, camp.ID, log)

	leads, err := o.store.ListLeads(ctx, camp.ID, "")
	if err != nil {
		log.Error("finalize: lead listing failed", "err", err)
		return
	}
	anyCompleted := false
	for _, l := range leads {
		if l.Status == campaign.LeadStatusCompleted {
			anyCompleted = true
			break
		}
	}

	final := campaign.StatusFailed
	eventType := audit.EventTypeRunFailed
	if anyCompleted {
		final = campaign.StatusCompleted
		eventType = audit.EventTypeRunCompleted
	}
	if err := o.store.UpdateCampaignStatus(ctx, camp.ID, final); err != nil {
		log.Error("finalize: campaign status write failed", "status", final, "err", err)
		return
	}
	o.logRun(ctx, eventType, camp, jobID, "batch reached terminal status")
	log.Info("campaign finalized", "status", final)
}

func (o *Orchestrator) recompute(ctx context.Context, campaignID string, log *slog.Logger) {
	if o.stats == nil {
		return
	}
	if _, err := o.stats.Recompute(ctx, campaignID); err != nil {
		log.Warn("statistics recompute failed", "err", err)
	}
}

func (o *Orchestrator) logRun(ctx context.Context, typ audit.EventType, camp campaign.Campaign, jobID, message string) {
	if o.runs == nil {
		return
	}
	if err := o.runs.LogRun(ctx, typ, camp.WorkspaceID, camp.ID, jobID, message); err != nil {
		o.log.Warn("run event append failed", "campaign_id", camp.ID, "type", string(typ), "err", err)
	}
}
