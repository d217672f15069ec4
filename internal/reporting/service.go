package reporting

import (
	"context"
	"errors"

	"outdial-platform/internal/campaign"
	"outdial-platform/internal/dialer"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Service recomputes campaign statistics from source-of-truth lead and
// call-record state.
//
// IMPORTANT:
// - This service is the ONLY writer of the denormalized campaign counters.
//   Reconciliation and backfill never increment them; recomputing from truth
//   is what keeps the two mutation sites from drifting.
// - Recompute is idempotent and safe mid-run: it reads current state and
//   writes derived numbers, never lifecycle status.

type Service struct {
	store campaign.Store
}

func NewService(store campaign.Store) *Service { return &Service{store: store} }

// Recompute derives the campaign counters and writes them back.
//
// completed = leads that reached any terminal outcome (successful + failed);
// the average duration considers only completed call records with a positive
// duration.
func (s *Service) Recompute(ctx context.Context, campaignID string) (campaign.Counters, error) {
	if campaignID == "" {
		return campaign.Counters{}, ErrInvalidRequest
	}
	if s.store == nil {
		return campaign.Counters{}, errors.New("reporting: store not configured")
	}

	counters, _, err := s.derive(ctx, campaignID)
	if err != nil {
		return campaign.Counters{}, err
	}
	if err := s.store.UpdateCampaignCounters(ctx, campaignID, counters); err != nil {
		return campaign.Counters{}, err
	}
	return counters, nil
}

// CampaignSummary builds the dashboard read model without writing anything.
func (s *Service) CampaignSummary(ctx context.Context, campaignID string) (CampaignSummary, error) {
	if campaignID == "" {
		return CampaignSummary{}, ErrInvalidRequest
	}
	if s.store == nil {
		return CampaignSummary{}, errors.New("reporting: store not configured")
	}

	camp, err := s.store.GetCampaign(ctx, campaignID)
	if err != nil {
		return CampaignSummary{}, err
	}
	counters, extra, err := s.derive(ctx, campaignID)
	if err != nil {
		return CampaignSummary{}, err
	}

	return CampaignSummary{
		CampaignID:             camp.ID,
		WorkspaceID:            camp.WorkspaceID,
		Name:                   camp.Name,
		Status:                 camp.Status,
		BatchJobID:             camp.BatchJobID,
		TotalLeads:             counters.TotalLeads,
		PendingLeads:           extra.pending,
		CallingLeads:           extra.calling,
		CompletedCalls:         counters.CompletedCalls,
		SuccessfulCalls:        counters.SuccessfulCalls,
		FailedCalls:            counters.FailedCalls,
		AverageDurationSeconds: counters.AverageDurationSeconds,
		TotalDurationSeconds:   extra.totalDuration,
	}, nil
}

type derivedExtra struct {
	pending       int
	calling       int
	totalDuration int
}

func (s *Service) derive(ctx context.Context, campaignID string) (campaign.Counters, derivedExtra, error) {
	leads, err := s.store.ListLeads(ctx, campaignID, "")
	if err != nil {
		return campaign.Counters{}, derivedExtra{}, err
	}
	records, err := s.store.ListCallRecords(ctx, campaignID)
	if err != nil {
		return campaign.Counters{}, derivedExtra{}, err
	}

	var c campaign.Counters
	var extra derivedExtra
	c.TotalLeads = len(leads)
	for _, l := range leads {
		switch l.Status {
		case campaign.LeadStatusPending:
			extra.pending++
		case campaign.LeadStatusCalling:
			extra.calling++
		case campaign.LeadStatusCompleted:
			c.SuccessfulCalls++
		case campaign.LeadStatusFailed, campaign.LeadStatusNoAnswer:
			c.FailedCalls++
		}
	}
	c.CompletedCalls = c.SuccessfulCalls + c.FailedCalls

	durationSamples := 0
	for _, r := range records {
		if r.DurationSeconds == nil || *r.DurationSeconds <= 0 {
			continue
		}
		if dialer.NormalizeOutcome(r.Status) != dialer.OutcomeEnded {
			continue
		}
		extra.totalDuration += *r.DurationSeconds
		durationSamples++
	}
	if durationSamples > 0 {
		c.AverageDurationSeconds = extra.totalDuration / durationSamples
	}

	return c, extra, nil
}
