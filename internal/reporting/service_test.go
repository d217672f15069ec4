package reporting

import (
	"context"
	"errors"
	"testing"

	"outdial-platform/internal/campaign"
)

func seedStore(t *testing.T) *campaign.MemoryStore {
	t.Helper()
	store := campaign.NewMemoryStore()
	store.Campaigns["camp-1"] = campaign.Campaign{
		ID:          "camp-1",
		WorkspaceID: "ws-1",
		Name:        "Spring promo",
		Status:      campaign.StatusActive,
		BatchJobID:  "job-1",
	}

	leads := []campaign.Lead{
		{ID: "lead-1", CampaignID: "camp-1", Status: campaign.LeadStatusCompleted, CallDurationSeconds: 40},
		{ID: "lead-2", CampaignID: "camp-1", Status: campaign.LeadStatusCompleted, CallDurationSeconds: 20},
		{ID: "lead-3", CampaignID: "camp-1", Status: campaign.LeadStatusFailed},
		{ID: "lead-4", CampaignID: "camp-1", Status: campaign.LeadStatusNoAnswer},
		{ID: "lead-5", CampaignID: "camp-1", Status: campaign.LeadStatusCalling},
		{ID: "lead-6", CampaignID: "camp-1", Status: campaign.LeadStatusPending},
	}
	for _, l := range leads {
		store.Leads[l.ID] = l
	}

	d40, d20 := 40, 20
	records := []campaign.CallRecord{
		{ID: "rec-1", CampaignID: "camp-1", LeadID: "lead-1", Status: "ended", DurationSeconds: &d40},
		{ID: "rec-2", CampaignID: "camp-1", LeadID: "lead-2", Status: "completed", DurationSeconds: &d20},
		{ID: "rec-3", CampaignID: "camp-1", LeadID: "lead-3", Status: "failed"},
		{ID: "rec-4", CampaignID: "camp-1", LeadID: "lead-4", Status: "no_answer"},
	}
	for _, r := range records {
		store.Records[r.ID] = r
	}
	return store
}

func TestRecompute(t *testing.T) {
	store := seedStore(t)
	svc := NewService(store)

	counters, err := svc.Recompute(context.Background(), "camp-1")
	if err != nil {
		t.Fatalf("Recompute: %v", err)
	}

	if counters.TotalLeads != 6 {
		t.Fatalf("expected 6 total leads, got %d", counters.TotalLeads)
	}
	if counters.SuccessfulCalls != 2 {
		t.Fatalf("expected 2 successful, got %d", counters.SuccessfulCalls)
	}
	// no_answer counts as failed.
	if counters.FailedCalls != 2 {
		t.Fatalf("expected 2 failed, got %d", counters.FailedCalls)
	}
	if counters.CompletedCalls != counters.SuccessfulCalls+counters.FailedCalls {
		t.Fatalf("completed must equal successful+failed: %+v", counters)
	}
	// Only ended records with a positive duration feed the average: (40+20)/2.
	if counters.AverageDurationSeconds != 30 {
		t.Fatalf("expected average 30, got %d", counters.AverageDurationSeconds)
	}

	camp, _ := store.GetCampaign(context.Background(), "camp-1")
	if camp.CompletedCalls != 4 || camp.SuccessfulCalls != 2 || camp.FailedCalls != 2 {
		t.Fatalf("counters not persisted: %+v", camp)
	}
	if camp.Status != campaign.StatusActive {
		t.Fatalf("recompute must never touch lifecycle status, got %q", camp.Status)
	}
}

func TestRecomputeIsIdempotent(t *testing.T) {
	store := seedStore(t)
	svc := NewService(store)

	first, err := svc.Recompute(context.Background(), "camp-1")
	if err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	second, err := svc.Recompute(context.Background(), "camp-1")
	if err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if first != second {
		t.Fatalf("repeated recompute diverged: %+v vs %+v", first, second)
	}
}

func TestRecomputeNoDurations(t *testing.T) {
	store := campaign.NewMemoryStore()
	store.Campaigns["camp-1"] = campaign.Campaign{ID: "camp-1", WorkspaceID: "ws-1"}
	store.Leads["lead-1"] = campaign.Lead{ID: "lead-1", CampaignID: "camp-1", Status: campaign.LeadStatusFailed}
	store.Records["rec-1"] = campaign.CallRecord{ID: "rec-1", CampaignID: "camp-1", LeadID: "lead-1", Status: "failed"}

	counters, err := NewService(store).Recompute(context.Background(), "camp-1")
	if err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if counters.AverageDurationSeconds != 0 {
		t.Fatalf("expected zero average without samples, got %d", counters.AverageDurationSeconds)
	}
}

func TestRecomputeValidation(t *testing.T) {
	svc := NewService(campaign.NewMemoryStore())
	if _, err := svc.Recompute(context.Background(), ""); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	if _, err := svc.Recompute(context.Background(), "missing"); !errors.Is(err, campaign.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCampaignSummary(t *testing.T) {
	store := seedStore(t)
	svc := NewService(store)

	sum, err := svc.CampaignSummary(context.Background(), "camp-1")
	if err != nil {
		t.Fatalf("CampaignSummary: %v", err)
	}
	if sum.CampaignID != "camp-1" || sum.WorkspaceID != "ws-1" || sum.BatchJobID != "job-1" {
		t.Fatalf("unexpected identity fields: %+v", sum)
	}
	if sum.PendingLeads != 1 || sum.CallingLeads != 1 {
		t.Fatalf("unexpected in-flight breakdown: %+v", sum)
	}
	if sum.TotalDurationSeconds != 60 {
		t.Fatalf("expected total duration 60, got %d", sum.TotalDurationSeconds)
	}

	// The summary is a read model; it must not write counters back.
	camp, _ := store.GetCampaign(context.Background(), "camp-1")
	if camp.CompletedCalls != 0 {
		t.Fatalf("summary must not persist counters: %+v", camp)
	}
}
