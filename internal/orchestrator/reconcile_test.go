package orchestrator

import (
	"testing"

	"outdial-platform/internal/campaign"
	"outdial-platform/internal/dialer"
)

func TestPlanTransition_MappingTable(t *testing.T) {
	cases := []struct {
		name    string
		rec     dialer.RecipientStatus
		current campaign.LeadStatus

		wantApply  bool
		wantStatus campaign.LeadStatus
		wantDetail bool
	}{
		{
			name:       "dialing moves pending to calling",
			rec:        dialer.RecipientStatus{Outcome: dialer.OutcomeDialing},
			current:    campaign.LeadStatusPending,
			wantApply:  true,
			wantStatus: campaign.LeadStatusCalling,
		},
		{
			name:      "dialing is a no-op for a lead already calling",
			rec:       dialer.RecipientStatus{Outcome: dialer.OutcomeDialing},
			current:   campaign.LeadStatusCalling,
			wantApply: false,
		},
		{
			name:       "ended with positive duration completes",
			rec:        dialer.RecipientStatus{Outcome: dialer.OutcomeEnded, DurationSeconds: 42, HasDuration: true},
			current:    campaign.LeadStatusCalling,
			wantApply:  true,
			wantStatus: campaign.LeadStatusCompleted,
		},
		{
			name:       "ended with zero duration and no conversation fails",
			rec:        dialer.RecipientStatus{Outcome: dialer.OutcomeEnded, DurationSeconds: 0, HasDuration: true},
			current:    campaign.LeadStatusCalling,
			wantApply:  true,
			wantStatus: campaign.LeadStatusFailed,
		},
		{
			name:       "ended without duration but with conversation defers to detail",
			rec:        dialer.RecipientStatus{Outcome: dialer.OutcomeEnded, ConversationID: "conv-1"},
			current:    campaign.LeadStatusCalling,
			wantApply:  true,
			wantDetail: true,
		},
		{
			name:      "ended without duration is a no-op for a completed lead",
			rec:       dialer.RecipientStatus{Outcome: dialer.OutcomeEnded, ConversationID: "conv-1"},
			current:   campaign.LeadStatusCompleted,
			wantApply: false,
		},
		{
			name:      "ended without duration is a no-op for a failed lead",
			rec:       dialer.RecipientStatus{Outcome: dialer.OutcomeEnded},
			current:   campaign.LeadStatusFailed,
			wantApply: false,
		},
		{
			name:       "failed maps to failed",
			rec:        dialer.RecipientStatus{Outcome: dialer.OutcomeFailed},
			current:    campaign.LeadStatusCalling,
			wantApply:  true,
			wantStatus: campaign.LeadStatusFailed,
		},
		{
			name:      "unknown outcome leaves the lead untouched",
			rec:       dialer.RecipientStatus{Outcome: dialer.OutcomeUnknown},
			current:   campaign.LeadStatusCalling,
			wantApply: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr, apply := planTransition(tc.rec, tc.current)
			if apply != tc.wantApply {
				t.Fatalf("apply = %v, want %v", apply, tc.wantApply)
			}
			if !apply {
				return
			}
			if tr.needsDetail != tc.wantDetail {
				t.Fatalf("needsDetail = %v, want %v", tr.needsDetail, tc.wantDetail)
			}
			if !tr.needsDetail && tr.leadStatus != tc.wantStatus {
				t.Fatalf("status = %q, want %q", tr.leadStatus, tc.wantStatus)
			}
		})
	}
}

func TestPlanTransition_TerminalStatesAreSticky(t *testing.T) {
	for _, terminal := range []campaign.LeadStatus{
		campaign.LeadStatusCompleted,
		campaign.LeadStatusFailed,
		campaign.LeadStatusNoAnswer,
	} {
		_, apply := planTransition(dialer.RecipientStatus{Outcome: dialer.OutcomeDialing}, terminal)
		if apply {
			t.Fatalf("expected dialing snapshot to be ignored for terminal status %q", terminal)
		}
		_, apply = planTransition(dialer.RecipientStatus{Outcome: dialer.OutcomeEnded, ConversationID: "conv-1"}, terminal)
		if apply {
			t.Fatalf("expected duration-less ended snapshot to be ignored for terminal status %q", terminal)
		}
	}
}

func TestPlanTransition_Idempotent(t *testing.T) {
	rec := dialer.RecipientStatus{Outcome: dialer.OutcomeEnded, DurationSeconds: 30, HasDuration: true}

	first, applyFirst := planTransition(rec, campaign.LeadStatusCalling)
	if !applyFirst {
		t.Fatalf("expected first application")
	}
	// Applying the same snapshot against the resulting state plans the same
	// terminal transition again; the write converges instead of accumulating.
	second, applySecond := planTransition(rec, first.leadStatus)
	if !applySecond {
		t.Fatalf("expected convergent re-application")
	}
	if second != first {
		t.Fatalf("expected identical plan, got %+v then %+v", first, second)
	}
}
