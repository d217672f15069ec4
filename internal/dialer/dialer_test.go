package dialer

import "testing"

func TestNormalizeBatchState(t *testing.T) {
	cases := []struct {
		raw  string
		want BatchState
	}{
		{"pending", BatchStatePending},
		{"queued", BatchStatePending},
		{"scheduled", BatchStatePending},
		{"in_progress", BatchStateInProgress},
		{"processing", BatchStateInProgress},
		{"running", BatchStateInProgress},
		{"completed", BatchStateCompleted},
		{"done", BatchStateCompleted},
		{"finished", BatchStateCompleted},
		{"failed", BatchStateFailed},
		{"cancelled", BatchStateFailed},
		{"canceled", BatchStateFailed},
		{"error", BatchStateFailed},
		{"  Completed  ", BatchStateCompleted},
		{"IN_PROGRESS", BatchStateInProgress},
		{"", BatchStateUnknown},
		{"something-new", BatchStateUnknown},
	}
	for _, tc := range cases {
		if got := NormalizeBatchState(tc.raw); got != tc.want {
			t.Errorf("NormalizeBatchState(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestNormalizeOutcome(t *testing.T) {
	cases := []struct {
		raw  string
		want CallOutcome
	}{
		{"pending", OutcomeDialing},
		{"queued", OutcomeDialing},
		{"initiated", OutcomeDialing},
		{"in_progress", OutcomeDialing},
		{"calling", OutcomeDialing},
		{"ringing", OutcomeDialing},
		{"completed", OutcomeEnded},
		{"ended", OutcomeEnded},
		{"done", OutcomeEnded},
		{"failed", OutcomeFailed},
		{"cancelled", OutcomeFailed},
		{"canceled", OutcomeFailed},
		{"no_answer", OutcomeFailed},
		{"busy", OutcomeFailed},
		{"voicemail_failed", OutcomeFailed},
		{"Completed", OutcomeEnded},
		{" failed ", OutcomeFailed},
		{"", OutcomeUnknown},
		{"weird-vendor-state", OutcomeUnknown},
	}
	for _, tc := range cases {
		if got := NormalizeOutcome(tc.raw); got != tc.want {
			t.Errorf("NormalizeOutcome(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestBatchStateIsTerminal(t *testing.T) {
	terminal := map[BatchState]bool{
		BatchStatePending:    false,
		BatchStateInProgress: false,
		BatchStateCompleted:  true,
		BatchStateFailed:     true,
		BatchStateUnknown:    false,
	}
	for state, want := range terminal {
		if got := state.IsTerminal(); got != want {
			t.Errorf("%q.IsTerminal() = %v, want %v", state, got, want)
		}
	}
}
