package utils

import (
	"context"
	"testing"
	"time"
)

func TestLeaseReleaseScriptCompiles(t *testing.T) {
	// Compile-time smoke test: the script should be initialized.
	if leaseReleaseScript == nil {
		t.Fatalf("expected script to be initialized")
	}
}

func TestAcquireLeaseValidatesInput(t *testing.T) {
	ctx := context.Background()
	if _, err := AcquireLease(ctx, nil, "k", "o", time.Minute); err == nil {
		t.Fatalf("expected error for nil client")
	}
	if err := ReleaseLease(ctx, nil, "k", "o"); err == nil {
		t.Fatalf("expected error for nil client")
	}
}
