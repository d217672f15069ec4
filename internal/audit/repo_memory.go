package audit

import (
	"context"
	"errors"
	"sync"
)

// MemoryRepo is a simple in-memory run-event repository for tests and early
// development. It enforces workspace isolation on reads.

type MemoryRepo struct {
	mu     sync.Mutex
	Events []Event
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) Append(ctx context.Context, e Event) error {
	if e.WorkspaceID == "" {
		return errors.New("workspace_id required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, e)
	return nil
}

func (r *MemoryRepo) ListByCampaign(ctx context.Context, workspaceID, campaignID string) ([]Event, error) {
	if workspaceID == "" {
		return nil, errors.New("workspace_id required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, 0)
	for _, e := range r.Events {
		if e.WorkspaceID != workspaceID || e.CampaignID != campaignID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
