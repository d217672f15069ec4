package orchestrator

import (
	"context"
	"sync"
)

// Guard provides mutual exclusion per campaign across orchestration runs.
//
// The in-process implementation below is the documented single-instance
// default. Multi-instance deployments substitute RedisGuard without touching
// orchestrator logic.
type Guard interface {
	// TryAcquire reports whether the caller now owns the campaign. A false
	// return has no side effects.
	TryAcquire(ctx context.Context, campaignID string) (bool, error)
	Release(ctx context.Context, campaignID string) error
}

// InProcessGuard is a process-wide set of running campaign ids.
type InProcessGuard struct {
	mu      sync.Mutex
	running map[string]struct{}
}

func NewInProcessGuard() *InProcessGuard {
	return &InProcessGuard{running: map[string]struct{}{}}
}

func (g *InProcessGuard) TryAcquire(ctx context.Context, campaignID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, held := g.running[campaignID]; held {
		return false, nil
	}
	g.running[campaignID] = struct{}{}
	return true, nil
}

func (g *InProcessGuard) Release(ctx context.Context, campaignID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.running, campaignID)
	return nil
}
