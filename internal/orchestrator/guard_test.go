package orchestrator

import (
	"context"
	"sync"
	"testing"
)

func TestInProcessGuard_MutualExclusion(t *testing.T) {
	g := NewInProcessGuard()
	ctx := context.Background()

	ok, err := g.TryAcquire(ctx, "c1")
	if err != nil || !ok {
		t.Fatalf("expected first acquire to succeed, got ok=%v err=%v", ok, err)
	}
	ok, err = g.TryAcquire(ctx, "c1")
	if err != nil || ok {
		t.Fatalf("expected second acquire to fail, got ok=%v err=%v", ok, err)
	}

	// A different campaign is unaffected.
	ok, _ = g.TryAcquire(ctx, "c2")
	if !ok {
		t.Fatalf("expected unrelated campaign acquire to succeed")
	}

	if err := g.Release(ctx, "c1"); err != nil {
		t.Fatalf("release: %v", err)
	}
	ok, _ = g.TryAcquire(ctx, "c1")
	if !ok {
		t.Fatalf("expected acquire after release to succeed")
	}
}

func TestInProcessGuard_ConcurrentAcquireGrantsExactlyOne(t *testing.T) {
	g := NewInProcessGuard()
	ctx := context.Background()

	const n = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	granted := 0

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := g.TryAcquire(ctx, "c1")
			if err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			if ok {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if granted != 1 {
		t.Fatalf("expected exactly one grant, got %d", granted)
	}
}
