package security

import (
	"context"
	"sync"
	"testing"
	"time"
)

func newTestCounter(start time.Time) (*MemoryCounter, *time.Time) {
	clock := start
	c := NewMemoryCounter()
	c.now = func() time.Time { return clock }
	return c, &clock
}

func TestMemoryCounterWindow(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c, clock := newTestCounter(start)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		hit, err := c.Increment(ctx, "k", time.Minute)
		if err != nil {
			t.Fatalf("Increment failed: %v", err)
		}
		if hit.Count != i {
			t.Errorf("hit %d: count = %d", i, hit.Count)
		}
		if !hit.ResetAt.Equal(start.Add(time.Minute)) {
			t.Errorf("hit %d: reset = %v", i, hit.ResetAt)
		}
	}

	// Other keys have their own window.
	if hit, _ := c.Increment(ctx, "other", time.Minute); hit.Count != 1 {
		t.Errorf("other key count = %d, want 1", hit.Count)
	}

	*clock = start.Add(59 * time.Second)
	if hit, _ := c.Increment(ctx, "k", time.Minute); hit.Count != 4 {
		t.Errorf("count before expiry = %d, want 4", hit.Count)
	}

	*clock = start.Add(time.Minute)
	hit, _ := c.Increment(ctx, "k", time.Minute)
	if hit.Count != 1 {
		t.Errorf("count after expiry = %d, want 1", hit.Count)
	}
	if !hit.ResetAt.Equal(start.Add(2 * time.Minute)) {
		t.Errorf("new window reset = %v", hit.ResetAt)
	}
}

func TestMemoryCounterReset(t *testing.T) {
	c, _ := newTestCounter(time.Now())
	ctx := context.Background()

	c.Increment(ctx, "k", time.Hour)
	c.Increment(ctx, "k", time.Hour)
	if err := c.Reset(ctx, "k"); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if hit, _ := c.Increment(ctx, "k", time.Hour); hit.Count != 1 {
		t.Errorf("count after reset = %d, want 1", hit.Count)
	}
}

func TestMemoryCounterSweep(t *testing.T) {
	start := time.Now()
	c, clock := newTestCounter(start)
	ctx := context.Background()

	c.Increment(ctx, "short", time.Second)
	c.Increment(ctx, "long", time.Hour)

	*clock = start.Add(2 * time.Second)
	if removed := c.Sweep(); removed != 1 {
		t.Errorf("Sweep removed %d, want 1", removed)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestMemoryCounterConcurrent(t *testing.T) {
	c := NewMemoryCounter()
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	seen := make([]bool, n+1)
	var mu sync.Mutex

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hit, err := c.Increment(ctx, "k", time.Hour)
			if err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if hit.Count < 1 || hit.Count > n || seen[hit.Count] {
				t.Errorf("count %d observed twice or out of range", hit.Count)
				return
			}
			seen[hit.Count] = true
		}()
	}
	wg.Wait()
}

func TestMemoryCounterRunStops(t *testing.T) {
	c := NewMemoryCounter()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx, time.Millisecond) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
