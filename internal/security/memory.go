package security

import (
	"context"
	"sync"
	"time"
)

type fixedWindow struct {
	count   int
	resetAt time.Time
}

// MemoryCounter is a process-local Counter. Windows are lost on restart and
// are not shared between instances.
type MemoryCounter struct {
	mu      sync.Mutex
	windows map[string]*fixedWindow
	now     func() time.Time
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{
		windows: make(map[string]*fixedWindow),
		now:     time.Now,
	}
}

func (c *MemoryCounter) Increment(_ context.Context, key string, window time.Duration) (Hit, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	w, ok := c.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &fixedWindow{resetAt: now.Add(window)}
		c.windows[key] = w
	}
	w.count++

	return Hit{Count: w.count, ResetAt: w.resetAt}, nil
}

func (c *MemoryCounter) Reset(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.windows, key)
	return nil
}

// Sweep drops every expired window and returns how many were removed.
func (c *MemoryCounter) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, w := range c.windows {
		if !now.Before(w.resetAt) {
			delete(c.windows, key)
			removed++
		}
	}
	return removed
}

// Run sweeps expired windows every interval until ctx is done.
func (c *MemoryCounter) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.Sweep()
		}
	}
}

// Len reports how many windows are tracked.
func (c *MemoryCounter) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.windows)
}
