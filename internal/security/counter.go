// Package security holds the fixed-window counters behind request rate
// limiting and the client address normalization used to key them.
package security

import (
	"context"
	"time"
)

// Hit is the state of a key's current window after one increment.
type Hit struct {
	Count   int
	ResetAt time.Time
}

// Counter counts events per key in fixed windows. Increment is atomic per
// key: two concurrent calls never observe the same Count.
type Counter interface {
	Increment(ctx context.Context, key string, window time.Duration) (Hit, error)
	Reset(ctx context.Context, key string) error
}
