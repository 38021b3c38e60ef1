// Package connectors holds the simulated evidence sources. Real collection
// would reach court portals and platform APIs; these sources generate
// realistic findings instead, seeded per subject so repeated searches for the
// same person agree.
package connectors

import (
	"context"
	"hash/fnv"
	"math/rand/v2"
	"time"
)

// Rand returns a deterministic generator for a subject. The same identifying
// fields always yield the same stream, which keeps scoring reproducible
// across searches.
func Rand(scope string, fields ...string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(scope))
	for _, f := range fields {
		h.Write([]byte{0})
		h.Write([]byte(f))
	}
	seed := h.Sum64()
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Pace blocks for d or until the context is cancelled. Connectors use it to
// make stage progress observable; tests pass zero.
func Pace(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// DaysAgo returns a timestamp n days before now, truncated to the day.
func DaysAgo(now time.Time, n int) time.Time {
	return now.AddDate(0, 0, -n).Truncate(24 * time.Hour)
}
