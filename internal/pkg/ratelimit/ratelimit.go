// Package ratelimit provides a keyed token-bucket limiter.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// pruneAfter is how long an idle key is kept before its bucket is dropped.
const pruneAfter = 15 * time.Minute

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Keyed maintains an independent token bucket per key.
type Keyed struct {
	mu      sync.Mutex
	entries map[string]*entry
	limit   rate.Limit
	burst   int
}

// NewKeyed creates a keyed limiter allowing limit events per second with the
// given burst per key.
func NewKeyed(limit rate.Limit, burst int) *Keyed {
	return &Keyed{
		entries: make(map[string]*entry),
		limit:   limit,
		burst:   burst,
	}
}

// Allow reports whether an event is permitted for the key right now.
func (k *Keyed) Allow(key string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := time.Now()

	e, ok := k.entries[key]
	if !ok {
		k.prune(now)
		e = &entry{limiter: rate.NewLimiter(k.limit, k.burst)}
		k.entries[key] = e
	}
	e.lastSeen = now

	return e.limiter.Allow()
}

// prune drops buckets idle longer than pruneAfter. Caller holds the lock.
func (k *Keyed) prune(now time.Time) {
	for key, e := range k.entries {
		if now.Sub(e.lastSeen) > pruneAfter {
			delete(k.entries, key)
		}
	}
}
