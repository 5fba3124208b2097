package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyed_BurstThenDeny(t *testing.T) {
	k := NewKeyed(1.0/3600, 2)

	assert.True(t, k.Allow("alice"))
	assert.True(t, k.Allow("alice"))
	assert.False(t, k.Allow("alice"))
}

func TestKeyed_IndependentBuckets(t *testing.T) {
	k := NewKeyed(1.0/3600, 1)

	assert.True(t, k.Allow("alice"))
	assert.False(t, k.Allow("alice"))
	assert.True(t, k.Allow("bob"))
}

func TestKeyed_PruneDropsIdleKeys(t *testing.T) {
	k := NewKeyed(1.0/3600, 1)

	assert.True(t, k.Allow("stale"))
	k.entries["stale"].lastSeen = time.Now().Add(-pruneAfter - time.Minute)

	// Creating a new bucket triggers the prune pass.
	assert.True(t, k.Allow("fresh"))
	_, ok := k.entries["stale"]
	assert.False(t, ok)

	// The pruned key starts over with a full bucket.
	assert.True(t, k.Allow("stale"))
}
