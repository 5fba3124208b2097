package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	mu        sync.Mutex
	entries   []Entry
	insertErr error
}

func (m *mockRepository) InsertEntries(_ context.Context, entries []Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	m.entries = append(m.entries, entries...)
	return nil
}

func (m *mockRepository) all() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

func TestTrail_WritesOnStop(t *testing.T) {
	repo := &mockRepository{}
	trail := NewTrail(TrailConfig{QueueSize: 16, BatchSize: 8, FlushInterval: time.Hour}, repo)
	trail.Start(context.Background())

	for i := 0; i < 3; i++ {
		trail.Record(context.Background(), Entry{Actor: "admin", Action: ActionLogin, Outcome: OutcomeSuccess})
	}
	trail.Stop()

	entries := repo.all()
	require.Len(t, entries, 3)
	for _, e := range entries {
		assert.Equal(t, "admin", e.Actor)
		assert.Equal(t, ActionLogin, e.Action)
		assert.False(t, e.OccurredAt.IsZero())
	}
}

func TestTrail_FlushesFullBatch(t *testing.T) {
	repo := &mockRepository{}
	trail := NewTrail(TrailConfig{QueueSize: 16, BatchSize: 2, FlushInterval: time.Hour}, repo)
	trail.Start(context.Background())
	defer trail.Stop()

	trail.Record(context.Background(), Entry{Actor: "a", Action: ActionLogin, Outcome: OutcomeSuccess})
	trail.Record(context.Background(), Entry{Actor: "b", Action: ActionLogin, Outcome: OutcomeDenied})

	// The worker flushes as soon as the batch fills.
	require.Eventually(t, func() bool {
		return len(repo.all()) == 2
	}, time.Second, 10*time.Millisecond)
}

func TestTrail_FlushesOnInterval(t *testing.T) {
	repo := &mockRepository{}
	trail := NewTrail(TrailConfig{QueueSize: 16, BatchSize: 64, FlushInterval: 20 * time.Millisecond}, repo)
	trail.Start(context.Background())
	defer trail.Stop()

	trail.Record(context.Background(), Entry{Actor: "a", Action: ActionLogout, Outcome: OutcomeSuccess})

	require.Eventually(t, func() bool {
		return len(repo.all()) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestTrail_DropsWhenQueueFull(t *testing.T) {
	repo := &mockRepository{}
	// No worker started, so the queue only drains by capacity.
	trail := NewTrail(TrailConfig{QueueSize: 2, BatchSize: 64, FlushInterval: time.Hour}, repo)

	for i := 0; i < 5; i++ {
		trail.Record(context.Background(), Entry{Actor: "a", Action: ActionLogin, Outcome: OutcomeSuccess})
	}

	// Record never blocks; the overflow is discarded.
	assert.Len(t, trail.queue, 2)
}

func TestTrail_WriteErrorDoesNotStopWorker(t *testing.T) {
	repo := &mockRepository{insertErr: errors.New("database down")}
	trail := NewTrail(TrailConfig{QueueSize: 16, BatchSize: 1, FlushInterval: time.Hour}, repo)
	trail.Start(context.Background())

	trail.Record(context.Background(), Entry{Actor: "a", Action: ActionLogin, Outcome: OutcomeError})
	time.Sleep(50 * time.Millisecond)

	// Recovery: subsequent entries are written once the repository heals.
	repo.mu.Lock()
	repo.insertErr = nil
	repo.mu.Unlock()

	trail.Record(context.Background(), Entry{Actor: "b", Action: ActionLogin, Outcome: OutcomeSuccess})
	require.Eventually(t, func() bool {
		return len(repo.all()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, "b", repo.all()[0].Actor)

	trail.Stop()
}
