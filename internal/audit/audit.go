// Package audit records security-relevant events to an append-only trail.
// Recording is best-effort: entries are buffered in process and written in
// batches by a background worker, and are dropped rather than blocking or
// failing the request that produced them.
package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Actions recorded in the trail.
const (
	ActionLogin         = "login"
	ActionLogout        = "logout"
	ActionTokenIssue    = "token_issue"
	ActionLegacyUpgrade = "legacy_upgrade"
	ActionAccess        = "access"
)

// Outcomes recorded in the trail.
const (
	OutcomeSuccess   = "success"
	OutcomeDenied    = "denied"
	OutcomeThrottled = "throttled"
	OutcomeError     = "error"
)

// Entry is one audit record.
type Entry struct {
	OccurredAt time.Time
	Actor      string
	Action     string
	Outcome    string
	Detail     string
}

// Recorder accepts entries. Implementations must not block the caller.
type Recorder interface {
	Record(ctx context.Context, e Entry)
}

// Repository persists entries.
type Repository interface {
	InsertEntries(ctx context.Context, entries []Entry) error
}

// TrailConfig contains trail worker configuration.
type TrailConfig struct {
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration
}

// DefaultTrailConfig returns default trail configuration.
func DefaultTrailConfig() TrailConfig {
	return TrailConfig{
		QueueSize:     1024,
		BatchSize:     64,
		FlushInterval: 2 * time.Second,
	}
}

// Trail buffers entries and writes them in batches from a background worker.
type Trail struct {
	config TrailConfig
	repo   Repository

	queue  chan Entry
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewTrail creates an audit trail writing to the given repository.
func NewTrail(config TrailConfig, repo Repository) *Trail {
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultTrailConfig().QueueSize
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultTrailConfig().BatchSize
	}
	if config.FlushInterval <= 0 {
		config.FlushInterval = DefaultTrailConfig().FlushInterval
	}
	return &Trail{
		config: config,
		repo:   repo,
		queue:  make(chan Entry, config.QueueSize),
		stopCh: make(chan struct{}),
	}
}

// Start launches the trail worker.
func (t *Trail) Start(ctx context.Context) {
	slog.Info("starting audit trail",
		"queue_size", t.config.QueueSize,
		"batch_size", t.config.BatchSize,
		"flush_interval", t.config.FlushInterval,
	)

	t.wg.Add(1)
	go t.run(ctx)
}

// Stop flushes buffered entries and stops the worker.
func (t *Trail) Stop() {
	close(t.stopCh)
	t.wg.Wait()
	slog.Info("audit trail stopped")
}

// Record enqueues an entry without blocking. The entry is dropped when the
// queue is full.
func (t *Trail) Record(_ context.Context, e Entry) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}

	select {
	case t.queue <- e:
		recordQueueDepth(len(t.queue))
	default:
		recordDropped()
		slog.Warn("audit queue full, dropping entry", "action", e.Action, "actor", e.Actor)
	}
}

func (t *Trail) run(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.config.FlushInterval)
	defer ticker.Stop()

	batch := make([]Entry, 0, t.config.BatchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		t.write(ctx, batch)
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case <-t.stopCh:
			t.drain(&batch)
			flush()
			return
		case e := <-t.queue:
			batch = append(batch, e)
			recordQueueDepth(len(t.queue))
			if len(batch) >= t.config.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

// drain moves any remaining queued entries into the batch on shutdown.
func (t *Trail) drain(batch *[]Entry) {
	for {
		select {
		case e := <-t.queue:
			*batch = append(*batch, e)
		default:
			return
		}
	}
}

func (t *Trail) write(ctx context.Context, entries []Entry) {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := t.repo.InsertEntries(writeCtx, entries); err != nil {
		slog.Error("failed to write audit entries", "count", len(entries), "error", err)
		return
	}
	recordWritten(len(entries))
}
