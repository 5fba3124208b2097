package session

import (
	"context"
	"sync"
	"time"

	"github.com/wardsuite/clinic-desk/internal/domain"
)

const sweepInterval = time.Minute

// MemoryStore keeps sessions in process memory. Suitable for a single
// instance; use the redis store when running more than one replica.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore creates a memory store and starts its expiry sweeper.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[string]domain.Session),
		stopCh:   make(chan struct{}),
	}
	go s.sweep()
	return s
}

// Put stores the session under its token.
func (s *MemoryStore) Put(_ context.Context, sess domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.Token] = sess
	return nil
}

// Get returns the session for the token, or nil when unknown.
func (s *MemoryStore) Get(_ context.Context, token string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[token]
	if !ok {
		return nil, nil
	}
	return &sess, nil
}

// Delete removes the session for the token.
func (s *MemoryStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

// Len returns the number of stored sessions, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close stops the expiry sweeper.
func (s *MemoryStore) Close() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

func (s *MemoryStore) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.removeExpired(time.Now().UTC())
		}
	}
}

func (s *MemoryStore) removeExpired(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, token)
		}
	}
}
