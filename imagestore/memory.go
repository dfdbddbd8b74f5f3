package imagestore

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"
)

type memorySession struct {
	images    map[string][]byte
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory. Expired sessions are dropped
// on access and by Sweep.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*memorySession
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: map[string]*memorySession{}, now: time.Now}
}

func (s *MemoryStore) Save(_ context.Context, session string, images map[string][]byte, ttl time.Duration) error {
	if session == "" {
		return fmt.Errorf("imagestore: empty session")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[session]
	if !ok || s.now().After(entry.expiresAt) {
		entry = &memorySession{images: map[string][]byte{}}
		s.sessions[session] = entry
	}
	maps.Copy(entry.images, images)
	entry.expiresAt = s.now().Add(ttl)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, session, id string) ([]byte, error) {
	s.mu.RLock()
	entry, ok := s.sessions[session]
	if !ok {
		s.mu.RUnlock()
		return nil, ErrNotFound
	}
	if s.now().After(entry.expiresAt) {
		s.mu.RUnlock()
		s.dropExpired(session)
		return nil, ErrNotFound
	}
	data, ok := entry.images[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return data, nil
}

// dropExpired deletes session unless a Save refreshed it after the caller
// saw it expired.
func (s *MemoryStore) dropExpired(session string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[session]
	if !ok || !s.now().After(entry.expiresAt) {
		return false
	}
	delete(s.sessions, session)
	return true
}

// Sweep removes expired sessions and returns how many were dropped.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	now := s.now()
	for id, entry := range s.sessions {
		if now.After(entry.expiresAt) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (s *MemoryStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

var _ Store = (*MemoryStore)(nil)
