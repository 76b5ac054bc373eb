package service

import (
	"sync"

	"github.com/dom/snake-arena/internal/domain"
)

// SessionStore is the fast-path mirror of live sessions. The persisted
// repository is the source of truth for completed sessions; this store only
// exists so resolving a hot session never touches the database.
type SessionStore interface {
	Get(id string) (*domain.LiveSession, bool)
	Set(session *domain.LiveSession)
	Delete(id string)
	// Sweep deletes every session the predicate matches and returns how
	// many were removed.
	Sweep(match func(*domain.LiveSession) bool) int
}

type memorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.LiveSession
}

func NewMemorySessionStore() SessionStore {
	return &memorySessionStore{sessions: make(map[string]*domain.LiveSession)}
}

func (s *memorySessionStore) Get(id string) (*domain.LiveSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	copied := *session
	return &copied, true
}

func (s *memorySessionStore) Set(session *domain.LiveSession) {
	copied := *session
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = &copied
}

func (s *memorySessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func (s *memorySessionStore) Sweep(match func(*domain.LiveSession) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, session := range s.sessions {
		if match(session) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}
