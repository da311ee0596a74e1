// Package storage keeps the in-memory review sessions behind the serve API.
// Nothing is persisted; restarting the server loses open sessions.
package storage

import (
	"sync"

	"github.com/prairie-archives/nerbench/internal/models"
)

type SessionStore struct {
	sessions map[string]*models.ReviewSession
	mu       sync.RWMutex
}

func New() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*models.ReviewSession),
	}
}

func (s *SessionStore) Get(sessionID string) (*models.ReviewSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, exists := s.sessions[sessionID]
	return session, exists
}

func (s *SessionStore) Set(sessionID string, session *models.ReviewSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = session
}

func (s *SessionStore) GetAll() map[string]*models.ReviewSession {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*models.ReviewSession, len(s.sessions))
	for k, v := range s.sessions {
		result[k] = v
	}
	return result
}

func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}
