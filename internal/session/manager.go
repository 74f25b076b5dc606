package session

import (
	"fmt"
	"sync"
)

// Manager tracks all live sessions in one engine process
type Manager struct {
	sessions map[string]*Session // key: session_id
	byUser   map[string][]string // key: user_id, value: []session_id
	mu       sync.RWMutex
	maxCount int
}

// NewManager creates a new session manager
func NewManager(maxSessions int) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		byUser:   make(map[string][]string),
		maxCount: maxSessions,
	}
}

// Register adds a session
func (m *Manager) Register(s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Check max sessions
	if len(m.sessions) >= m.maxCount {
		return ErrMaxSessionsReached
	}

	// Check if session ID already exists
	if _, exists := m.sessions[s.ID]; exists {
		return fmt.Errorf("session ID %s already registered", s.ID)
	}

	m.sessions[s.ID] = s
	m.byUser[s.UserID] = append(m.byUser[s.UserID], s.ID)

	return nil
}

// Unregister removes a session. It does not stop the session; the
// caller owns that.
func (m *Manager) Unregister(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, exists := m.sessions[sessionID]
	if !exists {
		return fmt.Errorf("session ID %s not found", sessionID)
	}

	// Remove from user index
	userID := s.UserID
	if ids, ok := m.byUser[userID]; ok {
		for i, id := range ids {
			if id == sessionID {
				m.byUser[userID] = append(ids[:i], ids[i+1:]...)
				break
			}
		}
		// Clean up empty user entries
		if len(m.byUser[userID]) == 0 {
			delete(m.byUser, userID)
		}
	}

	delete(m.sessions, sessionID)

	return nil
}

// Get retrieves a session by ID
func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, exists := m.sessions[sessionID]
	return s, exists
}

// GetByUser retrieves all session IDs for a user
func (m *Manager) GetByUser(userID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := m.byUser[userID]
	// Return a copy to avoid race conditions
	result := make([]string, len(ids))
	copy(result, ids)
	return result
}

// All returns every registered session
func (m *Manager) All() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		result = append(result, s)
	}
	return result
}

// Count returns the number of live sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Stats returns statistics about the session manager
func (m *Manager) Stats() ManagerStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return ManagerStats{
		TotalSessions: len(m.sessions),
		UniqueUsers:   len(m.byUser),
		MaxSessions:   m.maxCount,
	}
}

// ManagerStats contains statistics about the session manager
type ManagerStats struct {
	TotalSessions int
	UniqueUsers   int
	MaxSessions   int
}

var (
	ErrMaxSessionsReached = &SessionError{"maximum sessions reached"}
)

// SessionError represents a session registry error
type SessionError struct {
	msg string
}

func (e *SessionError) Error() string {
	return e.msg
}
