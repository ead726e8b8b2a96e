package session

import (
	"sync"
)

// Manager tracks every live Session by client id. One Manager serves the
// whole gateway process.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager returns an empty Manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Add registers a newly created session. A second Add for the same client id
// replaces the first without closing it; callers are expected to generate
// unique ids (see NextClientID).
func (m *Manager) Add(s *Session) {
	m.mu.Lock()
	m.sessions[s.ClientID] = s
	m.mu.Unlock()
}

// Get returns the session for clientID, if still connected.
func (m *Manager) Get(clientID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[clientID]
	return s, ok
}

// Remove drops clientID from the registry. It does not close the session;
// callers must Close it themselves before or after removal.
func (m *Manager) Remove(clientID string) {
	m.mu.Lock()
	delete(m.sessions, clientID)
	m.mu.Unlock()
}

// Len reports how many sessions are currently tracked.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
