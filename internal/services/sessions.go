package services

import (
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// SessionManager owns the live editor sessions. Sessions are in-memory
// only: a session belongs to one interactive edit and simply dies with the
// process if abandoned.
type SessionManager struct {
	deps EditorDeps

	mu       sync.RWMutex
	sessions map[string]*EditorSession
}

func NewSessionManager(deps EditorDeps) *SessionManager {
	return &SessionManager{
		deps:     deps,
		sessions: make(map[string]*EditorSession),
	}
}

// Open normalizes the input into a new session and registers it. The
// returned session is in the loading phase with its first recalculation
// pending.
func (m *SessionManager) Open(input EditorInput) (*EditorSession, error) {
	id := uuid.NewString()
	s, err := NewEditorSession(id, input, m.deps)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	log.Printf("editor session opened: id=%s mode=%s stops=%d", id, s.Mode, len(s.View().Trip.Stops))
	return s, nil
}

func (m *SessionManager) Get(id string) (*EditorSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Close drops the session from the registry, rejecting it first if the
// caller has not already finalized it.
func (m *SessionManager) Close(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return
	}
	if !s.Closed() {
		s.Reject()
	}
	log.Printf("editor session closed: id=%s", id)
}
