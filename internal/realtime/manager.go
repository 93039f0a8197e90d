package realtime

import (
	"context"
	"sync"

	"fridge-app-go/pkg/logger"
)

// Manager owns the live sessions of every user so sign-out can close them
// all at once.
type Manager struct {
	hub     *Hub
	loader  Loader
	log     logger.Logger
	metrics Metrics

	mu       sync.Mutex
	sessions map[string]map[*Session]struct{}
}

func NewManager(hub *Hub, loader Loader, log logger.Logger, metrics Metrics) *Manager {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Manager{
		hub:      hub,
		loader:   loader,
		log:      log,
		metrics:  metrics,
		sessions: make(map[string]map[*Session]struct{}),
	}
}

// Open starts a session for userID. The caller must Close it.
func (m *Manager) Open(ctx context.Context, userID string) *Session {
	session := newSession(ctx, userID, m.hub, m.loader, m.log, m.metrics)
	session.onClose = m.forget

	m.mu.Lock()
	sessions, ok := m.sessions[userID]
	if !ok {
		sessions = make(map[*Session]struct{})
		m.sessions[userID] = sessions
	}
	sessions[session] = struct{}{}
	m.mu.Unlock()

	go session.run()
	m.log.Debug("realtime.session: opened", "session_id", session.ID(), "user_id", userID)
	return session
}

// CloseUser closes every session of userID and reports how many were open.
func (m *Manager) CloseUser(userID string) int {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions[userID]))
	for session := range m.sessions[userID] {
		sessions = append(sessions, session)
	}
	m.mu.Unlock()

	for _, session := range sessions {
		session.Close()
	}
	return len(sessions)
}

func (m *Manager) ActiveSessions(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions[userID])
}

func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := make([]*Session, 0)
	for _, byUser := range m.sessions {
		for session := range byUser {
			sessions = append(sessions, session)
		}
	}
	m.mu.Unlock()

	for _, session := range sessions {
		session.Close()
	}
}

func (m *Manager) forget(session *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sessions := m.sessions[session.UserID()]
	delete(sessions, session)
	if len(sessions) == 0 {
		delete(m.sessions, session.UserID())
	}
	m.log.Debug("realtime.session: closed", "session_id", session.ID(), "user_id", session.UserID())
}
