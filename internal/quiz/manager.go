package quiz

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/tvetlabs/tvet-platform/internal/event"
)

// Manager owns the live sessions. It is constructed and torn down by the
// host application; nothing here is ambient state.
type Manager struct {
	provider Provider
	history  History
	bus      *event.Bus
	log      logrus.FieldLogger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(p Provider, h History, b *event.Bus, log logrus.FieldLogger) *Manager {
	return &Manager{
		provider: p,
		history:  h,
		bus:      b,
		log:      log,
		sessions: map[string]*Session{},
	}
}

// Start loads the quiz definition and begins a fresh attempt.
func (m *Manager) Start(ctx context.Context, quizType string, opts Options) (*Session, error) {
	qz, err := m.provider.Load(ctx, quizType)
	if err != nil {
		return nil, err
	}
	s := newSession(qz, m.history, m.bus, opts, m.log)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	s.start()
	m.log.WithFields(logrus.Fields{
		"session_id": s.ID,
		"quiz_id":    qz.ID,
		"questions":  len(qz.Questions),
	}).Info("quiz session started")
	return s, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Close ends a session and forgets it. Unknown IDs are a no-op so that
// closing is idempotent for callers.
func (m *Manager) Close(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.Close()
	}
}

// CloseAll tears down every live session. Called on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = map[string]*Session{}
	m.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
}
