package session

import (
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/pdrpinto/gridastar"
)

// Manager owns the live sessions.
type Manager struct {
	rows, cols int
	policy     gridastar.FrontierPolicy
	opts       []Option

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// NewManager creates sessions with rows x cols grids searched with policy.
func NewManager(rows, cols int, policy gridastar.FrontierPolicy, opts ...Option) *Manager {
	return &Manager{
		rows:     rows,
		cols:     cols,
		policy:   policy,
		opts:     opts,
		sessions: make(map[uuid.UUID]*Session),
	}
}

func (m *Manager) Create() (*Session, error) {
	s, err := New(m.rows, m.cols, m.policy, m.opts...)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	log.WithFields(log.Fields{"session": s.ID.String(), "rows": m.rows, "cols": m.cols}).Info("session created")
	return s, nil
}

func (m *Manager) Get(id uuid.UUID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (m *Manager) Remove(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	log.WithField("session", id.String()).Info("session removed")
	return nil
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
