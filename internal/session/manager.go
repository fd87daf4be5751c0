package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager tracks live recording sessions, one per open tab.
type Manager struct {
	deps   Deps
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Controller
}

// NewManager creates a session manager.
func NewManager(deps Deps, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{deps: deps, logger: logger, sessions: make(map[string]*Controller)}
}

// Create registers a new idle session bound to the page's websocket client.
func (m *Manager) Create(clientID string) *Controller {
	c := NewController(uuid.New().String(), clientID, m.deps)
	m.mu.Lock()
	m.sessions[c.ID()] = c
	m.mu.Unlock()
	m.logger.Debug("session created", zap.String("session_id", c.ID()))
	return c
}

// Get returns a live session, or nil.
func (m *Manager) Get(id string) *Controller {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id]
}

// Remove drops a session and releases its resources.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	c := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if c != nil {
		c.Close()
	}
}

// RunJanitor evicts sessions idle longer than ttl until ctx is done. A page
// navigating away is the only abort path for a session, and this is where its
// resources are finally released.
func (m *Manager) RunJanitor(ctx context.Context, ttl time.Duration) {
	ticker := time.NewTicker(ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.evictIdle(ttl)
		}
	}
}

func (m *Manager) evictIdle(ttl time.Duration) {
	cutoff := time.Now().Add(-ttl)
	m.mu.Lock()
	var stale []*Controller
	for id, c := range m.sessions {
		if c.IdleSince().Before(cutoff) {
			stale = append(stale, c)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()
	for _, c := range stale {
		c.Close()
		m.logger.Info("idle session evicted", zap.String("session_id", c.ID()))
	}
}
