package session

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/me/rrsched/internal/scheduler"
)

// DefaultMaxSessions bounds live sessions when no limit is given.
const DefaultMaxSessions = 64

// Manager tracks live sessions by ID.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	max      int
	recorder Recorder
	logger   *slog.Logger
}

// NewManager creates a Manager that records executed sessions with rec
// (which may be nil) and holds at most max sessions.
func NewManager(rec Recorder, max int, logger *slog.Logger) *Manager {
	if max <= 0 {
		max = DefaultMaxSessions
	}
	return &Manager{
		sessions: make(map[string]*Session),
		max:      max,
		recorder: rec,
		logger:   logger.With("component", "session"),
	}
}

// Create configures a new session with quantum. An invalid quantum returns
// a *model.ConfigError.
func (m *Manager) Create(quantum int) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sessions) >= m.max {
		return nil, ErrTooManySessions
	}

	id := "sess_" + uuid.New().String()
	logger := m.logger.With("session_id", id)
	sched, err := scheduler.New(quantum, scheduler.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	s := &Session{
		id:        id,
		createdAt: time.Now().UTC(),
		sched:     sched,
		recorder:  m.recorder,
		logger:    logger,
		state:     StateOpen,
		done:      make(chan struct{}),
	}
	m.sessions[id] = s
	logger.Info("session created", "quantum", quantum)
	return s, nil
}

// Get returns the session with id or ErrNotFound.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Delete removes a session, stopping its execution if one is running.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	if s.cancel() {
		<-s.done
	}
	m.logger.Info("session deleted", "session_id", id)
	return nil
}

// List returns every session's info, oldest first.
func (m *Manager) List() []Info {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	infos := make([]Info, len(sessions))
	for i, s := range sessions {
		infos[i] = s.Info()
	}
	slices.SortFunc(infos, func(a, b Info) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return infos
}

// Close stops every executing session and waits for their runs to be
// recorded.
func (m *Manager) Close() {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	for _, s := range sessions {
		if s.cancel() {
			<-s.done
		}
	}
}
