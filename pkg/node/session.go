package node

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/junonet/juno-witness-go/pkg/query"
	"github.com/junonet/juno-witness-go/pkg/store"
	"github.com/junonet/juno-witness-go/pkg/tree"
)

// DefaultSessionID names the session used when a request carries no
// session id.
const DefaultSessionID = "default"

// Session is one independent commitment tree with its query engine. There is
// no process-global tree; every caller addresses a session explicitly.
type Session struct {
	ID     string
	Tree   *tree.CommitmentTree
	Engine *query.Engine
}

func newSession(id string, t *tree.CommitmentTree) *Session {
	return &Session{ID: id, Tree: t, Engine: query.NewEngine(t)}
}

// SessionManager owns the set of live tree sessions and their persistence.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	store    store.SnapshotStore
	logger   *zap.Logger
}

// NewSessionManager creates a manager backed by the given snapshot store.
func NewSessionManager(st store.SnapshotStore, logger *zap.Logger) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		store:    st,
		logger:   logger,
	}
}

// Restore loads every persisted session from the store and guarantees the
// default session exists.
func (m *SessionManager) Restore() error {
	ids, err := m.store.ListSessions()
	if err != nil {
		return errors.Wrap(err, "failed to list persisted sessions")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range ids {
		snap, err := m.store.LoadSnapshot(id)
		if err != nil {
			return errors.Wrapf(err, "failed to load session %s", id)
		}
		t, err := tree.FromSnapshot(snap)
		if err != nil {
			return errors.Wrapf(err, "failed to rebuild session %s", id)
		}
		m.sessions[id] = newSession(id, t)
		m.logger.Sugar().Infow("Restored session", "session_id", id, "size", t.Size(), "tracked", len(t.Tracked()))
	}

	if _, ok := m.sessions[DefaultSessionID]; !ok {
		m.sessions[DefaultSessionID] = newSession(DefaultSessionID, tree.NewTree())
	}
	return nil
}

// Create starts a new empty session with a fresh uuid.
func (m *SessionManager) Create() *Session {
	s := newSession(uuid.NewString(), tree.NewTree())

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.logger.Sugar().Infow("Created session", "session_id", s.ID)
	return s
}

// Get resolves a session id; an empty id means the default session.
func (m *SessionManager) Get(id string) (*Session, bool) {
	if id == "" {
		id = DefaultSessionID
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// List returns all live session ids, sorted.
func (m *SessionManager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Persist writes a session's snapshot to the store.
func (m *SessionManager) Persist(s *Session) error {
	return errors.Wrapf(m.store.SaveSnapshot(s.ID, s.Tree.Snapshot()), "failed to persist session %s", s.ID)
}

// PersistAll writes every live session's snapshot, used at shutdown.
func (m *SessionManager) PersistAll() error {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	for _, s := range sessions {
		if err := m.Persist(s); err != nil {
			return err
		}
	}
	return nil
}
