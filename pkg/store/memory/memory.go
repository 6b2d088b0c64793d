package memory

import (
	"sort"
	"sync"

	"github.com/junonet/juno-witness-go/pkg/store"
	"github.com/junonet/juno-witness-go/pkg/tree"
)

// MemoryStore is an in-memory SnapshotStore. All data is lost when the
// process exits, so it is only suitable for tests and throwaway sessions.
// Snapshots are kept in serialized form so callers can never mutate a stored
// snapshot through a retained pointer.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string][]byte
	closed    bool
}

// NewMemoryStore creates an empty in-memory snapshot store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: make(map[string][]byte)}
}

// SaveSnapshot persists a session snapshot, overwriting any previous one.
func (m *MemoryStore) SaveSnapshot(sessionID string, snap *tree.Snapshot) error {
	data, err := store.MarshalSnapshot(snap)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return store.ErrClosed
	}
	m.snapshots[sessionID] = data
	return nil
}

// LoadSnapshot retrieves a session snapshot.
func (m *MemoryStore) LoadSnapshot(sessionID string) (*tree.Snapshot, error) {
	m.mu.RLock()
	data, ok := m.snapshots[sessionID]
	closed := m.closed
	m.mu.RUnlock()

	if closed {
		return nil, store.ErrClosed
	}
	if !ok {
		return nil, store.ErrNotFound
	}
	return store.UnmarshalSnapshot(data)
}

// DeleteSnapshot removes a session snapshot.
func (m *MemoryStore) DeleteSnapshot(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return store.ErrClosed
	}
	delete(m.snapshots, sessionID)
	return nil
}

// ListSessions returns all persisted session ids, sorted.
func (m *MemoryStore) ListSessions() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, store.ErrClosed
	}

	ids := make([]string, 0, len(m.snapshots))
	for id := range m.snapshots {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Close marks the store closed.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.snapshots = nil
	return nil
}
