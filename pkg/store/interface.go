// Package store persists tree session snapshots across restarts.
//
// The commitment tree core is a pure in-memory state machine; durable
// storage is this external collaborator's responsibility. All
// implementations must be safe for concurrent use.
package store

import (
	"errors"

	"github.com/junonet/juno-witness-go/pkg/tree"
)

// ErrNotFound is returned when no snapshot exists for a session.
var ErrNotFound = errors.New("snapshot not found")

// ErrClosed is returned after Close.
var ErrClosed = errors.New("store is closed")

// SnapshotStore persists tree snapshots keyed by session id.
type SnapshotStore interface {
	// SaveSnapshot persists a session snapshot, overwriting any previous one.
	SaveSnapshot(sessionID string, snap *tree.Snapshot) error

	// LoadSnapshot retrieves a session snapshot.
	// Returns ErrNotFound if the session has never been saved.
	LoadSnapshot(sessionID string) (*tree.Snapshot, error)

	// DeleteSnapshot removes a session snapshot. Idempotent.
	DeleteSnapshot(sessionID string) error

	// ListSessions returns the ids of all persisted sessions, sorted.
	ListSessions() ([]string, error)

	// Close releases the store's resources. Operations after Close fail
	// with ErrClosed.
	Close() error
}
