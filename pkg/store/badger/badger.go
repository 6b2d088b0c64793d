package badger

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	badgerdb "github.com/dgraph-io/badger/v3"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/junonet/juno-witness-go/pkg/store"
	"github.com/junonet/juno-witness-go/pkg/tree"
)

// Key layout
const (
	keyPrefixSnapshot    = "snapshot:"
	keySchemaVersion     = "metadata:schema_version"
	currentSchemaVersion = "v1"
)

// BadgerStore is a durable SnapshotStore backed by Badger. Writes are
// synced so a crash after SaveSnapshot never loses the snapshot.
type BadgerStore struct {
	db       *badgerdb.DB
	logger   *zap.Logger
	gcCancel context.CancelFunc
	gcWg     sync.WaitGroup
	mu       sync.RWMutex
	closed   bool
}

// NewBadgerStore opens (or creates) a Badger-backed snapshot store at the
// given path and starts a background value-log GC goroutine.
func NewBadgerStore(dataPath string, logger *zap.Logger) (*BadgerStore, error) {
	absPath, err := filepath.Abs(dataPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve absolute path")
	}

	opts := badgerdb.DefaultOptions(absPath)
	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.SyncWrites = true
	opts.CompactL0OnClose = true
	opts.NumVersionsToKeep = 1

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open badger database at %s", absPath)
	}

	bs := &BadgerStore{
		db:     db,
		logger: logger,
	}

	if err := bs.initSchema(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to initialize schema")
	}

	ctx, cancel := context.WithCancel(context.Background())
	bs.gcCancel = cancel
	bs.gcWg.Add(1)
	go bs.runGC(ctx)

	logger.Sugar().Infow("Badger snapshot store initialized", "path", absPath)

	return bs, nil
}

func (b *BadgerStore) initSchema() error {
	return b.db.Update(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(keySchemaVersion))
		if err == badgerdb.ErrKeyNotFound {
			return txn.Set([]byte(keySchemaVersion), []byte(currentSchemaVersion))
		}
		if err != nil {
			return errors.Wrap(err, "failed to read schema version")
		}

		var existing string
		err = item.Value(func(val []byte) error {
			existing = string(val)
			return nil
		})
		if err != nil {
			return err
		}
		if existing != currentSchemaVersion {
			return fmt.Errorf("incompatible schema version %q (expected %q)", existing, currentSchemaVersion)
		}
		return nil
	})
}

// runGC runs periodic value-log garbage collection.
func (b *BadgerStore) runGC(ctx context.Context) {
	defer b.gcWg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			err := b.db.RunValueLogGC(0.5)
			if err != nil && err != badgerdb.ErrNoRewrite {
				b.logger.Sugar().Warnw("Badger GC failed", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// SaveSnapshot persists a session snapshot, overwriting any previous one.
func (b *BadgerStore) SaveSnapshot(sessionID string, snap *tree.Snapshot) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return store.ErrClosed
	}

	data, err := store.MarshalSnapshot(snap)
	if err != nil {
		return err
	}

	err = b.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(snapshotKey(sessionID), data)
	})
	return errors.Wrapf(err, "failed to save snapshot for session %s", sessionID)
}

// LoadSnapshot retrieves a session snapshot.
func (b *BadgerStore) LoadSnapshot(sessionID string) (*tree.Snapshot, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, store.ErrClosed
	}

	var data []byte
	err := b.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(snapshotKey(sessionID))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err == badgerdb.ErrKeyNotFound {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load snapshot for session %s", sessionID)
	}

	return store.UnmarshalSnapshot(data)
}

// DeleteSnapshot removes a session snapshot. Idempotent.
func (b *BadgerStore) DeleteSnapshot(sessionID string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return store.ErrClosed
	}

	err := b.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Delete(snapshotKey(sessionID))
	})
	return errors.Wrapf(err, "failed to delete snapshot for session %s", sessionID)
}

// ListSessions returns all persisted session ids, sorted.
func (b *BadgerStore) ListSessions() ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, store.ErrClosed
	}

	var ids []string
	err := b.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefixSnapshot)

		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			ids = append(ids, strings.TrimPrefix(key, keyPrefixSnapshot))
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list sessions")
	}
	sort.Strings(ids)
	return ids, nil
}

// Close stops the GC goroutine and closes the database.
func (b *BadgerStore) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	b.gcCancel()
	b.gcWg.Wait()
	return b.db.Close()
}

func snapshotKey(sessionID string) []byte {
	return []byte(keyPrefixSnapshot + sessionID)
}
