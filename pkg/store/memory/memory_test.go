package memory

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/junonet/juno-witness-go/pkg/store"
	"github.com/junonet/juno-witness-go/pkg/tree"
)

func testSnapshot(t *testing.T, numLeaves int) *tree.Snapshot {
	t.Helper()
	tr := tree.NewTree()
	for i := 0; i < numLeaves; i++ {
		var leaf tree.Node
		_, err := rand.Read(leaf[:])
		require.NoError(t, err)
		require.NoError(t, tr.Append(leaf))
	}
	return tr.Snapshot()
}

func TestSaveLoadRoundTrip(t *testing.T) {
	m := NewMemoryStore()
	snap := testSnapshot(t, 6)

	require.NoError(t, m.SaveSnapshot("default", snap))

	got, err := m.LoadSnapshot("default")
	require.NoError(t, err)
	require.Equal(t, snap, got)
}

func TestLoadMissing(t *testing.T) {
	m := NewMemoryStore()
	_, err := m.LoadSnapshot("nope")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestSaveOverwrites(t *testing.T) {
	m := NewMemoryStore()
	require.NoError(t, m.SaveSnapshot("s", testSnapshot(t, 2)))

	bigger := testSnapshot(t, 5)
	require.NoError(t, m.SaveSnapshot("s", bigger))

	got, err := m.LoadSnapshot("s")
	require.NoError(t, err)
	require.Equal(t, uint64(5), got.Size)
}

func TestDeleteIdempotent(t *testing.T) {
	m := NewMemoryStore()
	require.NoError(t, m.SaveSnapshot("s", testSnapshot(t, 1)))

	require.NoError(t, m.DeleteSnapshot("s"))
	require.NoError(t, m.DeleteSnapshot("s"))

	_, err := m.LoadSnapshot("s")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestListSessionsSorted(t *testing.T) {
	m := NewMemoryStore()
	for _, id := range []string{"charlie", "alpha", "bravo"} {
		require.NoError(t, m.SaveSnapshot(id, testSnapshot(t, 1)))
	}

	ids, err := m.ListSessions()
	require.NoError(t, err)
	require.Equal(t, []string{"alpha", "bravo", "charlie"}, ids)
}

func TestClosedStore(t *testing.T) {
	m := NewMemoryStore()
	require.NoError(t, m.SaveSnapshot("s", testSnapshot(t, 1)))
	require.NoError(t, m.Close())

	require.ErrorIs(t, m.SaveSnapshot("s", testSnapshot(t, 1)), store.ErrClosed)
	_, err := m.LoadSnapshot("s")
	require.ErrorIs(t, err, store.ErrClosed)
	require.ErrorIs(t, m.DeleteSnapshot("s"), store.ErrClosed)
	_, err = m.ListSessions()
	require.ErrorIs(t, err, store.ErrClosed)
}

// MemoryStore must satisfy the SnapshotStore contract.
var _ store.SnapshotStore = (*MemoryStore)(nil)
