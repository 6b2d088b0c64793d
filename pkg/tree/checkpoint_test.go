package tree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckpointImmediateRewind(t *testing.T) {
	testCases := []struct {
		name      string
		numLeaves int
	}{
		{"Empty tree", 0},
		{"One leaf", 1},
		{"Five leaves", 5},
		{"Sixteen leaves", 16},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tr := NewTree()
			require.NoError(t, tr.AppendAll(randomLeaves(tc.numLeaves)))

			before := tr.Root()
			id := tr.Checkpoint()
			require.NoError(t, tr.Rewind(id))
			require.Equal(t, before, tr.Root())
			require.Equal(t, uint64(tc.numLeaves), tr.Size())
		})
	}
}

func TestRewindDiscardsLaterAppends(t *testing.T) {
	leaves := randomLeaves(12)
	tr := NewTree()
	require.NoError(t, tr.AppendAll(leaves[:7]))
	rootAt7 := tr.Root()

	id := tr.Checkpoint()
	require.NoError(t, tr.AppendAll(leaves[7:]))
	require.NotEqual(t, rootAt7, tr.Root())

	require.NoError(t, tr.Rewind(id))
	require.Equal(t, uint64(7), tr.Size())
	require.Equal(t, rootAt7, tr.Root())

	// The tree keeps working after a rewind.
	require.NoError(t, tr.Append(randomLeaf()))
	require.Equal(t, uint64(8), tr.Size())
}

func TestRewindToEmptyTree(t *testing.T) {
	tr := NewTree()
	id := tr.Checkpoint()

	require.NoError(t, tr.AppendAll(randomLeaves(30)))
	require.NoError(t, tr.Rewind(id))

	require.Equal(t, uint64(0), tr.Size())
	require.Equal(t, EmptyRoot(Depth), tr.Root())
}

func TestRewindUnknownCheckpoint(t *testing.T) {
	tr := NewTree()
	require.NoError(t, tr.Append(randomLeaf()))

	require.ErrorIs(t, tr.Rewind(42), ErrUnknownCheckpoint)
	require.Equal(t, uint64(1), tr.Size())
}

func TestRewindInvalidatesLaterCheckpoints(t *testing.T) {
	tr := NewTree()
	require.NoError(t, tr.AppendAll(randomLeaves(3)))
	first := tr.Checkpoint()

	require.NoError(t, tr.AppendAll(randomLeaves(3)))
	second := tr.Checkpoint()

	require.NoError(t, tr.AppendAll(randomLeaves(3)))
	third := tr.Checkpoint()

	require.NoError(t, tr.Rewind(second))
	require.ErrorIs(t, tr.Rewind(third), ErrUnknownCheckpoint)

	// The rewound-to checkpoint and earlier ones stay valid.
	require.NoError(t, tr.Rewind(second))
	require.NoError(t, tr.Rewind(first))
	require.Equal(t, uint64(3), tr.Size())
}

// TestRewindPreservesEarlierWitnesses is the reorg scenario: witnesses for
// positions that existed before the rewound appends must survive and keep
// verifying against the restored root.
func TestRewindPreservesEarlierWitnesses(t *testing.T) {
	leaves := randomLeaves(10)
	tr := NewTree()
	require.NoError(t, tr.AppendAll(leaves[:6]))
	require.NoError(t, tr.TrackAll([]uint64{1, 4}))

	id := tr.Checkpoint()
	require.NoError(t, tr.AppendAll(leaves[6:]))
	require.NoError(t, tr.Track(8))

	require.NoError(t, tr.Rewind(id))

	// Tracking added after the checkpoint is gone.
	require.Equal(t, []uint64{1, 4}, tr.Tracked())
	_, err := tr.Witness(8)
	require.ErrorIs(t, err, ErrNotTracked)

	root := tr.Root()
	for _, p := range []uint64{1, 4} {
		path, err := tr.Witness(p)
		require.NoError(t, err)
		require.Equal(t, naiveAuthPath(leaves[:6], p), path)
		require.True(t, VerifyWitness(leaves[p], p, path, root))
	}
}

func TestRewindRestoresUntrackedPositions(t *testing.T) {
	tr := NewTree()
	require.NoError(t, tr.AppendAll(randomLeaves(4)))
	require.NoError(t, tr.Track(2))

	id := tr.Checkpoint()
	require.NoError(t, tr.Untrack(2))
	require.False(t, tr.IsTracked(2))

	require.NoError(t, tr.Rewind(id))
	require.True(t, tr.IsTracked(2))
}

func TestCheckpointIdsAreUnique(t *testing.T) {
	tr := NewTree()
	seen := make(map[uint64]bool)
	for i := 0; i < 20; i++ {
		require.NoError(t, tr.Append(randomLeaf()))
		id := tr.Checkpoint()
		require.False(t, seen[id], "checkpoint id %d reissued", id)
		seen[id] = true
	}
}
