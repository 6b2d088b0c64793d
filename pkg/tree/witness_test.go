package tree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrackRequiresAppendedLeaf(t *testing.T) {
	tr := NewTree()
	require.ErrorIs(t, tr.Track(0), ErrInvalidPosition)

	require.NoError(t, tr.Append(randomLeaf()))
	require.NoError(t, tr.Track(0))
	require.ErrorIs(t, tr.Track(1), ErrInvalidPosition)
}

func TestWitnessNotTracked(t *testing.T) {
	tr := NewTree()
	require.NoError(t, tr.Append(randomLeaf()))

	_, err := tr.Witness(0)
	require.ErrorIs(t, err, ErrNotTracked)
}

// TestWitnessSingleLeaf covers the first tracked note in a fresh tree: every
// path entry is the empty-subtree value at its level, and the path hashes
// back to the root.
func TestWitnessSingleLeaf(t *testing.T) {
	leaf := randomLeaf()
	tr := NewTree()
	require.NoError(t, tr.Append(leaf))
	require.NoError(t, tr.Track(0))

	path, err := tr.Witness(0)
	require.NoError(t, err)
	require.Len(t, path, Depth)
	for level, sibling := range path {
		require.Equal(t, EmptyRoot(level), sibling, "level %d", level)
	}
	require.True(t, VerifyWitness(leaf, 0, path, tr.Root()))
}

// TestWitnessTwoLeaves covers immediate siblings: each leaf's level-0 entry
// is the other leaf.
func TestWitnessTwoLeaves(t *testing.T) {
	l0, l1 := randomLeaf(), randomLeaf()
	tr := NewTree()
	require.NoError(t, tr.Append(l0))
	require.NoError(t, tr.Append(l1))
	require.NoError(t, tr.Track(0))
	require.NoError(t, tr.Track(1))

	path0, err := tr.Witness(0)
	require.NoError(t, err)
	require.Equal(t, l1, path0[0])

	path1, err := tr.Witness(1)
	require.NoError(t, err)
	require.Equal(t, l0, path1[0])

	root := tr.Root()
	require.True(t, VerifyWitness(l0, 0, path0, root))
	require.True(t, VerifyWitness(l1, 1, path1, root))
}

func TestWitnessLengthInvariant(t *testing.T) {
	tr := NewTree()
	for i := 0; i < 40; i++ {
		require.NoError(t, tr.Append(randomLeaf()))
		require.NoError(t, tr.Track(uint64(i)))

		for p := 0; p <= i; p++ {
			path, err := tr.Witness(uint64(p))
			require.NoError(t, err)
			require.Len(t, path, Depth)
		}
	}
}

// TestWitnessMatchesNaiveReference grows a tree leaf by leaf, tracks every
// position as soon as it exists, and checks every witness against the
// full-recomputation reference at every size.
func TestWitnessMatchesNaiveReference(t *testing.T) {
	const numLeaves = 24
	leaves := randomLeaves(numLeaves)

	tr := NewTree()
	for i, leaf := range leaves {
		require.NoError(t, tr.Append(leaf))
		require.NoError(t, tr.Track(uint64(i)))

		root := tr.Root()
		for p := 0; p <= i; p++ {
			path, err := tr.Witness(uint64(p))
			require.NoError(t, err)
			require.Equal(t, naiveAuthPath(leaves[:i+1], uint64(p)), path, "position %d at size %d", p, i+1)
			require.True(t, VerifyWitness(leaves[p], uint64(p), path, root))
		}
	}
}

// TestTrackOldPosition tracks positions long after they were appended and
// expects identical witnesses to tracking at append time.
func TestTrackOldPosition(t *testing.T) {
	const numLeaves = 21
	leaves := randomLeaves(numLeaves)

	eager := NewTree()
	late := NewTree()
	for i, leaf := range leaves {
		require.NoError(t, eager.Append(leaf))
		require.NoError(t, eager.Track(uint64(i)))
		require.NoError(t, late.Append(leaf))
	}
	for p := 0; p < numLeaves; p++ {
		require.NoError(t, late.Track(uint64(p)))
	}

	for p := 0; p < numLeaves; p++ {
		eagerPath, err := eager.Witness(uint64(p))
		require.NoError(t, err)
		latePath, err := late.Witness(uint64(p))
		require.NoError(t, err)
		require.Equal(t, eagerPath, latePath, "position %d", p)
	}
}

func TestWitnessAt(t *testing.T) {
	const numLeaves = 19
	leaves := randomLeaves(numLeaves)

	tr := NewTree()
	require.NoError(t, tr.AppendAll(leaves))
	require.NoError(t, tr.Track(3))

	for n := 4; n <= numLeaves; n++ {
		path, err := tr.WitnessAt(3, uint64(n))
		require.NoError(t, err)
		require.Equal(t, naiveAuthPath(leaves[:n], 3), path, "at size %d", n)
		require.True(t, VerifyWitness(leaves[3], 3, path, naiveRoot(leaves[:n])))
	}

	_, err := tr.WitnessAt(3, numLeaves+1)
	require.ErrorIs(t, err, ErrIncomplete)

	_, err = tr.WitnessAt(3, 3)
	require.ErrorIs(t, err, ErrInvalidPosition)

	_, err = tr.WitnessAt(5, 10)
	require.ErrorIs(t, err, ErrNotTracked)
}

func TestWitnessAll(t *testing.T) {
	leaves := randomLeaves(11)

	tr := NewTree()
	require.NoError(t, tr.AppendAll(leaves))
	require.NoError(t, tr.TrackAll([]uint64{0, 4, 10}))

	root, paths, err := tr.WitnessAll([]uint64{10, 0, 4})
	require.NoError(t, err)
	require.Equal(t, tr.Root(), root)
	require.Len(t, paths, 3)
	for i, pos := range []uint64{10, 0, 4} {
		require.True(t, VerifyWitness(leaves[pos], pos, paths[i], root))
	}

	// One bad position fails the whole call with no partial result.
	root, paths, err = tr.WitnessAll([]uint64{0, 7})
	require.ErrorIs(t, err, ErrNotTracked)
	require.Equal(t, Node{}, root)
	require.Nil(t, paths)
}

func TestWitnessAllAt(t *testing.T) {
	leaves := randomLeaves(11)

	tr := NewTree()
	require.NoError(t, tr.AppendAll(leaves))
	require.NoError(t, tr.TrackAll([]uint64{0, 4}))

	root, paths, err := tr.WitnessAllAt([]uint64{0, 4}, 7)
	require.NoError(t, err)
	require.Equal(t, naiveRoot(leaves[:7]), root)
	for i, pos := range []uint64{0, 4} {
		require.True(t, VerifyWitness(leaves[pos], pos, paths[i], root))
	}

	_, _, err = tr.WitnessAllAt([]uint64{0}, 12)
	require.ErrorIs(t, err, ErrIncomplete)

	_, _, err = tr.WitnessAllAt([]uint64{4}, 4)
	require.ErrorIs(t, err, ErrInvalidPosition)
}

func TestUntrack(t *testing.T) {
	tr := NewTree()
	require.NoError(t, tr.Append(randomLeaf()))
	require.NoError(t, tr.Track(0))
	require.True(t, tr.IsTracked(0))

	require.NoError(t, tr.Untrack(0))
	require.False(t, tr.IsTracked(0))
	_, err := tr.Witness(0)
	require.ErrorIs(t, err, ErrNotTracked)

	require.ErrorIs(t, tr.Untrack(0), ErrNotTracked)
}

func TestTrackAllAtomic(t *testing.T) {
	tr := NewTree()
	require.NoError(t, tr.AppendAll(randomLeaves(4)))

	err := tr.TrackAll([]uint64{0, 1, 9})
	require.ErrorIs(t, err, ErrInvalidPosition)
	require.Empty(t, tr.Tracked())

	require.NoError(t, tr.TrackAll([]uint64{0, 1, 3}))
	require.Equal(t, []uint64{0, 1, 3}, tr.Tracked())

	err = tr.UntrackAll([]uint64{0, 2})
	require.ErrorIs(t, err, ErrNotTracked)
	require.Equal(t, []uint64{0, 1, 3}, tr.Tracked())

	require.NoError(t, tr.UntrackAll([]uint64{0, 3}))
	require.Equal(t, []uint64{1}, tr.Tracked())
}

// TestWitnessDeterminism feeds two trackers the identical append sequence and
// expects bit-identical witnesses.
func TestWitnessDeterminism(t *testing.T) {
	leaves := randomLeaves(15)

	a, b := NewTree(), NewTree()
	for i, leaf := range leaves {
		require.NoError(t, a.Append(leaf))
		require.NoError(t, b.Append(leaf))
		if i%3 == 0 {
			require.NoError(t, a.Track(uint64(i)))
			require.NoError(t, b.Track(uint64(i)))
		}
	}

	for _, p := range a.Tracked() {
		pathA, err := a.Witness(p)
		require.NoError(t, err)
		pathB, err := b.Witness(p)
		require.NoError(t, err)
		require.Equal(t, pathA, pathB)
	}
}

func TestVerifyWitnessRejectsTampering(t *testing.T) {
	leaves := randomLeaves(6)
	tr := NewTree()
	require.NoError(t, tr.AppendAll(leaves))
	require.NoError(t, tr.Track(2))

	path, err := tr.Witness(2)
	require.NoError(t, err)
	root := tr.Root()
	require.True(t, VerifyWitness(leaves[2], 2, path, root))

	t.Run("Wrong root", func(t *testing.T) {
		require.False(t, VerifyWitness(leaves[2], 2, path, Node{1, 2, 3}))
	})

	t.Run("Wrong position", func(t *testing.T) {
		require.False(t, VerifyWitness(leaves[2], 3, path, root))
	})

	t.Run("Tampered sibling", func(t *testing.T) {
		tampered := append([]Node(nil), path...)
		tampered[1][0] ^= 0xFF
		require.False(t, VerifyWitness(leaves[2], 2, tampered, root))
	})

	t.Run("Truncated path", func(t *testing.T) {
		require.False(t, VerifyWitness(leaves[2], 2, path[:Depth-1], root))
	})
}
