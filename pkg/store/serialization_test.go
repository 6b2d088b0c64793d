package store

import (
	"crypto/rand"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/junonet/juno-witness-go/pkg/tree"
)

func testSnapshot(t *testing.T) *tree.Snapshot {
	t.Helper()
	tr := tree.NewTree()
	for i := 0; i < 8; i++ {
		var leaf tree.Node
		_, err := rand.Read(leaf[:])
		require.NoError(t, err)
		require.NoError(t, tr.Append(leaf))
	}
	require.NoError(t, tr.Track(3))
	tr.Checkpoint()
	return tr.Snapshot()
}

func TestMarshalSnapshotRoundTrip(t *testing.T) {
	snap := testSnapshot(t)

	data, err := MarshalSnapshot(snap)
	require.NoError(t, err)

	got, err := UnmarshalSnapshot(data)
	require.NoError(t, err)
	require.Equal(t, snap, got)

	// The restored snapshot rebuilds an equivalent tree.
	restored, err := tree.FromSnapshot(got)
	require.NoError(t, err)
	original, err := tree.FromSnapshot(snap)
	require.NoError(t, err)
	require.Equal(t, original.Root(), restored.Root())
}

func TestMarshalSnapshotNil(t *testing.T) {
	_, err := MarshalSnapshot(nil)
	require.Error(t, err)
}

func TestUnmarshalSnapshotDetectsCorruption(t *testing.T) {
	data, err := MarshalSnapshot(testSnapshot(t))
	require.NoError(t, err)

	var env struct {
		Checksum string          `json:"checksum"`
		Snapshot json.RawMessage `json:"snapshot"`
	}
	require.NoError(t, json.Unmarshal(data, &env))

	// Swap in a checksum that no longer matches the payload.
	badSum := []byte(env.Checksum)
	if badSum[0] == '0' {
		badSum[0] = '1'
	} else {
		badSum[0] = '0'
	}
	tampered, err := json.Marshal(map[string]interface{}{
		"checksum": string(badSum),
		"snapshot": env.Snapshot,
	})
	require.NoError(t, err)

	_, err = UnmarshalSnapshot(tampered)
	require.Error(t, err)
}

func TestUnmarshalSnapshotEmpty(t *testing.T) {
	_, err := UnmarshalSnapshot(nil)
	require.Error(t, err)
}
