package store

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/junonet/juno-witness-go/pkg/tree"
)

// envelope wraps a serialized snapshot with an integrity checksum so a
// corrupted or truncated record is detected on load instead of silently
// rebuilding a wrong tree.
type envelope struct {
	Checksum string          `json:"checksum"`
	Snapshot json.RawMessage `json:"snapshot"`
}

// MarshalSnapshot serializes a snapshot to JSON wrapped in a blake2b-256
// checksum envelope.
func MarshalSnapshot(snap *tree.Snapshot) ([]byte, error) {
	if snap == nil {
		return nil, fmt.Errorf("cannot marshal nil snapshot")
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	sum := blake2b.Sum256(payload)
	return json.Marshal(&envelope{
		Checksum: hex.EncodeToString(sum[:]),
		Snapshot: payload,
	})
}

// UnmarshalSnapshot verifies the checksum envelope and deserializes the
// snapshot.
func UnmarshalSnapshot(data []byte) (*tree.Snapshot, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot unmarshal empty data")
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot envelope: %w", err)
	}

	sum := blake2b.Sum256(env.Snapshot)
	if env.Checksum != hex.EncodeToString(sum[:]) {
		return nil, fmt.Errorf("snapshot checksum mismatch")
	}

	var snap tree.Snapshot
	if err := json.Unmarshal(env.Snapshot, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}
