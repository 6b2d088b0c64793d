package tree

import (
	"encoding/hex"
	"errors"
	"fmt"
)

// Depth is the fixed depth of the note commitment tree. Every authentication
// path has exactly Depth sibling entries.
const Depth = 32

// NodeSize is the byte width of a tree node.
const NodeSize = 32

// MaxLeaves is the hard capacity of the tree: 2^Depth leaf positions.
const MaxLeaves = uint64(1) << Depth

// Node is a 32-byte hash-tree value. Immutable once computed.
type Node [NodeSize]byte

var (
	// ErrCapacityExceeded is returned by Append once the tree holds 2^Depth leaves.
	ErrCapacityExceeded = errors.New("tree capacity exceeded")

	// ErrInvalidPosition is returned when a position does not name an appended leaf.
	ErrInvalidPosition = errors.New("invalid position")

	// ErrNotTracked is returned when a witness is requested for a position that
	// was never tracked, was untracked, or was discarded by a rewind.
	ErrNotTracked = errors.New("position not tracked")

	// ErrUnknownCheckpoint is returned by Rewind for an id that was never issued
	// or was invalidated by an earlier rewind.
	ErrUnknownCheckpoint = errors.New("unknown checkpoint")

	// ErrIncomplete is returned when a witness is requested against a tree size
	// the tree has not reached.
	ErrIncomplete = errors.New("witness incomplete at requested size")

	// ErrInternal signals an invariant violation, e.g. a completed witness that
	// does not hash to the current root. It is a defect, not a user error.
	ErrInternal = errors.New("internal invariant violation")
)

// String returns the lowercase hex encoding of the node.
func (n Node) String() string {
	return hex.EncodeToString(n[:])
}

// MarshalText implements encoding.TextMarshaler as lowercase hex.
func (n Node) MarshalText() ([]byte, error) {
	dst := make([]byte, hex.EncodedLen(len(n)))
	hex.Encode(dst, n[:])
	return dst, nil
}

// UnmarshalText implements encoding.TextUnmarshaler from hex.
func (n *Node) UnmarshalText(text []byte) error {
	if hex.DecodedLen(len(text)) != NodeSize {
		return fmt.Errorf("node must be %d hex-encoded bytes, got %d characters", NodeSize, len(text))
	}
	_, err := hex.Decode(n[:], text)
	return err
}

// ParseNode decodes a lowercase or uppercase hex string into a Node.
func ParseNode(s string) (Node, error) {
	var n Node
	if err := n.UnmarshalText([]byte(s)); err != nil {
		return Node{}, err
	}
	return n, nil
}
