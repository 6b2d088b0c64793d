package tree

import (
	"github.com/ethereum/go-ethereum/crypto"
)

// UncommittedLeaf is the sentinel value of an empty leaf slot: the 32-byte
// big-endian encoding of 2. Empty subtree roots at every height are derived
// from it by repeated self-combination.
var UncommittedLeaf = Node{31: 0x02}

// emptyRoots[i] is the root of an all-empty subtree of height i.
var emptyRoots [Depth + 1]Node

func init() {
	emptyRoots[0] = UncommittedLeaf
	for i := 1; i <= Depth; i++ {
		emptyRoots[i] = Combine(uint8(i-1), emptyRoots[i-1], emptyRoots[i-1])
	}
}

// Combine hashes two sibling nodes at the given tree level into their parent.
//
// The hash is keccak256 over a one-byte level tag followed by the two child
// values. The level tag domain-separates the schedule so a proof element
// cannot be replayed at a different depth.
func Combine(level uint8, left, right Node) Node {
	data := make([]byte, 1+2*NodeSize)
	data[0] = level
	copy(data[1:1+NodeSize], left[:])
	copy(data[1+NodeSize:], right[:])

	hash := crypto.Keccak256Hash(data)
	return Node(hash)
}

// EmptyRoot returns the precomputed root of an empty subtree of the given
// height. Height Depth is the root of a fully empty tree.
func EmptyRoot(height int) Node {
	return emptyRoots[height]
}
