// Package ingest validates commitment batches arriving from the ledger feed
// before they touch a tree session.
package ingest

import (
	"fmt"

	"github.com/junonet/juno-witness-go/pkg/tree"
)

// MaxBatchSize bounds a single ingest batch. A block never carries anywhere
// near this many shielded outputs; anything larger is a malformed feed.
const MaxBatchSize = 65536

// ParseCommitments decodes a batch of hex-encoded 32-byte commitments,
// preserving ledger order. The whole batch is rejected on the first invalid
// entry so a partial batch is never appended.
func ParseCommitments(encoded []string) ([]tree.Node, error) {
	if len(encoded) == 0 {
		return nil, fmt.Errorf("empty commitment batch")
	}
	if len(encoded) > MaxBatchSize {
		return nil, fmt.Errorf("batch of %d commitments exceeds limit of %d", len(encoded), MaxBatchSize)
	}

	nodes := make([]tree.Node, len(encoded))
	for i, s := range encoded {
		n, err := tree.ParseNode(s)
		if err != nil {
			return nil, fmt.Errorf("commitment %d: %v", i, err)
		}
		nodes[i] = n
	}
	return nodes, nil
}
