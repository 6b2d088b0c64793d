package tree

// witnessEntry is one level of a tracked authentication path. An entry is
// pending until the sibling subtree at its level completes, after which its
// value is fixed forever (absent a rewind below the completion point).
type witnessEntry struct {
	resolved bool
	value    Node
}

// witnessState is the per-position incremental state machine: an array of
// Depth entries, each resolved at most once as the tree grows. No full-tree
// recomputation ever happens after initialization.
type witnessState struct {
	position uint64
	entries  [Depth]witnessEntry
}

// newWitnessState initializes tracking for a position, resolving every level
// whose sibling subtree has already completed according to the node store.
func newWitnessState(position uint64, store *nodeStore) *witnessState {
	w := &witnessState{position: position}
	for level := 0; level < Depth; level++ {
		sibling := (position >> uint(level)) ^ 1
		if node, ok := store.at(level, sibling); ok {
			w.entries[level] = witnessEntry{resolved: true, value: node}
		}
	}
	return w
}

// observe consumes the subtree completions produced by one append and
// resolves any entry whose sibling just completed.
func (w *witnessState) observe(completions []completion) {
	for _, c := range completions {
		if c.level >= Depth {
			continue
		}
		if w.entries[c.level].resolved {
			continue
		}
		if (w.position>>uint(c.level))^1 == c.index {
			w.entries[c.level] = witnessEntry{resolved: true, value: c.node}
		}
	}
}

// authPath assembles the full Depth-length authentication path at the given
// frontier. Pending levels are filled with the empty-subtree value when the
// sibling subtree holds no leaves yet, or with the partial boundary subtree
// root when it is mid-fill.
func (w *witnessState) authPath(f *frontier) ([]Node, error) {
	path := make([]Node, Depth)
	for level := 0; level < Depth; level++ {
		if w.entries[level].resolved {
			path[level] = w.entries[level].value
			continue
		}
		sibling := (w.position >> uint(level)) ^ 1
		start := sibling << uint(level)
		switch {
		case start >= f.size:
			path[level] = EmptyRoot(level)
		case sibling == f.size>>uint(level):
			path[level] = f.subtreeRoot(level)
		default:
			// The sibling subtree completed but the entry never resolved.
			return nil, ErrInternal
		}
	}
	return path, nil
}
