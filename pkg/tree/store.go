package tree

// nodeStore is the level-addressed arena of completed subtree roots.
// levels[h][k] is the root of the k-th completed subtree of height h, so at
// tree size n each level holds exactly n>>h entries. Level 0 is the full
// leaf sequence.
//
// The store is what makes tracking of arbitrary existing positions and
// checkpoint rewind possible: the frontier alone cannot reconstruct siblings
// that completed before a position was tracked, and rewinding is a plain
// per-level truncation.
type nodeStore struct {
	levels [Depth + 1][]Node
}

// record stores a newly completed subtree root. Completions arrive strictly
// in index order per level.
func (s *nodeStore) record(c completion) {
	s.levels[c.level] = append(s.levels[c.level], c.node)
}

// at returns the root of the completed subtree (level, index) and whether it
// has completed.
func (s *nodeStore) at(level int, index uint64) (Node, bool) {
	if index >= uint64(len(s.levels[level])) {
		return Node{}, false
	}
	return s.levels[level][index], true
}

// leaf returns the commitment appended at the given position.
func (s *nodeStore) leaf(pos uint64) (Node, bool) {
	return s.at(0, pos)
}

// truncate discards every node recorded after the tree had the given size.
func (s *nodeStore) truncate(size uint64) {
	for h := 0; h <= Depth; h++ {
		keep := size >> uint(h)
		if uint64(len(s.levels[h])) > keep {
			s.levels[h] = s.levels[h][:keep]
		}
	}
}

// frontierAt rebuilds the frontier as it was at the given size. Valid only
// when the store still holds that prefix, i.e. size <= current tree size.
func (s *nodeStore) frontierAt(size uint64) frontier {
	var f frontier
	f.size = size
	if size == MaxLeaves {
		f.ommers[Depth] = s.levels[Depth][0]
		return f
	}
	for h := 0; h < Depth; h++ {
		if size>>uint(h)&1 == 1 {
			f.ommers[h] = s.levels[h][(size>>uint(h))-1]
		}
	}
	return f
}
