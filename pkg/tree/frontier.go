package tree

// frontier is the rightmost boundary of the tree: one ommer candidate per
// level, valid at level h exactly when bit h of size is set. ommers[Depth]
// holds the root of a completely full tree.
//
// Appending carries completed pairs upward exactly like a binary-counter
// increment, so appends are amortized O(log size) and O(Depth) worst case.
type frontier struct {
	size   uint64
	ommers [Depth + 1]Node
}

// completion reports a subtree that became complete during an append: the
// node at (level, index) now covers leaf positions [index<<level, (index+1)<<level).
type completion struct {
	level int
	index uint64
	node  Node
}

// append inserts leaf at position f.size. Every subtree completed by the
// insert (the leaf itself, plus one per carry) is reported through onComplete
// in bottom-up order.
func (f *frontier) append(leaf Node, onComplete func(completion)) error {
	if f.size == MaxLeaves {
		return ErrCapacityExceeded
	}

	pos := f.size
	node := leaf
	onComplete(completion{level: 0, index: pos, node: node})

	carried := true
	for h := 0; h < Depth; h++ {
		if f.size>>uint(h)&1 == 0 {
			f.ommers[h] = node
			carried = false
			break
		}
		node = Combine(uint8(h), f.ommers[h], node)
		onComplete(completion{level: h + 1, index: pos >> uint(h+1), node: node})
	}
	if carried {
		// Carry out of the top level: the tree is now full.
		f.ommers[Depth] = node
	}

	f.size++
	return nil
}

// root folds the frontier with empty-subtree padding into the depth-Depth root.
func (f *frontier) root() Node {
	if f.size == MaxLeaves {
		return f.ommers[Depth]
	}
	return f.subtreeRoot(Depth)
}

// subtreeRoot returns the root of the partially filled subtree of the given
// height that contains the next append position. Levels below the frontier
// use the stored ommers; unfilled slots use empty-subtree values.
func (f *frontier) subtreeRoot(height int) Node {
	cur := EmptyRoot(0)
	for h := 0; h < height; h++ {
		if f.size>>uint(h)&1 == 1 {
			cur = Combine(uint8(h), f.ommers[h], cur)
		} else {
			cur = Combine(uint8(h), cur, EmptyRoot(h))
		}
	}
	return cur
}
