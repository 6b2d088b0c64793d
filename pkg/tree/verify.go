package tree

// VerifyWitness checks that an authentication path proves the leaf's
// inclusion at the given position under the given root.
//
// Bit i of the position (least-significant first) selects whether the node at
// level i is the left or right child of its parent.
func VerifyWitness(leaf Node, position uint64, path []Node, root Node) bool {
	if len(path) != Depth {
		return false
	}

	current := leaf
	index := position
	for level, sibling := range path {
		if index&1 == 0 {
			current = Combine(uint8(level), current, sibling)
		} else {
			current = Combine(uint8(level), sibling, current)
		}
		index >>= 1
	}

	return current == root
}
