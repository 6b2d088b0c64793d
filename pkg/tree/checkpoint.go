package tree

// checkpoint captures the tree state at a point in time: the leaf count and
// the set of positions tracked at capture. The frontier and witness values
// are not copied; both are rebuilt from the node store on rewind, so taking
// a checkpoint is O(tracked) regardless of tree size.
type checkpoint struct {
	id      uint64
	size    uint64
	tracked []uint64
}

// checkpointStack issues monotonically increasing ids and retains checkpoints
// in capture order. Rewinding to an id invalidates everything above it; the
// rewound-to checkpoint itself stays retained so the same reorg point can be
// rewound to again.
type checkpointStack struct {
	stack  []checkpoint
	nextID uint64
}

func newCheckpointStack() *checkpointStack {
	return &checkpointStack{nextID: 1}
}

func (cs *checkpointStack) push(size uint64, tracked []uint64) uint64 {
	id := cs.nextID
	cs.nextID++
	cs.stack = append(cs.stack, checkpoint{id: id, size: size, tracked: tracked})
	return id
}

// find returns the stack index of the checkpoint with the given id.
func (cs *checkpointStack) find(id uint64) (int, bool) {
	for i := len(cs.stack) - 1; i >= 0; i-- {
		if cs.stack[i].id == id {
			return i, true
		}
	}
	return 0, false
}

// dropAbove invalidates every checkpoint issued after the one at index i.
func (cs *checkpointStack) dropAbove(i int) {
	cs.stack = cs.stack[:i+1]
}
