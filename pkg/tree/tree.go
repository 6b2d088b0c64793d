package tree

import (
	"fmt"
	"sort"
	"sync"
)

// CommitmentTree is an append-only note commitment tree with incremental
// witness tracking and checkpoint/rewind support.
//
// The tree is an explicit session object: callers hold a handle and may run
// any number of independent trees side by side. One writer at a time drives
// Append/Track/Untrack/Checkpoint/Rewind; read-only queries take shared
// access and may run in parallel, so a reader never observes a half-updated
// frontier. All operations are bounded CPU-only computations.
type CommitmentTree struct {
	mu sync.RWMutex

	frontier    frontier
	store       nodeStore
	witnesses   map[uint64]*witnessState
	checkpoints *checkpointStack
}

// NewTree creates an empty tree: size 0, root equal to EmptyRoot(Depth).
func NewTree() *CommitmentTree {
	return &CommitmentTree{
		witnesses:   make(map[uint64]*witnessState),
		checkpoints: newCheckpointStack(),
	}
}

// Size returns the current leaf count.
func (t *CommitmentTree) Size() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.frontier.size
}

// Root returns the root of the current tree state.
func (t *CommitmentTree) Root() Node {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.frontier.root()
}

// RootAt returns the root the tree had at the given size.
func (t *CommitmentTree) RootAt(size uint64) (Node, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if size > t.frontier.size {
		return Node{}, fmt.Errorf("%w: size %d not reached (current %d)", ErrIncomplete, size, t.frontier.size)
	}
	f := t.store.frontierAt(size)
	return f.root(), nil
}

// Append inserts the commitment at position Size and updates every tracked
// witness incrementally. Fails with ErrCapacityExceeded once 2^Depth leaves
// are present; state is unchanged on failure.
func (t *CommitmentTree) Append(leaf Node) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.appendLocked(leaf)
}

// AppendAll inserts a batch of commitments in order. The whole batch is
// checked against capacity up front so a failing batch leaves the tree
// untouched.
func (t *CommitmentTree) AppendAll(leaves []Node) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.frontier.size+uint64(len(leaves)) > MaxLeaves {
		return fmt.Errorf("%w: %d leaves would exceed capacity at size %d", ErrCapacityExceeded, len(leaves), t.frontier.size)
	}
	for _, leaf := range leaves {
		if err := t.appendLocked(leaf); err != nil {
			return err
		}
	}
	return nil
}

func (t *CommitmentTree) appendLocked(leaf Node) error {
	completions := make([]completion, 0, 2)
	err := t.frontier.append(leaf, func(c completion) {
		t.store.record(c)
		completions = append(completions, c)
	})
	if err != nil {
		return err
	}

	for _, w := range t.witnesses {
		w.observe(completions)
	}
	return nil
}

// Leaf returns the commitment appended at the given position.
func (t *CommitmentTree) Leaf(position uint64) (Node, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	leaf, ok := t.store.leaf(position)
	if !ok {
		return Node{}, fmt.Errorf("%w: position %d not in tree of size %d", ErrInvalidPosition, position, t.frontier.size)
	}
	return leaf, nil
}

// Track begins witness maintenance for an already-appended position.
// Tracking an already-tracked position is a no-op. Fails with
// ErrInvalidPosition if the position has not been appended yet.
func (t *CommitmentTree) Track(position uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if position >= t.frontier.size {
		return fmt.Errorf("%w: position %d not in tree of size %d", ErrInvalidPosition, position, t.frontier.size)
	}
	if _, ok := t.witnesses[position]; ok {
		return nil
	}
	t.witnesses[position] = newWitnessState(position, &t.store)
	return nil
}

// TrackAll begins tracking a set of positions. Every position is validated
// before any tracking starts, so a failing batch changes nothing.
func (t *CommitmentTree) TrackAll(positions []uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, p := range positions {
		if p >= t.frontier.size {
			return fmt.Errorf("%w: position %d not in tree of size %d", ErrInvalidPosition, p, t.frontier.size)
		}
	}
	for _, p := range positions {
		if _, ok := t.witnesses[p]; !ok {
			t.witnesses[p] = newWitnessState(p, &t.store)
		}
	}
	return nil
}

// UntrackAll stops tracking a set of positions. Every position must be
// tracked; a failing batch changes nothing.
func (t *CommitmentTree) UntrackAll(positions []uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, p := range positions {
		if _, ok := t.witnesses[p]; !ok {
			return fmt.Errorf("%w: position %d", ErrNotTracked, p)
		}
	}
	for _, p := range positions {
		delete(t.witnesses, p)
	}
	return nil
}

// Untrack stops witness maintenance for a position.
func (t *CommitmentTree) Untrack(position uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.witnesses[position]; !ok {
		return fmt.Errorf("%w: position %d", ErrNotTracked, position)
	}
	delete(t.witnesses, position)
	return nil
}

// IsTracked reports whether a position is currently tracked.
func (t *CommitmentTree) IsTracked(position uint64) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.witnesses[position]
	return ok
}

// Tracked returns the tracked positions in ascending order.
func (t *CommitmentTree) Tracked() []uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.trackedLocked()
}

func (t *CommitmentTree) trackedLocked() []uint64 {
	positions := make([]uint64, 0, len(t.witnesses))
	for p := range t.witnesses {
		positions = append(positions, p)
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i] < positions[j] })
	return positions
}

// Witness returns the Depth-length authentication path for a tracked
// position at the current tree size, level 0 first. The path is verified
// against the current root before being returned; a mismatch is an
// ErrInternal defect, never silently emitted.
func (t *CommitmentTree) Witness(position uint64) ([]Node, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.witnessLocked(position)
}

// WitnessAll returns the current root together with the authentication path
// of every given position, all read under one shared lock. Callers that need
// several paths verifying against a single root must use this instead of
// separate Root and Witness calls, which may straddle a concurrent append.
func (t *CommitmentTree) WitnessAll(positions []uint64) (Node, [][]Node, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	paths := make([][]Node, len(positions))
	for i, p := range positions {
		path, err := t.witnessLocked(p)
		if err != nil {
			return Node{}, nil, err
		}
		paths[i] = path
	}
	return t.frontier.root(), paths, nil
}

func (t *CommitmentTree) witnessLocked(position uint64) ([]Node, error) {
	w, ok := t.witnesses[position]
	if !ok {
		return nil, fmt.Errorf("%w: position %d", ErrNotTracked, position)
	}

	path, err := w.authPath(&t.frontier)
	if err != nil {
		return nil, fmt.Errorf("%w: witness for position %d", ErrInternal, position)
	}

	leaf, ok := t.store.leaf(position)
	if !ok {
		return nil, fmt.Errorf("%w: tracked position %d has no leaf", ErrInternal, position)
	}
	if !VerifyWitness(leaf, position, path, t.frontier.root()) {
		return nil, fmt.Errorf("%w: witness for position %d does not hash to root", ErrInternal, position)
	}
	return path, nil
}

// WitnessAt returns the authentication path a tracked position had when the
// tree was exactly atSize leaves, reconstructed from retained subtree roots.
// Fails with ErrIncomplete if the tree has not reached atSize, and with
// ErrInvalidPosition if the position did not exist at that size.
func (t *CommitmentTree) WitnessAt(position, atSize uint64) ([]Node, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if atSize > t.frontier.size {
		return nil, fmt.Errorf("%w: size %d not reached (current %d)", ErrIncomplete, atSize, t.frontier.size)
	}
	f := t.store.frontierAt(atSize)
	return t.witnessAtLocked(position, atSize, &f)
}

// WitnessAllAt is WitnessAll anchored at an earlier tree size: one historical
// root plus the path every position had at that size, from a single view.
func (t *CommitmentTree) WitnessAllAt(positions []uint64, atSize uint64) (Node, [][]Node, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if atSize > t.frontier.size {
		return Node{}, nil, fmt.Errorf("%w: size %d not reached (current %d)", ErrIncomplete, atSize, t.frontier.size)
	}
	f := t.store.frontierAt(atSize)

	paths := make([][]Node, len(positions))
	for i, p := range positions {
		path, err := t.witnessAtLocked(p, atSize, &f)
		if err != nil {
			return Node{}, nil, err
		}
		paths[i] = path
	}
	return f.root(), paths, nil
}

func (t *CommitmentTree) witnessAtLocked(position, atSize uint64, f *frontier) ([]Node, error) {
	if _, ok := t.witnesses[position]; !ok {
		return nil, fmt.Errorf("%w: position %d", ErrNotTracked, position)
	}
	if position >= atSize {
		return nil, fmt.Errorf("%w: position %d not in tree of size %d", ErrInvalidPosition, position, atSize)
	}

	path := make([]Node, Depth)
	for level := 0; level < Depth; level++ {
		sibling := (position >> uint(level)) ^ 1
		if node, ok := t.store.at(level, sibling); ok && sibling < atSize>>uint(level) {
			path[level] = node
		} else if sibling<<uint(level) >= atSize {
			path[level] = EmptyRoot(level)
		} else {
			path[level] = f.subtreeRoot(level)
		}
	}

	leaf, _ := t.store.leaf(position)
	if !VerifyWitness(leaf, position, path, f.root()) {
		return nil, fmt.Errorf("%w: witness for position %d at size %d does not hash to root", ErrInternal, position, atSize)
	}
	return path, nil
}

// Checkpoint captures the current state and returns an id usable with Rewind.
func (t *CommitmentTree) Checkpoint() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.checkpoints.push(t.frontier.size, t.trackedLocked())
}

// Rewind restores the tree to the state captured by the given checkpoint:
// leaves appended afterward are discarded, the frontier is rebuilt, and
// witness tracking reverts to the positions tracked at capture. Checkpoints
// issued after the target become invalid; the target itself stays valid.
// Fails with ErrUnknownCheckpoint if the id was never issued or was already
// invalidated, leaving state unchanged.
func (t *CommitmentTree) Rewind(id uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx, ok := t.checkpoints.find(id)
	if !ok {
		return fmt.Errorf("%w: id %d", ErrUnknownCheckpoint, id)
	}
	cp := t.checkpoints.stack[idx]
	t.checkpoints.dropAbove(idx)

	t.store.truncate(cp.size)
	t.frontier = t.store.frontierAt(cp.size)

	t.witnesses = make(map[uint64]*witnessState, len(cp.tracked))
	for _, p := range cp.tracked {
		t.witnesses[p] = newWitnessState(p, &t.store)
	}
	return nil
}
