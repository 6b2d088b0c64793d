package tree

import "fmt"

// Snapshot is the portable form of a tree session: the full leaf sequence
// plus tracking and checkpoint metadata. Replaying the leaves through Append
// reproduces bit-identical roots and witnesses, so no interior node is ever
// serialized. Durable storage of snapshots belongs to the store layer, not
// the tree itself.
type Snapshot struct {
	Size             uint64               `json:"size"`
	Leaves           []Node               `json:"leaves"`
	Tracked          []uint64             `json:"tracked"`
	Checkpoints      []CheckpointSnapshot `json:"checkpoints"`
	NextCheckpointID uint64               `json:"nextCheckpointId"`
}

// CheckpointSnapshot is one retained checkpoint inside a Snapshot.
type CheckpointSnapshot struct {
	ID      uint64   `json:"id"`
	Size    uint64   `json:"size"`
	Tracked []uint64 `json:"tracked"`
}

// Snapshot exports the current session state.
func (t *CommitmentTree) Snapshot() *Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	leaves := make([]Node, len(t.store.levels[0]))
	copy(leaves, t.store.levels[0])

	checkpoints := make([]CheckpointSnapshot, 0, len(t.checkpoints.stack))
	for _, cp := range t.checkpoints.stack {
		tracked := make([]uint64, len(cp.tracked))
		copy(tracked, cp.tracked)
		checkpoints = append(checkpoints, CheckpointSnapshot{ID: cp.id, Size: cp.size, Tracked: tracked})
	}

	return &Snapshot{
		Size:             t.frontier.size,
		Leaves:           leaves,
		Tracked:          t.trackedLocked(),
		Checkpoints:      checkpoints,
		NextCheckpointID: t.checkpoints.nextID,
	}
}

// FromSnapshot rebuilds a tree session by replaying the snapshot's leaves and
// re-establishing tracking and checkpoints. The snapshot is validated before
// any replay; a malformed snapshot never yields a partially built tree.
func FromSnapshot(snap *Snapshot) (*CommitmentTree, error) {
	if snap == nil {
		return nil, fmt.Errorf("nil snapshot")
	}
	if err := validateSnapshot(snap); err != nil {
		return nil, err
	}

	t := NewTree()
	for _, leaf := range snap.Leaves {
		if err := t.Append(leaf); err != nil {
			return nil, fmt.Errorf("replaying snapshot leaves: %w", err)
		}
	}
	for _, p := range snap.Tracked {
		if err := t.Track(p); err != nil {
			return nil, fmt.Errorf("restoring tracked positions: %w", err)
		}
	}

	for _, cp := range snap.Checkpoints {
		tracked := make([]uint64, len(cp.Tracked))
		copy(tracked, cp.Tracked)
		t.checkpoints.stack = append(t.checkpoints.stack, checkpoint{id: cp.ID, size: cp.Size, tracked: tracked})
	}
	if snap.NextCheckpointID > 0 {
		t.checkpoints.nextID = snap.NextCheckpointID
	}
	return t, nil
}

func validateSnapshot(snap *Snapshot) error {
	if snap.Size != uint64(len(snap.Leaves)) {
		return fmt.Errorf("snapshot size %d does not match %d leaves", snap.Size, len(snap.Leaves))
	}
	if snap.Size > MaxLeaves {
		return fmt.Errorf("snapshot size %d exceeds capacity", snap.Size)
	}
	for _, p := range snap.Tracked {
		if p >= snap.Size {
			return fmt.Errorf("tracked position %d not in tree of size %d", p, snap.Size)
		}
	}

	var prevID uint64
	for _, cp := range snap.Checkpoints {
		if cp.ID <= prevID {
			return fmt.Errorf("checkpoint ids not strictly increasing at id %d", cp.ID)
		}
		if cp.ID >= snap.NextCheckpointID && snap.NextCheckpointID != 0 {
			return fmt.Errorf("checkpoint id %d not below next id %d", cp.ID, snap.NextCheckpointID)
		}
		if cp.Size > snap.Size {
			return fmt.Errorf("checkpoint %d size %d exceeds tree size %d", cp.ID, cp.Size, snap.Size)
		}
		for _, p := range cp.Tracked {
			if p >= cp.Size {
				return fmt.Errorf("checkpoint %d tracks position %d beyond its size %d", cp.ID, p, cp.Size)
			}
		}
		prevID = cp.ID
	}
	if snap.NextCheckpointID == 0 && len(snap.Checkpoints) > 0 {
		return fmt.Errorf("snapshot has checkpoints but no next checkpoint id")
	}
	return nil
}
