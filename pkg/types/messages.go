package types

import "github.com/junonet/juno-witness-go/pkg/tree"

// Response status values used at the witness boundary.
const (
	StatusOK  = "ok"
	StatusErr = "err"
)

// WitnessRequest asks for the authentication paths of a set of tracked
// positions. AtSize optionally anchors the query to an earlier tree size
// (e.g. a checkpointed view); zero or absent means the current state.
type WitnessRequest struct {
	Positions []uint64 `json:"positions"`
	AtSize    uint64   `json:"at_size,omitempty"`
}

// WitnessPath is one (position, authentication path) pair in a response.
// The path holds exactly tree.Depth hex-encoded 32-byte values, level 0 first.
type WitnessPath struct {
	Position uint64      `json:"position"`
	AuthPath []tree.Node `json:"auth_path"`
}

// WitnessResponse is the boundary form of a witness query result. On success
// Status is "ok" and Root/Paths are set, with one path per requested position
// in request order. On failure Status is "err" and Error carries a
// human-readable message; a response is never absent for a well-formed call.
type WitnessResponse struct {
	Status string        `json:"status"`
	Root   string        `json:"root,omitempty"`
	Paths  []WitnessPath `json:"paths,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// AppendRequest feeds observed note commitments into a session's tree, in
// ledger order. Each commitment is a hex-encoded 32-byte value.
type AppendRequest struct {
	SessionID   string   `json:"session_id,omitempty"`
	Commitments []string `json:"commitments"`
}

// AppendResponse reports the tree state after an ingest batch.
type AppendResponse struct {
	Status string `json:"status"`
	Size   uint64 `json:"size,omitempty"`
	Root   string `json:"root,omitempty"`
	Error  string `json:"error,omitempty"`
}

// TrackRequest marks or unmarks positions for witness maintenance.
type TrackRequest struct {
	SessionID string   `json:"session_id,omitempty"`
	Positions []uint64 `json:"positions"`
}

// CheckpointResponse carries a freshly issued checkpoint id.
type CheckpointResponse struct {
	Status       string `json:"status"`
	CheckpointID uint64 `json:"checkpoint_id,omitempty"`
	Size         uint64 `json:"size,omitempty"`
	Error        string `json:"error,omitempty"`
}

// RewindRequest rewinds a session to a previously issued checkpoint.
type RewindRequest struct {
	SessionID    string `json:"session_id,omitempty"`
	CheckpointID uint64 `json:"checkpoint_id"`
}

// StatusResponse is the generic mutation acknowledgement.
type StatusResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// RootResponse reports a session's current root and size.
type RootResponse struct {
	Status string `json:"status"`
	Root   string `json:"root,omitempty"`
	Size   uint64 `json:"size"`
	Error  string `json:"error,omitempty"`
}

// SessionListResponse lists the live tree sessions.
type SessionListResponse struct {
	Status   string   `json:"status"`
	Sessions []string `json:"sessions"`
	Error    string   `json:"error,omitempty"`
}

// SessionResponse carries the id of a newly created tree session.
type SessionResponse struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id,omitempty"`
	Error     string `json:"error,omitempty"`
}
