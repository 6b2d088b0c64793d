package node

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/junonet/juno-witness-go/internal/ingest"
	"github.com/junonet/juno-witness-go/pkg/query"
	"github.com/junonet/juno-witness-go/pkg/tree"
	"github.com/junonet/juno-witness-go/pkg/types"
)

// handleWitness answers witness queries: the root plus one authentication
// path per requested position, or an all-or-nothing structured error.
func (s *Server) handleWitness(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.limiter != nil && !s.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "query rate limit exceeded")
		return
	}

	var req types.WitnessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	sess, ok := s.sessions.Get(r.Header.Get(headerSessionID))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}

	resp, err := sess.Engine.Query(&req)
	if err != nil {
		s.writeTreeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleAppend ingests a batch of note commitments in ledger order.
func (s *Server) handleAppend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req types.AppendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	sess, ok := s.sessions.Get(req.SessionID)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}

	leaves, err := ingest.ParseCommitments(req.Commitments)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	if err := sess.Tree.AppendAll(leaves); err != nil {
		s.writeTreeError(w, err)
		return
	}

	s.persist(sess)
	s.logger.Sugar().Debugw("Appended commitments",
		"session_id", sess.ID, "count", len(leaves), "size", sess.Tree.Size())

	writeJSON(w, http.StatusOK, &types.AppendResponse{
		Status: types.StatusOK,
		Size:   sess.Tree.Size(),
		Root:   sess.Tree.Root().String(),
	})
}

// handleTrack begins witness maintenance for already-appended positions.
func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	s.handleTracking(w, r, func(t *tree.CommitmentTree, positions []uint64) error {
		return t.TrackAll(positions)
	})
}

// handleUntrack stops witness maintenance for tracked positions.
func (s *Server) handleUntrack(w http.ResponseWriter, r *http.Request) {
	s.handleTracking(w, r, func(t *tree.CommitmentTree, positions []uint64) error {
		return t.UntrackAll(positions)
	})
}

func (s *Server) handleTracking(w http.ResponseWriter, r *http.Request, apply func(*tree.CommitmentTree, []uint64) error) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req types.TrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if len(req.Positions) == 0 {
		writeError(w, http.StatusBadRequest, "invalid request: no positions")
		return
	}

	sess, ok := s.sessions.Get(req.SessionID)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}

	if err := apply(sess.Tree, req.Positions); err != nil {
		s.writeTreeError(w, err)
		return
	}

	s.persist(sess)
	writeJSON(w, http.StatusOK, &types.StatusResponse{Status: types.StatusOK})
}

// handleCheckpoint snapshots a session ahead of new ledger blocks.
func (s *Server) handleCheckpoint(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req types.RewindRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
			return
		}
	}

	sess, ok := s.sessions.Get(req.SessionID)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}

	id := sess.Tree.Checkpoint()
	s.persist(sess)
	s.logger.Sugar().Infow("Checkpoint taken", "session_id", sess.ID, "checkpoint_id", id, "size", sess.Tree.Size())

	writeJSON(w, http.StatusOK, &types.CheckpointResponse{
		Status:       types.StatusOK,
		CheckpointID: id,
		Size:         sess.Tree.Size(),
	})
}

// handleRewind undoes appends past a checkpoint after a ledger reorg.
func (s *Server) handleRewind(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req types.RewindRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	sess, ok := s.sessions.Get(req.SessionID)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}

	if err := sess.Tree.Rewind(req.CheckpointID); err != nil {
		s.writeTreeError(w, err)
		return
	}

	s.persist(sess)
	s.logger.Sugar().Infow("Rewound session", "session_id", sess.ID, "checkpoint_id", req.CheckpointID, "size", sess.Tree.Size())

	writeJSON(w, http.StatusOK, &types.StatusResponse{Status: types.StatusOK})
}

// handleRoot reports a session's current root and size.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	sess, ok := s.sessions.Get(r.URL.Query().Get("session_id"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}

	writeJSON(w, http.StatusOK, &types.RootResponse{
		Status: types.StatusOK,
		Root:   sess.Tree.Root().String(),
		Size:   sess.Tree.Size(),
	})
}

// handleSessions creates a new tree session (POST) or lists them (GET).
func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		sess := s.sessions.Create()
		s.persist(sess)
		writeJSON(w, http.StatusOK, &types.SessionResponse{Status: types.StatusOK, SessionID: sess.ID})
	case http.MethodGet:
		writeJSON(w, http.StatusOK, &types.SessionListResponse{Status: types.StatusOK, Sessions: s.sessions.List()})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// headerSessionID routes witness queries to a session without changing the
// boundary request schema.
const headerSessionID = "X-Witness-Session"

// persist saves a session snapshot after a successful mutation. The core
// state machine already applied the change; a store failure is logged and
// surfaced at the next restore, not turned into a mutation failure.
func (s *Server) persist(sess *Session) {
	if err := s.sessions.Persist(sess); err != nil {
		s.logger.Sugar().Errorw("Failed to persist session", "session_id", sess.ID, "error", err)
	}
}

// writeTreeError maps the core error taxonomy onto HTTP statuses while
// keeping the structured {status: err} body.
func (s *Server) writeTreeError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	msg := err.Error()

	switch {
	case errors.Is(err, query.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, tree.ErrInvalidPosition):
		status = http.StatusBadRequest
	case errors.Is(err, tree.ErrNotTracked), errors.Is(err, tree.ErrUnknownCheckpoint):
		status = http.StatusNotFound
	case errors.Is(err, tree.ErrCapacityExceeded), errors.Is(err, tree.ErrIncomplete):
		status = http.StatusConflict
	case errors.Is(err, tree.ErrInternal):
		status = http.StatusInternalServerError
		msg = "internal error"
		s.logger.Sugar().Errorw("Internal invariant violation", "error", err)
	}

	writeError(w, status, msg)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, &types.StatusResponse{Status: types.StatusErr, Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
