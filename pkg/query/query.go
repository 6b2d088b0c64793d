// Package query answers witness requests against a commitment tree session.
//
// A query is a pure read: it validates the request, collects the root and
// one authentication path per requested position, and reports structured
// errors. Any per-position failure fails the whole request with no partial
// results; callers retry per position if they want partial progress.
package query

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/junonet/juno-witness-go/pkg/tree"
	"github.com/junonet/juno-witness-go/pkg/types"
)

// ErrInvalidRequest is returned for malformed or unparseable requests.
var ErrInvalidRequest = errors.New("invalid request")

// MaxPositionsPerRequest bounds a single query.
const MaxPositionsPerRequest = 1024

// Engine answers witness requests against one tree session.
type Engine struct {
	tree *tree.CommitmentTree
}

// NewEngine creates a query engine over the given tree.
func NewEngine(t *tree.CommitmentTree) *Engine {
	return &Engine{tree: t}
}

// Query validates the request and assembles the root plus the requested
// authentication paths, in request order. The tree is never mutated; on any
// error no partial result is returned.
func (e *Engine) Query(req *types.WitnessRequest) (*types.WitnessResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: missing request body", ErrInvalidRequest)
	}
	if len(req.Positions) == 0 {
		return nil, fmt.Errorf("%w: no positions requested", ErrInvalidRequest)
	}
	if len(req.Positions) > MaxPositionsPerRequest {
		return nil, fmt.Errorf("%w: %d positions exceeds limit of %d", ErrInvalidRequest, len(req.Positions), MaxPositionsPerRequest)
	}

	// Root and paths come from one locked view of the tree; collecting them
	// through separate Root and Witness calls could straddle a concurrent
	// append and emit paths that do not verify against the reported root.
	var (
		root      tree.Node
		authPaths [][]tree.Node
		err       error
	)
	if req.AtSize > 0 {
		root, authPaths, err = e.tree.WitnessAllAt(req.Positions, req.AtSize)
	} else {
		root, authPaths, err = e.tree.WitnessAll(req.Positions)
	}
	if err != nil {
		return nil, err
	}

	paths := make([]types.WitnessPath, len(req.Positions))
	for i, pos := range req.Positions {
		paths[i] = types.WitnessPath{Position: pos, AuthPath: authPaths[i]}
	}

	return &types.WitnessResponse{
		Status: types.StatusOK,
		Root:   root.String(),
		Paths:  paths,
	}, nil
}

// QueryJSON is the boundary adapter: it decodes a JSON request, runs the
// query, and always produces a well-formed JSON response, folding every
// failure into the structured error form. It never returns an absent result
// for a well-formed call.
func (e *Engine) QueryJSON(reqJSON []byte) []byte {
	var req types.WitnessRequest
	if err := json.Unmarshal(reqJSON, &req); err != nil {
		return marshalResponse(errResponse(fmt.Errorf("%w: %v", ErrInvalidRequest, err)))
	}

	resp, err := e.Query(&req)
	if err != nil {
		return marshalResponse(errResponse(err))
	}
	return marshalResponse(resp)
}

// errResponse converts an error into the boundary failure form. Internal
// invariant violations are reported generically rather than leaking state.
func errResponse(err error) *types.WitnessResponse {
	msg := err.Error()
	if errors.Is(err, tree.ErrInternal) {
		msg = "internal error"
	}
	return &types.WitnessResponse{Status: types.StatusErr, Error: msg}
}

func marshalResponse(resp *types.WitnessResponse) []byte {
	data, err := json.Marshal(resp)
	if err != nil {
		// Responses contain only primitives and hex strings; this cannot fail.
		return []byte(`{"status":"err","error":"internal error"}`)
	}
	return data
}
