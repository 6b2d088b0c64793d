package node

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

/*
Server exposes a witness service over HTTP.

Ingestion flow (driven by the ledger-sync collaborator):
  POST /commitments: append a batch of note commitments in ledger order
  POST /checkpoint:  snapshot the tree before applying a new block
  POST /rewind:      undo appends past a checkpoint after a reorg

Wallet flow:
  POST /track:    begin witness maintenance for spendable note positions
  POST /untrack:  stop maintenance once a note is spent
  POST /witness:  fetch the root and authentication paths for tracked notes
  GET  /root:     current root and size

Sessions:
  POST /sessions creates an independent tree; requests carry an optional
  session_id and default to the "default" session. Mutations on one session
  never touch another.

All responses are the structured {status: ok|err} JSON form; failures are
reported in-band, never as an empty body.
*/

// Server handles HTTP requests for a witness service node.
type Server struct {
	sessions   *SessionManager
	logger     *zap.Logger
	limiter    *rate.Limiter
	httpServer *http.Server
}

// NewServer creates a server over the given session manager. queryRate caps
// witness queries per second across all sessions; 0 disables limiting.
func NewServer(sessions *SessionManager, port int, queryRate float64, logger *zap.Logger) *Server {
	s := &Server{
		sessions: sessions,
		logger:   logger,
	}
	if queryRate > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(queryRate), int(queryRate)+1)
	}

	mux := http.NewServeMux()

	// Ledger ingestion endpoints
	mux.HandleFunc("/commitments", s.handleAppend)
	mux.HandleFunc("/checkpoint", s.handleCheckpoint)
	mux.HandleFunc("/rewind", s.handleRewind)

	// Wallet endpoints
	mux.HandleFunc("/track", s.handleTrack)
	mux.HandleFunc("/untrack", s.handleUntrack)
	mux.HandleFunc("/witness", s.handleWitness)
	mux.HandleFunc("/root", s.handleRoot)

	// Session management
	mux.HandleFunc("/sessions", s.handleSessions)

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	go func() {
		s.logger.Sugar().Infow("Starting witness server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			s.logger.Sugar().Errorw("HTTP server error", "error", err)
		}
	}()
	return nil
}

// Stop stops the HTTP server.
func (s *Server) Stop() error {
	return s.httpServer.Close()
}

// GetHandler returns the HTTP handler (for testing).
func (s *Server) GetHandler() http.Handler {
	return s.httpServer.Handler
}
