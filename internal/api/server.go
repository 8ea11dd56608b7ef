// Package api exposes the generation workflow over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"deckcrafter/internal/logging"
	"deckcrafter/internal/store"
	"deckcrafter/internal/types"
	"deckcrafter/internal/workflow"
)

// GameStore is the persistence the API needs. *store.Store implements it.
type GameStore interface {
	Save(ctx context.Context, state *types.GameState) error
	Get(ctx context.Context, id string) (*types.GameState, error)
	List(ctx context.Context) ([]store.Summary, error)
	Delete(ctx context.Context, id string) error
}

// Server serves the game API. Stage execution is serialized per game.
type Server struct {
	ctrl  *workflow.Controller
	games GameStore

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewServer creates a Server.
func NewServer(ctrl *workflow.Controller, games GameStore) *Server {
	return &Server{
		ctrl:  ctrl,
		games: games,
		locks: make(map[string]*sync.Mutex),
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /games", s.handleCreate)
	mux.HandleFunc("GET /games", s.handleList)
	mux.HandleFunc("GET /games/{id}", s.handleGet)
	mux.HandleFunc("DELETE /games/{id}", s.handleDelete)
	mux.HandleFunc("GET /games/{id}/document", s.handleDocument)
	mux.HandleFunc("POST /games/{id}/stages/{stage}", s.handleStage)
	mux.HandleFunc("POST /games/{id}/run", s.handleRun)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return logRequests(mux)
}

// ListenAndServe serves on addr until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Server("API listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logging.Server("API shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

// lock returns the mutex serializing work on game id.
func (s *Server) lock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.locks[id]
	if !ok {
		m = &sync.Mutex{}
		s.locks[id] = m
	}
	return m
}

func (s *Server) forget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, id)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logging.ServerDebug("%s %s -> %d (%v)", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

type errorResponse struct {
	Error string           `json:"error"`
	Stage types.Stage      `json:"stage,omitempty"`
	Kind  types.ErrorKind  `json:"kind,omitempty"`
	State *types.GameState `json:"state,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		logging.Get(logging.CategoryServer).Warn("failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
