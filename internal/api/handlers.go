package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"deckcrafter/internal/logging"
	"deckcrafter/internal/store"
	"deckcrafter/internal/types"
	"deckcrafter/internal/workflow"
)

// CreateRequest is the body of POST /games.
type CreateRequest struct {
	Preferences types.UserPreferences `json:"preferences"`
	Description string                `json:"description,omitempty"`
}

// CreateResponse is returned by POST /games.
type CreateResponse struct {
	GameID string       `json:"game_id"`
	Status types.Status `json:"status"`
}

const maxBodyBytes = 1 << 20

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.Preferences.NumberOfPlayers != "" {
		if _, err := req.Preferences.PlayerRange(); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("preferences.number_of_players: %w", err))
			return
		}
	}

	prefs, err := s.ctrl.CompletePreferences(r.Context(), req.Description, req.Preferences)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, stageErrorResponse(err, nil))
		return
	}

	state := s.ctrl.NewGame(prefs)
	if err := s.games.Save(context.WithoutCancel(r.Context()), state); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	logging.Server("game created: %s", state.ID)
	writeJSON(w, http.StatusCreated, CreateResponse{GameID: state.ID, Status: state.Status})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	games, err := s.games.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if games == nil {
		games = []store.Summary{}
	}
	writeJSON(w, http.StatusOK, games)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	state, ok := s.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	m := s.lock(id)
	m.Lock()
	defer m.Unlock()

	if err := s.games.Delete(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}
	s.forget(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	state, ok := s.load(w, r)
	if !ok {
		return
	}
	doc, err := state.Document()
	if err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleStage(w http.ResponseWriter, r *http.Request) {
	stage, err := types.ParseStage(r.PathValue("stage"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	m := s.lock(r.PathValue("id"))
	m.Lock()
	defer m.Unlock()

	state, ok := s.loadLocked(w, r)
	if !ok {
		return
	}
	err = s.ctrl.RunStage(r.Context(), state, stage)
	if errors.Is(err, workflow.ErrStageOrder) {
		writeError(w, http.StatusConflict, err)
		return
	}
	s.finish(w, r, state)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	m := s.lock(r.PathValue("id"))
	m.Lock()
	defer m.Unlock()

	state, ok := s.loadLocked(w, r)
	if !ok {
		return
	}
	if state.Done() {
		writeJSON(w, http.StatusOK, state)
		return
	}
	s.ctrl.Resume(r.Context(), state)
	s.finish(w, r, state)
}

// finish persists state after a run and reports the outcome.
// finish persists state even when the client has gone away, so accepted
// stages survive for a later resume.
func (s *Server) finish(w http.ResponseWriter, r *http.Request, state *types.GameState) {
	if err := s.games.Save(context.WithoutCancel(r.Context()), state); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if state.TerminalError != nil {
		writeJSON(w, http.StatusUnprocessableEntity, stageErrorResponse(state.TerminalError, state))
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) load(w http.ResponseWriter, r *http.Request) (*types.GameState, bool) {
	state, err := s.games.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return nil, false
	}
	return state, true
}

// loadLocked is load for handlers holding the game lock. The lock of an
// unknown game is dropped.
func (s *Server) loadLocked(w http.ResponseWriter, r *http.Request) (*types.GameState, bool) {
	id := r.PathValue("id")
	state, err := s.games.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.forget(id)
		}
		writeStoreError(w, err)
		return nil, false
	}
	return state, true
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeError(w, http.StatusInternalServerError, err)
}

func stageErrorResponse(err error, state *types.GameState) errorResponse {
	resp := errorResponse{Error: err.Error(), State: state}
	var se *types.StageError
	if errors.As(err, &se) {
		resp.Stage = se.Stage
		resp.Kind = se.Kind
	}
	return resp
}
