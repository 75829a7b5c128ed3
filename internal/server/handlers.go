package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/lox/pebbles/internal/game"
	"github.com/lox/pebbles/internal/protocol"
)

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	state, err := s.gameService.State()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleInit(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	cfg, err := protocol.DecodeConfig(body)
	if err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.gameService.Initialize(cfg, nil)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	action, err := protocol.DecodeAction(body)
	if err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.gameService.Act(action, nil)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxMessageSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", protocol.ErrMalformedPayload, err)
	}
	return body, nil
}

// StatusFor maps an error code to the HTTP status the API answers with.
func StatusFor(code game.Code) int {
	switch code {
	case game.CodeInvalidConfiguration, game.CodeInvalidMove, protocol.CodeMalformedPayload:
		return http.StatusBadRequest
	case game.CodeNotInitialized:
		return http.StatusNotFound
	case game.CodeAlreadyInitialized, game.CodeGameOver:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	data := protocol.NewErrorData(err)
	status := StatusFor(data.Code)
	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed", "error", err)
	}
	s.writeJSON(w, status, data)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to write response", "error", err)
	}
}
