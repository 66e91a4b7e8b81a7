package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gassure/escrowd/internal/escrow"
	"github.com/gassure/escrowd/internal/models"
	"github.com/gassure/escrowd/internal/storage"
)

type fundEscrowRequest struct {
	Amount int64 `json:"amount"`
}

type confirmRequest struct {
	Actor string `json:"actor"`
}

type toggleNotarizationRequest struct {
	Enabled *bool `json:"enabled"`
}

type fundAccountRequest struct {
	Target string `json:"target"`
	Amount int64  `json:"amount"`
}

type eventsResponse struct {
	Events []models.SettlementEvent `json:"events"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	state, err := s.svc.GetState(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleToggleNotarization(w http.ResponseWriter, r *http.Request) {
	var req toggleNotarizationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Enabled == nil {
		writeValidationError(w, "enabled is required")
		return
	}

	state, err := s.svc.ToggleNotarization(r.Context(), *req.Enabled)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{
		"notarizationEnabled": state.NotarizationEnabled,
	})
}

func (s *Server) handleFundEscrow(w http.ResponseWriter, r *http.Request) {
	var req fundEscrowRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Amount <= 0 {
		writeValidationError(w, "amount must be greater than zero")
		return
	}

	state, err := s.svc.FundEscrow(r.Context(), req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	actor, err := parseActor(req.Actor)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}

	state, err := s.svc.Confirm(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	state, err := s.svc.Reset(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleFundAccount(w http.ResponseWriter, r *http.Request) {
	var req fundAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	target, err := parseActor(req.Target)
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}
	if req.Amount <= 0 {
		writeValidationError(w, "amount must be greater than zero")
		return
	}

	state, err := s.svc.FundAccount(r.Context(), target, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeValidationError(w, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	events, err := s.svc.ListEvents(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if events == nil {
		events = []models.SettlementEvent{}
	}
	writeJSON(w, http.StatusOK, eventsResponse{Events: events})
}

func (s *Server) handleClearEvents(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.ClearEvents(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, eventsResponse{Events: []models.SettlementEvent{}})
}

func parseActor(raw string) (models.Actor, error) {
	switch models.Actor(raw) {
	case models.ActorP1:
		return models.ActorP1, nil
	case models.ActorP2:
		return models.ActorP2, nil
	default:
		return "", fmt.Errorf("actor must be P1 or P2")
	}
}

// decodeJSON parses the request body into v, answering 400 on malformed
// input. Returns false when the request has already been answered.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeValidationError(w, "invalid JSON body")
		return false
	}
	return true
}

func writeValidationError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: message})
}

// writeError maps facade errors onto HTTP statuses: transition rejections
// are client errors, a busy transaction slot is a conflict, and anything
// else is an opaque internal error.
func writeError(w http.ResponseWriter, err error) {
	var te *escrow.Error
	switch {
	case errors.As(err, &te):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: te.Message, Code: string(te.Code)})
	case errors.Is(err, storage.ErrBusy):
		writeJSON(w, http.StatusConflict, errorResponse{
			Error: "another settlement operation is in progress",
			Code:  "BUSY",
		})
	default:
		slog.Error("internal error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
