package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"crackledate/internal/models"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// respondWithError writes a JSON error body and logs err when present
func respondWithError(w http.ResponseWriter, logger *slog.Logger, status int, userMsg, logMsg string, err error) {
	resp := errorResponse{Error: userMsg}
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		level := slog.LevelWarn
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(context.Background(), level, logMsg, "status", status, "error", err)
		resp.Kind = models.KindName(err)
	}
	respondJSON(w, status, resp)
}

// respondWithGameError maps err's kind to a status. Player-facing kinds
// carry their own message; anything else is reported as internal.
func respondWithGameError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		respondWithError(w, logger, status, ErrInternalServerError, "request failed", err)
		return
	}
	var gameErr *models.GameError
	msg := err.Error()
	if errors.As(err, &gameErr) {
		msg = gameErr.Error()
	}
	logger.Debug("request rejected", "kind", models.KindName(err), "error", msg)
	respondJSON(w, status, errorResponse{Error: msg, Kind: models.KindName(err)})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrImportMalformed):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrInputRejected),
		errors.Is(err, models.ErrIncompleteEquation),
		errors.Is(err, models.ErrEvaluation),
		errors.Is(err, models.ErrEvaluationMismatch),
		errors.Is(err, models.ErrTrivialSolution),
		errors.Is(err, models.ErrHintsExhausted),
		errors.Is(err, models.ErrNothingToShare),
		errors.Is(err, models.ErrInvalidDate):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a bounded JSON body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
