package handlers

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"crackledate/internal/logging"
	"crackledate/internal/models"
	"crackledate/internal/service"
)

// GameHandler exposes the game service as a JSON API
type GameHandler struct {
	game   *service.GameService
	backup *service.BackupService
	log    *slog.Logger
}

// NewGameHandler creates a new game handler
func NewGameHandler(game *service.GameService, backup *service.BackupService, logger *slog.Logger) *GameHandler {
	return &GameHandler{
		game:   game,
		backup: backup,
		log:    logging.OrDiscard(logger),
	}
}

// RegisterRoutes wires every API route onto mux. Mutating routes are rate
// limited.
func RegisterRoutes(mux *http.ServeMux, h *GameHandler, mw *Middleware, metrics *Metrics) {
	mux.HandleFunc("GET /api/state", h.State)
	mux.HandleFunc("POST /api/token", mw.RateLimit(h.AppendToken))
	mux.HandleFunc("POST /api/equation", mw.RateLimit(h.SetEquation))
	mux.HandleFunc("POST /api/filter", mw.RateLimit(h.FilterInput))
	mux.HandleFunc("POST /api/backspace", mw.RateLimit(h.Backspace))
	mux.HandleFunc("POST /api/clear", mw.RateLimit(h.Clear))
	mux.HandleFunc("POST /api/submit", mw.RateLimit(h.Submit))
	mux.HandleFunc("POST /api/hint", mw.RateLimit(h.Hint))
	mux.HandleFunc("POST /api/date", mw.RateLimit(h.SelectDate))
	mux.HandleFunc("GET /api/dates", h.Dates)
	mux.HandleFunc("GET /api/stats", h.Stats)
	mux.HandleFunc("GET /api/achievements", h.Achievements)
	mux.HandleFunc("GET /api/preferences", h.Preferences)
	mux.HandleFunc("PUT /api/preferences", mw.RateLimit(h.UpdatePreferences))
	mux.HandleFunc("POST /api/preferences/theme", mw.RateLimit(h.CycleTheme))
	mux.HandleFunc("GET /api/share", h.Share)
	mux.HandleFunc("POST /api/share/verify", mw.RateLimit(h.VerifyShare))
	mux.HandleFunc("GET /api/export", h.Export)
	mux.HandleFunc("POST /api/import", mw.RateLimit(h.Import))
	mux.HandleFunc("POST /api/reset", mw.RateLimit(h.Reset))
	mux.HandleFunc("GET /healthz", h.Health)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics.Handler())
	}
}

func (h *GameHandler) logger(r *http.Request) *slog.Logger {
	return h.log.With("request_id", GetRequestID(r.Context()))
}

// State returns the selected day
func (h *GameHandler) State(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.game.State())
}

type tokenRequest struct {
	Token string `json:"token"`
}

// AppendToken adds one input to the draft equation
func (h *GameHandler) AppendToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.logger(r), http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return
	}
	state, err := h.game.AppendToken(r.Context(), req.Token)
	if err != nil {
		respondWithGameError(w, h.logger(r), err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

type equationRequest struct {
	Equation string `json:"equation"`
}

// SetEquation replaces the draft equation
func (h *GameHandler) SetEquation(w http.ResponseWriter, r *http.Request) {
	var req equationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.logger(r), http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return
	}
	respondJSON(w, http.StatusOK, h.game.SetEquation(r.Context(), req.Equation))
}

type filterRequest struct {
	Input string `json:"input"`
}

// FilterInput appends the acceptable part of pasted text
func (h *GameHandler) FilterInput(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.logger(r), http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return
	}
	respondJSON(w, http.StatusOK, h.game.FilterInput(r.Context(), req.Input))
}

// Backspace removes the last input
func (h *GameHandler) Backspace(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.game.RemoveLastToken(r.Context()))
}

// Clear empties the draft
func (h *GameHandler) Clear(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.game.ClearEquation(r.Context()))
}

// Submit validates the draft and records a solution
func (h *GameHandler) Submit(w http.ResponseWriter, r *http.Request) {
	result, err := h.game.Submit(r.Context())
	if err != nil {
		respondWithGameError(w, h.logger(r), err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Hint spends one hint for the selected day
func (h *GameHandler) Hint(w http.ResponseWriter, r *http.Request) {
	hint, err := h.game.UseHint(r.Context())
	if err != nil {
		respondWithGameError(w, h.logger(r), err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"hint":  hint,
		"state": h.game.State(),
	})
}

type dateRequest struct {
	Date string `json:"date"`
}

// SelectDate switches to another puzzle date
func (h *GameHandler) SelectDate(w http.ResponseWriter, r *http.Request) {
	var req dateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.logger(r), http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return
	}
	state, err := h.game.SelectDate(r.Context(), req.Date)
	if err != nil {
		respondWithGameError(w, h.logger(r), err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

// Dates lists dates with recorded history
func (h *GameHandler) Dates(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"today": h.game.Today().String(),
		"dates": h.game.AvailableDates(),
	})
}

// Stats returns aggregate stats
func (h *GameHandler) Stats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.game.Stats())
}

// Achievements returns every achievement with progress
func (h *GameHandler) Achievements(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.game.Achievements())
}

// Preferences returns user preferences
func (h *GameHandler) Preferences(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.game.Preferences())
}

// UpdatePreferences replaces user preferences
func (h *GameHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req models.Preferences
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.logger(r), http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return
	}
	respondJSON(w, http.StatusOK, h.game.SetPreferences(r.Context(), req))
}

// CycleTheme advances the theme mode
func (h *GameHandler) CycleTheme(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.game.CycleThemeMode(r.Context()))
}

// Share returns the share card for the selected day
func (h *GameHandler) Share(w http.ResponseWriter, r *http.Request) {
	card, err := h.game.Share()
	if err != nil {
		respondWithGameError(w, h.logger(r), err)
		return
	}
	respondJSON(w, http.StatusOK, card)
}

type verifyRequest struct {
	Token string `json:"token"`
}

// VerifyShare checks a share token and returns its summary
func (h *GameHandler) VerifyShare(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.logger(r), http.StatusBadRequest, ErrInvalidRequestBody, "", nil)
		return
	}
	claims, err := h.game.VerifyShare(req.Token)
	if err != nil {
		h.logger(r).Debug("share token rejected", "error", err)
		respondWithError(w, h.logger(r), http.StatusBadRequest, ErrInvalidShareToken, "", nil)
		return
	}
	respondJSON(w, http.StatusOK, claims)
}

// Export downloads a backup bundle
func (h *GameHandler) Export(w http.ResponseWriter, r *http.Request) {
	h.game.Flush(r.Context())

	var buf bytes.Buffer
	if err := h.backup.ExportToWriter(r.Context(), &buf); err != nil {
		respondWithError(w, h.logger(r), http.StatusInternalServerError, ErrExportFailed, "export failed", err)
		return
	}

	filename := fmt.Sprintf("crackle-date-backup_%s.json", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// Import restores a backup bundle and reloads the game
func (h *GameHandler) Import(w http.ResponseWriter, r *http.Request) {
	h.game.Flush(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxImportBody)
	summary, err := h.backup.ImportFromReader(r.Context(), r.Body)
	if err != nil {
		respondWithGameError(w, h.logger(r), err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"summary": summary,
		"state":   h.game.Load(r.Context()),
	})
}

// Reset clears stats and history
func (h *GameHandler) Reset(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.game.Reset(r.Context()))
}

// Health reports liveness
func (h *GameHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
