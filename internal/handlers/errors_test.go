package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"crackledate/internal/logging"
	"crackledate/internal/models"
)

func TestRespondWithErrorWritesStatusAndBody(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondWithError(recorder, logging.Discard(), 418, "Teapot", "", nil)

	if recorder.Code != 418 {
		t.Fatalf("expected status 418, got %d", recorder.Code)
	}

	var body errorResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected JSON body, got %q", recorder.Body.String())
	}
	if body.Error != "Teapot" {
		t.Fatalf("expected error 'Teapot', got %q", body.Error)
	}
	if body.Kind != "" {
		t.Fatalf("expected no kind without an error, got %q", body.Kind)
	}
}

func TestRespondWithErrorLogsMessage(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	recorder := httptest.NewRecorder()
	err := errors.New("boom")

	respondWithError(recorder, logger, 500, "Internal server error", "", err)

	logOutput := buf.String()
	if !strings.Contains(logOutput, "Internal server error") {
		t.Fatalf("expected log to include user message, got %q", logOutput)
	}
	if !strings.Contains(logOutput, "boom") {
		t.Fatalf("expected log to include error, got %q", logOutput)
	}
	if !strings.Contains(logOutput, "level=ERROR") {
		t.Fatalf("expected server errors to log at ERROR, got %q", logOutput)
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{models.NewGameError(models.ErrInputRejected, "x"), http.StatusUnprocessableEntity},
		{models.NewGameError(models.ErrIncompleteEquation, "x"), http.StatusUnprocessableEntity},
		{models.NewGameError(models.ErrEvaluation, "x"), http.StatusUnprocessableEntity},
		{models.NewGameError(models.ErrEvaluationMismatch, "x"), http.StatusUnprocessableEntity},
		{models.NewGameError(models.ErrTrivialSolution, "x"), http.StatusUnprocessableEntity},
		{models.NewGameError(models.ErrHintsExhausted, "x"), http.StatusUnprocessableEntity},
		{models.NewGameError(models.ErrNothingToShare, "x"), http.StatusUnprocessableEntity},
		{models.NewGameError(models.ErrInvalidDate, "x"), http.StatusUnprocessableEntity},
		{fmt.Errorf("wrapped: %w", models.NewGameError(models.ErrImportMalformed, "x")), http.StatusBadRequest},
		{models.NewGameError(models.ErrStorageUnavailable, "x"), http.StatusInternalServerError},
		{errors.New("unknown"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := statusForError(tt.err); got != tt.want {
				t.Errorf("statusForError(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestRespondWithGameErrorHidesInternalDetail(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondWithGameError(recorder, logging.Discard(), errors.New("disk on fire"))

	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", recorder.Code)
	}
	if strings.Contains(recorder.Body.String(), "disk on fire") {
		t.Fatalf("internal error leaked to client: %q", recorder.Body.String())
	}
}
