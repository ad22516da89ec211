package models

import "errors"

// Error kinds. Compare with errors.Is.
var (
	ErrInputRejected      = errors.New("input rejected")
	ErrIncompleteEquation = errors.New("incomplete equation")
	ErrEvaluation         = errors.New("evaluation error")
	ErrEvaluationMismatch = errors.New("evaluation mismatch")
	ErrTrivialSolution    = errors.New("trivial solution rejected")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrImportMalformed    = errors.New("import malformed")
	ErrInvalidDate        = errors.New("invalid date")
	ErrHintsExhausted     = errors.New("hints exhausted")
	ErrNothingToShare     = errors.New("nothing to share")
)

// GameError is a player-facing failure with a human readable message
type GameError struct {
	Kind    error
	Message string
}

func (e *GameError) Error() string {
	if e.Message == "" && e.Kind != nil {
		return e.Kind.Error()
	}
	return e.Message
}

func (e *GameError) Unwrap() error {
	return e.Kind
}

// NewGameError builds a GameError of the given kind
func NewGameError(kind error, message string) *GameError {
	return &GameError{Kind: kind, Message: message}
}

// KindName returns a stable identifier for err's kind, used in API responses
func KindName(err error) string {
	switch {
	case errors.Is(err, ErrInputRejected):
		return "input_rejected"
	case errors.Is(err, ErrIncompleteEquation):
		return "incomplete_equation"
	case errors.Is(err, ErrEvaluationMismatch):
		return "evaluation_mismatch"
	case errors.Is(err, ErrEvaluation):
		return "evaluation_error"
	case errors.Is(err, ErrTrivialSolution):
		return "trivial_solution"
	case errors.Is(err, ErrStorageUnavailable):
		return "storage_unavailable"
	case errors.Is(err, ErrImportMalformed):
		return "import_malformed"
	case errors.Is(err, ErrInvalidDate):
		return "invalid_date"
	case errors.Is(err, ErrHintsExhausted):
		return "hints_exhausted"
	case errors.Is(err, ErrNothingToShare):
		return "nothing_to_share"
	default:
		return "internal"
	}
}
