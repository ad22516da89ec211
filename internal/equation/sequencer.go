package equation

import (
	"fmt"
	"strings"

	"crackledate/internal/models"
)

// Symbols lists every non-digit input that may be appended to an equation
var Symbols = []string{"+", "-", "*", "/", "^", "%", "!", "|", "(", ")", "=", "√", "×", "÷", " ", "sqrt(", "abs("}

func isSymbol(s string) bool {
	for _, sym := range Symbols {
		if s == sym {
			return true
		}
	}
	return false
}

func inputRejected(format string, args ...any) error {
	return models.NewGameError(models.ErrInputRejected, fmt.Sprintf(format, args...))
}

// ValidateToken gates a single input before it is appended to current.
// A digit must be the next required digit; symbols are always accepted
// except a second equals sign.
func ValidateToken(current, token string, required []int) error {
	if len(token) == 1 && token[0] >= '0' && token[0] <= '9' {
		used := len(DigitsOf(current))
		if used >= len(required) {
			return inputRejected("All required digits have been used")
		}
		if want := required[used]; int(token[0]-'0') != want {
			return inputRejected("Expected digit %d, got %s", want, token)
		}
		return nil
	}
	if isSymbol(token) {
		if token == "=" && strings.Contains(current, "=") {
			return inputRejected("Only one equals sign allowed")
		}
		return nil
	}
	return inputRejected("Invalid character: %s", token)
}

// FilterInput appends as much of bulk text to current as the gate allows,
// dropping anything that would be rejected. It returns only the accepted
// characters, not current itself.
func FilterInput(input, current string, required []int) string {
	var accepted strings.Builder
	eq := current
	for i := 0; i < len(input); {
		var tok string
		switch {
		case strings.HasPrefix(input[i:], "sqrt("):
			tok = "sqrt("
		case strings.HasPrefix(input[i:], "abs("):
			tok = "abs("
		default:
			_, size := decodeRune(input[i:])
			tok = input[i : i+size]
		}
		i += len(tok)
		if ValidateToken(eq, tok, required) != nil {
			continue
		}
		accepted.WriteString(tok)
		eq += tok
	}
	return accepted.String()
}

// NextAllowedInputs lists the inputs ValidateToken would accept next:
// the next required digit, if any, followed by the symbols.
func NextAllowedInputs(current string, required []int) []string {
	var allowed []string
	if used := len(DigitsOf(current)); used < len(required) {
		allowed = append(allowed, fmt.Sprint(required[used]))
	}
	hasEquals := strings.Contains(current, "=")
	for _, sym := range Symbols {
		if sym == "=" && hasEquals {
			continue
		}
		allowed = append(allowed, sym)
	}
	return allowed
}

// InputHint describes what the player should enter next
func InputHint(current string, required []int) string {
	used := len(DigitsOf(current))
	if used < len(required) {
		return fmt.Sprintf("Next digit: %d (remaining: %s)", required[used], joinDigits(required[used:]))
	}
	return "All digits used! Add operators and = to complete equation"
}

// Progress summarizes an in-progress equation
type Progress struct {
	DigitsUsed      int    `json:"digitsUsed"`
	DigitsRemaining []int  `json:"digitsRemaining"`
	NextDigit       *int   `json:"nextDigit,omitempty"`
	HasEquals       bool   `json:"hasEquals"`
	Ready           bool   `json:"ready"`
	Hint            string `json:"hint"`

	// Error is set when current breaks the prefix rule, e.g. a draft
	// restored from a record written before the gate existed
	Error string `json:"error,omitempty"`
}

// CheckProgress reports how far current has come towards a submittable
// equation
func CheckProgress(current string, required []int) Progress {
	used := DigitsOf(current)
	p := Progress{
		DigitsUsed: len(used),
		HasEquals:  strings.Contains(current, "="),
		Hint:       InputHint(current, required),
	}
	if len(used) < len(required) {
		next := required[len(used)]
		p.NextDigit = &next
		p.DigitsRemaining = append([]int(nil), required[len(used):]...)
	} else {
		p.DigitsRemaining = []int{}
	}
	if !isPrefix(used, required) {
		p.Error = "Digits must appear in order: " + joinDigits(required)
	} else if strings.Count(current, "=") > 1 {
		p.Error = "Only one equals sign allowed"
	}
	p.Ready = p.Error == "" && ReadyToSubmit(current, required)
	return p
}

// ReadyToSubmit reports whether current has exactly one equals sign, a
// digit on each side and every required digit in order
func ReadyToSubmit(current string, required []int) bool {
	parts := strings.Split(current, "=")
	if len(parts) != 2 {
		return false
	}
	if len(DigitsOf(parts[0])) == 0 || len(DigitsOf(parts[1])) == 0 {
		return false
	}
	return sameSequence(DigitsOf(current), required)
}

// RemoveLastToken deletes the final input from current. Trailing spaces
// go with it and sqrt( or abs( is removed as a unit.
func RemoveLastToken(current string) string {
	s := strings.TrimRight(current, " ")
	for _, fn := range []string{"sqrt(", "abs("} {
		if strings.HasSuffix(s, fn) {
			return s[:len(s)-len(fn)]
		}
	}
	if s == "" {
		return ""
	}
	runes := []rune(s)
	return string(runes[:len(runes)-1])
}

func isPrefix(used, required []int) bool {
	if len(used) > len(required) {
		return false
	}
	for i := range used {
		if used[i] != required[i] {
			return false
		}
	}
	return true
}
