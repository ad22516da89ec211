package equation

import (
	"fmt"
	"math"
	"strings"

	"crackledate/internal/models"
	"crackledate/internal/puzzle"
)

// Tolerance is the largest absolute difference at which both sides count
// as equal
const Tolerance = 1e-10

// Validator checks finished equations against a puzzle date
type Validator struct {
	eval      Evaluator
	tolerance float64
}

// NewValidator returns a Validator that evaluates sides with eval. A nil
// eval selects the built-in Calculator.
func NewValidator(eval Evaluator) *Validator {
	if eval == nil {
		eval = Calculator{}
	}
	return &Validator{eval: eval, tolerance: Tolerance}
}

// Validate runs every submit-time check on equation for date. A failed
// check is reported in the result, never as a Go error.
func (v *Validator) Validate(equation string, date puzzle.Date) models.ValidationResult {
	if strings.TrimSpace(equation) == "" {
		return failed(models.ErrIncompleteEquation, "Equation cannot be empty", models.ComplexityTrivial)
	}
	if !strings.Contains(equation, "=") {
		return failed(models.ErrIncompleteEquation, "Equation must contain an equals sign (=)", models.ComplexityTrivial)
	}

	tokens, err := Tokenize(equation)
	if err != nil {
		return failed(models.ErrEvaluation, "Invalid mathematical expression: "+err.Error(), models.ComplexityTrivial)
	}
	left, right, ok := SplitEquals(tokens)
	if !ok {
		return failed(models.ErrIncompleteEquation, "Equation must contain exactly one equals sign", models.ComplexityTrivial)
	}
	if len(left) == 0 || len(right) == 0 {
		return failed(models.ErrIncompleteEquation, "Both sides of the equation must have content", models.ComplexityTrivial)
	}

	required := date.Digits()
	used := Digits(tokens)
	usesAll := sameDigitSet(required, used)
	inOrder := sameSequence(required, used)
	if !usesAll || !inOrder {
		r := failed(models.ErrIncompleteEquation, "", models.ComplexityTrivial)
		r.UsesAllDigits = usesAll
		r.DigitsInOrder = inOrder
		if !usesAll {
			r.Error = "Must use all digits: " + joinDigits(required)
		} else {
			r.Error = "Digits must appear in order: " + joinDigits(required)
		}
		return r
	}

	lv, lerr := v.evaluateSide(left)
	rv, rerr := v.evaluateSide(right)
	if err := firstErr(lerr, rerr); err != nil {
		r := failed(models.ErrEvaluation, "Mathematical evaluation error: "+err.Error(), models.ComplexitySimple)
		r.UsesAllDigits, r.DigitsInOrder = true, true
		return r
	}
	if math.Abs(lv-rv) >= v.tolerance {
		r := failed(models.ErrEvaluationMismatch,
			fmt.Sprintf("Left side (%s) does not equal right side (%s)", formatNumber(lv), formatNumber(rv)),
			models.ComplexitySimple)
		r.UsesAllDigits, r.DigitsInOrder = true, true
		return r
	}

	if IsTrivial(left, right) {
		r := failed(models.ErrTrivialSolution, "Trivial solutions (like multiplying by zero) are not allowed", models.ComplexityTrivial)
		r.UsesAllDigits, r.DigitsInOrder, r.MathematicallyCorrect = true, true, true
		return r
	}

	return models.ValidationResult{
		IsValid:               true,
		UsesAllDigits:         true,
		DigitsInOrder:         true,
		MathematicallyCorrect: true,
		Complexity:            ClassifyComplexity(ComplexityScore(tokens)),
	}
}

// evaluateSide hands one side to the evaluator in normalized notation
func (v *Validator) evaluateSide(side []Token) (float64, error) {
	norm, err := normalizeTokens(side)
	if err != nil {
		return 0, err
	}
	return v.eval.Evaluate(Join(norm))
}

func failed(kind error, msg string, c models.Complexity) models.ValidationResult {
	return models.ValidationResult{Error: msg, Kind: kind, Complexity: c}
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// sameDigitSet reports whether used holds exactly the required digits,
// in any order
func sameDigitSet(required, used []int) bool {
	if len(required) != len(used) {
		return false
	}
	var counts [10]int
	for _, d := range required {
		counts[d]++
	}
	for _, d := range used {
		counts[d]--
		if counts[d] < 0 {
			return false
		}
	}
	return true
}

func sameSequence(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func joinDigits(digits []int) string {
	parts := make([]string, len(digits))
	for i, d := range digits {
		parts[i] = fmt.Sprint(d)
	}
	return strings.Join(parts, ", ")
}
