// Package scoring turns validation results into points
package scoring

import (
	"fmt"

	"crackledate/internal/models"
)

const (
	basePoints       = 10
	correctnessBonus = 5
	digitOrderBonus  = 10
	noPoints         = "No points - invalid solution"
)

var multipliers = map[models.Complexity]float64{
	models.ComplexityTrivial:  0.5,
	models.ComplexitySimple:   1,
	models.ComplexityModerate: 2,
	models.ComplexityComplex:  4,
	models.ComplexityAdvanced: 8,
}

var descriptions = map[models.Complexity]string{
	models.ComplexityTrivial:  "Basic solution - every start counts!",
	models.ComplexitySimple:   "Good basic solution!",
	models.ComplexityModerate: "Nice work with moderate complexity!",
	models.ComplexityComplex:  "Excellent complex solution!",
	models.ComplexityAdvanced: "Outstanding advanced mathematics!",
}

// Score returns the points for r. Invalid results score 0.
//
// Formula: base = 10 * multiplier(complexity)
//
//	+5 when mathematically correct
//	+10 when every digit is used in order
func Score(r models.ValidationResult) int {
	if !r.IsValid {
		return 0
	}
	mult, ok := multipliers[r.Complexity]
	if !ok {
		mult = multipliers[models.ComplexitySimple]
	}
	score := int(basePoints * mult)
	if r.MathematicallyCorrect {
		score += correctnessBonus
	}
	if r.UsesAllDigits && r.DigitsInOrder {
		score += digitOrderBonus
	}
	return score
}

// Describe renders a score for display, e.g. "25 points - Good basic solution!"
func Describe(score int, c models.Complexity) string {
	if score <= 0 {
		return noPoints
	}
	desc, ok := descriptions[c]
	if !ok {
		desc = descriptions[models.ComplexitySimple]
	}
	return fmt.Sprintf("%d points - %s", score, desc)
}
