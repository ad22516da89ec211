package equation

import "crackledate/internal/models"

// operatorWeights is the complexity contribution of each operator occurrence.
// A function call weighs the same with or without its parentheses, and a
// pair of bars weighs the same as abs(x).
var operatorWeights = map[string]int{
	"+":      1,
	"-":      1,
	"*":      2,
	"/":      2,
	"%":      3,
	"^":      4,
	"!":      3,
	FuncSqrt: 3,
	FuncAbs:  2,
	"|":      1,
	"(":      1,
	")":      1,
}

// ComplexityScore sums operator weights over every token of the equation.
// Digits and the equals sign weigh nothing. The parentheses of sqrt( and
// abs( belong to the call and add nothing.
func ComplexityScore(tokens []Token) int {
	score := 0
	var calls []bool // one entry per open parenthesis
	for i, t := range tokens {
		switch t.Kind {
		case TokenLParen:
			call := i > 0 && tokens[i-1].Kind == TokenFunc
			calls = append(calls, call)
			if call {
				continue
			}
		case TokenRParen:
			if n := len(calls); n > 0 {
				call := calls[n-1]
				calls = calls[:n-1]
				if call {
					continue
				}
			}
		}
		score += operatorWeights[t.Value]
	}
	return score
}

// ClassifyComplexity buckets a complexity score into a level
func ClassifyComplexity(score int) models.Complexity {
	switch {
	case score <= 2:
		return models.ComplexityTrivial
	case score <= 5:
		return models.ComplexitySimple
	case score <= 10:
		return models.ComplexityModerate
	case score <= 15:
		return models.ComplexityComplex
	default:
		return models.ComplexityAdvanced
	}
}
