package equation

import "strconv"

// IsTrivial reports whether an equation, split into its two sides, matches
// one of the disallowed shortcut shapes:
//
//	9+1-7*2*0 = ...   a top-level term multiplied by a literal zero, on either side
//	a = a             identical sides
//	n+0 = m           n-0, n*1 and n/1 likewise, against a single number
func IsTrivial(left, right []Token) bool {
	return hasZeroedTerm(left) || hasZeroedTerm(right) ||
		sameTokens(left, right) ||
		neutralOperation(left, right) || neutralOperation(right, left)
}

// hasZeroedTerm reports whether side holds a top-level * with a literal 0
// operand. A zero followed by ! or ^, or preceded by ^, is not a plain
// factor.
func hasZeroedTerm(side []Token) bool {
	depth := 0
	inBars := false
	for i, t := range side {
		switch t.Kind {
		case TokenLParen:
			depth++
		case TokenRParen:
			depth--
		case TokenPipe:
			inBars = !inBars
		case TokenOperator:
			if t.Value != "*" || depth != 0 || inBars {
				continue
			}
			if i > 0 && zeroOperand(side, i-1, false) {
				return true
			}
			if i+1 < len(side) && zeroOperand(side, i+1, true) {
				return true
			}
		}
	}
	return false
}

// zeroOperand reports whether side[i] is a literal 0 used as a plain factor.
// after is true when the token follows the * operator.
func zeroOperand(side []Token, i int, after bool) bool {
	if !numberEquals(side[i], 0) {
		return false
	}
	if after {
		if i+1 < len(side) {
			next := side[i+1]
			if next.Kind == TokenFactorial || next.Value == "^" {
				return false
			}
		}
		return true
	}
	if i > 0 && side[i-1].Value == "^" {
		return false
	}
	return true
}

func sameTokens(a, b []Token) bool {
	if len(a) != len(b) || len(a) == 0 {
		return false
	}
	for i := range a {
		if a[i].Kind != b[i].Kind || a[i].Value != b[i].Value {
			return false
		}
	}
	return true
}

// neutralOperation matches "n op k" where op with k leaves n unchanged,
// against a side holding a single number.
func neutralOperation(side, other []Token) bool {
	if len(other) != 1 || other[0].Kind != TokenNumber {
		return false
	}
	if len(side) != 3 || side[0].Kind != TokenNumber || side[1].Kind != TokenOperator {
		return false
	}
	switch side[1].Value {
	case "+", "-":
		return numberEquals(side[2], 0)
	case "*", "/":
		return numberEquals(side[2], 1)
	}
	return false
}

func numberEquals(t Token, want int) bool {
	if t.Kind != TokenNumber {
		return false
	}
	n, err := strconv.Atoi(t.Value)
	return err == nil && n == want
}
