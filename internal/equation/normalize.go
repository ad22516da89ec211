package equation

import "errors"

var errUnmatchedBar = errors.New("unmatched absolute value bar")

// Normalize rewrites an expression into the evaluator's notation:
// √ → sqrt, × → *, ÷ → /, and |x| → abs(x).
//
// Bars pair up left to right, so "|a|+|b|" is two absolute values. A bar
// cannot open a nested absolute value; write abs( for that. An odd number
// of bars is an error.
func Normalize(expr string) (string, error) {
	tokens, err := Tokenize(expr)
	if err != nil {
		return "", err
	}
	norm, err := normalizeTokens(tokens)
	if err != nil {
		return "", err
	}
	return Join(norm), nil
}

func normalizeTokens(tokens []Token) ([]Token, error) {
	out := make([]Token, 0, len(tokens)+4)
	open := false
	for _, t := range tokens {
		if t.Kind != TokenPipe {
			out = append(out, t)
			continue
		}
		if open {
			out = append(out, Token{Kind: TokenRParen, Value: ")", Pos: t.Pos})
		} else {
			out = append(out,
				Token{Kind: TokenFunc, Value: FuncAbs, Pos: t.Pos},
				Token{Kind: TokenLParen, Value: "(", Pos: t.Pos},
			)
		}
		open = !open
	}
	if open {
		return nil, errUnmatchedBar
	}
	return out, nil
}
