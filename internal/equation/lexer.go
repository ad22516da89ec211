// Package equation checks, evaluates and classifies puzzle equations.
//
// Equations are tokenized once and every check (digit order, trivial
// patterns, complexity) runs over the token stream rather than raw text.
package equation

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenKind identifies the lexical class of a token
type TokenKind int

const (
	TokenNumber TokenKind = iota
	TokenOperator
	TokenFactorial
	TokenPipe
	TokenLParen
	TokenRParen
	TokenEquals
	TokenFunc
)

func (k TokenKind) String() string {
	switch k {
	case TokenNumber:
		return "number"
	case TokenOperator:
		return "operator"
	case TokenFactorial:
		return "factorial"
	case TokenPipe:
		return "pipe"
	case TokenLParen:
		return "lparen"
	case TokenRParen:
		return "rparen"
	case TokenEquals:
		return "equals"
	case TokenFunc:
		return "func"
	default:
		return "unknown"
	}
}

// Function names recognised by the lexer
const (
	FuncSqrt = "sqrt"
	FuncAbs  = "abs"
)

// Token is one lexical unit. Operators are stored in ASCII form
// (× → *, ÷ → /) and √ becomes a sqrt function token.
type Token struct {
	Kind  TokenKind
	Value string
	Pos   int // byte offset in the source
}

// Tokenize splits s into tokens. Whitespace is skipped. Any character that
// is not part of the equation alphabet is an error.
func Tokenize(s string) ([]Token, error) {
	var tokens []Token
	for i := 0; i < len(s); {
		r, size := decodeRune(s[i:])
		switch {
		case unicode.IsSpace(r):
			i += size
		case r >= '0' && r <= '9':
			start := i
			for i < len(s) && s[i] >= '0' && s[i] <= '9' {
				i++
			}
			tokens = append(tokens, Token{Kind: TokenNumber, Value: s[start:i], Pos: start})
		case r == '+' || r == '-' || r == '*' || r == '/' || r == '^' || r == '%':
			tokens = append(tokens, Token{Kind: TokenOperator, Value: string(r), Pos: i})
			i += size
		case r == '×':
			tokens = append(tokens, Token{Kind: TokenOperator, Value: "*", Pos: i})
			i += size
		case r == '÷':
			tokens = append(tokens, Token{Kind: TokenOperator, Value: "/", Pos: i})
			i += size
		case r == '!':
			tokens = append(tokens, Token{Kind: TokenFactorial, Value: "!", Pos: i})
			i += size
		case r == '|':
			tokens = append(tokens, Token{Kind: TokenPipe, Value: "|", Pos: i})
			i += size
		case r == '(':
			tokens = append(tokens, Token{Kind: TokenLParen, Value: "(", Pos: i})
			i += size
		case r == ')':
			tokens = append(tokens, Token{Kind: TokenRParen, Value: ")", Pos: i})
			i += size
		case r == '=':
			tokens = append(tokens, Token{Kind: TokenEquals, Value: "=", Pos: i})
			i += size
		case r == '√':
			tokens = append(tokens, Token{Kind: TokenFunc, Value: FuncSqrt, Pos: i})
			i += size
		case strings.HasPrefix(s[i:], FuncSqrt):
			tokens = append(tokens, Token{Kind: TokenFunc, Value: FuncSqrt, Pos: i})
			i += len(FuncSqrt)
		case strings.HasPrefix(s[i:], FuncAbs):
			tokens = append(tokens, Token{Kind: TokenFunc, Value: FuncAbs, Pos: i})
			i += len(FuncAbs)
		default:
			return nil, fmt.Errorf("invalid character %q at position %d", r, i)
		}
	}
	return tokens, nil
}

// Digits returns every digit in the token stream, left to right
func Digits(tokens []Token) []int {
	var digits []int
	for _, t := range tokens {
		if t.Kind != TokenNumber {
			continue
		}
		for _, c := range t.Value {
			digits = append(digits, int(c-'0'))
		}
	}
	return digits
}

// DigitsOf extracts digit characters from raw text without tokenizing it
func DigitsOf(s string) []int {
	var digits []int
	for _, c := range s {
		if c >= '0' && c <= '9' {
			digits = append(digits, int(c-'0'))
		}
	}
	return digits
}

// SplitEquals splits tokens around the single equals token. ok is false
// when there is not exactly one.
func SplitEquals(tokens []Token) (left, right []Token, ok bool) {
	idx := -1
	for i, t := range tokens {
		if t.Kind != TokenEquals {
			continue
		}
		if idx >= 0 {
			return nil, nil, false
		}
		idx = i
	}
	if idx < 0 {
		return nil, nil, false
	}
	return tokens[:idx], tokens[idx+1:], true
}

// Join renders tokens back into compact ASCII text
func Join(tokens []Token) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(t.Value)
	}
	return b.String()
}

func decodeRune(s string) (rune, int) {
	if s == "" {
		return 0, 1
	}
	return utf8.DecodeRuneInString(s)
}
