package equation

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Evaluator computes the numeric value of one side of an equation. It
// returns an error for malformed input or an undefined result.
type Evaluator interface {
	Evaluate(expr string) (float64, error)
}

// maxFactorial is the largest n whose factorial fits in a float64
const maxFactorial = 170

var (
	errDivisionByZero = errors.New("division by zero")
	errModuloByZero   = errors.New("modulo by zero")
	errEmptyExpr      = errors.New("empty expression")
)

// Calculator is the built-in Evaluator. It understands + - * / % ^, postfix
// factorial, sqrt and abs, parentheses, absolute value bars and implicit
// multiplication such as 2(3+4). ^ is right associative and binds tighter
// than unary minus, so -2^2 is -4.
type Calculator struct{}

// Evaluate implements Evaluator
func (Calculator) Evaluate(expr string) (float64, error) {
	tokens, err := Tokenize(expr)
	if err != nil {
		return 0, err
	}
	return evaluateTokens(tokens)
}

func evaluateTokens(tokens []Token) (float64, error) {
	tokens, err := normalizeTokens(tokens)
	if err != nil {
		return 0, err
	}
	if len(tokens) == 0 {
		return 0, errEmptyExpr
	}
	p := &parser{tokens: tokens}
	v, err := p.expr()
	if err != nil {
		return 0, err
	}
	if !p.done() {
		return 0, p.unexpected()
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("result is not a finite number")
	}
	return v, nil
}

type parser struct {
	tokens []Token
	pos    int
}

func (p *parser) done() bool { return p.pos >= len(p.tokens) }

func (p *parser) peek() (Token, bool) {
	if p.done() {
		return Token{}, false
	}
	return p.tokens[p.pos], true
}

func (p *parser) unexpected() error {
	t, ok := p.peek()
	if !ok {
		return errors.New("unexpected end of expression")
	}
	return fmt.Errorf("unexpected %q at position %d", t.Value, t.Pos)
}

func (p *parser) isOp(values ...string) (string, bool) {
	t, ok := p.peek()
	if !ok || t.Kind != TokenOperator {
		return "", false
	}
	for _, v := range values {
		if t.Value == v {
			return v, true
		}
	}
	return "", false
}

// expr := term (('+' | '-') term)*
func (p *parser) expr() (float64, error) {
	left, err := p.term()
	if err != nil {
		return 0, err
	}
	for {
		op, ok := p.isOp("+", "-")
		if !ok {
			return left, nil
		}
		p.pos++
		right, err := p.term()
		if err != nil {
			return 0, err
		}
		if op == "+" {
			left += right
		} else {
			left -= right
		}
	}
}

// term := unary (('*' | '/' | '%') unary | primary-start unary)*
func (p *parser) term() (float64, error) {
	left, err := p.unary()
	if err != nil {
		return 0, err
	}
	for {
		op, ok := p.isOp("*", "/", "%")
		if ok {
			p.pos++
		} else if p.startsPrimary() {
			op = "*"
		} else {
			return left, nil
		}
		right, err := p.unary()
		if err != nil {
			return 0, err
		}
		switch op {
		case "*":
			left *= right
		case "/":
			if right == 0 {
				return 0, errDivisionByZero
			}
			left /= right
		case "%":
			if right == 0 {
				return 0, errModuloByZero
			}
			left = left - right*math.Floor(left/right)
		}
	}
}

func (p *parser) startsPrimary() bool {
	t, ok := p.peek()
	if !ok {
		return false
	}
	return t.Kind == TokenNumber || t.Kind == TokenLParen || t.Kind == TokenFunc
}

// unary := ('-' | '+') unary | power
func (p *parser) unary() (float64, error) {
	if op, ok := p.isOp("-", "+"); ok {
		p.pos++
		v, err := p.unary()
		if err != nil {
			return 0, err
		}
		if op == "-" {
			return -v, nil
		}
		return v, nil
	}
	return p.power()
}

// power := postfix ('^' unary)?
func (p *parser) power() (float64, error) {
	base, err := p.postfix()
	if err != nil {
		return 0, err
	}
	if _, ok := p.isOp("^"); !ok {
		return base, nil
	}
	p.pos++
	exp, err := p.unary()
	if err != nil {
		return 0, err
	}
	return math.Pow(base, exp), nil
}

// postfix := primary '!'*
func (p *parser) postfix() (float64, error) {
	v, err := p.primary()
	if err != nil {
		return 0, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.Kind != TokenFactorial {
			return v, nil
		}
		p.pos++
		v, err = factorial(v)
		if err != nil {
			return 0, err
		}
	}
}

// primary := Number | '(' expr ')' | Func primary
func (p *parser) primary() (float64, error) {
	t, ok := p.peek()
	if !ok {
		return 0, p.unexpected()
	}
	switch t.Kind {
	case TokenNumber:
		p.pos++
		v, err := strconv.ParseFloat(t.Value, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number %q", t.Value)
		}
		return v, nil
	case TokenLParen:
		p.pos++
		v, err := p.expr()
		if err != nil {
			return 0, err
		}
		if next, ok := p.peek(); !ok || next.Kind != TokenRParen {
			return 0, fmt.Errorf("missing closing parenthesis for position %d", t.Pos)
		}
		p.pos++
		return v, nil
	case TokenFunc:
		p.pos++
		arg, err := p.postfix()
		if err != nil {
			return 0, err
		}
		return applyFunc(t.Value, arg)
	default:
		return 0, p.unexpected()
	}
}

func applyFunc(name string, arg float64) (float64, error) {
	switch name {
	case FuncSqrt:
		if arg < 0 {
			return 0, fmt.Errorf("square root of negative number %s", formatNumber(arg))
		}
		return math.Sqrt(arg), nil
	case FuncAbs:
		return math.Abs(arg), nil
	default:
		return 0, fmt.Errorf("unknown function %q", name)
	}
}

func factorial(v float64) (float64, error) {
	if v < 0 || v != math.Trunc(v) {
		return 0, fmt.Errorf("factorial requires a non-negative integer, got %s", formatNumber(v))
	}
	if v > maxFactorial {
		return 0, fmt.Errorf("factorial argument %s is too large", formatNumber(v))
	}
	result := 1.0
	for i := 2.0; i <= v; i++ {
		result *= i
	}
	return result, nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
