package equation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculatorEvaluate(t *testing.T) {
	tests := []struct {
		expr string
		want float64
	}{
		{"1+2*3", 7},
		{"(1+2)*3", 9},
		{"2^3^2", 512},
		{"-2^2", -4},
		{"2^-1", 0.5},
		{"3!", 6},
		{"3!!", 720},
		{"0!", 1},
		{"sqrt(16)", 4},
		{"√9+1", 4},
		{"abs(2-7)", 5},
		{"|2-7|", 5},
		{"|1-3|+|4-9|", 7},
		{"7%3", 1},
		{"-7%3", 2},
		{"2(3+4)", 14},
		{"6÷2×3", 9},
		{"0013", 13},
		{"10/4", 2.5},
		{"--3", 3},
		{" 1 + 1 ", 2},
	}

	calc := Calculator{}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := calc.Evaluate(tt.expr)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestCalculatorErrors(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"empty", ""},
		{"division by zero", "1/0"},
		{"modulo by zero", "5%0"},
		{"negative sqrt", "sqrt(0-4)"},
		{"fractional factorial", "(5/2)!"},
		{"huge factorial", "171!"},
		{"dangling operator", "1+"},
		{"unclosed paren", "(1+2"},
		{"stray close paren", "1+2)"},
		{"odd bars", "|3"},
		{"invalid character", "1+x"},
		{"overflow", "10^400"},
	}

	calc := Calculator{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := calc.Evaluate(tt.expr)
			assert.Error(t, err)
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"√4", "sqrt4"},
		{"2×3÷1", "2*3/1"},
		{"|1-3|", "abs(1-3)"},
		{"|1|+|2|", "abs(1)+abs(2)"},
		{"abs(|1-2|)", "abs(abs(1-2))"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Normalize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Normalize("|1|+|2")
	assert.Error(t, err)
}
