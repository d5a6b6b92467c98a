package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSpan_Valid(t *testing.T) {
	tests := []struct {
		input    string
		expected Span
	}{
		{"[0.0, 5.2]", Span{Start: 0, End: 5.2}},
		{"[0,1]", Span{Start: 0, End: 1}},
		{"  [2, 3]  ", Span{Start: 2, End: 3}},
		{"(0.5, 10)", Span{Start: 0.5, End: 10}},
		{"[-1.5, 1e2]", Span{Start: -1.5, End: 100}},
		{"[ 12.25 ,\t13 ]", Span{Start: 12.25, End: 13}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			span, err := ParseSpan(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, span)
		})
	}
}

func TestParseSpan_Invalid(t *testing.T) {
	tests := []string{
		"",
		"[",
		"[]",
		"[1]",
		"[1, 2, 3]",
		`["1", "2"]`,
		"[null, 1]",
		"[true, 1]",
		"[[1], 2]",
		"[1, 2]]",
		"[1, 2] + [3]",
		"__import__('os').system('id')",
		"[1, 2,]",
		"1, 2",
		"{1, 2}",
		"(1, 2",
		"[NaN, 1]",
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			_, err := ParseSpan(input)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidSpan)
		})
	}
}

func TestSpan_String(t *testing.T) {
	assert.Equal(t, "[0, 5.2]", Span{Start: 0, End: 5.2}.String())
}
