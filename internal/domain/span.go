package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Span is the originally referenced time interval within the source media, in seconds.
// It is carried through as metadata and never affects the download.
type Span struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// String renders the span the way it appears in the input table
func (s Span) String() string {
	return fmt.Sprintf("[%g, %g]", s.Start, s.End)
}

// ParseSpan parses a two-element numeric sequence literal such as "[0.0, 5.2]" or "(0, 1)".
// Anything else (wrong arity, non-numbers, nesting, trailing text) is rejected.
func ParseSpan(literal string) (Span, error) {
	s := strings.TrimSpace(literal)
	if len(s) < 2 {
		return Span{}, fmt.Errorf("%w: %q", ErrInvalidSpan, literal)
	}

	// Tuples are accepted by rewriting the outer parentheses to brackets
	if s[0] == '(' && s[len(s)-1] == ')' {
		s = "[" + s[1:len(s)-1] + "]"
	}
	if s[0] != '[' || s[len(s)-1] != ']' {
		return Span{}, fmt.Errorf("%w: %q is not a sequence", ErrInvalidSpan, literal)
	}

	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(s), &elems); err != nil {
		return Span{}, fmt.Errorf("%w: %q: %v", ErrInvalidSpan, literal, err)
	}
	if len(elems) != 2 {
		return Span{}, fmt.Errorf("%w: %q has %d elements, want 2", ErrInvalidSpan, literal, len(elems))
	}

	start, err := parseNumber(elems[0])
	if err != nil {
		return Span{}, fmt.Errorf("%w: %q: start: %v", ErrInvalidSpan, literal, err)
	}
	end, err := parseNumber(elems[1])
	if err != nil {
		return Span{}, fmt.Errorf("%w: %q: end: %v", ErrInvalidSpan, literal, err)
	}

	return Span{Start: start, End: end}, nil
}

// parseNumber accepts a bare JSON number only; quoted numbers, null and nested values fail
func parseNumber(raw json.RawMessage) (float64, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" || text[0] == '"' || text[0] == '[' || text[0] == '{' {
		return 0, fmt.Errorf("%s is not a number", text)
	}
	return strconv.ParseFloat(text, 64)
}
