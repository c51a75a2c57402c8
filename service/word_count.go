package service

import (
	"fmt"
	"strconv"
	"strings"
)

// WordCountArgument is a parsed word-count expression. An expression that
// starts with '+' or '-' is a relative delta against the user's running
// total; anything else is an absolute total. Commas are ignored so numbers
// formatted like 1,234 don't break the parser.
type WordCountArgument struct {
	relative bool
	value    int64
}

// ParseWordCount parses a word-count expression. Returns ErrInvalidFormat
// (wrapped) when the numeric portion is not a valid non-negative integer.
func ParseWordCount(s string) (WordCountArgument, error) {
	trimmed := strings.TrimSpace(s)

	relative := false
	sign := int64(1)
	remainder := trimmed
	if strings.HasPrefix(trimmed, "+") || strings.HasPrefix(trimmed, "-") {
		relative = true
		if trimmed[0] == '-' {
			sign = -1
		}
		remainder = trimmed[1:]
	}

	remainder = strings.ReplaceAll(remainder, ",", "")
	value, err := strconv.ParseInt(remainder, 10, 64)
	if err != nil || value < 0 {
		return WordCountArgument{}, fmt.Errorf("cannot parse %q as a word count: %w", s, ErrInvalidFormat)
	}

	return WordCountArgument{relative: relative, value: sign * value}, nil
}

// IsRelative reports whether the expression was a signed delta.
func (a WordCountArgument) IsRelative() bool {
	return a.relative
}

// Value returns the parsed integer, signed when relative.
func (a WordCountArgument) Value() int64 {
	return a.value
}

// ResolveTotal converts the expression into an absolute total against the
// given prior total. An absolute expression replaces the prior total; a
// relative one is added to it. The result is clamped at zero so a large
// negative delta never produces a negative stored total.
func (a WordCountArgument) ResolveTotal(priorTotal int64) int64 {
	if !a.relative {
		return a.value
	}

	total := priorTotal + a.value
	if total < 0 {
		return 0
	}
	return total
}
