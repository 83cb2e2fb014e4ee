package model

import (
	"fmt"
	"strings"
)

// Symbol is an uppercase ticker identifier, e.g. "AAPL" or "BRK-B".
type Symbol string

func (s Symbol) String() string { return string(s) }

// ParseSymbol trims and uppercases raw and checks it looks like a ticker.
func ParseSymbol(raw string) (Symbol, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return "", fmt.Errorf("empty symbol: %w", ErrMalformedInput)
	}
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.', r == '-', r == '^', r == '=':
		default:
			return "", fmt.Errorf("symbol %q: invalid character %q: %w", raw, r, ErrMalformedInput)
		}
	}
	return Symbol(s), nil
}

// ParseSymbols splits a comma separated list, skipping blanks and duplicates.
// Order of first appearance is kept.
func ParseSymbols(list string) ([]Symbol, error) {
	var out []Symbol
	seen := make(map[Symbol]bool)
	for _, part := range strings.Split(list, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		sym, err := ParseSymbol(part)
		if err != nil {
			return nil, err
		}
		if seen[sym] {
			continue
		}
		seen[sym] = true
		out = append(out, sym)
	}
	return out, nil
}
