package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// NormalizeSymbol trims surrounding whitespace. Case is kept as published.
// Symbols carrying control characters or invalid UTF-8 are rejected.
func NormalizeSymbol(s string) (Symbol, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrEmptySymbol
	}
	if !utf8.ValidString(s) || strings.IndexFunc(s, unicode.IsControl) >= 0 {
		return "", ErrInvalidSymbol
	}
	return Symbol(s), nil
}
