package domain

import (
	"regexp"
	"strings"
)

var symbolRe = regexp.MustCompile(`^[A-Z0-9^][A-Z0-9.^=\-]{0,19}$`)

// NormalizeSymbol trims and uppercases a ticker.
func NormalizeSymbol(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

// NormalizeSymbols normalizes, drops blanks and de-duplicates, keeping the
// order of first appearance.
func NormalizeSymbols(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = NormalizeSymbol(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// SplitTickers parses a comma separated ticker list.
func SplitTickers(raw string) []string {
	return NormalizeSymbols(strings.Split(raw, ","))
}

// ValidateSymbol normalizes s and checks it looks like a ticker.
func ValidateSymbol(s string) (string, error) {
	s = NormalizeSymbol(s)
	if !symbolRe.MatchString(s) {
		return "", ErrInvalidSymbol
	}
	return s, nil
}
