package symbols

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Normalize converts a ticker to the canonical upper-case form used as the
// watch-state key. Share-class separators are written with a dash, the way
// Yahoo expects them ("BRK.B" becomes "BRK-B").
func Normalize(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	return strings.ReplaceAll(s, ".", "-")
}

// IsValid checks if a normalized symbol is a plausible ticker
func IsValid(symbol string) bool {
	if len(symbol) == 0 || len(symbol) > 10 {
		return false
	}
	if symbol == "^" {
		return false
	}
	for i, c := range symbol {
		switch {
		case c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '^' && i == 0: // index
		case c == '-' && i > 0 && i < len(symbol)-1:
		default:
			return false
		}
	}
	return true
}

// Parse splits a comma or whitespace separated list into normalized, unique
// symbols in input order. Invalid entries are reported together.
func Parse(list string) ([]string, error) {
	fields := strings.FieldsFunc(list, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == ';'
	})
	return dedupe(fields)
}

// ReadWatchlist reads one symbol per line. Blank lines and lines starting
// with # are skipped; anything after the first field is ignored.
func ReadWatchlist(r io.Reader) ([]string, error) {
	var raw []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		raw = append(raw, strings.Fields(line)[0])
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading watchlist: %w", err)
	}
	return dedupe(raw)
}

// LoadWatchlist reads a watchlist file
func LoadWatchlist(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadWatchlist(f)
}

// Resolve returns the symbols of a named universe, or parses arg as an
// explicit symbol list when it names no universe
func Resolve(arg string) ([]string, error) {
	if syms := GetUniverse(Universe(strings.ToLower(strings.TrimSpace(arg)))); syms != nil {
		return dedupe(syms)
	}
	return Parse(arg)
}

func dedupe(raw []string) ([]string, error) {
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	var invalid []string
	for _, r := range raw {
		s := Normalize(r)
		if s == "" {
			continue
		}
		if !IsValid(s) {
			invalid = append(invalid, r)
			continue
		}
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	if len(invalid) > 0 {
		return out, fmt.Errorf("invalid symbols: %s", strings.Join(invalid, ", "))
	}
	return out, nil
}
