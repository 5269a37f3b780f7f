package entities

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// minMatchLength keeps one- and two-letter fragments from matching every name
const minMatchLength = 3

// Normalize folds case and strips diacritics so "João" and "joao" compare equal
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// Matcher resolves free-form entity names to the monitored names of an activation
type Matcher struct {
	names      []string
	normalized []string
}

// NewMatcher builds a matcher over the monitored names, dropping blanks and duplicates
func NewMatcher(names []string) *Matcher {
	m := &Matcher{}
	seen := make(map[string]bool)
	for _, name := range names {
		name = strings.TrimSpace(name)
		key := Normalize(name)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		m.names = append(m.names, name)
		m.normalized = append(m.normalized, key)
	}
	return m
}

// Names returns the monitored names in configuration order
func (m *Matcher) Names() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.names...)
}

// Empty reports whether there is nothing to match against
func (m *Matcher) Empty() bool {
	return m == nil || len(m.names) == 0
}

// Match returns the monitored name that candidate refers to. A candidate
// matches when either normalized string contains the other.
func (m *Matcher) Match(candidate string) (string, bool) {
	if m == nil {
		return "", false
	}
	key := Normalize(candidate)
	if len([]rune(key)) < minMatchLength {
		return "", false
	}
	for i, monitored := range m.normalized {
		if strings.Contains(key, monitored) || strings.Contains(monitored, key) {
			return m.names[i], true
		}
	}
	return "", false
}

// MatchAll resolves every candidate and returns the distinct monitored names
// hit, in the order they were first matched.
func (m *Matcher) MatchAll(candidates []string) []string {
	var matched []string
	seen := make(map[string]bool)
	for _, candidate := range candidates {
		name, ok := m.Match(candidate)
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		matched = append(matched, name)
	}
	return matched
}
