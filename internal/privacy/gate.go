// Package privacy anonymizes text by pattern substitution before any data
// leaves the process. Detection is pattern-based and best-effort: the gate
// is a compliance filter, not a guarantee of PII completeness.
package privacy

import (
	"fmt"
	"regexp"
	"strings"
)

// Pattern pairs a PII type label with the expression that detects it.
// Patterns are applied in slice order; the first pattern to claim a span
// wins, because its placeholder is no longer matchable by later patterns.
type Pattern struct {
	Type string
	Expr *regexp.Regexp
}

// DefaultPatterns returns the built-in ordered pattern set: email, phone,
// then a naive capitalized first-last person-name heuristic.
func DefaultPatterns() []Pattern {
	return []Pattern{
		{Type: "EMAIL", Expr: regexp.MustCompile(`\b[\w.-]+@[\w.-]+\.\w+\b`)},
		{Type: "PHONE", Expr: regexp.MustCompile(`\+?\b[\d()-]{10,}\b`)},
		{Type: "NAME", Expr: regexp.MustCompile(`\b[A-Z][a-z]+ [A-Z][a-z]+\b`)},
	}
}

// Gate rewrites PII into placeholders and back. It holds no state beyond
// its pattern set; every Anonymize call gets a fresh counter and mapping.
type Gate struct {
	patterns []Pattern
}

// NewGate builds a gate over the given ordered patterns. With no arguments
// it uses DefaultPatterns.
func NewGate(patterns ...Pattern) *Gate {
	if len(patterns) == 0 {
		patterns = DefaultPatterns()
	}
	return &Gate{patterns: patterns}
}

// Anonymize replaces each match with a unique placeholder [TYPE_n], where n
// increases per match across all patterns within this call. The returned
// mapping restores the original substrings and must never leave the process.
func (g *Gate) Anonymize(text string) (string, map[string]string) {
	mapping := make(map[string]string)
	for _, p := range g.patterns {
		text = p.Expr.ReplaceAllStringFunc(text, func(match string) string {
			placeholder := fmt.Sprintf("[%s_%d]", p.Type, len(mapping))
			mapping[placeholder] = match
			return placeholder
		})
	}
	return text, mapping
}

// Deanonymize substitutes originals back for their placeholders. It is a
// left inverse of Anonymize on the outputs Anonymize produces.
func (g *Gate) Deanonymize(text string, mapping map[string]string) string {
	for placeholder, original := range mapping {
		text = strings.ReplaceAll(text, placeholder, original)
	}
	return text
}

// ContainsPII reports whether any configured pattern still matches text.
// Used to assert that redacted output is clean before egress.
func (g *Gate) ContainsPII(text string) bool {
	for _, p := range g.patterns {
		if p.Expr.MatchString(text) {
			return true
		}
	}
	return false
}
