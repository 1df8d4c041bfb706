// Package fusion merges heterogeneous market data sources into one
// normalized ticker profile and renders it as prompt-ready text.
package fusion

import "regexp"

// SymbolExtractor resolves a candidate ticker symbol from free text.
type SymbolExtractor interface {
	// Extract returns the candidate symbol and whether one was found.
	Extract(text string) (string, bool)
}

// symbolPattern matches the first run of 1-5 uppercase letters bounded
// by word boundaries.
var symbolPattern = regexp.MustCompile(`\b[A-Z]{1,5}\b`)

// RegexExtractor is the historical heuristic: any short all-caps word
// anywhere in the sentence is treated as a candidate ticker, acronyms
// included. Kept exactly for behavioral parity; replace this type with
// a dictionary-backed resolver to disambiguate.
type RegexExtractor struct{}

// Extract returns the first match of the symbol pattern.
func (RegexExtractor) Extract(text string) (string, bool) {
	m := symbolPattern.FindString(text)
	return m, m != ""
}
