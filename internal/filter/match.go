package filter

import (
	"strings"

	"github.com/hbollon/go-edlib"
)

// fuzzyThreshold is the minimum Jaro-Winkler similarity between a text
// token and an alias before the alias is considered matched. Substring
// matches are always tried first; fuzzy matching only covers misspellings.
// A single-character typo at the start of an eight-letter name scores
// around 0.84, so the bar sits just below that.
const fuzzyThreshold = 0.80

// matchGroups finds the first character group matched by text and returns
// its canonical folder name. Aliases collapse to one canonical name.
func matchGroups(text string, groups []Group) (string, bool) {
	if text == "" {
		return "", false
	}
	lower := strings.ToLower(text)

	for _, g := range groups {
		for _, alias := range aliasesOf(g) {
			if strings.Contains(lower, strings.ToLower(alias)) {
				return g.Name, true
			}
		}
	}

	// Second pass: fuzzy token match for near-miss spellings.
	tokens := strings.Fields(lower)
	for _, g := range groups {
		for _, alias := range aliasesOf(g) {
			a := strings.ToLower(alias)
			for _, tok := range tokens {
				if edlib.JaroWinklerSimilarity(tok, a) >= fuzzyThreshold {
					return g.Name, true
				}
			}
		}
	}
	return "", false
}

// aliasesOf returns the group's match terms; the canonical name itself is
// always a term.
func aliasesOf(g Group) []string {
	if len(g.Aliases) == 0 {
		return []string{g.Name}
	}
	terms := make([]string, 0, len(g.Aliases)+1)
	terms = append(terms, g.Name)
	terms = append(terms, g.Aliases...)
	return terms
}
