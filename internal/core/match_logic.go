package core

import (
	"strings"
	"unicode"
)

// matchThreshold is the minimum Jaccard similarity for a fuzzy match.
const matchThreshold = 0.5

// matchStopwords are tokens too generic to carry matching signal in invoice
// line descriptions.
var matchStopwords = map[string]struct{}{
	"the": {}, "and": {}, "with": {},
	"card": {}, "cards": {}, "booster": {},
	"box": {}, "boxes": {}, "ver": {}, "version": {},
}

// tokenize lowercases, strips non-alphanumerics, splits on whitespace and
// drops short tokens and stopwords. The result is a set.
func tokenize(s string) map[string]struct{} {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	tokens := make(map[string]struct{})
	for _, tok := range strings.Fields(b.String()) {
		if len(tok) < 3 {
			continue
		}
		if _, stop := matchStopwords[tok]; stop {
			continue
		}
		tokens[tok] = struct{}{}
	}
	return tokens
}

// jaccard returns |a ∩ b| / |a ∪ b|; zero when either set is empty.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// matchCandidate is the slice of a product the fuzzy matcher scores against:
// its name plus every historical alias.
type matchCandidate struct {
	ProductID int
	Name      string
	Aliases   []string
}

// scoreCandidate returns the candidate's best similarity to the line tokens
// across its name and all aliases.
func scoreCandidate(lineTokens map[string]struct{}, c matchCandidate) float64 {
	best := jaccard(lineTokens, tokenize(c.Name))
	for _, alias := range c.Aliases {
		if s := jaccard(lineTokens, tokenize(alias)); s > best {
			best = s
		}
	}
	return best
}

// bestMatch scores every candidate against the description and returns the
// winning product id, or ok=false when no candidate reaches the threshold.
// Ties resolve to the candidate seen first, so callers pass candidates in a
// stable (id) order to keep matching deterministic.
func bestMatch(description string, candidates []matchCandidate) (productID int, score float64, ok bool) {
	lineTokens := tokenize(description)
	if len(lineTokens) == 0 {
		return 0, 0, false
	}

	bestScore := 0.0
	bestID := 0
	for _, c := range candidates {
		if s := scoreCandidate(lineTokens, c); s > bestScore {
			bestScore = s
			bestID = c.ProductID
		}
	}
	if bestScore < matchThreshold {
		return 0, bestScore, false
	}
	return bestID, bestScore, true
}
