package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "lowercases and splits on punctuation",
			input: "Pokemon-151: Ultra/Premium",
			want:  []string{"pokemon", "151", "ultra", "premium"},
		},
		{
			name:  "drops stopwords",
			input: "Pokemon 151 Booster Box",
			want:  []string{"pokemon", "151"},
		},
		{
			name:  "drops short tokens",
			input: "MTG LOTR v2 se",
			want:  []string{"mtg", "lotr"},
		},
		{
			name:  "parenthesised suffix",
			input: "POKEMON 151 BOOSTER BOX (ENG)",
			want:  []string{"pokemon", "151", "eng"},
		},
		{
			name:  "empty input",
			input: "",
			want:  nil,
		},
		{
			name:  "all stopwords",
			input: "the box with cards",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tokenize(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("tokenize(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for _, w := range tt.want {
				if _, ok := got[w]; !ok {
					t.Errorf("tokenize(%q) missing token %q (got %v)", tt.input, w, got)
				}
			}
		})
	}
}

func TestJaccard(t *testing.T) {
	a := tokenize("Pokemon 151 Booster Box")
	b := tokenize("POKEMON 151 BOOSTER BOX (ENG)")
	// {pokemon, 151} vs {pokemon, 151, eng}: 2/3
	if got := jaccard(a, b); got < 0.66 || got > 0.67 {
		t.Errorf("jaccard = %f, want ~0.667", got)
	}

	if got := jaccard(tokenize("Magic Commander Deck"), tokenize("Yugioh Structure Tin")); got != 0 {
		t.Errorf("disjoint sets: jaccard = %f, want 0", got)
	}

	same := tokenize("Charizard Premium Collection")
	if got := jaccard(same, same); got != 1 {
		t.Errorf("identical sets: jaccard = %f, want 1", got)
	}

	if got := jaccard(nil, tokenize("anything")); got != 0 {
		t.Errorf("empty set: jaccard = %f, want 0", got)
	}
}

func TestBestMatch(t *testing.T) {
	candidates := []matchCandidate{
		{ProductID: 1, Name: "Pokemon 151 Booster Box"},
		{ProductID: 2, Name: "Pokemon Paldea Evolved Booster Box"},
		{ProductID: 3, Name: "Magic The Gathering Commander Deck"},
	}

	id, score, ok := bestMatch("POKEMON 151 BOOSTER BOX (ENG)", candidates)
	if !ok {
		t.Fatal("expected a match above threshold")
	}
	if id != 1 {
		t.Errorf("matched product %d, want 1", id)
	}
	if score < matchThreshold {
		t.Errorf("score %f below threshold", score)
	}
}

func TestBestMatch_NoOverlap(t *testing.T) {
	candidates := []matchCandidate{
		{ProductID: 1, Name: "Pokemon 151 Booster Box"},
	}
	if _, _, ok := bestMatch("Yugioh Rarity Collection Tin", candidates); ok {
		t.Error("expected no match for disjoint description")
	}
}

func TestBestMatch_BelowThreshold(t *testing.T) {
	// Single shared token out of many keeps the score under 0.5.
	candidates := []matchCandidate{
		{ProductID: 1, Name: "Pokemon Scarlet Violet Elite Trainer"},
	}
	if _, score, ok := bestMatch("Pokemon Center Exclusive Plush Snorlax Gigantic", candidates); ok {
		t.Errorf("expected no match, got score %f", score)
	}
}

func TestBestMatch_UsesAliases(t *testing.T) {
	candidates := []matchCandidate{
		{
			ProductID: 7,
			Name:      "OP-05 Awakening of the New Era",
			Aliases:   []string{"ONE PIECE OP05 AWAKENING NEW ERA DISPLAY"},
		},
	}
	id, _, ok := bestMatch("One Piece OP05 Awakening New Era Display (24ct)", candidates)
	if !ok || id != 7 {
		t.Fatalf("expected alias-driven match on product 7, got ok=%v id=%d", ok, id)
	}
}

func TestBestMatch_FirstSeenWinsTies(t *testing.T) {
	candidates := []matchCandidate{
		{ProductID: 10, Name: "Lorcana First Chapter"},
		{ProductID: 11, Name: "Lorcana First Chapter"},
	}
	id, _, ok := bestMatch("Lorcana First Chapter", candidates)
	if !ok || id != 10 {
		t.Fatalf("tie should resolve to lowest id, got ok=%v id=%d", ok, id)
	}
}

func TestTransitStatusDerivation(t *testing.T) {
	tests := []struct {
		ordered   int64
		remaining int64
		want      TransitStatus
	}{
		{10, 10, TransitStatusInTransit},
		{10, 4, TransitStatusPartiallyReceived},
		{10, 0, TransitStatusReceived},
	}
	for _, tt := range tests {
		got := transitStatus(decimal.NewFromInt(tt.ordered), decimal.NewFromInt(tt.remaining))
		if got != tt.want {
			t.Errorf("transitStatus(%d, %d) = %s, want %s", tt.ordered, tt.remaining, got, tt.want)
		}
	}
}
