package usecase

import (
	"reflect"
	"testing"

	"github.com/lmoretti/support-rag/internal/config"
)

func testExpander() *Expander {
	return NewExpander(config.Vocabulary{
		Synonyms: map[string][]string{
			"ppf":        {"pellicola", "protection film"},
			"parabrezza": {"windshield", "vetro"},
		},
		StopWords:      []string{"il", "la", "the", "my"},
		ImportantTerms: []string{"ppf", "parabrezza", "bug"},
	})
}

func TestExpandAddsSynonymsForContainedTerms(t *testing.T) {
	terms := testExpander().Expand("PPF ingiallita")

	want := map[string]bool{"ppf": true, "ingiallita": true, "pellicola": true, "protection film": true}
	if len(terms) != len(want) {
		t.Fatalf("expected %d terms, got %v", len(want), terms)
	}
	for _, term := range terms {
		if !want[term] {
			t.Fatalf("unexpected term %q in %v", term, terms)
		}
	}
}

func TestExpandMatchesSubstringNotJustTokens(t *testing.T) {
	// "parabrezza" is embedded in a longer token; containment still triggers.
	terms := testExpander().Expand("problema parabrezza,")

	found := false
	for _, term := range terms {
		if term == "windshield" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected synonym expansion from substring match, got %v", terms)
	}
}

func TestExpandIsDeterministicallySorted(t *testing.T) {
	e := testExpander()
	first := e.Expand("ppf parabrezza ingiallita")
	for i := 0; i < 10; i++ {
		if got := e.Expand("ppf parabrezza ingiallita"); !reflect.DeepEqual(got, first) {
			t.Fatalf("expansion order changed between runs: %v vs %v", first, got)
		}
	}
	for i := 1; i < len(first); i++ {
		if first[i-1] >= first[i] {
			t.Fatalf("expansion not sorted: %v", first)
		}
	}
}

func TestFilterForSparseKeepsImportantDropsStopWords(t *testing.T) {
	got := testExpander().FilterForSparse([]string{"ppf", "il", "the", "ingiallita", "eco", "bug"})

	want := []string{"ppf", "ingiallita", "bug"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("FilterForSparse() = %v, want %v", got, want)
	}
}

func TestFilterForSparseShortWordRuleCountsRunes(t *testing.T) {
	// Three runes even though more bytes: dropped.
	got := testExpander().FilterForSparse([]string{"però"})
	if len(got) != 1 {
		t.Fatalf("4-rune term should be kept, got %v", got)
	}
	got = testExpander().FilterForSparse([]string{"già"})
	if len(got) != 0 {
		t.Fatalf("3-rune term should be dropped, got %v", got)
	}
}
