package usecase

import (
	"sort"
	"strings"

	"github.com/lmoretti/support-rag/internal/config"
)

// Expander enlarges free-text queries with domain synonyms. Matching is
// exact substring containment on the lower-cased query, no stemming.
type Expander struct {
	synonyms  map[string][]string
	stopWords map[string]struct{}
	important map[string]struct{}
}

func NewExpander(vocab config.Vocabulary) *Expander {
	stop := make(map[string]struct{}, len(vocab.StopWords))
	for _, w := range vocab.StopWords {
		stop[strings.ToLower(w)] = struct{}{}
	}
	important := make(map[string]struct{}, len(vocab.ImportantTerms))
	for _, w := range vocab.ImportantTerms {
		important[strings.ToLower(w)] = struct{}{}
	}
	return &Expander{
		synonyms:  vocab.Synonyms,
		stopWords: stop,
		important: important,
	}
}

// Expand returns the query tokens unioned with the synonym lists of every
// table term contained in the query. Output is sorted so downstream scoring
// never depends on map iteration order.
func (e *Expander) Expand(query string) []string {
	lowered := strings.ToLower(query)

	terms := make(map[string]struct{})
	for _, token := range strings.Fields(lowered) {
		terms[token] = struct{}{}
	}
	for term, synonyms := range e.synonyms {
		if !strings.Contains(lowered, term) {
			continue
		}
		for _, synonym := range synonyms {
			terms[strings.ToLower(synonym)] = struct{}{}
		}
	}

	out := make([]string, 0, len(terms))
	for term := range terms {
		out = append(out, term)
	}
	sort.Strings(out)
	return out
}

// FilterForSparse applies the importance-weighted keyword filter used by
// the sparse channel: important terms are always kept, stop words always
// dropped, everything else kept only when at least 4 runes long. Raw BM25
// over mixed Italian/English queries is otherwise dominated by function
// words.
func (e *Expander) FilterForSparse(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, term := range terms {
		if _, ok := e.important[term]; ok {
			out = append(out, term)
			continue
		}
		if _, ok := e.stopWords[term]; ok {
			continue
		}
		if len([]rune(term)) >= 4 {
			out = append(out, term)
		}
	}
	return out
}

// IsImportant reports whether a term belongs to the curated domain subset
// that earns a higher lexical match weight.
func (e *Expander) IsImportant(term string) bool {
	_, ok := e.important[term]
	return ok
}
