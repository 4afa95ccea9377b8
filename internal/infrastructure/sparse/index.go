// Package sparse implements the Okapi BM25 lexical index used by the
// sparse retrieval channel. The index is fitted offline over the full
// corpus snapshot and persisted as a gob artifact; at query time it is
// read-only.
package sparse

import (
	"encoding/gob"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/lmoretti/support-rag/internal/core/domain"
	"github.com/lmoretti/support-rag/internal/core/ports"
)

const (
	defaultK1      = 1.5
	defaultB       = 0.75
	defaultEpsilon = 0.25
)

type indexedDoc struct {
	ID       string
	Type     domain.DocType
	Text     string
	TermFreq map[string]int
	Length   int
}

type Index struct {
	k1     float64
	b      float64
	avgLen float64
	idf    map[string]float64
	docs   []indexedDoc
	ready  bool
}

// Empty returns a not-ready index. Retrieval degrades to dense-only when
// the artifact is missing, so the zero state must be usable.
func Empty() *Index {
	return &Index{idf: map[string]float64{}}
}

// Build fits BM25 term statistics over the corpus snapshot.
func Build(docs []domain.Document) *Index {
	idx := &Index{
		k1:   defaultK1,
		b:    defaultB,
		idf:  make(map[string]float64),
		docs: make([]indexedDoc, 0, len(docs)),
	}

	docFreq := make(map[string]int)
	totalLen := 0
	for _, doc := range docs {
		tokens := tokenize(doc.Text)
		tf := make(map[string]int, len(tokens))
		for _, token := range tokens {
			tf[token]++
		}
		for term := range tf {
			docFreq[term]++
		}
		totalLen += len(tokens)
		idx.docs = append(idx.docs, indexedDoc{
			ID:       doc.ID,
			Type:     doc.Type,
			Text:     doc.Text,
			TermFreq: tf,
			Length:   len(tokens),
		})
	}
	if len(idx.docs) == 0 {
		return idx
	}
	idx.avgLen = float64(totalLen) / float64(len(idx.docs))

	// Okapi idf with the usual negative-idf correction: terms appearing in
	// more than half the corpus get a small positive floor instead of a
	// negative weight.
	n := float64(len(idx.docs))
	idfSum := 0.0
	var negative []string
	for term, freq := range docFreq {
		idf := math.Log((n - float64(freq) + 0.5) / (float64(freq) + 0.5))
		idx.idf[term] = idf
		idfSum += idf
		if idf < 0 {
			negative = append(negative, term)
		}
	}
	avgIDF := idfSum / float64(len(docFreq))
	floor := defaultEpsilon * avgIDF
	if floor <= 0 {
		floor = defaultEpsilon
	}
	for _, term := range negative {
		idx.idf[term] = floor
	}

	idx.ready = true
	return idx
}

func (idx *Index) Ready() bool {
	return idx != nil && idx.ready
}

// Score computes the raw BM25 score of the token list against every
// indexed document. Scores are non-negative and unbounded; per-query
// normalization happens in fusion.
func (idx *Index) Score(tokens []string) []ports.DocScore {
	if !idx.Ready() || len(tokens) == 0 {
		return nil
	}

	out := make([]ports.DocScore, 0, len(idx.docs))
	for _, doc := range idx.docs {
		score := 0.0
		norm := idx.k1 * (1 - idx.b + idx.b*float64(doc.Length)/idx.avgLen)
		for _, token := range tokens {
			tf := float64(doc.TermFreq[token])
			if tf == 0 {
				continue
			}
			score += idx.idf[token] * tf * (idx.k1 + 1) / (tf + norm)
		}
		out = append(out, ports.DocScore{
			DocumentID: doc.ID,
			Text:       doc.Text,
			Type:       doc.Type,
			Score:      score,
		})
	}
	return out
}

// Len reports how many documents the index was fitted on.
func (idx *Index) Len() int {
	return len(idx.docs)
}

type artifact struct {
	K1     float64
	B      float64
	AvgLen float64
	IDF    map[string]float64
	Docs   []indexedDoc
}

// Save persists the fitted model plus the parallel document arrays so the
// query path never needs the original corpus files.
func (idx *Index) Save(w io.Writer) error {
	if !idx.Ready() {
		return fmt.Errorf("sparse index is not fitted")
	}
	art := artifact{
		K1:     idx.k1,
		B:      idx.b,
		AvgLen: idx.avgLen,
		IDF:    idx.idf,
		Docs:   idx.docs,
	}
	if err := gob.NewEncoder(w).Encode(art); err != nil {
		return fmt.Errorf("encode sparse artifact: %w", err)
	}
	return nil
}

func Load(r io.Reader) (*Index, error) {
	var art artifact
	if err := gob.NewDecoder(r).Decode(&art); err != nil {
		return nil, fmt.Errorf("decode sparse artifact: %w", err)
	}
	return &Index{
		k1:     art.K1,
		b:      art.B,
		avgLen: art.AvgLen,
		idf:    art.IDF,
		docs:   art.Docs,
		ready:  len(art.Docs) > 0,
	}, nil
}

func tokenize(s string) []string {
	return strings.Fields(strings.ToLower(s))
}
