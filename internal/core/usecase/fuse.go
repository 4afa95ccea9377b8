package usecase

import (
	"sort"
	"strings"

	"github.com/lmoretti/support-rag/internal/core/domain"
	"github.com/lmoretti/support-rag/internal/core/ports"
)

// FusionWeights control how the three retrieval signals combine. Lexical is
// an additive bonus on top of the dense+sparse budget, so a strong keyword
// match can outrank a purely semantic one.
type FusionWeights struct {
	Dense   float64
	Sparse  float64
	Lexical float64
}

func DefaultFusionWeights() FusionWeights {
	return FusionWeights{Dense: 0.65, Sparse: 0.35, Lexical: 0.20}
}

const (
	lexicalMatchWeight     = 0.1
	lexicalImportantWeight = 0.3
	lexicalHitCap          = 10
)

// fuseHybrid merges dense and sparse candidate lists into one ranked list.
// Pure: no I/O, deterministic ordering (hybrid desc, document id asc).
func fuseHybrid(
	expander *Expander,
	expandedTerms []string,
	dense []ports.ScoredDocument,
	sparse []ports.DocScore,
	weights FusionWeights,
	topK int,
) []domain.Candidate {
	maxSparse := 0.0
	for _, hit := range sparse {
		if hit.Score > maxSparse {
			maxSparse = hit.Score
		}
	}

	byID := make(map[string]*domain.Candidate, len(dense)+len(sparse))
	order := make([]string, 0, len(dense)+len(sparse))

	for _, hit := range dense {
		id := hit.Document.ID
		if _, ok := byID[id]; ok {
			continue
		}
		byID[id] = &domain.Candidate{
			DocumentID: id,
			Text:       hit.Document.Text,
			Type:       hit.Document.Type,
			Metadata:   hit.Document.Metadata,
			DenseScore: hit.Score,
		}
		order = append(order, id)
	}

	for _, hit := range sparse {
		normalized := 0.0
		if maxSparse > 0 {
			normalized = hit.Score / maxSparse
		}
		if candidate, ok := byID[hit.DocumentID]; ok {
			candidate.SparseScore = normalized
			continue
		}
		byID[hit.DocumentID] = &domain.Candidate{
			DocumentID:  hit.DocumentID,
			Text:        hit.Text,
			Type:        hit.Type,
			SparseScore: normalized,
		}
		order = append(order, hit.DocumentID)
	}

	out := make([]domain.Candidate, 0, len(order))
	for _, id := range order {
		candidate := byID[id]
		candidate.LexicalScore = lexicalOverlap(expander, expandedTerms, candidate.Text)
		candidate.HybridScore = weights.Dense*candidate.DenseScore +
			weights.Sparse*candidate.SparseScore +
			weights.Lexical*candidate.LexicalScore
		out = append(out, *candidate)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].HybridScore != out[j].HybridScore {
			return out[i].HybridScore > out[j].HybridScore
		}
		return out[i].DocumentID < out[j].DocumentID
	})

	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out
}

// lexicalOverlap counts how many expanded query terms occur as whitespace
// tokens in the candidate text. Important domain terms weigh more than
// common words; the distinct hit count is capped so very long documents
// cannot run away with the bonus.
func lexicalOverlap(expander *Expander, expandedTerms []string, text string) float64 {
	if len(expandedTerms) == 0 || text == "" {
		return 0
	}

	docTokens := make(map[string]struct{})
	for _, token := range strings.Fields(strings.ToLower(text)) {
		docTokens[token] = struct{}{}
	}

	matches := 0
	importantMatches := 0
	for _, term := range expandedTerms {
		if _, ok := docTokens[term]; !ok {
			continue
		}
		if matches < lexicalHitCap {
			matches++
		}
		if expander.IsImportant(term) {
			importantMatches++
		}
	}

	score := float64(matches)*lexicalMatchWeight + float64(importantMatches)*lexicalImportantWeight
	if score > 1.0 {
		return 1.0
	}
	return score
}
