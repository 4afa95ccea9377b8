package usecase

import (
	"context"
	"log/slog"
	"sort"

	"github.com/lmoretti/support-rag/internal/core/domain"
	"github.com/lmoretti/support-rag/internal/core/ports"
)

// Reranker reorders fused candidates with a cross-encoder oracle. When the
// oracle is absent or a call fails it degrades to a passthrough of the
// fused order; this is the only stage allowed to reverse fusion's ranking.
type Reranker struct {
	oracle ports.RerankOracle
}

// NewReranker accepts a nil oracle, which yields a permanent passthrough.
func NewReranker(oracle ports.RerankOracle) *Reranker {
	if oracle == nil {
		slog.Warn("reranker_unavailable", "mode", "passthrough")
	}
	return &Reranker{oracle: oracle}
}

func (r *Reranker) Rerank(ctx context.Context, query string, candidates []domain.Candidate, topK int) []domain.Candidate {
	if topK <= 0 || topK > len(candidates) {
		topK = len(candidates)
	}
	if r.oracle == nil || len(candidates) == 0 {
		return candidates[:topK]
	}

	texts := make([]string, len(candidates))
	for i, candidate := range candidates {
		texts[i] = candidate.Text
	}

	scores, err := r.oracle.ScorePairs(ctx, query, texts)
	if err != nil || len(scores) != len(candidates) {
		slog.Warn("rerank_degraded", "error", err, "candidates", len(candidates))
		return candidates[:topK]
	}

	type scored struct {
		candidate domain.Candidate
		score     float64
	}
	ranked := make([]scored, len(candidates))
	for i, candidate := range candidates {
		ranked[i] = scored{candidate: candidate, score: scores[i]}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].candidate.DocumentID < ranked[j].candidate.DocumentID
	})

	out := make([]domain.Candidate, topK)
	for i := range out {
		out[i] = ranked[i].candidate
	}
	return out
}
