package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/lmoretti/support-rag/internal/core/domain"
)

type oracleFake struct {
	scores []float64
	err    error
	calls  int
}

func (f *oracleFake) ScorePairs(context.Context, string, []string) ([]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.scores, nil
}

func rerankCandidates() []domain.Candidate {
	return []domain.Candidate{
		{DocumentID: "ticket_1", Text: "primo", HybridScore: 0.9},
		{DocumentID: "ticket_2", Text: "secondo", HybridScore: 0.8},
		{DocumentID: "ticket_3", Text: "terzo", HybridScore: 0.7},
	}
}

func TestRerankNilOracleIsPassthrough(t *testing.T) {
	r := NewReranker(nil)
	out := r.Rerank(context.Background(), "q", rerankCandidates(), 2)
	if len(out) != 2 {
		t.Fatalf("expected topK=2, got %d", len(out))
	}
	if out[0].DocumentID != "ticket_1" || out[1].DocumentID != "ticket_2" {
		t.Fatalf("passthrough must preserve fused order, got %s, %s", out[0].DocumentID, out[1].DocumentID)
	}
}

func TestRerankReordersByOracleScore(t *testing.T) {
	oracle := &oracleFake{scores: []float64{0.1, 0.9, 0.5}}
	r := NewReranker(oracle)

	out := r.Rerank(context.Background(), "q", rerankCandidates(), 3)
	if out[0].DocumentID != "ticket_2" || out[1].DocumentID != "ticket_3" || out[2].DocumentID != "ticket_1" {
		t.Fatalf("expected oracle ordering, got %s, %s, %s", out[0].DocumentID, out[1].DocumentID, out[2].DocumentID)
	}
}

func TestRerankOracleErrorDegradesToFusedOrder(t *testing.T) {
	oracle := &oracleFake{err: errors.New("scoring service down")}
	r := NewReranker(oracle)

	out := r.Rerank(context.Background(), "q", rerankCandidates(), 2)
	if len(out) != 2 || out[0].DocumentID != "ticket_1" {
		t.Fatalf("expected fused-order fallback, got %v", out)
	}
}

func TestRerankScoreCountMismatchDegrades(t *testing.T) {
	oracle := &oracleFake{scores: []float64{0.9}}
	r := NewReranker(oracle)

	out := r.Rerank(context.Background(), "q", rerankCandidates(), 3)
	if out[0].DocumentID != "ticket_1" {
		t.Fatalf("mismatched score count must not reorder, got %s", out[0].DocumentID)
	}
}

func TestRerankTieBreaksByDocumentID(t *testing.T) {
	oracle := &oracleFake{scores: []float64{0.5, 0.5, 0.5}}
	r := NewReranker(oracle)

	out := r.Rerank(context.Background(), "q", rerankCandidates(), 3)
	if out[0].DocumentID != "ticket_1" || out[2].DocumentID != "ticket_3" {
		t.Fatalf("expected id-asc tie-break, got %v", out)
	}
}

func TestRerankEmptyInput(t *testing.T) {
	r := NewReranker(&oracleFake{})
	out := r.Rerank(context.Background(), "q", nil, 3)
	if len(out) != 0 {
		t.Fatalf("expected empty output, got %v", out)
	}
}
