package usecase

import (
	"context"
	"log/slog"
	"sort"

	"github.com/lmoretti/support-rag/internal/core/domain"
	"github.com/lmoretti/support-rag/internal/core/ports"
)

const (
	denseCandidateFloor = 200
	sparseCandidateCap  = 500
)

// Retriever runs the dense and sparse channels for one document type.
// Whether the vector store supports native type filtering is decided once
// at startup, not rediscovered per query.
type Retriever struct {
	embedder        ports.Embedder
	vectors         ports.VectorStore
	sparse          ports.SparseIndex
	expander        *Expander
	filterSupported bool
}

func NewRetriever(
	embedder ports.Embedder,
	vectors ports.VectorStore,
	sparse ports.SparseIndex,
	expander *Expander,
	filterSupported bool,
) *Retriever {
	return &Retriever{
		embedder:        embedder,
		vectors:         vectors,
		sparse:          sparse,
		expander:        expander,
		filterSupported: filterSupported,
	}
}

// Retrieve returns the raw dense and sparse candidate lists for docType.
// The lists may overlap by id; fusion owns deduplication. A missing sparse
// index degrades to dense-only, an unreachable vector store fails the
// query.
func (r *Retriever) Retrieve(
	ctx context.Context,
	query string,
	docType domain.DocType,
	k int,
) ([]ports.ScoredDocument, []ports.DocScore, error) {
	dense, err := r.denseChannel(ctx, query, docType, k)
	if err != nil {
		return nil, nil, err
	}
	return dense, r.sparseChannel(query, docType, k), nil
}

func (r *Retriever) denseChannel(
	ctx context.Context,
	query string,
	docType domain.DocType,
	k int,
) ([]ports.ScoredDocument, error) {
	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, domain.WrapError(domain.ErrBackendUnavailable, "embed query", err)
	}

	limit := k * 10
	if limit < denseCandidateFloor {
		limit = denseCandidateFloor
	}

	if r.filterSupported {
		hits, err := r.vectors.QueryNearest(ctx, vector, limit, docType)
		if err != nil {
			return nil, domain.WrapError(domain.ErrBackendUnavailable, "dense search", err)
		}
		return hits, nil
	}

	// No native filter: over-fetch unfiltered and keep the requested type.
	hits, err := r.vectors.QueryNearest(ctx, vector, limit*2, "")
	if err != nil {
		return nil, domain.WrapError(domain.ErrBackendUnavailable, "dense search", err)
	}
	filtered := make([]ports.ScoredDocument, 0, limit)
	for _, hit := range hits {
		if hit.Document.Type != docType {
			continue
		}
		filtered = append(filtered, hit)
		if len(filtered) == limit {
			break
		}
	}
	return filtered, nil
}

func (r *Retriever) sparseChannel(query string, docType domain.DocType, k int) []ports.DocScore {
	if r.sparse == nil || !r.sparse.Ready() {
		slog.Warn("sparse_index_unavailable", "doc_type", string(docType))
		return nil
	}

	tokens := r.expander.FilterForSparse(r.expander.Expand(query))
	if len(tokens) == 0 {
		return nil
	}

	scored := r.sparse.Score(tokens)
	hits := make([]ports.DocScore, 0, len(scored))
	for _, hit := range scored {
		if hit.Type != docType || hit.Score <= 0 {
			continue
		}
		hits = append(hits, hit)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].DocumentID < hits[j].DocumentID
	})

	limit := k * 3
	if limit > sparseCandidateCap {
		limit = sparseCandidateCap
	}
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}
