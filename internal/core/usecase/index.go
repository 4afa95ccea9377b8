package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lmoretti/support-rag/internal/core/domain"
	"github.com/lmoretti/support-rag/internal/core/ports"
)

const defaultEmbedBatchSize = 50

// ReindexUseCase rebuilds both retrieval channels from the corpus snapshots:
// it embeds every document into the vector store and refits the sparse
// scoring artifact over the same set.
type ReindexUseCase struct {
	corpus    ports.CorpusStore
	embedder  ports.Embedder
	vectors   ports.VectorStore
	sparse    ports.SparseIndexRebuilder
	batchSize int
}

func NewReindexUseCase(
	corpus ports.CorpusStore,
	embedder ports.Embedder,
	vectors ports.VectorStore,
	sparse ports.SparseIndexRebuilder,
	batchSize int,
) *ReindexUseCase {
	if batchSize <= 0 {
		batchSize = defaultEmbedBatchSize
	}
	return &ReindexUseCase{
		corpus:    corpus,
		embedder:  embedder,
		vectors:   vectors,
		sparse:    sparse,
		batchSize: batchSize,
	}
}

func (uc *ReindexUseCase) Reindex(ctx context.Context) (ports.IndexStats, error) {
	var stats ports.IndexStats

	tickets, err := uc.corpus.LoadTickets(ctx)
	if err != nil {
		return stats, fmt.Errorf("load tickets: %w", err)
	}
	guides, err := uc.corpus.LoadGuideChunks(ctx)
	if err != nil {
		return stats, fmt.Errorf("load guide chunks: %w", err)
	}
	stats.Tickets = len(tickets)
	stats.GuideChunks = len(guides)

	docs := make([]domain.Document, 0, len(tickets)+len(guides))
	docs = append(docs, tickets...)
	docs = append(docs, guides...)
	if len(docs) == 0 {
		return stats, domain.WrapError(domain.ErrInvalidInput, "reindex", fmt.Errorf("corpus snapshots are empty"))
	}

	slog.Info("reindex_started", "tickets", len(tickets), "guide_chunks", len(guides))

	for start := 0; start < len(docs); start += uc.batchSize {
		end := start + uc.batchSize
		if end > len(docs) {
			end = len(docs)
		}
		batch := docs[start:end]

		texts := make([]string, len(batch))
		for i, doc := range batch {
			texts[i] = doc.Text
		}
		vectors, err := uc.embedder.Embed(ctx, texts)
		if err != nil {
			return stats, fmt.Errorf("embed batch at %d: %w", start, err)
		}
		if len(vectors) != len(batch) {
			return stats, fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(batch))
		}
		if err := uc.vectors.IndexDocuments(ctx, batch, vectors); err != nil {
			return stats, fmt.Errorf("index batch at %d: %w", start, err)
		}
		slog.Info("reindex_batch_done", "indexed", end, "total", len(docs))
	}

	if err := uc.sparse.Rebuild(ctx, docs); err != nil {
		return stats, fmt.Errorf("rebuild sparse index: %w", err)
	}

	slog.Info("reindex_finished", "tickets", stats.Tickets, "guide_chunks", stats.GuideChunks)
	return stats, nil
}
