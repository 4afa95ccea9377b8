package ports

import (
	"context"

	"github.com/lmoretti/support-rag/internal/core/domain"
)

// AnswerRequest carries everything that identifies one support query.
type AnswerRequest struct {
	Query       string
	NTickets    int
	NGuides     int
	Language    string
	Drafts      int
	BypassCache bool
}

// SupportAnswerer is the inbound contract for retrieval-augmented answering.
type SupportAnswerer interface {
	Answer(ctx context.Context, req AnswerRequest) (*domain.Answer, error)
	ClearCache(ctx context.Context) int
}

// IndexStats summarizes one corpus reindex run.
type IndexStats struct {
	Tickets     int
	GuideChunks int
}

// CorpusIndexer is the inbound contract for the offline indexing worker.
type CorpusIndexer interface {
	Reindex(ctx context.Context) (IndexStats, error)
}
