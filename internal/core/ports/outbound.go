package ports

import (
	"context"
	"time"

	"github.com/lmoretti/support-rag/internal/core/domain"
)

// Embedder builds vectors for document batches and query text. Identical
// input must produce identical vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// ScoredDocument is a nearest-neighbor hit. Score is a similarity in [0,1],
// already converted from whatever distance metric the store uses.
type ScoredDocument struct {
	Document domain.Document
	Score    float64
}

// VectorStore indexes embedded documents and answers nearest-neighbor
// queries. Type filtering is an optional capability; callers probe it once
// and fall back to client-side filtering when absent.
type VectorStore interface {
	IndexDocuments(ctx context.Context, docs []domain.Document, vectors [][]float32) error
	QueryNearest(ctx context.Context, vector []float32, limit int, typeFilter domain.DocType) ([]ScoredDocument, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.Document, error)
	SupportsTypeFilter(ctx context.Context) bool
}

// DocScore pairs an indexed document with its raw BM25 score.
type DocScore struct {
	DocumentID string
	Text       string
	Type       domain.DocType
	Score      float64
}

// SparseIndex scores a token list against every indexed document. The index
// is built offline and read-only at query time; Ready reports whether an
// artifact was loaded at all.
type SparseIndex interface {
	Score(tokens []string) []DocScore
	Ready() bool
}

// SparseIndexRebuilder replaces the persisted sparse scoring artifact with
// one fitted over the given corpus snapshot.
type SparseIndexRebuilder interface {
	Rebuild(ctx context.Context, docs []domain.Document) error
}

// RerankOracle scores (query, text) pairs jointly through a cross-encoder.
type RerankOracle interface {
	ScorePairs(ctx context.Context, query string, texts []string) ([]float64, error)
}

// AnswerGenerator produces the final user-facing text from a fully built
// prompt. Failures must be distinguishable per call so one draft's error
// never corrupts another.
type AnswerGenerator interface {
	Generate(ctx context.Context, prompt string, temperature float64) (string, error)
	Model() string
}

// AnswerLogEntry is an audit record of one answered query.
type AnswerLogEntry struct {
	ID        string
	Query     string
	Answer    string
	Model     string
	Language  string
	CacheHit  bool
	Duration  time.Duration
	CreatedAt time.Time
}

// AnswerLog persists answered queries for audit.
type AnswerLog interface {
	Insert(ctx context.Context, entry AnswerLogEntry) error
	ListRecent(ctx context.Context, limit int) ([]AnswerLogEntry, error)
}

// CorpusStore reads pre-processed corpus snapshots produced by the
// ingestion collaborators.
type CorpusStore interface {
	LoadTickets(ctx context.Context) ([]domain.Document, error)
	LoadGuideChunks(ctx context.Context) ([]domain.Document, error)
}

// ReindexQueue carries corpus reindex events from the api to the indexer.
type ReindexQueue interface {
	PublishReindex(ctx context.Context) error
	SubscribeReindex(ctx context.Context, handler func(context.Context) error) error
}
