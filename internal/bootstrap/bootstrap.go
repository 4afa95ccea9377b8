package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lmoretti/support-rag/internal/config"
	"github.com/lmoretti/support-rag/internal/core/ports"
	"github.com/lmoretti/support-rag/internal/core/usecase"
	"github.com/lmoretti/support-rag/internal/infrastructure/llm/groq"
	"github.com/lmoretti/support-rag/internal/infrastructure/llm/ollama"
	"github.com/lmoretti/support-rag/internal/infrastructure/queue/nats"
	"github.com/lmoretti/support-rag/internal/infrastructure/repository/postgres"
	"github.com/lmoretti/support-rag/internal/infrastructure/rerank"
	"github.com/lmoretti/support-rag/internal/infrastructure/resilience"
	"github.com/lmoretti/support-rag/internal/infrastructure/sparse"
	"github.com/lmoretti/support-rag/internal/infrastructure/storage/localfs"
	"github.com/lmoretti/support-rag/internal/infrastructure/vector/qdrant"
)

type App struct {
	Config config.Config

	Queue     ports.ReindexQueue
	AnswerLog ports.AnswerLog
	AnswerUC  ports.SupportAnswerer
	ReindexUC ports.CorpusIndexer

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	answerLog := postgres.NewAnswerLogRepository(db)
	if err := answerLog.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.DataPath, cfg.TicketsFile, cfg.GuideChunksFile, cfg.SparseIndexFile)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init corpus storage: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init reindex queue: %w", err)
	}

	vocab, err := config.LoadVocabulary(cfg.VocabularyFile)
	if err != nil {
		queue.Close()
		_ = db.Close()
		return nil, fmt.Errorf("load vocabulary: %w", err)
	}
	expander := usecase.NewExpander(vocab)

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, executor)
	embedder := ollama.NewEmbedder(ollamaClient)

	var generator ports.AnswerGenerator = ollamaClient
	if cfg.LLMProvider == "groq" {
		generator = groq.New(cfg.GroqAPIURL, cfg.GroqAPIKey, cfg.GroqModel)
	}

	vectorDB := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)
	filterSupported := vectorDB.SupportsTypeFilter(ctx)
	if !filterSupported {
		slog.Warn("vector_store_filter_unsupported", "mode", "client_side_filtering")
	}

	sparseIndex := loadSparseIndex(storage)
	retriever := usecase.NewRetriever(embedder, vectorDB, sparseIndex, expander, filterSupported)

	var oracle ports.RerankOracle
	if cfg.RerankerURL != "" {
		client := rerank.New(cfg.RerankerURL)
		if err := client.Ping(ctx); err != nil {
			slog.Warn("reranker_ping_failed", "error", err)
		} else {
			oracle = client
		}
	}
	reranker := usecase.NewReranker(oracle)

	assembler := usecase.NewAssembler(usecase.ContextLimits{
		MaxTickets:    cfg.MaxTickets,
		MaxGuides:     cfg.MaxGuides,
		MaxItemChars:  cfg.MaxItemChars,
		MaxTotalChars: cfg.MaxTotalChars,
	})
	cache := usecase.NewResponseCache(cfg.CacheTTL)
	weights := usecase.FusionWeights{
		Dense:   cfg.DenseWeight,
		Sparse:  cfg.SparseWeight,
		Lexical: cfg.LexicalWeight,
	}

	answerUC := usecase.NewAnswerUseCase(
		expander,
		retriever,
		reranker,
		assembler,
		generator,
		cache,
		answerLog,
		weights,
		cfg.RerankTopN,
	)
	reindexUC := usecase.NewReindexUseCase(
		storage,
		embedder,
		vectorDB,
		sparse.NewRebuilder(storage),
		cfg.EmbedBatchSize,
	)

	return &App{
		Config:    cfg,
		Queue:     queue,
		AnswerLog: answerLog,
		AnswerUC:  answerUC,
		ReindexUC: reindexUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

// loadSparseIndex never fails bootstrap: a missing or corrupt artifact
// degrades retrieval to dense-only until the next reindex.
func loadSparseIndex(storage *localfs.Store) *sparse.Index {
	r, err := storage.OpenSparseArtifact()
	if err != nil {
		slog.Warn("sparse_artifact_missing", "error", err)
		return sparse.Empty()
	}
	defer r.Close()

	idx, err := sparse.Load(r)
	if err != nil {
		slog.Warn("sparse_artifact_unreadable", "error", err)
		return sparse.Empty()
	}
	slog.Info("sparse_index_loaded", "documents", idx.Len())
	return idx
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
