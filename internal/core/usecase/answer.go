package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lmoretti/support-rag/internal/core/domain"
	"github.com/lmoretti/support-rag/internal/core/ports"
)

const (
	defaultTopK      = 3
	maxDrafts        = 5
	defaultLanguage  = "italian"
	fusedFloorPerKey = 50
)

// draftTemperatures is the fixed ascending schedule used for multi-draft
// generation. Diversity comes from temperature, not concurrency: drafts run
// sequentially because the usual backend is a single local accelerator.
var draftTemperatures = [maxDrafts]float64{0.3, 0.5, 0.7, 0.8, 0.9}

const singleDraftTemperature = 0.7

// AnswerUseCase runs the full pipeline for one support query: cache lookup,
// dual-channel retrieval per document type, hybrid fusion, reranking,
// context assembly, generation, cache write.
type AnswerUseCase struct {
	expander   *Expander
	retriever  *Retriever
	reranker   *Reranker
	assembler  *Assembler
	generator  ports.AnswerGenerator
	cache      *ResponseCache
	answerLog  ports.AnswerLog
	weights    FusionWeights
	rerankTopN int
}

func NewAnswerUseCase(
	expander *Expander,
	retriever *Retriever,
	reranker *Reranker,
	assembler *Assembler,
	generator ports.AnswerGenerator,
	cache *ResponseCache,
	answerLog ports.AnswerLog,
	weights FusionWeights,
	rerankTopN int,
) *AnswerUseCase {
	if weights == (FusionWeights{}) {
		weights = DefaultFusionWeights()
	}
	return &AnswerUseCase{
		expander:   expander,
		retriever:  retriever,
		reranker:   reranker,
		assembler:  assembler,
		generator:  generator,
		cache:      cache,
		answerLog:  answerLog,
		weights:    weights,
		rerankTopN: rerankTopN,
	}
}

func (uc *AnswerUseCase) Answer(ctx context.Context, req ports.AnswerRequest) (*domain.Answer, error) {
	if req.Query == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "answer", fmt.Errorf("query is empty"))
	}
	if req.NTickets <= 0 {
		req.NTickets = defaultTopK
	}
	if req.NGuides <= 0 {
		req.NGuides = defaultTopK
	}
	if req.Language == "" {
		req.Language = defaultLanguage
	}
	if req.Drafts <= 0 {
		req.Drafts = 1
	}
	if req.Drafts > maxDrafts {
		req.Drafts = maxDrafts
	}

	// Multi-draft answers vary by design; only the single-draft path is
	// memoized.
	cacheable := req.Drafts == 1 && !req.BypassCache
	key := uc.cache.KeyFor(req.Query, req.NTickets, req.NGuides, req.Language)
	if cacheable {
		if cached, ok := uc.cache.Get(key); ok {
			cached.Cached = true
			return &cached, nil
		}
	}

	started := time.Now()

	tickets, err := uc.retrieveRanked(ctx, req.Query, domain.TypeTicket, req.NTickets)
	if err != nil {
		return nil, err
	}
	guides, err := uc.retrieveRanked(ctx, req.Query, domain.TypeGuideChunk, req.NGuides)
	if err != nil {
		return nil, err
	}

	contextText := uc.assembler.Assemble(tickets, guides)
	prompt := buildAnswerPrompt(req.Query, contextText, req.Language)

	answer := &domain.Answer{
		Query:   req.Query,
		Context: contextText,
		Sources: append(append([]domain.Candidate{}, tickets...), guides...),
		Model:   uc.generator.Model(),
	}

	if req.Drafts == 1 {
		text, err := uc.generator.Generate(ctx, prompt, singleDraftTemperature)
		if err != nil {
			return nil, fmt.Errorf("generate answer: %w", err)
		}
		answer.Text = text
	} else {
		answer.Drafts = uc.generateDrafts(ctx, prompt, req.Drafts)
		for _, draft := range answer.Drafts {
			if draft.Err == "" {
				answer.Text = draft.Text
				break
			}
		}
	}

	if cacheable {
		uc.cache.Put(key, *answer)
	}
	uc.logAnswer(ctx, req, answer, time.Since(started))
	return answer, nil
}

// generateDrafts issues generation calls sequentially. A failed draft keeps
// its error in place and never aborts the rest of the batch.
func (uc *AnswerUseCase) generateDrafts(ctx context.Context, prompt string, n int) []domain.Draft {
	drafts := make([]domain.Draft, 0, n)
	for i := 0; i < n; i++ {
		temperature := draftTemperatures[i]
		draft := domain.Draft{Number: i + 1, Temperature: temperature}

		text, err := uc.generator.Generate(ctx, prompt, temperature)
		if err != nil {
			slog.Error("draft_generation_failed", "draft", draft.Number, "error", err)
			draft.Err = err.Error()
		} else {
			draft.Text = text
		}
		drafts = append(drafts, draft)
	}
	return drafts
}

func (uc *AnswerUseCase) retrieveRanked(
	ctx context.Context,
	query string,
	docType domain.DocType,
	k int,
) ([]domain.Candidate, error) {
	dense, sparse, err := uc.retriever.Retrieve(ctx, query, docType, k)
	if err != nil {
		return nil, err
	}

	fusedTopK := k * 10
	if fusedTopK < fusedFloorPerKey {
		fusedTopK = fusedFloorPerKey
	}
	fused := fuseHybrid(uc.expander, uc.expander.Expand(query), dense, sparse, uc.weights, fusedTopK)

	rerankTopN := uc.rerankTopN
	if rerankTopN < k {
		rerankTopN = k
	}
	if rerankTopN > len(fused) {
		rerankTopN = len(fused)
	}
	ranked := uc.reranker.Rerank(ctx, query, fused[:rerankTopN], k)
	return ranked, nil
}

func (uc *AnswerUseCase) logAnswer(ctx context.Context, req ports.AnswerRequest, answer *domain.Answer, took time.Duration) {
	if uc.answerLog == nil {
		return
	}
	entry := ports.AnswerLogEntry{
		ID:        uuid.NewString(),
		Query:     req.Query,
		Answer:    answer.Text,
		Model:     answer.Model,
		Language:  req.Language,
		CacheHit:  false,
		Duration:  took,
		CreatedAt: time.Now(),
	}
	if err := uc.answerLog.Insert(ctx, entry); err != nil {
		slog.Warn("answer_log_insert_failed", "error", err)
	}
}

// ClearCache drops every cached answer and returns how many were evicted.
func (uc *AnswerUseCase) ClearCache(_ context.Context) int {
	return uc.cache.Clear()
}
