package httpadapter

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lmoretti/support-rag/internal/core/ports"
	"github.com/lmoretti/support-rag/internal/observability/metrics"
)

const serviceName = "support-rag-api"

type Router struct {
	answerUC  ports.SupportAnswerer
	queue     ports.ReindexQueue
	answerLog ports.AnswerLog
	metrics   *metrics.APIMetrics
}

func NewRouter(
	answerUC ports.SupportAnswerer,
	queue ports.ReindexQueue,
	answerLog ports.AnswerLog,
	apiMetrics *metrics.APIMetrics,
) *Router {
	return &Router{
		answerUC:  answerUC,
		queue:     queue,
		answerLog: answerLog,
		metrics:   apiMetrics,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/support/answer", rt.answer)
	mux.HandleFunc("/v1/support/cache", rt.clearCache)
	mux.HandleFunc("/v1/support/reindex", rt.reindex)
	mux.HandleFunc("/v1/support/log", rt.recentAnswers)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) answer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Query       string `json:"query"`
		NTickets    int    `json:"n_tickets"`
		NGuides     int    `json:"n_guides"`
		Language    string `json:"language"`
		Drafts      int    `json:"drafts"`
		BypassCache bool   `json:"bypass_cache"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}

	started := time.Now()
	answer, err := rt.answerUC.Answer(r.Context(), ports.AnswerRequest{
		Query:       req.Query,
		NTickets:    req.NTickets,
		NGuides:     req.NGuides,
		Language:    req.Language,
		Drafts:      req.Drafts,
		BypassCache: req.BypassCache,
	})
	if rt.metrics != nil {
		sourceCount := 0
		cached := false
		if answer != nil {
			sourceCount = len(answer.Sources)
			cached = answer.Cached
		}
		rt.metrics.RecordAnswer(serviceName, sourceCount, cached, time.Since(started), err)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, answer)
}

func (rt *Router) clearCache(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	evicted := rt.answerUC.ClearCache(r.Context())
	writeJSON(w, http.StatusOK, map[string]int{"evicted": evicted})
}

func (rt *Router) reindex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if rt.queue == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "reindex queue is not configured"})
		return
	}

	if err := rt.queue.PublishReindex(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "reindex requested"})
}

func (rt *Router) recentAnswers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if rt.answerLog == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := rt.answerLog.ListRecent(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}

	type logItem struct {
		ID         string    `json:"id"`
		Query      string    `json:"query"`
		Answer     string    `json:"answer"`
		Model      string    `json:"model"`
		Language   string    `json:"language"`
		CacheHit   bool      `json:"cache_hit"`
		DurationMS int64     `json:"duration_ms"`
		CreatedAt  time.Time `json:"created_at"`
	}
	items := make([]logItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, logItem{
			ID:         e.ID,
			Query:      e.Query,
			Answer:     e.Answer,
			Model:      e.Model,
			Language:   e.Language,
			CacheHit:   e.CacheHit,
			DurationMS: e.Duration.Milliseconds(),
			CreatedAt:  e.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, items)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
