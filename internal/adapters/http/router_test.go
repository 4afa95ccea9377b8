package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lmoretti/support-rag/internal/core/domain"
	"github.com/lmoretti/support-rag/internal/core/ports"
	"github.com/lmoretti/support-rag/internal/observability/metrics"
)

type answererFake struct {
	req     ports.AnswerRequest
	answer  *domain.Answer
	err     error
	evicted int
}

func (f *answererFake) Answer(_ context.Context, req ports.AnswerRequest) (*domain.Answer, error) {
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return f.answer, nil
}

func (f *answererFake) ClearCache(context.Context) int { return f.evicted }

type queueFake struct {
	published int
	err       error
}

func (f *queueFake) PublishReindex(context.Context) error {
	if f.err != nil {
		return f.err
	}
	f.published++
	return nil
}

func (f *queueFake) SubscribeReindex(context.Context, func(context.Context) error) error {
	return nil
}

type routerLogFake struct {
	entries []ports.AnswerLogEntry
}

func (f *routerLogFake) Insert(context.Context, ports.AnswerLogEntry) error { return nil }

func (f *routerLogFake) ListRecent(_ context.Context, limit int) ([]ports.AnswerLogEntry, error) {
	if limit > 0 && limit < len(f.entries) {
		return f.entries[:limit], nil
	}
	return f.entries, nil
}

func newTestRouter(answerer *answererFake, queue *queueFake, log *routerLogFake) http.Handler {
	return NewRouter(answerer, queue, log, metrics.NewAPIMetrics("test")).Handler()
}

func TestHealthz(t *testing.T) {
	handler := newTestRouter(&answererFake{}, &queueFake{}, &routerLogFake{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rec.Code)
	}
}

func TestAnswerEndpointPassesRequestThrough(t *testing.T) {
	answerer := &answererFake{answer: &domain.Answer{Query: "ppf", Text: "risposta", Model: "m"}}
	handler := newTestRouter(answerer, &queueFake{}, &routerLogFake{})

	body := `{"query":"ppf","n_tickets":5,"n_guides":2,"language":"english","drafts":3,"bypass_cache":true}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/support/answer", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	want := ports.AnswerRequest{Query: "ppf", NTickets: 5, NGuides: 2, Language: "english", Drafts: 3, BypassCache: true}
	if answerer.req != want {
		t.Fatalf("use case got %+v, want %+v", answerer.req, want)
	}

	var response domain.Answer
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if response.Text != "risposta" {
		t.Fatalf("unexpected answer text %q", response.Text)
	}
}

func TestAnswerEndpointRejectsInvalidJSON(t *testing.T) {
	handler := newTestRouter(&answererFake{}, &queueFake{}, &routerLogFake{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/support/answer", strings.NewReader("{")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAnswerEndpointRejectsBlankQuery(t *testing.T) {
	handler := newTestRouter(&answererFake{}, &queueFake{}, &routerLogFake{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/support/answer", strings.NewReader(`{"query":"   "}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAnswerEndpointRequiresPost(t *testing.T) {
	handler := newTestRouter(&answererFake{}, &queueFake{}, &routerLogFake{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/support/answer", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAnswerEndpointMapsBackendUnavailableTo503WithHint(t *testing.T) {
	answerer := &answererFake{err: domain.WrapError(domain.ErrBackendUnavailable, "dense search", errors.New("connection refused"))}
	handler := newTestRouter(answerer, &queueFake{}, &routerLogFake{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/support/answer", strings.NewReader(`{"query":"ppf"}`)))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["hint"] == "" {
		t.Fatalf("expected actionable hint, got %v", body)
	}
}

func TestAnswerEndpointMapsInvalidInputTo400(t *testing.T) {
	answerer := &answererFake{err: domain.WrapError(domain.ErrInvalidInput, "answer", errors.New("bad request"))}
	handler := newTestRouter(answerer, &queueFake{}, &routerLogFake{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/support/answer", strings.NewReader(`{"query":"ppf"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestClearCacheEndpoint(t *testing.T) {
	handler := newTestRouter(&answererFake{evicted: 4}, &queueFake{}, &routerLogFake{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/support/cache", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body map[string]int
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["evicted"] != 4 {
		t.Fatalf("evicted = %d, want 4", body["evicted"])
	}
}

func TestReindexEndpointPublishes(t *testing.T) {
	queue := &queueFake{}
	handler := newTestRouter(&answererFake{}, queue, &routerLogFake{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/support/reindex", nil))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d", rec.Code)
	}
	if queue.published != 1 {
		t.Fatalf("expected one publish, got %d", queue.published)
	}
}

func TestReindexEndpointPublishErrorIs500(t *testing.T) {
	queue := &queueFake{err: fmt.Errorf("nats publish: %w", errors.New("no servers"))}
	handler := newTestRouter(&answererFake{}, queue, &routerLogFake{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/support/reindex", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRecentAnswersEndpointHonorsLimit(t *testing.T) {
	log := &routerLogFake{entries: []ports.AnswerLogEntry{
		{ID: "1", Query: "a", CreatedAt: time.Now()},
		{ID: "2", Query: "b", CreatedAt: time.Now()},
	}}
	handler := newTestRouter(&answererFake{}, &queueFake{}, log)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/support/log?limit=1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var items []map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&items); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(items))
	}
}

func TestRequestIDHeaderIsEchoed(t *testing.T) {
	handler := newTestRouter(&answererFake{}, &queueFake{}, &routerLogFake{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "req-123")
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-Id"); got != "req-123" {
		t.Fatalf("request id = %q, want req-123", got)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected generated request id")
	}
}
