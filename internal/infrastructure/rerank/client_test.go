package rerank

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestScorePairsSendsQueryAndTexts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rerank" {
			http.NotFound(w, r)
			return
		}
		var payload struct {
			Query string   `json:"query"`
			Texts []string `json:"texts"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if payload.Query != "ppf" || len(payload.Texts) != 2 {
			t.Fatalf("unexpected payload %+v", payload)
		}
		_, _ = w.Write([]byte(`{"scores":[0.9,0.1]}`))
	}))
	defer server.Close()

	scores, err := New(server.URL).ScorePairs(context.Background(), "ppf", []string{"a", "b"})
	if err != nil {
		t.Fatalf("ScorePairs() error = %v", err)
	}
	if len(scores) != 2 || scores[0] != 0.9 {
		t.Fatalf("unexpected scores %v", scores)
	}
}

func TestScorePairsEmptyInputSkipsCall(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	defer server.Close()

	scores, err := New(server.URL).ScorePairs(context.Background(), "q", nil)
	if err != nil || scores != nil {
		t.Fatalf("expected nil result, got %v, %v", scores, err)
	}
	if called {
		t.Fatalf("empty input must not hit the service")
	}
}

func TestScorePairsCountMismatchErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"scores":[0.5]}`))
	}))
	defer server.Close()

	if _, err := New(server.URL).ScorePairs(context.Background(), "q", []string{"a", "b"}); err == nil {
		t.Fatalf("expected count mismatch error")
	}
}

func TestPingUsesScoringEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"scores":[0.0]}`))
	}))
	defer server.Close()

	if err := New(server.URL).Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
}

func TestScorePairsSurfacesServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	if _, err := New(server.URL).ScorePairs(context.Background(), "q", []string{"a"}); err == nil {
		t.Fatalf("expected error")
	}
}
