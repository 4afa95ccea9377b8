package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lmoretti/support-rag/internal/core/domain"
	"github.com/lmoretti/support-rag/internal/core/ports"
)

// Point ids must be stable across reindex runs so upserts overwrite instead
// of duplicating. They are derived from the document id.
var pointNamespace = uuid.MustParse("9c0f7e5a-2b11-4b8a-9c41-64c06a1b39de")

type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client

	ensureMu          sync.Mutex
	ensuredCollection bool
	ensuredVectorSize int
}

func New(baseURL, collection string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) IndexDocuments(ctx context.Context, docs []domain.Document, vectors [][]float32) error {
	if len(docs) == 0 {
		return nil
	}
	if len(docs) != len(vectors) {
		return fmt.Errorf("documents/vectors mismatch: %d vs %d", len(docs), len(vectors))
	}

	if err := c.ensureCollection(ctx, len(vectors[0])); err != nil {
		return err
	}

	type point struct {
		ID      string         `json:"id"`
		Vector  []float32      `json:"vector"`
		Payload map[string]any `json:"payload"`
	}

	points := make([]point, 0, len(docs))
	for i, doc := range docs {
		points = append(points, point{
			ID:     uuid.NewSHA1(pointNamespace, []byte(doc.ID)).String(),
			Vector: vectors[i],
			Payload: map[string]any{
				"doc_id":          doc.ID,
				"doc_type":        string(doc.Type),
				"text":            doc.Text,
				"ticket_id":       doc.Metadata.TicketID,
				"subject":         doc.Metadata.Subject,
				"status":          doc.Metadata.Status,
				"priority":        doc.Metadata.Priority,
				"guide_number":    doc.Metadata.GuideNumber,
				"guide_title":     doc.Metadata.GuideTitle,
				"section_heading": doc.Metadata.SectionHeading,
				"url":             doc.Metadata.URL,
				"created_at":      doc.Metadata.CreatedAt,
				"updated_at":      doc.Metadata.UpdatedAt,
			},
		})
	}

	reqBody := map[string]any{"points": points}
	url := fmt.Sprintf("%s/collections/%s/points?wait=true", c.baseURL, c.collection)
	return c.do(ctx, http.MethodPut, url, reqBody, nil, "upsert")
}

func (c *Client) QueryNearest(
	ctx context.Context,
	vector []float32,
	limit int,
	typeFilter domain.DocType,
) ([]ports.ScoredDocument, error) {
	reqBody := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	if typeFilter != "" {
		reqBody["filter"] = map[string]any{
			"must": []map[string]any{
				{
					"key": "doc_type",
					"match": map[string]any{
						"value": string(typeFilter),
					},
				},
			},
		}
	}

	var searchResp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, c.collection)
	if err := c.do(ctx, http.MethodPost, url, reqBody, &searchResp, "search"); err != nil {
		return nil, err
	}

	out := make([]ports.ScoredDocument, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		score := r.Score
		if score < 0 {
			score = 0
		}
		if score > 1 {
			score = 1
		}
		out = append(out, ports.ScoredDocument{
			Document: documentFromPayload(r.Payload),
			Score:    score,
		})
	}
	return out, nil
}

func (c *Client) GetByIDs(ctx context.Context, ids []string) ([]domain.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	reqBody := map[string]any{
		"limit":        len(ids),
		"with_payload": true,
		"filter": map[string]any{
			"must": []map[string]any{
				{
					"key": "doc_id",
					"match": map[string]any{
						"any": ids,
					},
				},
			},
		},
	}

	var scrollResp struct {
		Result struct {
			Points []struct {
				Payload map[string]any `json:"payload"`
			} `json:"points"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/scroll", c.baseURL, c.collection)
	if err := c.do(ctx, http.MethodPost, url, reqBody, &scrollResp, "scroll"); err != nil {
		return nil, err
	}

	out := make([]domain.Document, 0, len(scrollResp.Result.Points))
	for _, p := range scrollResp.Result.Points {
		out = append(out, documentFromPayload(p.Payload))
	}
	return out, nil
}

// SupportsTypeFilter probes the filtered search path once. Some deployments
// reject payload filters; callers fall back to client-side filtering. The
// probe vector must match the collection's configured size, otherwise qdrant
// rejects the search for the dimension mismatch and the answer says nothing
// about filter support.
func (c *Client) SupportsTypeFilter(ctx context.Context) bool {
	size, err := c.collectionVectorSize(ctx)
	if err != nil {
		return false
	}
	_, err = c.QueryNearest(ctx, make([]float32, size), 1, domain.TypeTicket)
	return err == nil
}

func (c *Client) collectionVectorSize(ctx context.Context) (int, error) {
	var infoResp struct {
		Result struct {
			Config struct {
				Params struct {
					Vectors struct {
						Size int `json:"size"`
					} `json:"vectors"`
				} `json:"params"`
			} `json:"config"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection)
	if err := c.do(ctx, http.MethodGet, url, nil, &infoResp, "collection info"); err != nil {
		return 0, err
	}
	size := infoResp.Result.Config.Params.Vectors.Size
	if size <= 0 {
		return 0, fmt.Errorf("collection %s reports no vector size", c.collection)
	}
	return size, nil
}

func (c *Client) ensureCollection(ctx context.Context, vectorSize int) error {
	c.ensureMu.Lock()
	if c.ensuredCollection && c.ensuredVectorSize == vectorSize {
		c.ensureMu.Unlock()
		return nil
	}
	c.ensureMu.Unlock()

	reqBody := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal create collection body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create collection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant ensure collection request: %w", err)
	}
	defer resp.Body.Close()

	// 200/201 for create, 409 if already exists (depends on version/config).
	if resp.StatusCode == http.StatusConflict {
		c.markCollectionEnsured(vectorSize)
		return nil
	}
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if msg := strings.TrimSpace(string(body)); msg != "" {
			return fmt.Errorf("qdrant ensure collection status: %s: %s", resp.Status, msg)
		}
		return fmt.Errorf("qdrant ensure collection status: %s", resp.Status)
	}
	c.markCollectionEnsured(vectorSize)
	return nil
}

func (c *Client) markCollectionEnsured(vectorSize int) {
	c.ensureMu.Lock()
	defer c.ensureMu.Unlock()
	c.ensuredCollection = true
	c.ensuredVectorSize = vectorSize
}

func (c *Client) do(ctx context.Context, method, url string, payload any, out any, operation string) error {
	var reader io.Reader
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s body: %w", operation, err)
		}
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if msg := strings.TrimSpace(string(respBody)); msg != "" {
			return fmt.Errorf("qdrant %s status: %s: %s", operation, resp.Status, msg)
		}
		return fmt.Errorf("qdrant %s status: %s", operation, resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

func documentFromPayload(payload map[string]any) domain.Document {
	return domain.Document{
		ID:   getString(payload, "doc_id"),
		Text: getString(payload, "text"),
		Type: domain.DocType(getString(payload, "doc_type")),
		Metadata: domain.Metadata{
			TicketID:       getString(payload, "ticket_id"),
			Subject:        getString(payload, "subject"),
			Status:         getString(payload, "status"),
			Priority:       getString(payload, "priority"),
			GuideNumber:    getString(payload, "guide_number"),
			GuideTitle:     getString(payload, "guide_title"),
			SectionHeading: getString(payload, "section_heading"),
			URL:            getString(payload, "url"),
			CreatedAt:      getString(payload, "created_at"),
			UpdatedAt:      getString(payload, "updated_at"),
		},
	}
}

func getString(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
