// Package localfs reads the pre-processed corpus snapshots produced by the
// scraping and ticket-flattening collaborators, and holds the sparse index
// artifact. Metadata normalization (absent value -> empty string) happens
// here, at the ingestion boundary; retrieval code assumes it already holds.
package localfs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/lmoretti/support-rag/internal/core/domain"
)

type Store struct {
	basePath        string
	ticketsFile     string
	guideChunksFile string
	sparseFile      string
}

func New(basePath, ticketsFile, guideChunksFile, sparseFile string) (*Store, error) {
	if basePath == "" {
		basePath = "./data"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{
		basePath:        basePath,
		ticketsFile:     ticketsFile,
		guideChunksFile: guideChunksFile,
		sparseFile:      sparseFile,
	}, nil
}

type ticketRecord struct {
	TicketID       json.Number `json:"ticket_id"`
	Subject        string      `json:"subject"`
	Status         string      `json:"status"`
	Priority       string      `json:"priority"`
	CreatedAt      string      `json:"created_at"`
	UpdatedAt      string      `json:"updated_at"`
	SearchableText string      `json:"searchable_text"`
}

type guideChunkRecord struct {
	GuideNumber    string `json:"guide_number"`
	GuideTitle     string `json:"guide_title"`
	SectionHeading string `json:"section_heading"`
	SectionIndex   int    `json:"section_index"`
	URL            string `json:"url"`
	Text           string `json:"text"`
}

func (s *Store) LoadTickets(_ context.Context) ([]domain.Document, error) {
	var records []ticketRecord
	if err := s.readJSON(s.ticketsFile, &records); err != nil {
		return nil, err
	}

	docs := make([]domain.Document, 0, len(records))
	for _, r := range records {
		if r.SearchableText == "" {
			continue
		}
		docs = append(docs, domain.Document{
			ID:   "ticket_" + r.TicketID.String(),
			Text: r.SearchableText,
			Type: domain.TypeTicket,
			Metadata: domain.Metadata{
				TicketID:  r.TicketID.String(),
				Subject:   clip(r.Subject, 500),
				Status:    r.Status,
				Priority:  r.Priority,
				CreatedAt: r.CreatedAt,
				UpdatedAt: r.UpdatedAt,
			},
		})
	}
	return docs, nil
}

func (s *Store) LoadGuideChunks(_ context.Context) ([]domain.Document, error) {
	var records []guideChunkRecord
	if err := s.readJSON(s.guideChunksFile, &records); err != nil {
		return nil, err
	}

	docs := make([]domain.Document, 0, len(records))
	for _, r := range records {
		if r.Text == "" {
			continue
		}
		docs = append(docs, domain.Document{
			ID:   fmt.Sprintf("guide_%s_%d", r.GuideNumber, r.SectionIndex),
			Text: r.Text,
			Type: domain.TypeGuideChunk,
			Metadata: domain.Metadata{
				GuideNumber:    r.GuideNumber,
				GuideTitle:     clip(r.GuideTitle, 500),
				SectionHeading: clip(r.SectionHeading, 500),
				URL:            r.URL,
			},
		})
	}
	return docs, nil
}

func (s *Store) OpenSparseArtifact() (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.basePath, s.sparseFile))
	if err != nil {
		return nil, fmt.Errorf("open sparse artifact: %w", err)
	}
	return f, nil
}

func (s *Store) CreateSparseArtifact() (io.WriteCloser, error) {
	f, err := os.Create(filepath.Join(s.basePath, s.sparseFile))
	if err != nil {
		return nil, fmt.Errorf("create sparse artifact: %w", err)
	}
	return f, nil
}

func (s *Store) readJSON(name string, out any) error {
	path := filepath.Join(s.basePath, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read corpus file %s: %w", name, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse corpus file %s: %w", name, err)
	}
	return nil
}

// clip bounds a metadata field, never splitting a multi-byte character.
func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
