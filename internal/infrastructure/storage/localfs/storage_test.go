package localfs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/lmoretti/support-rag/internal/core/domain"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := New(dir, "tickets.json", "guide_chunks.json", "sparse_index.gob")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return store, dir
}

func TestLoadTicketsNormalizesMetadata(t *testing.T) {
	store, dir := newTestStore(t)
	writeFile(t, dir, "tickets.json", `[
		{"ticket_id": 1042, "subject": "PPF ingiallita", "status": "closed", "priority": "high",
		 "created_at": "2025-01-10", "updated_at": "2025-01-12", "searchable_text": "la pellicola e ingiallita"},
		{"ticket_id": 1043, "subject": "vuoto", "searchable_text": ""}
	]`)

	docs, err := store.LoadTickets(context.Background())
	if err != nil {
		t.Fatalf("LoadTickets() error = %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("empty searchable_text must be skipped, got %d docs", len(docs))
	}

	doc := docs[0]
	if doc.ID != "ticket_1042" || doc.Type != domain.TypeTicket {
		t.Fatalf("unexpected document %+v", doc)
	}
	if doc.Metadata.TicketID != "1042" || doc.Metadata.Subject != "PPF ingiallita" || doc.Metadata.Status != "closed" {
		t.Fatalf("unexpected metadata %+v", doc.Metadata)
	}
}

func TestLoadGuideChunksBuildsStableIDs(t *testing.T) {
	store, dir := newTestStore(t)
	writeFile(t, dir, "guide_chunks.json", `[
		{"guide_number": "G7", "guide_title": "Applicazione PPF", "section_heading": "Preparazione",
		 "section_index": 2, "url": "https://example.com/g7", "text": "pulire la superficie"},
		{"guide_number": "G8", "guide_title": "Vuota", "section_index": 0, "text": ""}
	]`)

	docs, err := store.LoadGuideChunks(context.Background())
	if err != nil {
		t.Fatalf("LoadGuideChunks() error = %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("empty text must be skipped, got %d docs", len(docs))
	}
	if docs[0].ID != "guide_G7_2" || docs[0].Type != domain.TypeGuideChunk {
		t.Fatalf("unexpected document %+v", docs[0])
	}
	if docs[0].Metadata.GuideTitle != "Applicazione PPF" || docs[0].Metadata.URL != "https://example.com/g7" {
		t.Fatalf("unexpected metadata %+v", docs[0].Metadata)
	}
}

func TestLoadTicketsMissingFileErrors(t *testing.T) {
	store, _ := newTestStore(t)
	if _, err := store.LoadTickets(context.Background()); err == nil {
		t.Fatalf("expected error for missing corpus file")
	}
}

func TestLoadTicketsMalformedJSONErrors(t *testing.T) {
	store, dir := newTestStore(t)
	writeFile(t, dir, "tickets.json", "{not json")
	if _, err := store.LoadTickets(context.Background()); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestSparseArtifactRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)

	w, err := store.CreateSparseArtifact()
	if err != nil {
		t.Fatalf("CreateSparseArtifact() error = %v", err)
	}
	if _, err := w.Write([]byte("payload")); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close artifact: %v", err)
	}

	r, err := store.OpenSparseArtifact()
	if err != nil {
		t.Fatalf("OpenSparseArtifact() error = %v", err)
	}
	defer r.Close()

	buf := make([]byte, 16)
	n, _ := r.Read(buf)
	if string(buf[:n]) != "payload" {
		t.Fatalf("artifact content = %q", buf[:n])
	}
}

func TestOpenSparseArtifactMissing(t *testing.T) {
	store, _ := newTestStore(t)
	if _, err := store.OpenSparseArtifact(); err == nil {
		t.Fatalf("expected error for missing artifact")
	}
}

func TestClipNeverSplitsMultiByteCharacters(t *testing.T) {
	// 300 two-byte characters; a byte-indexed cut at 499 would split one.
	subject := strings.Repeat("è", 300)
	out := clip(subject, 499)

	if !utf8.ValidString(out) {
		t.Fatalf("clipped value is not valid utf-8: %q", out)
	}
	if len(out) != 498 {
		t.Fatalf("expected back-off to the rune boundary at 498 bytes, got %d", len(out))
	}
	if short := clip("breve", 500); short != "breve" {
		t.Fatalf("short value must pass through, got %q", short)
	}
}
