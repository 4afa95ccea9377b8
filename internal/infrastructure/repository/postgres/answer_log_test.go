package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/lmoretti/support-rag/internal/core/ports"
)

func TestInsertAnswerLogEntry(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	created := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	entry := ports.AnswerLogEntry{
		ID:        "id-1",
		Query:     "ppf ingiallita",
		Answer:    "risposta",
		Model:     "gemma2:2b",
		Language:  "italian",
		CacheHit:  false,
		Duration:  1500 * time.Millisecond,
		CreatedAt: created,
	}

	mock.ExpectExec("INSERT INTO answer_log").
		WithArgs("id-1", "ppf ingiallita", "risposta", "gemma2:2b", "italian", false, int64(1500), created).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewAnswerLogRepository(db)
	if err := repo.Insert(context.Background(), entry); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListRecentScansEntries(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	created := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "query", "answer", "model", "language", "cache_hit", "duration_ms", "created_at"}).
		AddRow("id-2", "q2", "a2", "m", "italian", true, int64(20), created).
		AddRow("id-1", "q1", "a1", "m", "english", false, int64(900), created.Add(-time.Minute))

	mock.ExpectQuery("SELECT id, query, answer, model, language, cache_hit, duration_ms, created_at").
		WithArgs(2).
		WillReturnRows(rows)

	repo := NewAnswerLogRepository(db)
	entries, err := repo.ListRecent(context.Background(), 2)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].ID != "id-2" || !entries[0].CacheHit {
		t.Fatalf("unexpected first entry %+v", entries[0])
	}
	if entries[1].Duration != 900*time.Millisecond {
		t.Fatalf("duration = %v, want 900ms", entries[1].Duration)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListRecentDefaultsLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT id, query, answer, model, language, cache_hit, duration_ms, created_at").
		WithArgs(20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "query", "answer", "model", "language", "cache_hit", "duration_ms", "created_at"}))

	repo := NewAnswerLogRepository(db)
	if _, err := repo.ListRecent(context.Background(), 0); err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
