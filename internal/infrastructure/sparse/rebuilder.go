package sparse

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/lmoretti/support-rag/internal/core/domain"
)

// ArtifactStore opens the destination for a freshly fitted artifact.
type ArtifactStore interface {
	CreateSparseArtifact() (io.WriteCloser, error)
}

// Rebuilder fits a new BM25 index over a corpus snapshot and persists it
// through the artifact store. The serving index in a running api process is
// not swapped; it picks up the new artifact on restart.
type Rebuilder struct {
	artifacts ArtifactStore
}

func NewRebuilder(artifacts ArtifactStore) *Rebuilder {
	return &Rebuilder{artifacts: artifacts}
}

func (r *Rebuilder) Rebuild(ctx context.Context, docs []domain.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	idx := Build(docs)
	if !idx.Ready() {
		return fmt.Errorf("fitted sparse index is empty")
	}

	w, err := r.artifacts.CreateSparseArtifact()
	if err != nil {
		return err
	}
	if err := idx.Save(w); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close sparse artifact: %w", err)
	}

	slog.Info("sparse_index_rebuilt", "documents", idx.Len())
	return nil
}
