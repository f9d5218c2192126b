package ingest

import (
	"context"

	"github.com/vectorsur/ragserver/internal/domain"
)

// Store is the consumer interface for the vector store used by ingestion (ISP).
type Store interface {
	EnsureCollection(ctx context.Context, vectorSize int) error
	Reset(ctx context.Context) error
	Upsert(ctx context.Context, points []domain.Point) error
	DeleteByField(ctx context.Context, key, value string) error
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// File is one uploaded file in an ingestion request.
type File struct {
	Name         string
	Data         []byte
	RelativePath string
}

// Result reports what one ingestion call wrote.
type Result struct {
	Documents int
	Chunks    int
}

// FileResult extends Result with per-file accounting for file and folder
// based ingestion.
type FileResult struct {
	Result
	FilesSeen    int
	FilesSkipped int
}
