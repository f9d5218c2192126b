package retrieve

import (
	"context"

	"github.com/vectorsur/ragserver/internal/domain"
	"github.com/vectorsur/ragserver/internal/vectorstore"
)

// Searcher is the consumer interface for the vector store used by retrieval (ISP).
type Searcher interface {
	Search(ctx context.Context, vector []float32, params vectorstore.SearchParams) ([]domain.Match, error)
}

// Embedder vectorizes the query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Params bound one retrieval call. Zero TopK and ScoreThreshold fall back to
// the service defaults. Department "" or "all" means no category filter.
type Params struct {
	Question       string
	Department     string
	TopK           int
	ScoreThreshold float64
}
