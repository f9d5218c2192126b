// Package vectorstore defines the contract with the external vector database.
// The pipeline orchestrates collection lifecycle and point traffic; nearest
// neighbor search itself is the store's job.
package vectorstore

import (
	"context"

	"github.com/vectorsur/ragserver/internal/domain"
)

// Store manages a single named collection in a vector database.
type Store interface {
	// EnsureCollection creates the collection with the given vector size and
	// cosine distance if it does not exist. If it exists, the stored vector
	// size must match vectorSize; a mismatch fails fast.
	EnsureCollection(ctx context.Context, vectorSize int) error

	// Reset deletes the collection entirely. An already absent collection is
	// treated as success.
	Reset(ctx context.Context) error

	// Upsert writes points in fixed-size batches, sequentially. A mid-batch
	// failure leaves earlier batches committed.
	Upsert(ctx context.Context, points []domain.Point) error

	// DeleteByField removes all points whose payload field key equals value.
	DeleteByField(ctx context.Context, key, value string) error

	// Search returns up to params.Limit nearest points by cosine similarity
	// at or above params.ScoreThreshold, ordered by descending score. A
	// non-empty params.Category restricts results to that payload category.
	Search(ctx context.Context, vector []float32, params SearchParams) ([]domain.Match, error)

	// Info reports whether the collection exists and how many points it holds.
	Info(ctx context.Context) (CollectionInfo, error)

	// Sources enumerates the distinct (source, title, category) triples of all
	// stored points.
	Sources(ctx context.Context) ([]SourceInfo, error)
}

// SearchParams bound a similarity search.
type SearchParams struct {
	Limit          int
	ScoreThreshold float64
	Category       string
}

// CollectionInfo describes the collection state for status reporting.
type CollectionInfo struct {
	Exists      bool
	PointsCount int
	VectorSize  int
	Status      string
}

// SourceInfo identifies one ingested source for management listings.
type SourceInfo struct {
	Source   string
	Title    string
	Category string
}
