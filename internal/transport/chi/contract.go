package chi

import (
	"context"

	"github.com/vectorsur/ragserver/internal/domain"
	"github.com/vectorsur/ragserver/internal/usecase/ingest"
	"github.com/vectorsur/ragserver/internal/usecase/retrieve"
	"github.com/vectorsur/ragserver/internal/usecase/status"
)

// Ingester is the consumer interface over the ingestion orchestrator.
type Ingester interface {
	IngestDocuments(ctx context.Context, docs []domain.Document, reset bool) (ingest.Result, error)
	IngestFiles(ctx context.Context, files []ingest.File, reset bool) (ingest.FileResult, error)
	IngestFolder(ctx context.Context, root string, extensions []string, department string, reset bool) (ingest.FileResult, error)
	Delete(ctx context.Context, deletionType, value string) error
}

// Retriever is the consumer interface over the retrieval orchestrator.
type Retriever interface {
	Query(ctx context.Context, params retrieve.Params) ([]domain.Match, error)
	Context(ctx context.Context, question, department string) string
}

// StatusReporter aggregates pipeline state for the status endpoint.
type StatusReporter interface {
	Report(ctx context.Context) (status.Report, error)
}
