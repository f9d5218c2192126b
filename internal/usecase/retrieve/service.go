// Package retrieve answers queries over the ingested corpus: embed the
// question, search the vector store, and optionally pack the hits into a
// character-budgeted context block.
package retrieve

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/vectorsur/ragserver/internal/domain"
	"github.com/vectorsur/ragserver/internal/vectorstore"
)

// Config holds retrieval defaults applied when a request leaves them unset.
type Config struct {
	Enabled         bool
	TopK            int
	ScoreThreshold  float64
	MaxContextChars int
}

// Service is the retrieval orchestrator.
type Service struct {
	searcher Searcher
	embedder Embedder
	cfg      Config
	logger   *zap.Logger
}

// New creates a retrieval service.
func New(searcher Searcher, embedder Embedder, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		searcher: searcher,
		embedder: embedder,
		cfg:      cfg,
		logger:   logger,
	}
}

// Query returns the ranked matches for a question. Unlike Context, failures
// here are surfaced: the caller asked for search results, not best effort.
func (s *Service) Query(ctx context.Context, params Params) ([]domain.Match, error) {
	if !s.cfg.Enabled {
		return nil, domain.ErrRAGDisabled
	}
	question := strings.TrimSpace(params.Question)
	if question == "" {
		return nil, fmt.Errorf("query text is required: %w", domain.ErrValidation)
	}

	res, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	matches, err := s.searcher.Search(ctx, res.Embedding, s.searchParams(params))
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return matches, nil
}

// Context builds the prompt context block for a question. It is strictly
// best-effort: a disabled pipeline, a blank question, or any downstream
// failure yields an empty block, never an error. Chat must keep working
// without retrieval.
func (s *Service) Context(ctx context.Context, question, department string) string {
	if !s.cfg.Enabled || strings.TrimSpace(question) == "" {
		return ""
	}

	matches, err := s.Query(ctx, Params{Question: question, Department: department})
	if err != nil {
		s.logger.Warn("context retrieval failed, continuing without context",
			zap.Error(err))
		return ""
	}

	return BuildContext(matches, s.cfg.MaxContextChars)
}

// searchParams resolves request overrides against configured defaults and
// maps the "all" department sentinel to an unfiltered search.
func (s *Service) searchParams(params Params) vectorstore.SearchParams {
	out := vectorstore.SearchParams{
		Limit:          s.cfg.TopK,
		ScoreThreshold: s.cfg.ScoreThreshold,
	}
	if params.TopK > 0 {
		out.Limit = params.TopK
	}
	if params.ScoreThreshold > 0 {
		out.ScoreThreshold = params.ScoreThreshold
	}
	if dep := strings.TrimSpace(params.Department); dep != "" && dep != "all" {
		out.Category = dep
	}
	return out
}
