// Package ollama implements domain.Embedder against Ollama's native
// embeddings endpoint.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vectorsur/ragserver/internal/domain"
	"github.com/vectorsur/ragserver/internal/metrics"
)

const provider = "ollama"

// Embedder calls POST {host}/api/embeddings with {model, prompt}.
type Embedder struct {
	host   string
	model  string
	http   *http.Client
	logger *zap.Logger
}

// Config holds Ollama connection settings.
type Config struct {
	Host    string
	Model   string
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewEmbedder creates an Ollama embedding client.
func NewEmbedder(cfg Config) *Embedder {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Embedder{
		host:   strings.TrimRight(cfg.Host, "/"),
		model:  cfg.Model,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Embed implements domain.Embedder. Ollama reports no token usage, so the
// result carries only the vector.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	reqBody, err := json.Marshal(map[string]string{
		"model":  e.model,
		"prompt": text,
	})
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, e.host+"/api/embeddings", bytes.NewReader(reqBody),
	)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := e.http.Do(req)
	duration := time.Since(start)

	if err != nil {
		e.countError("unreachable")
		return domain.EmbeddingResult{}, fmt.Errorf("embedding endpoint: %w: %w", err, domain.ErrEmbeddingProvider)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		e.countError("read_body")
		return domain.EmbeddingResult{}, fmt.Errorf("read embed response: %w: %w", err, domain.ErrEmbeddingProvider)
	}

	if resp.StatusCode != http.StatusOK {
		e.countError("api_error")
		return domain.EmbeddingResult{}, fmt.Errorf(
			"embedding endpoint status %d: %s: %w", resp.StatusCode, truncate(body), domain.ErrEmbeddingProvider,
		)
	}

	var parsed struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		e.countError("malformed_response")
		return domain.EmbeddingResult{}, fmt.Errorf("decode embed response: %w: %w", err, domain.ErrEmbeddingProvider)
	}
	if len(parsed.Embedding) == 0 {
		e.countError("empty_response")
		return domain.EmbeddingResult{}, fmt.Errorf(
			"embedding response missing embedding vector: %w", domain.ErrEmbeddingProvider,
		)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(provider, e.model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(provider, e.model).Observe(duration.Seconds())

	return domain.EmbeddingResult{Embedding: parsed.Embedding}, nil
}

func (e *Embedder) countError(errType string) {
	metrics.EmbeddingRequestsTotal.WithLabelValues(provider, e.model, "error").Inc()
	metrics.EmbeddingErrorsTotal.WithLabelValues(provider, e.model, errType).Inc()
}

func truncate(body []byte) string {
	const max = 256
	s := string(body)
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
