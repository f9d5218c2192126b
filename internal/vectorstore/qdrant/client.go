// Package qdrant implements vectorstore.Store against the Qdrant REST API.
package qdrant

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
	"github.com/vectorsur/ragserver/internal/vectorstore"
)

// upsertBatchSize is the number of points per upsert request. Batches are
// sent sequentially; each must succeed before the next is sent.
const upsertBatchSize = 64

// Compile-time check: Client implements vectorstore.Store.
var _ vectorstore.Store = (*Client)(nil)

// Client is a REST client for one Qdrant collection.
type Client struct {
	baseURL    string
	collection string
	apiKey     string
	http       *http.Client
	logger     *zap.Logger
}

// Config holds Qdrant connection settings.
type Config struct {
	URL        string
	Collection string
	APIKey     string
	Timeout    time.Duration
	Logger     *zap.Logger
}

// New creates a Qdrant client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		collection: cfg.Collection,
		apiKey:     cfg.APIKey,
		http:       &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (c *Client) collectionURL(suffix string) string {
	return fmt.Sprintf("%s/collections/%s%s", c.baseURL, c.collection, suffix)
}

// EnsureCollection implements vectorstore.Store. The existing collection's
// vector size is validated against vectorSize instead of being trusted.
func (c *Client) EnsureCollection(ctx context.Context, vectorSize int) error {
	if vectorSize <= 0 {
		return fmt.Errorf("vector size must be positive, got %d: %w", vectorSize, domain.ErrVectorStore)
	}

	status, body, err := c.do(ctx, http.MethodGet, c.collectionURL(""), nil)
	if err != nil {
		return err
	}

	switch {
	case status == http.StatusOK:
		existing := collectionVectorSize(body)
		if existing > 0 && existing != vectorSize {
			return fmt.Errorf(
				"collection %q has vector size %d, embeddings have %d: %w",
				c.collection, existing, vectorSize, domain.ErrVectorDimMismatch,
			)
		}
		return nil
	case status == http.StatusNotFound:
		req := map[string]any{
			"vectors": map[string]any{
				"size":     vectorSize,
				"distance": "Cosine",
			},
			// Payload filtering works off disk; keeps memory bound to vectors.
			"on_disk_payload": true,
		}
		if _, _, err := c.doJSON(ctx, http.MethodPut, c.collectionURL(""), req); err != nil {
			return err
		}
		c.logger.Info("created collection",
			zap.String("collection", c.collection),
			zap.Int("vector_size", vectorSize),
		)
		return nil
	default:
		return fmt.Errorf("get collection %q: status %d: %s: %w",
			c.collection, status, truncate(body), domain.ErrVectorStore)
	}
}

// Reset implements vectorstore.Store.
func (c *Client) Reset(ctx context.Context) error {
	status, body, err := c.do(ctx, http.MethodDelete, c.collectionURL(""), nil)
	if err != nil {
		return err
	}
	if status == http.StatusOK || status == http.StatusNotFound {
		return nil
	}
	return fmt.Errorf("delete collection %q: status %d: %s: %w",
		c.collection, status, truncate(body), domain.ErrVectorStore)
}

// Upsert implements vectorstore.Store.
func (c *Client) Upsert(ctx context.Context, points []domain.Point) error {
	for start := 0; start < len(points); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(points) {
			end = len(points)
		}

		batch := make([]upsertPoint, 0, end-start)
		for _, p := range points[start:end] {
			batch = append(batch, upsertPoint{ID: p.ID, Vector: p.Vector, Payload: p.Payload})
		}

		url := c.collectionURL("/points?wait=true")
		if _, _, err := c.doJSON(ctx, http.MethodPut, url, map[string]any{"points": batch}); err != nil {
			return fmt.Errorf("upsert batch [%d:%d]: %w", start, end, err)
		}
	}
	return nil
}

// DeleteByField implements vectorstore.Store.
func (c *Client) DeleteByField(ctx context.Context, key, value string) error {
	req := map[string]any{
		"filter": mustMatchFilter(key, value),
	}
	if _, _, err := c.doJSON(ctx, http.MethodPost, c.collectionURL("/points/delete"), req); err != nil {
		return fmt.Errorf("delete by %s=%q: %w", key, value, err)
	}
	return nil
}

// Search implements vectorstore.Store.
func (c *Client) Search(
	ctx context.Context, vector []float32, params vectorstore.SearchParams,
) ([]domain.Match, error) {
	req := map[string]any{
		"vector":          vector,
		"limit":           params.Limit,
		"with_payload":    true,
		"score_threshold": params.ScoreThreshold,
	}
	if params.Category != "" {
		req["filter"] = mustMatchFilter("category", params.Category)
	}

	_, body, err := c.doJSON(ctx, http.MethodPost, c.collectionURL("/points/search"), req)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Result []struct {
			Score   float64         `json:"score"`
			Payload json.RawMessage `json:"payload"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w: %w", err, domain.ErrVectorStore)
	}

	matches := make([]domain.Match, 0, len(resp.Result))
	for _, r := range resp.Result {
		matches = append(matches, domain.Match{Score: r.Score, Payload: c.decodePayload(r.Payload)})
	}
	return matches, nil
}

// Info implements vectorstore.Store.
func (c *Client) Info(ctx context.Context) (vectorstore.CollectionInfo, error) {
	status, body, err := c.do(ctx, http.MethodGet, c.collectionURL(""), nil)
	if err != nil {
		return vectorstore.CollectionInfo{}, err
	}
	if status == http.StatusNotFound {
		return vectorstore.CollectionInfo{}, nil
	}
	if status != http.StatusOK {
		return vectorstore.CollectionInfo{}, fmt.Errorf("get collection %q: status %d: %s: %w",
			c.collection, status, truncate(body), domain.ErrVectorStore)
	}

	var resp struct {
		Result struct {
			Status      string `json:"status"`
			PointsCount int    `json:"points_count"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return vectorstore.CollectionInfo{}, fmt.Errorf("decode collection info: %w: %w", err, domain.ErrVectorStore)
	}

	return vectorstore.CollectionInfo{
		Exists:      true,
		PointsCount: resp.Result.PointsCount,
		VectorSize:  collectionVectorSize(body),
		Status:      resp.Result.Status,
	}, nil
}

// Sources implements vectorstore.Store by scrolling all point payloads.
func (c *Client) Sources(ctx context.Context) ([]vectorstore.SourceInfo, error) {
	seen := make(map[string]struct{})
	var sources []vectorstore.SourceInfo

	var offset json.RawMessage
	for {
		req := map[string]any{
			"limit": 256,
			"with_payload": map[string]any{
				"include": []string{"source", "title", "category"},
			},
		}
		if offset != nil {
			req["offset"] = offset
		}

		_, body, err := c.doJSON(ctx, http.MethodPost, c.collectionURL("/points/scroll"), req)
		if err != nil {
			return nil, fmt.Errorf("scroll points: %w", err)
		}

		var resp struct {
			Result struct {
				Points []struct {
					Payload json.RawMessage `json:"payload"`
				} `json:"points"`
				NextPageOffset json.RawMessage `json:"next_page_offset"`
			} `json:"result"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("decode scroll response: %w: %w", err, domain.ErrVectorStore)
		}

		for _, p := range resp.Result.Points {
			payload := c.decodePayload(p.Payload)
			if payload.Source == "" {
				continue
			}
			key := payload.Category + "\x00" + payload.Source
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			sources = append(sources, vectorstore.SourceInfo{
				Source:   payload.Source,
				Title:    payload.Title,
				Category: payload.Category,
			})
		}

		if len(resp.Result.NextPageOffset) == 0 || string(resp.Result.NextPageOffset) == "null" {
			return sources, nil
		}
		offset = resp.Result.NextPageOffset
	}
}

// decodePayload parses a raw payload into the typed record. Malformed
// payloads default to zero values; the caller skips entries with no text.
func (c *Client) decodePayload(raw json.RawMessage) domain.Payload {
	var p domain.Payload
	if len(raw) == 0 {
		return p
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		c.logger.Warn("malformed point payload", zap.Error(err))
		return domain.Payload{}
	}
	return p
}

// upsertPoint is the wire shape of one point.
type upsertPoint struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload domain.Payload `json:"payload"`
}

func mustMatchFilter(key, value string) map[string]any {
	return map[string]any{
		"must": []map[string]any{
			{
				"key":   key,
				"match": map[string]any{"value": value},
			},
		},
	}
}

// collectionVectorSize pulls result.config.params.vectors.size out of a
// collection info body. Returns 0 when the shape is unexpected.
func collectionVectorSize(body []byte) int {
	var resp struct {
		Result struct {
			Config struct {
				Params struct {
					Vectors struct {
						Size int `json:"size"`
					} `json:"vectors"`
				} `json:"params"`
			} `json:"config"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0
	}
	return resp.Result.Config.Params.Vectors.Size
}

// doJSON sends a JSON request and fails on any non-2xx status.
func (c *Client) doJSON(ctx context.Context, method, url string, body any) (int, []byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("marshal request: %w", err)
	}
	status, respBody, err := c.do(ctx, method, url, data)
	if err != nil {
		return 0, nil, err
	}
	if status < 200 || status >= 300 {
		return status, respBody, fmt.Errorf("%s %s: status %d: %s: %w",
			method, url, status, truncate(respBody), domain.ErrVectorStore)
	}
	return status, respBody, nil
}

// do sends a request and returns status and body. Transport errors are
// wrapped as vector store failures; status handling is the caller's job.
func (c *Client) do(ctx context.Context, method, url string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w: %w", method, url, err, domain.ErrVectorStore)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w: %w", err, domain.ErrVectorStore)
	}
	return resp.StatusCode, respBody, nil
}

func truncate(body []byte) string {
	const max = 256
	s := string(body)
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
