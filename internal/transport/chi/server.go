// Package chi exposes the RAG pipeline over HTTP.
package chi

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vectorsur/ragserver/internal/domain"
	"github.com/vectorsur/ragserver/internal/usecase/ingest"
	"github.com/vectorsur/ragserver/internal/usecase/retrieve"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers for the RAG API.
type Server struct {
	ingester      Ingester
	retriever     Retriever
	status        StatusReporter
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(ingester Ingester, retriever Retriever, status StatusReporter, logger *zap.Logger) *Server {
	s := &Server{
		ingester:  ingester,
		retriever: retriever,
		status:    status,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, "validation_failed"),
		sentinelHandler(domain.ErrRAGDisabled, http.StatusBadRequest, "rag_disabled"),
		sentinelHandler(domain.ErrNothingToIngest, http.StatusBadRequest, "nothing_to_ingest"),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadRequest, "vector_dim_mismatch"),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, "not_found"),
		sentinelHandler(domain.ErrEmbeddingProvider, http.StatusBadGateway, "embedding_provider_error"),
		sentinelHandler(domain.ErrVectorStore, http.StatusBadGateway, "vector_store_error"),
	}
	return s
}

// Register mounts all routes on the given router.
func (s *Server) Register(r chi.Router) {
	r.Route("/api/rag", func(r chi.Router) {
		r.Post("/ingest", s.IngestDocuments)
		r.Post("/ingest-files", s.IngestFiles)
		r.Post("/ingest-folder", s.IngestFolder)
		r.Post("/delete", s.Delete)
		r.Post("/query", s.Query)
		r.Get("/status", s.Status)
	})
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

type documentRequest struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Source   string `json:"source"`
	Title    string `json:"title"`
	Category string `json:"category"`
}

type ingestRequest struct {
	Documents []documentRequest `json:"documents"`
	Reset     bool              `json:"reset"`
}

type ingestResponse struct {
	Success      bool `json:"success"`
	Documents    int  `json:"documents"`
	Chunks       int  `json:"chunks"`
	FilesSeen    int  `json:"files_seen,omitempty"`
	FilesSkipped int  `json:"files_skipped,omitempty"`
}

// IngestDocuments handles POST /api/rag/ingest.
func (s *Server) IngestDocuments(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}
	if len(req.Documents) == 0 {
		writeError(w, http.StatusBadRequest, "validation_failed", "documents are required")
		return
	}

	docs := make([]domain.Document, 0, len(req.Documents))
	for _, d := range req.Documents {
		if d.Text == "" {
			continue
		}
		docs = append(docs, domain.Document{
			ID:   d.ID,
			Text: d.Text,
			Metadata: domain.Metadata{
				Source:   d.Source,
				Title:    d.Title,
				Category: d.Category,
			},
		})
	}

	result, err := s.ingester.IngestDocuments(r.Context(), docs, req.Reset)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ingestResponse{
		Success:   true,
		Documents: result.Documents,
		Chunks:    result.Chunks,
	})
}

type fileRequest struct {
	Name         string `json:"name"`
	Data         string `json:"data"` // base64
	RelativePath string `json:"relative_path"`
}

type ingestFilesRequest struct {
	Files []fileRequest `json:"files"`
	Reset bool          `json:"reset"`
}

// IngestFiles handles POST /api/rag/ingest-files. File contents travel as
// base64; a file whose payload does not decode is rejected up front rather
// than silently skipped, since that is a malformed request, not a bad file.
func (s *Server) IngestFiles(w http.ResponseWriter, r *http.Request) {
	var req ingestFilesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}

	files := make([]ingest.File, 0, len(req.Files))
	for _, f := range req.Files {
		data, err := base64.StdEncoding.DecodeString(f.Data)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", "file "+f.Name+": invalid base64 payload")
			return
		}
		files = append(files, ingest.File{
			Name:         f.Name,
			Data:         data,
			RelativePath: f.RelativePath,
		})
	}

	result, err := s.ingester.IngestFiles(r.Context(), files, req.Reset)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ingestResponse{
		Success:      true,
		Documents:    result.Documents,
		Chunks:       result.Chunks,
		FilesSeen:    result.FilesSeen,
		FilesSkipped: result.FilesSkipped,
	})
}

type ingestFolderRequest struct {
	Path       string   `json:"path"`
	Extensions []string `json:"extensions"`
	Department string   `json:"department"`
	Reset      bool     `json:"reset"`
}

// IngestFolder handles POST /api/rag/ingest-folder.
func (s *Server) IngestFolder(w http.ResponseWriter, r *http.Request) {
	var req ingestFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}

	result, err := s.ingester.IngestFolder(r.Context(), req.Path, req.Extensions, req.Department, req.Reset)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ingestResponse{
		Success:      true,
		Documents:    result.Documents,
		Chunks:       result.Chunks,
		FilesSeen:    result.FilesSeen,
		FilesSkipped: result.FilesSkipped,
	})
}

type deleteRequest struct {
	Type  string `json:"type"` // file, category, reset
	Value string `json:"value"`
}

// Delete handles POST /api/rag/delete.
func (s *Server) Delete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}

	if err := s.ingester.Delete(r.Context(), req.Type, req.Value); err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type queryRequest struct {
	Query          string  `json:"query"`
	Department     string  `json:"department"`
	TopK           int     `json:"top_k"`
	ScoreThreshold float64 `json:"score_threshold"`
	WithContext    bool    `json:"with_context"`
}

type matchResponse struct {
	Score      float64 `json:"score"`
	Text       string  `json:"text"`
	DocID      string  `json:"doc_id"`
	ChunkIndex int     `json:"chunk_index"`
	Source     string  `json:"source,omitempty"`
	Title      string  `json:"title,omitempty"`
	Category   string  `json:"category,omitempty"`
}

type queryResponse struct {
	Matches []matchResponse `json:"matches"`
	Context string          `json:"context,omitempty"`
}

// Query handles POST /api/rag/query.
func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid request body: "+err.Error())
		return
	}

	matches, err := s.retriever.Query(r.Context(), retrieve.Params{
		Question:       req.Query,
		Department:     req.Department,
		TopK:           req.TopK,
		ScoreThreshold: req.ScoreThreshold,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp := queryResponse{Matches: make([]matchResponse, len(matches))}
	for i, m := range matches {
		resp.Matches[i] = matchResponse{
			Score:      m.Score,
			Text:       m.Payload.Text,
			DocID:      m.Payload.DocID,
			ChunkIndex: m.Payload.ChunkIndex,
			Source:     m.Payload.Source,
			Title:      m.Payload.Title,
			Category:   m.Payload.Category,
		}
	}
	if req.WithContext {
		resp.Context = s.retriever.Context(r.Context(), req.Query, req.Department)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Status handles GET /api/rag/status.
func (s *Server) Status(w http.ResponseWriter, r *http.Request) {
	report, err := s.status.Report(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrValidation,
		domain.ErrRAGDisabled,
		domain.ErrNothingToIngest,
		domain.ErrVectorDimMismatch,
		domain.ErrNotFound,
		domain.ErrEmbeddingProvider,
		domain.ErrVectorStore,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}
