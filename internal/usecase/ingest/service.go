// Package ingest drives the ingestion pipeline: extract, chunk, embed,
// and upsert into the vector store.
package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vectorsur/ragserver/internal/chunker"
	"github.com/vectorsur/ragserver/internal/domain"
	"github.com/vectorsur/ragserver/internal/extract"
	"github.com/vectorsur/ragserver/internal/metrics"
)

// Config bounds one ingestion service instance. DefaultFolder and
// Extensions back the folder flow when a request leaves them unset.
type Config struct {
	Enabled       bool
	ChunkSize     int
	ChunkOverlap  int
	MaxFileBytes  int64
	DefaultFolder string
	Extensions    []string
}

// Service is the ingestion orchestrator.
type Service struct {
	store    Store
	embedder Embedder
	cfg      Config
	locks    *sourceLocks
	logger   *zap.Logger
}

// New creates an ingestion service.
func New(store Store, embedder Embedder, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		embedder: embedder,
		cfg:      cfg,
		locks:    newSourceLocks(),
		logger:   logger,
	}
}

// IngestDocuments ingests pre-extracted documents. With reset, the whole
// collection is wiped first. Documents whose text normalizes to nothing
// contribute zero chunks and are silently skipped; a batch that yields no
// chunks at all returns zero counts, not an error.
func (s *Service) IngestDocuments(ctx context.Context, docs []domain.Document, reset bool) (Result, error) {
	if !s.cfg.Enabled {
		return Result{}, domain.ErrRAGDisabled
	}

	if reset {
		if err := s.store.Reset(ctx); err != nil {
			return Result{}, fmt.Errorf("reset collection: %w", err)
		}
	}

	chunks, err := s.embedAndUpsert(ctx, docs)
	if err != nil {
		return Result{}, err
	}
	return Result{Documents: len(docs), Chunks: chunks}, nil
}

// IngestFiles ingests uploaded files. Unless reset is set, existing points
// for each file's source are deleted first so re-ingesting a file replaces
// its previous chunks. Unsupported, oversized, empty, and unparseable files
// are skipped, not failed.
func (s *Service) IngestFiles(ctx context.Context, files []File, reset bool) (FileResult, error) {
	if !s.cfg.Enabled {
		return FileResult{}, domain.ErrRAGDisabled
	}
	if len(files) == 0 {
		return FileResult{}, fmt.Errorf("no files to ingest: %w", domain.ErrValidation)
	}

	if reset {
		if err := s.store.Reset(ctx); err != nil {
			return FileResult{}, fmt.Errorf("reset collection: %w", err)
		}
	}

	sources := make([]string, 0, len(files))
	for _, f := range files {
		sources = append(sources, fileSource(f))
	}
	release := s.locks.acquire(sources)
	defer release()

	var docs []domain.Document
	skipped := 0
	for _, f := range files {
		if f.Name == "" || len(f.Data) == 0 {
			skipped++
			continue
		}

		source := fileSource(f)
		if !reset {
			s.deleteExisting(ctx, source)
		}

		doc, ok := s.fileToDocument(f.Name, f.Data, source, "")
		if !ok {
			skipped++
			continue
		}
		docs = append(docs, doc)
	}

	return s.finishFiles(ctx, docs, len(files), skipped)
}

// IngestFolder walks root, ingesting every file whose extension is in the
// allowlist. An empty root falls back to the configured default folder; the
// allowlist resolves request > config > extract.DefaultExtensions. The
// department label is attached to every document. Source is the file's path
// within the walk.
func (s *Service) IngestFolder(
	ctx context.Context, root string, extensions []string, department string, reset bool,
) (FileResult, error) {
	if !s.cfg.Enabled {
		return FileResult{}, domain.ErrRAGDisabled
	}
	if root == "" {
		root = s.cfg.DefaultFolder
	}
	if root == "" {
		return FileResult{}, fmt.Errorf("folder path is required: %w", domain.ErrValidation)
	}

	allowed := s.extensionSet(extensions)

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := allowed[strings.ToLower(filepath.Ext(d.Name()))]; ok {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return FileResult{}, fmt.Errorf("walk folder %s: %w: %w", root, err, domain.ErrValidation)
	}

	if reset {
		if err := s.store.Reset(ctx); err != nil {
			return FileResult{}, fmt.Errorf("reset collection: %w", err)
		}
	}

	release := s.locks.acquire(paths)
	defer release()

	var docs []domain.Document
	skipped := 0
	for _, path := range paths {
		if !reset {
			s.deleteExisting(ctx, path)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("failed to read file", zap.String("path", path), zap.Error(err))
			skipped++
			continue
		}

		doc, ok := s.fileToDocument(filepath.Base(path), data, path, department)
		if !ok {
			skipped++
			continue
		}
		docs = append(docs, doc)
	}

	return s.finishFiles(ctx, docs, len(paths), skipped)
}

// Delete removes points by source, by category, or resets the whole
// collection.
func (s *Service) Delete(ctx context.Context, deletionType, value string) error {
	if !s.cfg.Enabled {
		return domain.ErrRAGDisabled
	}

	switch deletionType {
	case "reset":
		if err := s.store.Reset(ctx); err != nil {
			return fmt.Errorf("reset collection: %w", err)
		}
		return nil
	case "file":
		if value == "" {
			return fmt.Errorf("source path is required for file deletion: %w", domain.ErrValidation)
		}
		release := s.locks.acquire([]string{value})
		defer release()
		if err := s.store.DeleteByField(ctx, "source", value); err != nil {
			return fmt.Errorf("delete by source: %w", err)
		}
		return nil
	case "category":
		if value == "" {
			return fmt.Errorf("category name is required for category deletion: %w", domain.ErrValidation)
		}
		if err := s.store.DeleteByField(ctx, "category", value); err != nil {
			return fmt.Errorf("delete by category: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown deletion type %q: %w", deletionType, domain.ErrValidation)
	}
}

// deleteExisting removes a source's previous points before re-ingestion.
// Failures are logged and tolerated: worst case the source briefly holds
// stale chunks alongside new ones until the next successful re-ingest.
func (s *Service) deleteExisting(ctx context.Context, source string) {
	if err := s.store.DeleteByField(ctx, "source", source); err != nil {
		s.logger.Warn("failed to delete existing documents for source",
			zap.String("source", source), zap.Error(err))
	}
}

// fileToDocument extracts a file into a document. Returns false when the
// file should be skipped: oversized, unsupported, empty, or unparseable.
func (s *Service) fileToDocument(name string, data []byte, source, department string) (domain.Document, bool) {
	if s.cfg.MaxFileBytes > 0 && int64(len(data)) > s.cfg.MaxFileBytes {
		s.logger.Warn("file exceeds size limit",
			zap.String("source", source), zap.Int("bytes", len(data)))
		return domain.Document{}, false
	}

	text, err := extract.Text(name, data)
	if err != nil {
		s.logger.Warn("extraction failed", zap.String("source", source), zap.Error(err))
		return domain.Document{}, false
	}
	if strings.TrimSpace(text) == "" {
		return domain.Document{}, false
	}

	return domain.Document{
		ID:   uuid.NewString(),
		Text: strings.TrimSpace(text),
		Metadata: domain.Metadata{
			Source:   source,
			Title:    filepath.Base(name),
			Category: department,
		},
	}, true
}

func (s *Service) finishFiles(ctx context.Context, docs []domain.Document, seen, skipped int) (FileResult, error) {
	result := FileResult{FilesSeen: seen, FilesSkipped: skipped}
	if len(docs) == 0 {
		return result, fmt.Errorf("no documents to ingest: %w", domain.ErrNothingToIngest)
	}

	chunks, err := s.embedAndUpsert(ctx, docs)
	if err != nil {
		return result, err
	}
	result.Documents = len(docs)
	result.Chunks = chunks
	return result, nil
}

// embedAndUpsert chunks and embeds every document sequentially, creating the
// collection lazily from the first embedding's length, then writes all
// points in one buffered upsert.
func (s *Service) embedAndUpsert(ctx context.Context, docs []domain.Document) (int, error) {
	var points []domain.Point
	collectionReady := false

	for _, doc := range docs {
		chunks, err := chunker.Split(doc.Text, s.cfg.ChunkSize, s.cfg.ChunkOverlap)
		if err != nil {
			return 0, fmt.Errorf("chunk document %s: %w", doc.ID, err)
		}

		for _, ch := range chunks {
			res, err := s.embedder.Embed(ctx, ch.Text)
			if err != nil {
				return 0, fmt.Errorf("embed chunk %d of document %s: %w", ch.Index, doc.ID, err)
			}

			if !collectionReady {
				if err := s.store.EnsureCollection(ctx, len(res.Embedding)); err != nil {
					return 0, fmt.Errorf("ensure collection: %w", err)
				}
				collectionReady = true
			}

			points = append(points, domain.Point{
				ID:     uuid.NewString(),
				Vector: res.Embedding,
				Payload: domain.Payload{
					Text:       ch.Text,
					DocID:      doc.ID,
					ChunkIndex: ch.Index,
					Source:     doc.Metadata.Source,
					Title:      doc.Metadata.Title,
					Category:   doc.Metadata.Category,
				},
			})
		}
	}

	if len(points) > 0 {
		if err := s.store.Upsert(ctx, points); err != nil {
			return 0, fmt.Errorf("upsert points: %w", err)
		}
		metrics.IngestedChunksTotal.Add(float64(len(points)))
	}

	s.logger.Info("ingestion finished",
		zap.Int("documents", len(docs)),
		zap.Int("chunks", len(points)),
	)
	return len(points), nil
}

func fileSource(f File) string {
	if f.RelativePath != "" {
		return f.RelativePath
	}
	return f.Name
}

func (s *Service) extensionSet(extensions []string) map[string]struct{} {
	if len(extensions) == 0 {
		extensions = s.cfg.Extensions
	}
	if len(extensions) == 0 {
		extensions = extract.DefaultExtensions
	}
	set := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = struct{}{}
	}
	return set
}
