package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/vectorsur/ragserver/internal/config"
	dbRedis "github.com/vectorsur/ragserver/internal/db/redis"
	"github.com/vectorsur/ragserver/internal/domain"
	logpkg "github.com/vectorsur/ragserver/internal/logger"
	"github.com/vectorsur/ragserver/internal/metrics"
	"github.com/vectorsur/ragserver/internal/repository/embcache"
	chiTransport "github.com/vectorsur/ragserver/internal/transport/chi"
	ollamaEmb "github.com/vectorsur/ragserver/internal/transport/ollama"
	openaiEmb "github.com/vectorsur/ragserver/internal/transport/openai"
	ingestuc "github.com/vectorsur/ragserver/internal/usecase/ingest"
	retrieveuc "github.com/vectorsur/ragserver/internal/usecase/retrieve"
	statusuc "github.com/vectorsur/ragserver/internal/usecase/status"
	"github.com/vectorsur/ragserver/internal/vectorstore/qdrant"
	"github.com/vectorsur/ragserver/internal/version"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting ragserver",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Bool("rag_enabled", cfg.RAG.Enabled),
		zap.String("qdrant_url", cfg.Qdrant.URL),
		zap.String("collection", cfg.Qdrant.Collection),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("embedding_model", cfg.Embedding.Model),
	)

	// Register embedding metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()

	// Optional Redis embedding cache
	var cacheStore *dbRedis.Store
	if len(cfg.Cache.Addrs) > 0 {
		cacheStore, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer cacheStore.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := cacheStore.Ping(pingCtx); err != nil {
			logger.Fatal("Embedding cache not reachable", zap.Error(err))
		}
		cancel()
		logger.Info("Connected to embedding cache", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	embedder := buildEmbedder(cfg, cacheStore, logger)

	store := qdrant.New(qdrant.Config{
		URL:        cfg.Qdrant.URL,
		Collection: cfg.Qdrant.Collection,
		APIKey:     cfg.Qdrant.APIKey,
		Timeout:    time.Duration(cfg.Qdrant.TimeoutSec) * time.Second,
		Logger:     logger,
	})

	ingestSvc := ingestuc.New(store, embedder, ingestuc.Config{
		Enabled:       cfg.RAG.Enabled,
		ChunkSize:     cfg.Ingest.ChunkSize,
		ChunkOverlap:  cfg.Ingest.ChunkOverlap,
		MaxFileBytes:  cfg.MaxFileBytes(),
		DefaultFolder: cfg.Ingest.DefaultFolder,
		Extensions:    cfg.Ingest.Extensions,
	}, logger)

	retrieveSvc := retrieveuc.New(store, embedder, retrieveuc.Config{
		Enabled:         cfg.RAG.Enabled,
		TopK:            cfg.Retrieval.TopK,
		ScoreThreshold:  cfg.Retrieval.ScoreThreshold,
		MaxContextChars: cfg.Retrieval.MaxContextChars,
	}, logger)

	statusSvc := statusuc.New(store, cfg.Qdrant.Collection, cfg.RAG.Enabled)

	server := chiTransport.NewServer(ingestSvc, retrieveSvc, statusSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the decorator chain: provider -> cache.
func buildEmbedder(cfg config.Config, cacheStore *dbRedis.Store, logger *zap.Logger) domain.Embedder {
	var base domain.Embedder
	switch cfg.Embedding.Provider {
	case "openai":
		base = openaiEmb.NewEmbedder(openaiEmb.Config{
			APIKey:  cfg.Embedding.APIKey,
			BaseURL: cfg.Embedding.BaseURL,
			Model:   cfg.Embedding.Model,
			Logger:  logger,
		})
	default:
		base = ollamaEmb.NewEmbedder(ollamaEmb.Config{
			Host:    cfg.Embedding.OllamaHost,
			Model:   cfg.Embedding.Model,
			Timeout: time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
			Logger:  logger,
		})
	}

	if cacheStore == nil {
		return base
	}
	return embcache.New(base, cacheStore, cfg.Embedding.Model, metrics.EmbeddingCacheTotal, logger)
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
