package config

import "testing"

func TestValidate_InvalidProvider(t *testing.T) {
	cfg := Config{
		HTTP:      HTTPConfig{Port: 8080},
		Embedding: EmbeddingConfig{Provider: "gemini"},
		Ingest:    IngestConfig{ChunkSize: 1000, ChunkOverlap: 200},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid provider")
	}

	expected := `embedding.provider must be "ollama" or "openai", got "gemini"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_OpenAIRequiresAPIKey(t *testing.T) {
	cfg := Config{
		HTTP:      HTTPConfig{Port: 8080},
		Embedding: EmbeddingConfig{Provider: "openai"},
		Ingest:    IngestConfig{ChunkSize: 1000, ChunkOverlap: 200},
	}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for openai provider without api key")
	}

	cfg.Embedding.APIKey = "sk-test"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error with api key set: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := Config{
		HTTP:      HTTPConfig{Port: 0},
		Embedding: EmbeddingConfig{Provider: "ollama"},
		Ingest:    IngestConfig{ChunkSize: 1000, ChunkOverlap: 200},
	}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_OverlapMustBeSmallerThanSize(t *testing.T) {
	cfg := Config{
		HTTP:      HTTPConfig{Port: 8080},
		Embedding: EmbeddingConfig{Provider: "ollama"},
		Ingest:    IngestConfig{ChunkSize: 200, ChunkOverlap: 200},
	}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for overlap >= size")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 300 {
		t.Errorf("expected WriteTimeoutSec=300, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Qdrant.URL != "http://localhost:6333" {
		t.Errorf("expected qdrant url default, got %q", cfg.Qdrant.URL)
	}
	if cfg.Qdrant.Collection != "chatbot_ollama" {
		t.Errorf("expected Collection='chatbot_ollama', got %q", cfg.Qdrant.Collection)
	}
	if cfg.Embedding.Provider != "ollama" {
		t.Errorf("expected Provider='ollama', got %q", cfg.Embedding.Provider)
	}
	if cfg.Embedding.Model != "nomic-embed-text" {
		t.Errorf("expected Model='nomic-embed-text', got %q", cfg.Embedding.Model)
	}
	if cfg.Retrieval.TopK != 5 {
		t.Errorf("expected TopK=5, got %d", cfg.Retrieval.TopK)
	}
	if cfg.Retrieval.ScoreThreshold != 0.3 {
		t.Errorf("expected ScoreThreshold=0.3, got %v", cfg.Retrieval.ScoreThreshold)
	}
	if cfg.Retrieval.MaxContextChars != 4000 {
		t.Errorf("expected MaxContextChars=4000, got %d", cfg.Retrieval.MaxContextChars)
	}
	if cfg.Ingest.ChunkSize != 1000 {
		t.Errorf("expected ChunkSize=1000, got %d", cfg.Ingest.ChunkSize)
	}
	if cfg.Ingest.ChunkOverlap != 200 {
		t.Errorf("expected ChunkOverlap=200, got %d", cfg.Ingest.ChunkOverlap)
	}
	if cfg.Ingest.MaxFileMB != 50 {
		t.Errorf("expected MaxFileMB=50, got %d", cfg.Ingest.MaxFileMB)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:      HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Qdrant:    QdrantConfig{URL: "http://qdrant:6333", Collection: "kb", TimeoutSec: 5},
		Embedding: EmbeddingConfig{Provider: "openai", Model: "text-embedding-3-small"},
		Retrieval: RetrievalConfig{TopK: 10, ScoreThreshold: 0.5, MaxContextChars: 2000},
		Ingest:    IngestConfig{ChunkSize: 500, ChunkOverlap: 50, MaxFileMB: 5},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Qdrant.Collection != "kb" {
		t.Errorf("expected Collection='kb', got %q", cfg.Qdrant.Collection)
	}
	if cfg.Embedding.Model != "text-embedding-3-small" {
		t.Errorf("expected custom model kept, got %q", cfg.Embedding.Model)
	}
	if cfg.Retrieval.TopK != 10 {
		t.Errorf("expected TopK=10, got %d", cfg.Retrieval.TopK)
	}
	if cfg.Ingest.ChunkSize != 500 {
		t.Errorf("expected ChunkSize=500, got %d", cfg.Ingest.ChunkSize)
	}
}

func TestMaxFileBytes(t *testing.T) {
	cfg := Config{Ingest: IngestConfig{MaxFileMB: 2}}
	if got := cfg.MaxFileBytes(); got != 2<<20 {
		t.Errorf("expected %d, got %d", 2<<20, got)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("RAGSERVER_TEST_HOST", "qdrant.internal")

	in := []byte("url: http://${RAGSERVER_TEST_HOST}:6333\ncollection: ${RAGSERVER_TEST_MISSING:-fallback}\n")
	out := string(expandEnvVars(in))

	want := "url: http://qdrant.internal:6333\ncollection: fallback\n"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}
