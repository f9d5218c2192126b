package domain

import "errors"

var (
	// ErrRAGDisabled signals that the RAG subsystem was invoked while disabled by configuration.
	ErrRAGDisabled = errors.New("rag is disabled")
	// ErrValidation signals a malformed or incomplete request.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrNothingToIngest signals that a batch produced no ingestible documents.
	ErrNothingToIngest = errors.New("nothing to ingest")
	// ErrVectorDimMismatch signals that an embedding does not match the collection's vector size.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrEmbeddingProvider signals an embedding endpoint failure.
	ErrEmbeddingProvider = errors.New("embedding provider error")
	// ErrVectorStore signals a vector store endpoint failure.
	ErrVectorStore = errors.New("vector store error")
)
