package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	// Stores return nil for absent books, concepts and topics; services
	// use this error when absence makes the requested operation impossible.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidRelationship indicates a concept edge with a relationship
	// outside the fixed set of relationship types.
	ErrInvalidRelationship = errors.New("invalid relationship")

	// ErrInputMismatch indicates parallel inputs of different lengths,
	// such as chunks and their embeddings.
	ErrInputMismatch = errors.New("input mismatch")

	// ErrValidationFailed indicates curated content failed validation.
	ErrValidationFailed = errors.New("validation failed")

	// ErrUnsupportedType indicates an unknown file or content type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrUnsupportedProvider indicates a provider that cannot serve the requested capability.
	ErrUnsupportedProvider = errors.New("unsupported provider")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Semantic search and ingestion are disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the LLM service is not configured or unreachable.
	// Chapter summaries fall back to the rule-based summariser.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not configured.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")
)
