package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoDocuments indicates the extraction output contains no documents.
	// This is distinct from an inventory with zero entries: the upstream
	// extraction stage has not run (or produced nothing) for this project.
	ErrNoDocuments = errors.New("no extracted documents found")

	// ErrMissingArtifact indicates a required upstream artifact is absent.
	// The caller should run the missing upstream stage first.
	ErrMissingArtifact = errors.New("required pipeline artifact missing")

	// ErrUnknownStage indicates a stage name outside the pipeline's fixed set.
	ErrUnknownStage = errors.New("unknown pipeline stage")

	// ErrProjectNotFound indicates the named project directory does not exist.
	ErrProjectNotFound = errors.New("project not found")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Embedding generation cannot proceed without credentials and an endpoint.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrSearchUnavailable indicates the search admin service is not configured.
	// Rollback of the index, source and agent stages requires it.
	ErrSearchUnavailable = errors.New("search service unavailable")
)
