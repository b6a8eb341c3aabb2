package domain

import "errors"

var (
	// ErrDimensionMismatch signals a vector whose length differs from the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrIndexNotFound signals a missing persisted index (cold start).
	ErrIndexNotFound = errors.New("index not found")
	// ErrIndexCorrupt signals unreadable persisted index data.
	ErrIndexCorrupt = errors.New("index data corrupt")
	// ErrUnknownSource signals a dispatch on an unregistered knowledge source.
	// This indicates a code defect, not a runtime condition.
	ErrUnknownSource = errors.New("unknown knowledge source")
	// ErrInvalidPreferences signals malformed user preferences.
	ErrInvalidPreferences = errors.New("invalid preferences")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrMissingStrategy signals a retrieval node running before intent analysis.
	ErrMissingStrategy = errors.New("retrieval strategy not set")
)
