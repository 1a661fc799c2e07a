package domain

import "errors"

var (
	// ErrSourceUnavailable signals a missing corpus directory or unreachable record store.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrNotConfigured signals a missing generation credential.
	ErrNotConfigured = errors.New("generation backend not configured")
	// ErrGenerationFailed signals a generation backend failure.
	ErrGenerationFailed = errors.New("generation failed")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrEmbeddingQuotaExceeded signals an exhausted embedding token budget.
	ErrEmbeddingQuotaExceeded = errors.New("embedding quota exceeded")
	// ErrVectorDimMismatch signals a vector dimension mismatch inside one index.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
)
