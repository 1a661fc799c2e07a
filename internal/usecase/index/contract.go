package index

import (
	"context"

	"github.com/kailas-cloud/finrag/internal/domain"
)

// Loader supplies the raw documents to index.
type Loader interface {
	Load(ctx context.Context) ([]domain.Document, error)
}

// Embedder vectorizes document texts in one batch call.
type Embedder interface {
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

// AsBatchEmbedder narrows an embedder to the index contract, falling
// back to one Embed call per text when the chain lost batch capability.
func AsBatchEmbedder(e domain.Embedder) Embedder {
	if be, ok := e.(domain.BatchEmbedder); ok {
		return be
	}
	return batchFallback{inner: e}
}

type batchFallback struct {
	inner domain.Embedder
}

func (b batchFallback) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	return domain.BatchFallback(ctx, b.inner, texts)
}
