// Package index builds and serves immutable in-memory index snapshots.
package index

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/finrag/internal/domain"
)

// Service owns the current index snapshot. Rebuild prepares a full
// replacement off to the side and swaps it in atomically, so readers
// keep serving the previous snapshot for the whole rebuild.
type Service struct {
	loader  Loader
	embed   Embedder
	current atomic.Pointer[Snapshot]
	logger  *zap.Logger
}

// New creates an index service serving an empty snapshot until the first rebuild.
func New(loader Loader, embed Embedder, logger *zap.Logger) *Service {
	s := &Service{loader: loader, embed: embed, logger: logger}
	s.current.Store(EmptySnapshot())
	return s
}

// Current returns the snapshot readers should query. Never nil.
func (s *Service) Current() *Snapshot {
	return s.current.Load()
}

// Size returns the document count of the current snapshot.
func (s *Service) Size() int {
	return s.current.Load().Len()
}

// Rebuild loads the corpus, embeds every document and swaps in the new
// snapshot. A failed rebuild leaves the previous snapshot in place.
func (s *Service) Rebuild(ctx context.Context) error {
	start := time.Now()

	docs, err := s.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}
	if len(docs) == 0 {
		s.current.Store(EmptySnapshot())
		s.logger.Info("index rebuilt empty: no documents in corpus")
		return nil
	}

	texts := make([]string, len(docs))
	for i := range docs {
		texts[i] = docs[i].Content()
	}

	res, err := s.embed.BatchEmbed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed corpus: %w", err)
	}
	if len(res.Embeddings) != len(docs) {
		return fmt.Errorf("embed corpus: got %d vectors for %d documents", len(res.Embeddings), len(docs))
	}

	indexed := make([]domain.Document, len(docs))
	for i := range docs {
		indexed[i] = docs[i].WithVector(res.Embeddings[i])
	}

	snap, err := NewSnapshot(indexed)
	if err != nil {
		return fmt.Errorf("build snapshot: %w", err)
	}

	s.current.Store(snap)
	s.logger.Info("index rebuilt",
		zap.Int("documents", snap.Len()),
		zap.Int("dimensions", snap.Dim()),
		zap.Int("total_tokens", res.TotalTokens),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}
