package retrieval

import (
	"context"
	"fmt"
	"sort"

	"github.com/kailas-cloud/finrag/internal/domain"
	"github.com/kailas-cloud/finrag/internal/usecase/index"
)

// Embedder vectorizes the query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// SnapshotSource serves the index snapshot to rank against.
type SnapshotSource interface {
	Current() *index.Snapshot
}

// Service retrieves the most similar documents for a query.
type Service struct {
	embed Embedder
	snaps SnapshotSource
	topK  int
}

// New creates a retrieval service. topK below 1 falls back to 2.
func New(embed Embedder, snaps SnapshotSource, topK int) *Service {
	if topK < 1 {
		topK = 2
	}
	return &Service{embed: embed, snaps: snaps, topK: topK}
}

// Retrieve embeds the query and ranks the current snapshot by cosine
// similarity. Ties keep document load order, so results are deterministic.
func (s *Service) Retrieve(ctx context.Context, query string) ([]domain.RankedResult, error) {
	snap := s.snaps.Current()
	if snap.Len() == 0 {
		return nil, nil
	}

	res, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	return Rank(res.Embedding, snap, s.topK), nil
}

// Rank scores every snapshot document against the query vector and
// returns the topK best, highest first.
func Rank(queryVec []float32, snap *index.Snapshot, topK int) []domain.RankedResult {
	if topK < 1 || snap.Len() == 0 {
		return nil
	}

	docs := snap.Documents()
	ranked := make([]domain.RankedResult, 0, len(docs))
	for i := range docs {
		ranked = append(ranked, domain.RankedResult{
			ID:      docs[i].ID(),
			Content: docs[i].Content(),
			Score:   cosineSimilarity(queryVec, docs[i].Vector()),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked
}
