package index

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/finrag/internal/domain"
)

type mockLoader struct {
	docs []domain.Document
	err  error
}

func (m *mockLoader) Load(_ context.Context) ([]domain.Document, error) {
	return m.docs, m.err
}

type mockEmbedder struct {
	embeddings [][]float32
	err        error
	calls      int
}

func (m *mockEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.BatchEmbeddingResult{}, m.err
	}
	if m.embeddings != nil {
		return domain.BatchEmbeddingResult{Embeddings: m.embeddings}, nil
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i), 1}
	}
	return domain.BatchEmbeddingResult{Embeddings: out, TotalTokens: len(texts)}, nil
}

func docs(ids ...string) []domain.Document {
	out := make([]domain.Document, len(ids))
	for i, id := range ids {
		out[i] = domain.NewDocument(id, "content of "+id)
	}
	return out
}

func TestRebuild(t *testing.T) {
	loader := &mockLoader{docs: docs("a.txt", "b.txt", "c.txt")}
	svc := New(loader, &mockEmbedder{}, zap.NewNop())

	if svc.Current().Len() != 0 {
		t.Fatal("expected empty snapshot before first rebuild")
	}

	if err := svc.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	snap := svc.Current()
	if snap.Len() != 3 {
		t.Fatalf("expected 3 documents, got %d", snap.Len())
	}
	if snap.Dim() != 2 {
		t.Fatalf("expected dim 2, got %d", snap.Dim())
	}

	// Load order preserved.
	got := snap.Documents()
	for i, want := range []string{"a.txt", "b.txt", "c.txt"} {
		if got[i].ID() != want {
			t.Errorf("doc %d: id = %q, want %q", i, got[i].ID(), want)
		}
	}
}

func TestRebuildEmptyCorpus(t *testing.T) {
	svc := New(&mockLoader{}, &mockEmbedder{}, zap.NewNop())

	if err := svc.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if svc.Current().Len() != 0 {
		t.Fatal("expected empty snapshot for empty corpus")
	}
}

func TestRebuildKeepsPreviousOnFailure(t *testing.T) {
	loader := &mockLoader{docs: docs("a.txt")}
	embed := &mockEmbedder{}
	svc := New(loader, embed, zap.NewNop())

	if err := svc.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	prev := svc.Current()

	embed.err = errors.New("provider down")
	if err := svc.Rebuild(context.Background()); err == nil {
		t.Fatal("expected rebuild error")
	}

	if svc.Current() != prev {
		t.Fatal("failed rebuild must keep serving the previous snapshot")
	}
}

func TestRebuildDimensionMismatch(t *testing.T) {
	loader := &mockLoader{docs: docs("a.txt", "b.txt")}
	embed := &mockEmbedder{embeddings: [][]float32{{1, 2}, {1, 2, 3}}}
	svc := New(loader, embed, zap.NewNop())

	err := svc.Rebuild(context.Background())
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
}

func TestRebuildCountMismatch(t *testing.T) {
	loader := &mockLoader{docs: docs("a.txt", "b.txt")}
	embed := &mockEmbedder{embeddings: [][]float32{{1, 2}}}
	svc := New(loader, embed, zap.NewNop())

	if err := svc.Rebuild(context.Background()); err == nil {
		t.Fatal("expected error when embedder returns wrong count")
	}
}
