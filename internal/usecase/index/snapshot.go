package index

import (
	"fmt"

	"github.com/kailas-cloud/finrag/internal/domain"
)

// Snapshot is one immutable build of the in-memory index. Documents keep
// their load order, which retrieval relies on for deterministic tie-breaks.
type Snapshot struct {
	docs []domain.Document
	dim  int
}

// NewSnapshot validates vectors and freezes the document set.
// All vectors must share one dimensionality.
func NewSnapshot(docs []domain.Document) (*Snapshot, error) {
	dim := 0
	for i := range docs {
		v := docs[i].Vector()
		if len(v) == 0 {
			return nil, fmt.Errorf("document %q: %w: missing vector", docs[i].ID(), domain.ErrVectorDimMismatch)
		}
		if dim == 0 {
			dim = len(v)
			continue
		}
		if len(v) != dim {
			return nil, fmt.Errorf("document %q: %w: got %d, index has %d",
				docs[i].ID(), domain.ErrVectorDimMismatch, len(v), dim)
		}
	}
	return &Snapshot{docs: docs, dim: dim}, nil
}

// EmptySnapshot returns a snapshot with no documents, served before the
// first successful rebuild.
func EmptySnapshot() *Snapshot {
	return &Snapshot{}
}

// Documents returns the indexed documents in load order.
func (s *Snapshot) Documents() []domain.Document { return s.docs }

// Len returns the number of indexed documents.
func (s *Snapshot) Len() int { return len(s.docs) }

// Dim returns the vector dimensionality, 0 for an empty snapshot.
func (s *Snapshot) Dim() int { return s.dim }
