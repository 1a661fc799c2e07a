package domain

// Document is one indexed text unit: an identifier (the source filename),
// the raw text, and the embedding vector attached during indexing.
// Immutable for the lifetime of one index snapshot.
type Document struct {
	id      string
	content string
	vector  []float32
}

// NewDocument creates a document without a vector (pre-indexing).
func NewDocument(id, content string) Document {
	return Document{id: id, content: content}
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// Content returns the raw document text.
func (d *Document) Content() string { return d.content }

// Vector returns the embedding vector, nil before indexing.
func (d *Document) Vector() []float32 { return d.vector }

// WithVector returns a copy with the given vector attached.
func (d *Document) WithVector(v []float32) Document {
	return Document{id: d.id, content: d.content, vector: v}
}

// RankedResult is a single retrieval hit, ephemeral per query.
type RankedResult struct {
	ID      string
	Content string
	Score   float64
}
