// Package finrag embeds the retrieval pipeline in a Go process: corpus
// indexing, question answering over documents or transaction records,
// CSV import and spending analysis, without running the HTTP server.
package finrag

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/kailas-cloud/finrag/internal/domain"
	"github.com/kailas-cloud/finrag/internal/repository/corpus"
	transactionrepo "github.com/kailas-cloud/finrag/internal/repository/transaction"
	analysisuc "github.com/kailas-cloud/finrag/internal/usecase/analysis"
	budgeteruc "github.com/kailas-cloud/finrag/internal/usecase/budgeter"
	chatuc "github.com/kailas-cloud/finrag/internal/usecase/chat"
	indexuc "github.com/kailas-cloud/finrag/internal/usecase/index"
	retrievaluc "github.com/kailas-cloud/finrag/internal/usecase/retrieval"
)

// Turn is one prior conversation message, oldest first.
type Turn = domain.ConversationTurn

// Conversation roles for Turn.
const (
	RoleUser      = domain.RoleUser
	RoleAssistant = domain.RoleAssistant
)

// Client is the embedded finrag pipeline.
type Client struct {
	index    *indexuc.Service
	chat     *chatuc.Service
	analysis *analysisuc.Service
	records  recordStore
	closer   io.Closer
}

// New assembles a client. A corpus directory and either WithOpenAI or
// WithEmbedder are needed for document answering; without a generator
// every question gets the not-configured reply.
func New(opts ...Option) (*Client, error) {
	cfg := defaultClientConfig()
	for _, o := range opts {
		o.apply(cfg)
	}

	var embedder domain.Embedder = cfg.embedder
	if embedder == nil {
		embedder = noopEmbedder{}
	}

	var (
		records recordStore
		closer  io.Closer
	)
	if cfg.recordStore != nil {
		records = cfg.recordStore
	} else {
		sqlite, err := transactionrepo.OpenSQLite(cfg.sqlitePath)
		if err != nil {
			return nil, fmt.Errorf("finrag: open transaction store: %w", err)
		}
		records = sqlite
		closer = sqlite
	}

	loader := corpus.New(cfg.corpusDir, cfg.corpusExt)
	indexSvc := indexuc.New(loader, indexuc.AsBatchEmbedder(embedder), cfg.logger)
	retrievalSvc := retrievaluc.New(embedder, indexSvc, cfg.topK)
	budgeterSvc := budgeteruc.New(cfg.maxRecords, cfg.lineItems)
	chatSvc := chatuc.New(
		retrievalSvc, records, budgeterSvc, cfg.generator,
		cfg.notConfiguredReply, cfg.logger,
	)

	return &Client{
		index:    indexSvc,
		chat:     chatSvc,
		analysis: analysisuc.New(records),
		records:  records,
		closer:   closer,
	}, nil
}

// Close releases the transaction store if the client owns it.
func (c *Client) Close() error {
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}

// BuildIndex loads and embeds the corpus. Until the first successful
// build the client answers document questions from an empty index.
func (c *Client) BuildIndex(ctx context.Context) error {
	return c.index.Rebuild(ctx)
}

// IndexSize returns the document count of the current index.
func (c *Client) IndexSize() int {
	return c.index.Size()
}

// Ask answers a question from the document corpus.
func (c *Client) Ask(ctx context.Context, question string, history []Turn) (string, error) {
	return c.chat.AskDocuments(ctx, question, history)
}

// AskTransactions answers a question from the transaction records.
func (c *Client) AskTransactions(ctx context.Context, question string, history []Turn) (string, error) {
	return c.chat.AskTransactions(ctx, question, history)
}

// ImportCSV parses a transaction CSV and stores the records. With
// replace false the records are appended to the existing set. Returns
// the number of imported records.
func (c *Client) ImportCSV(ctx context.Context, r io.Reader, replace bool) (int, error) {
	records, err := transactionrepo.ParseCSV(r)
	if err != nil {
		return 0, fmt.Errorf("finrag: parse csv: %w", err)
	}
	if len(records) == 0 {
		return 0, errors.New("finrag: no valid transactions in input")
	}

	if replace {
		err = c.records.Replace(ctx, records)
	} else {
		err = c.records.Append(ctx, records)
	}
	if err != nil {
		return 0, fmt.Errorf("finrag: store transactions: %w", err)
	}
	return len(records), nil
}

// Analysis computes the spending report over all stored transactions.
func (c *Client) Analysis(ctx context.Context) (analysisuc.Report, error) {
	return c.analysis.Build(ctx)
}

// recordStore is the full transaction store contract the client wires.
type recordStore interface {
	All(ctx context.Context) ([]domain.Transaction, error)
	Replace(ctx context.Context, records []domain.Transaction) error
	Append(ctx context.Context, records []domain.Transaction) error
}

// noopEmbedder returns an error on use (no embedder configured).
type noopEmbedder struct{}

func (noopEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, errors.New(
		"finrag: embedder not configured (use WithOpenAI or WithEmbedder)",
	)
}
