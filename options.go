package finrag

import (
	"go.uber.org/zap"

	"github.com/kailas-cloud/finrag/internal/domain"
	"github.com/kailas-cloud/finrag/internal/generation"
	openaiTransport "github.com/kailas-cloud/finrag/internal/transport/openai"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	corpusDir string
	corpusExt string
	topK      int

	sqlitePath  string
	recordStore recordStore

	embedder  domain.Embedder
	generator domain.Generator

	maxRecords int
	lineItems  int

	notConfiguredReply string
	logger             *zap.Logger
}

func defaultClientConfig() *clientConfig {
	return &clientConfig{
		corpusDir:          "documents",
		corpusExt:          ".txt",
		topK:               2,
		sqlitePath:         "data/transactions.db",
		maxRecords:         50,
		lineItems:          20,
		notConfiguredReply: "The assistant is not configured yet: no generation API key is set.",
		logger:             zap.NewNop(),
	}
}

// WithCorpus sets the document directory and file extension.
func WithCorpus(dir, ext string) Option {
	return optionFunc(func(c *clientConfig) {
		c.corpusDir = dir
		if ext != "" {
			c.corpusExt = ext
		}
	})
}

// WithTopK sets how many documents retrieval returns. Default: 2.
func WithTopK(k int) Option {
	return optionFunc(func(c *clientConfig) {
		c.topK = k
	})
}

// WithSQLite sets the transaction database path.
func WithSQLite(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.sqlitePath = path
	})
}

// WithOpenAI configures both the embedding and the generation backend
// against an OpenAI-compatible API. baseURL may be empty for the
// default endpoint. An empty apiKey leaves the generator unset, so the
// client runs in not-configured mode: every Ask answers with the
// not-configured reply and no backend call is attempted.
func WithOpenAI(apiKey, baseURL, embeddingModel, generationModel string) Option {
	return optionFunc(func(c *clientConfig) {
		logger := zap.NewNop()
		c.embedder = openaiTransport.NewEmbedder(&openaiTransport.Config{
			APIKey:   apiKey,
			BaseURL:  baseURL,
			Model:    embeddingModel,
			Provider: "openai",
			Logger:   logger,
		})
		if apiKey == "" {
			return
		}
		c.generator = openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
			APIKey:   apiKey,
			BaseURL:  baseURL,
			Model:    generationModel,
			Provider: "openai",
			Logger:   logger,
		})
	})
}

// WithEmbedder sets a custom embedding provider.
func WithEmbedder(e domain.Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithGenerator sets a custom generation backend.
func WithGenerator(g domain.Generator) Option {
	return optionFunc(func(c *clientConfig) {
		c.generator = g
	})
}

// WithLocalGenerator selects the offline extractive generator.
// maxSentences bounds answer length; 0 uses the default.
func WithLocalGenerator(maxSentences int) Option {
	return optionFunc(func(c *clientConfig) {
		c.generator = generation.NewExtractive(maxSentences)
	})
}

// WithContextLimits bounds the records considered for a transaction
// answer and the line items rendered into the prompt.
func WithContextLimits(maxRecords, lineItems int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxRecords = maxRecords
		c.lineItems = lineItems
	})
}

// WithNotConfiguredReply sets the answer returned when no generator is
// configured.
func WithNotConfiguredReply(reply string) Option {
	return optionFunc(func(c *clientConfig) {
		c.notConfiguredReply = reply
	})
}

// WithLogger enables structured logging for pipeline operations.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// withRecordStore injects a transaction store, used by tests.
func withRecordStore(s recordStore) Option {
	return optionFunc(func(c *clientConfig) {
		c.recordStore = s
	})
}
