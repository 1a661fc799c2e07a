package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kailas-cloud/finrag/internal/config"
	"github.com/kailas-cloud/finrag/internal/domain"
	"github.com/kailas-cloud/finrag/internal/generation"
	"github.com/kailas-cloud/finrag/internal/metrics"
	"github.com/kailas-cloud/finrag/internal/repository/corpus"
	transactionrepo "github.com/kailas-cloud/finrag/internal/repository/transaction"
	openaiTransport "github.com/kailas-cloud/finrag/internal/transport/openai"
	"github.com/kailas-cloud/finrag/internal/tui"
	budgeteruc "github.com/kailas-cloud/finrag/internal/usecase/budgeter"
	chatuc "github.com/kailas-cloud/finrag/internal/usecase/chat"
	indexuc "github.com/kailas-cloud/finrag/internal/usecase/index"
	retrievaluc "github.com/kailas-cloud/finrag/internal/usecase/retrieval"
)

func main() {
	_ = godotenv.Load()

	var corpusDir string
	flag.StringVar(&corpusDir, "corpus", "", "Document corpus directory (overrides config)")
	flag.Parse()

	cfg, err := config.Load(config.GetEnv())
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if corpusDir != "" {
		cfg.Corpus.Dir = corpusDir
	}

	// The TUI owns the terminal, services log nowhere.
	logger := zap.NewNop()
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterGenerationMetrics()

	// Single-process wiring: no Redis cache, no budget tracking. The
	// provider embedder talks to the API directly.
	var vecCfg config.VectorizerConfig
	var provName string
	for _, vc := range cfg.Embedding.Vectorizers {
		vecCfg = vc
		provName = vc.Provider
		break
	}
	provCfg := cfg.Embedding.Providers[provName]

	embedder := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     provCfg.APIKey,
		BaseURL:    provCfg.BaseURL,
		Model:      vecCfg.Model,
		Dimensions: vecCfg.Dimensions,
		Provider:   provName,
		Logger:     logger,
	})

	loader := corpus.New(cfg.Corpus.Dir, cfg.Corpus.Extension)
	indexSvc := indexuc.New(loader, embedder, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	buildErr := indexSvc.Rebuild(ctx)
	cancel()

	records, err := transactionrepo.OpenSQLite(cfg.Transactions.SQLitePath)
	if err != nil {
		log.Fatalf("failed to open transaction database: %v", err)
	}
	defer func() { _ = records.Close() }()

	var generator domain.Generator
	switch {
	case cfg.Generation.Provider == "local":
		generator = generation.NewExtractive(0)
	case cfg.Generation.APIKey != "":
		generator = openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
			APIKey:    cfg.Generation.APIKey,
			BaseURL:   cfg.Generation.BaseURL,
			Model:     cfg.Generation.Model,
			MaxTokens: cfg.Generation.MaxTokens,
			Provider:  cfg.Generation.Provider,
			Logger:    logger,
		})
	}

	retrievalSvc := retrievaluc.New(embedder, indexSvc, cfg.Corpus.TopK)
	budgeterSvc := budgeteruc.New(cfg.Context.MaxRecords, cfg.Context.LineItems)
	chatSvc := chatuc.New(
		retrievalSvc, records, budgeterSvc, generator,
		cfg.Generation.NotConfiguredReply, logger,
	).
		WithTimeout(time.Duration(cfg.Generation.TimeoutSec) * time.Second).
		WithHistoryTurns(cfg.Context.HistoryTurns)

	summary := fmt.Sprintf("%d documents indexed, generator: %s", indexSvc.Size(), cfg.Generation.Provider)
	if buildErr != nil {
		summary = "index build failed: " + buildErr.Error()
	}

	p := tea.NewProgram(tui.New(chatSvc, summary), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("tui error: %v", err)
	}
}
