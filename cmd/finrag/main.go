package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kailas-cloud/finrag/internal/config"
	"github.com/kailas-cloud/finrag/internal/db"
	dbRedis "github.com/kailas-cloud/finrag/internal/db/redis"
	"github.com/kailas-cloud/finrag/internal/domain"
	"github.com/kailas-cloud/finrag/internal/generation"
	logpkg "github.com/kailas-cloud/finrag/internal/logger"
	"github.com/kailas-cloud/finrag/internal/metrics"
	budgetrepo "github.com/kailas-cloud/finrag/internal/repository/budget"
	"github.com/kailas-cloud/finrag/internal/repository/corpus"
	"github.com/kailas-cloud/finrag/internal/repository/embcache"
	transactionrepo "github.com/kailas-cloud/finrag/internal/repository/transaction"
	chiTransport "github.com/kailas-cloud/finrag/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/finrag/internal/transport/openai"
	analysisuc "github.com/kailas-cloud/finrag/internal/usecase/analysis"
	budgeteruc "github.com/kailas-cloud/finrag/internal/usecase/budgeter"
	chatuc "github.com/kailas-cloud/finrag/internal/usecase/chat"
	embeddinguc "github.com/kailas-cloud/finrag/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/finrag/internal/usecase/health"
	indexuc "github.com/kailas-cloud/finrag/internal/usecase/index"
	retrievaluc "github.com/kailas-cloud/finrag/internal/usecase/retrieval"
	usageuc "github.com/kailas-cloud/finrag/internal/usecase/usage"
	"github.com/kailas-cloud/finrag/internal/version"
)

// transactionStore is the full record store contract assembled in main;
// consumers depend on their own narrow slices.
type transactionStore interface {
	All(ctx context.Context) ([]domain.Transaction, error)
	Replace(ctx context.Context, records []domain.Transaction) error
	Append(ctx context.Context, records []domain.Transaction) error
}

func main() {
	_ = godotenv.Load()

	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting finrag API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("transactions_driver", cfg.Transactions.Driver),
		zap.String("generation_provider", cfg.Generation.Provider),
	)

	ctx := context.Background()

	// Redis is optional: without it the service runs with no embedding
	// cache and no budget persistence.
	var store db.Store
	if len(cfg.Database.Addrs) > 0 {
		redisStore, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create database store", zap.Error(err))
		}
		defer redisStore.Close()

		if err := redisStore.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Database not ready", zap.Error(err))
		}
		logger.Info("Connected to database")
		store = redisStore
	}

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterGenerationMetrics()

	// Build embedder chain at the composition root.
	// Take the first vectorizer config
	var vecCfg config.VectorizerConfig
	var provName string
	for _, vc := range cfg.Embedding.Vectorizers {
		vecCfg = vc
		provName = vc.Provider
		break
	}
	provCfg := cfg.Embedding.Providers[provName]

	// Single BudgetTracker shared across both embedder roles.
	var budget *embeddinguc.BudgetTracker
	budgetCfg := provCfg.Budget
	if budgetCfg.DailyTokenLimit > 0 || budgetCfg.MonthlyTokenLimit > 0 {
		action := embeddinguc.BudgetActionWarn
		if budgetCfg.Action == "reject" {
			action = embeddinguc.BudgetActionReject
		}
		budget = embeddinguc.NewBudgetTracker(
			provName, budgetCfg.DailyTokenLimit, budgetCfg.MonthlyTokenLimit, action, logger,
		).WithKeyPrefix(cfg.Storage.KeyPrefix)
		if store != nil {
			// Connect persistence store; loads current counters from DB.
			budgetStore := budgetrepo.New(store, 48*time.Hour, 62*24*time.Hour)
			budget.WithStore(ctx, budgetStore)
		}
	}

	// Pass nil interface (not typed nil pointer!) if budget is not configured.
	// Go gotcha: (*BudgetTracker)(nil) wrapped in BudgetChecker != nil.
	var budgetChecker embeddinguc.BudgetChecker
	if budget != nil {
		budgetChecker = budget
	}

	docEmbedder := buildEmbedder(
		provName, provCfg, vecCfg, vecCfg.DocumentInstruction,
		store, cfg.Storage.KeyPrefix, budgetChecker, logger,
	)
	queryEmbedder := buildEmbedder(
		provName, provCfg, vecCfg, vecCfg.QueryInstruction,
		store, cfg.Storage.KeyPrefix, budgetChecker, logger,
	)
	logger.Info("Embedders created",
		zap.String("provider", provName),
		zap.String("model", vecCfg.Model),
		zap.Int("dimensions", vecCfg.Dimensions),
	)

	// Transaction record store
	var (
		records  transactionStore
		dbPinger healthuc.DBPinger
	)
	switch cfg.Transactions.Driver {
	case "redis":
		records = transactionrepo.NewRedisStore(store, cfg.Transactions.RedisKey)
		dbPinger = store
	default:
		sqliteStore, err := transactionrepo.OpenSQLite(cfg.Transactions.SQLitePath)
		if err != nil {
			logger.Fatal("Failed to open transaction database", zap.Error(err))
		}
		defer func() { _ = sqliteStore.Close() }()
		records = sqliteStore
		dbPinger = sqliteStore
	}

	// Document index: build once at startup, keep serving the empty
	// snapshot if the corpus or the embedding provider is unavailable.
	loader := corpus.New(cfg.Corpus.Dir, cfg.Corpus.Extension)
	indexSvc := indexuc.New(loader, indexuc.AsBatchEmbedder(docEmbedder), logger)
	if err := indexSvc.Rebuild(ctx); err != nil {
		logger.Warn("Initial index build failed, serving empty index", zap.Error(err))
	}

	// Generation backend
	generator, genChecker := buildGenerator(cfg.Generation, logger)

	// Use case services
	retrievalSvc := retrievaluc.New(queryEmbedder, indexSvc, cfg.Corpus.TopK)
	budgeterSvc := budgeteruc.New(cfg.Context.MaxRecords, cfg.Context.LineItems)
	chatSvc := chatuc.New(
		retrievalSvc, records, budgeterSvc, generator,
		cfg.Generation.NotConfiguredReply, logger,
	).
		WithTimeout(time.Duration(cfg.Generation.TimeoutSec) * time.Second).
		WithHistoryTurns(cfg.Context.HistoryTurns)
	analysisSvc := analysisuc.New(records)
	healthSvc := healthuc.New(dbPinger, newEmbeddingHealthChecker(docEmbedder), genChecker)

	// Usage service reads from the shared BudgetTracker.
	var budgetReader usageuc.BudgetReader
	if budget != nil {
		budgetReader = budget
	}
	usageSvc := usageuc.New(budgetReader)

	// Create chi server
	server := chiTransport.NewServer(chatSvc, analysisSvc, usageSvc, healthSvc, indexSvc, records, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildGenerator selects the generation backend. An openai provider with
// no API key yields a nil generator: the chat service answers every
// request with the configured reply and never calls a backend.
func buildGenerator(cfg config.GenerationConfig, logger *zap.Logger) (domain.Generator, healthuc.ProviderChecker) {
	switch cfg.Provider {
	case "local":
		logger.Info("Using local extractive generator")
		return generation.NewExtractive(0), nil
	default:
		if cfg.APIKey == "" {
			logger.Warn("Generation API key is not set, chat runs in not-configured mode")
			return nil, nil
		}
		g := openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
			Provider:  cfg.Provider,
			Logger:    logger,
		})
		return g, g
	}
}

// embeddingHealthChecker wraps domain.Embedder to implement health.ProviderChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Instruction
func buildEmbedder(
	provName string,
	provCfg config.ProviderConfig,
	vecCfg config.VectorizerConfig,
	instruction string,
	store db.Store,
	keyPrefix string,
	budget embeddinguc.BudgetChecker,
	logger *zap.Logger,
) domain.Embedder {
	// Base provider (with transport metrics built-in)
	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     provCfg.APIKey,
		BaseURL:    provCfg.BaseURL,
		Model:      vecCfg.Model,
		Dimensions: vecCfg.Dimensions,
		Provider:   provName,
		Logger:     logger,
	})

	// Cached
	var embedder domain.Embedder = base
	if store != nil {
		embedder = embcache.New(base, store, metrics.EmbeddingCacheTotal, logger).WithKeyPrefix(keyPrefix)
	}

	// Instrumented (budget + metrics)
	embedder = embeddinguc.NewInstrumentedEmbedder(
		embedder, provName, vecCfg.Model, budget, logger,
	)

	// Instruction prefix is outermost so the cache key includes it.
	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction)
	}

	return embedder
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
