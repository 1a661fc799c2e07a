// Package chat orchestrates one question/answer round trip: retrieve or
// filter context, compose the prompt, call the generator.
package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/finrag/internal/domain"
	"github.com/kailas-cloud/finrag/internal/usecase/analyzer"
	"github.com/kailas-cloud/finrag/internal/usecase/budgeter"
	"github.com/kailas-cloud/finrag/internal/usecase/prompt"
)

// Fallback answers for degraded states. Generation faults never surface
// as transport errors; the user gets a readable sentence instead.
const (
	noDocumentsReply    = "I don't have any documents to answer from yet."
	noTransactionsReply = "I don't see any transaction data yet. Import some transactions first."
	generationFailedFmt = "I couldn't generate an answer right now (%s). Please try again."
)

const transactionInstructions = `You are a personal finance assistant. ` +
	`Answer the question using only the spending data below. ` +
	`Be specific with amounts and dates. If the data cannot answer the question, say so.`

// Service answers chat questions. A nil generator means the backend is
// not configured: every request short-circuits with the configured reply
// and no backend call is attempted.
type Service struct {
	retriever          Retriever
	source             TransactionSource
	budget             ContextBudgeter
	generator          domain.Generator
	notConfiguredReply string
	genTimeout         time.Duration
	historyTurns       int
	logger             *zap.Logger
}

// New creates a chat service.
func New(
	retriever Retriever,
	source TransactionSource,
	budget ContextBudgeter,
	generator domain.Generator,
	notConfiguredReply string,
	logger *zap.Logger,
) *Service {
	return &Service{
		retriever:          retriever,
		source:             source,
		budget:             budget,
		generator:          generator,
		notConfiguredReply: notConfiguredReply,
		logger:             logger,
	}
}

// WithTimeout bounds every generation call. Zero means no bound beyond
// the request context.
func (s *Service) WithTimeout(d time.Duration) *Service {
	s.genTimeout = d
	return s
}

// WithHistoryTurns sets how many trailing conversation turns reach the
// prompt. Zero or less uses the composer default.
func (s *Service) WithHistoryTurns(n int) *Service {
	s.historyTurns = n
	return s
}

// AskDocuments answers from the document corpus. Embedding failures
// propagate; generation failures degrade to a readable answer.
func (s *Service) AskDocuments(ctx context.Context, query string, history []domain.ConversationTurn) (string, error) {
	if s.generator == nil {
		return s.notConfiguredReply, nil
	}

	results, err := s.retriever.Retrieve(ctx, query)
	if err != nil {
		return "", fmt.Errorf("retrieve documents: %w", err)
	}
	if len(results) == 0 {
		return noDocumentsReply, nil
	}

	contextBlock := budgeter.FormatDocumentContext(results)
	p := prompt.Compose("", contextBlock, history, s.historyTurns, query)
	return s.generate(ctx, p), nil
}

// AskTransactions answers from the transaction store. An unreachable or
// empty store degrades to a "no data" reply, never an error.
func (s *Service) AskTransactions(ctx context.Context, query string, history []domain.ConversationTurn) (string, error) {
	if s.generator == nil {
		return s.notConfiguredReply, nil
	}

	records, err := s.source.All(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrSourceUnavailable) {
			s.logger.Warn("transaction source unavailable", zap.Error(err))
			return noTransactionsReply, nil
		}
		return "", fmt.Errorf("load transactions: %w", err)
	}
	if len(records) == 0 {
		return noTransactionsReply, nil
	}

	f := analyzer.Analyze(query)
	sel := s.budget.SelectContext(records, f)
	contextBlock := s.budget.FormatTransactionContext(sel)

	p := prompt.Compose(transactionInstructions, contextBlock, history, s.historyTurns, query)
	return s.generate(ctx, p), nil
}

// generate calls the backend once. Failures are logged with full detail
// and collapsed into a user-readable sentence.
func (s *Service) generate(ctx context.Context, p string) string {
	if s.genTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.genTimeout)
		defer cancel()
	}
	res, err := s.generator.Generate(ctx, p)
	if err != nil {
		s.logger.Error("generation failed", zap.Error(err))
		reason := "the generation backend returned an error"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "the request timed out"
		}
		return fmt.Sprintf(generationFailedFmt, reason)
	}
	return res.Content
}
