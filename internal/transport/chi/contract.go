package chi

import (
	"context"

	"github.com/kailas-cloud/finrag/internal/domain"
	"github.com/kailas-cloud/finrag/internal/usecase/analysis"
	"github.com/kailas-cloud/finrag/internal/usecase/health"
	"github.com/kailas-cloud/finrag/internal/usecase/usage"
)

// ChatService answers questions against a corpus.
type ChatService interface {
	AskDocuments(ctx context.Context, query string, history []domain.ConversationTurn) (string, error)
	AskTransactions(ctx context.Context, query string, history []domain.ConversationTurn) (string, error)
}

// AnalysisService builds the spending report.
type AnalysisService interface {
	Build(ctx context.Context) (analysis.Report, error)
}

// UsageService reports embedding token budget consumption.
type UsageService interface {
	GetReport(ctx context.Context, period usage.Period) usage.Report
}

// HealthService aggregates component health checks.
type HealthService interface {
	Check(ctx context.Context) health.Report
}

// DocumentIndex rebuilds the in-memory vector index from the corpus.
type DocumentIndex interface {
	Rebuild(ctx context.Context) error
	Size() int
}

// TransactionWriter persists imported transaction records.
type TransactionWriter interface {
	Replace(ctx context.Context, records []domain.Transaction) error
	Append(ctx context.Context, records []domain.Transaction) error
}
