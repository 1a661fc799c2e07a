package chat

import (
	"context"

	"github.com/kailas-cloud/finrag/internal/domain"
	"github.com/kailas-cloud/finrag/internal/domain/filter"
	"github.com/kailas-cloud/finrag/internal/usecase/budgeter"
)

// Retriever returns the ranked documents for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]domain.RankedResult, error)
}

// TransactionSource reads the full transaction set.
type TransactionSource interface {
	All(ctx context.Context) ([]domain.Transaction, error)
}

// ContextBudgeter narrows records and formats the prompt context block.
type ContextBudgeter interface {
	SelectContext(records []domain.Transaction, f filter.Filter) budgeter.Selection
	FormatTransactionContext(sel budgeter.Selection) string
}
