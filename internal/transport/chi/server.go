package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/finrag/internal/domain"
	"github.com/kailas-cloud/finrag/internal/repository/transaction"
	healthuc "github.com/kailas-cloud/finrag/internal/usecase/health"
	usageuc "github.com/kailas-cloud/finrag/internal/usecase/usage"
	"github.com/kailas-cloud/finrag/internal/version"
)

// maxImportBytes bounds an uploaded CSV.
const maxImportBytes = 10 << 20

// maxHistoryTurns bounds the history array accepted per chat request.
const maxHistoryTurns = 50

// Corpus selectors for the chat endpoint.
const (
	corpusDocuments    = "documents"
	corpusTransactions = "transactions"
)

// Error codes returned in JSON error bodies.
const (
	codeBadRequest             = "bad_request"
	codeValidationFailed       = "validation_failed"
	codeSourceUnavailable      = "source_unavailable"
	codeEmbeddingQuotaExceeded = "embedding_quota_exceeded"
	codeEmbeddingProviderError = "embedding_provider_error"
	codeInternalError          = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// errorResponse is the JSON error body shared by all endpoints.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Server exposes the chat, import, analysis and health endpoints.
type Server struct {
	chat          ChatService
	analysis      AnalysisService
	usage         UsageService
	health        HealthService
	index         DocumentIndex
	records       TransactionWriter
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	chat ChatService,
	analysis AnalysisService,
	usage UsageService,
	health HealthService,
	index DocumentIndex,
	records TransactionWriter,
	logger *zap.Logger,
) *Server {
	s := &Server{
		chat:     chat,
		analysis: analysis,
		usage:    usage,
		health:   health,
		index:    index,
		records:  records,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrSourceUnavailable, http.StatusServiceUnavailable, codeSourceUnavailable),
		sentinelHandler(domain.ErrEmbeddingQuotaExceeded, http.StatusPaymentRequired, codeEmbeddingQuotaExceeded),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProviderError),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusInternalServerError, codeInternalError),
	}
	return s
}

// Routes registers all handlers on the router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/", s.Root)
	r.Post("/api/chat", s.Chat)
	r.Post("/api/transactions/import", s.ImportTransactions)
	r.Post("/api/index/rebuild", s.RebuildIndex)
	r.Get("/api/analysis", s.Analysis)
	r.Get("/api/usage", s.Usage)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// Root handles GET /.
func (s *Server) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "finrag",
		"version": version.Version,
	})
}

type chatRequest struct {
	Message string                    `json:"message"`
	History []domain.ConversationTurn `json:"history,omitempty"`
	Corpus  string                    `json:"corpus,omitempty"`
}

type chatResponse struct {
	Response  string `json:"response"`
	Timestamp string `json:"timestamp"`
}

// Chat handles POST /api/chat. The corpus field selects the answering
// path: "documents" (default) retrieves from the vector index,
// "transactions" filters the record store.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "message is required")
		return
	}
	if len(req.History) > maxHistoryTurns {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			fmt.Sprintf("history must not exceed %d turns", maxHistoryTurns))
		return
	}

	var (
		answer string
		err    error
	)
	switch req.Corpus {
	case "", corpusDocuments:
		answer, err = s.chat.AskDocuments(r.Context(), req.Message, req.History)
	case corpusTransactions:
		answer, err = s.chat.AskTransactions(r.Context(), req.Message, req.History)
	default:
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			fmt.Sprintf("corpus must be %q or %q", corpusDocuments, corpusTransactions))
		return
	}
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Response:  answer,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

type importResponse struct {
	Imported int    `json:"imported"`
	Mode     string `json:"mode"`
}

// ImportTransactions handles POST /api/transactions/import. Accepts a
// CSV as a multipart "file" field or as the raw request body. The mode
// query parameter selects "replace" (default) or "append".
func (s *Server) ImportTransactions(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = "replace"
	}
	if mode != "replace" && mode != "append" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, `mode must be "replace" or "append"`)
		return
	}

	body, err := importBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	defer body.Close()

	records, err := transaction.ParseCSV(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "parse csv: "+err.Error())
		return
	}
	if len(records) == 0 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "no valid transactions in file")
		return
	}

	if mode == "append" {
		err = s.records.Append(r.Context(), records)
	} else {
		err = s.records.Replace(r.Context(), records)
	}
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	s.logger.Info("transactions imported",
		zap.Int("count", len(records)),
		zap.String("mode", mode),
	)
	writeJSON(w, http.StatusOK, importResponse{Imported: len(records), Mode: mode})
}

// importBody extracts the CSV payload from a multipart upload or the raw body.
func importBody(r *http.Request) (io.ReadCloser, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxImportBytes); err != nil {
			return nil, fmt.Errorf("parse multipart form: %w", err)
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("multipart upload must carry a \"file\" field: %w", err)
		}
		return file, nil
	}
	return http.MaxBytesReader(nil, r.Body, maxImportBytes), nil
}

type rebuildResponse struct {
	Documents int `json:"documents"`
}

// RebuildIndex handles POST /api/index/rebuild. Readers keep serving
// the previous snapshot while the rebuild runs.
func (s *Server) RebuildIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.index.Rebuild(r.Context()); err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rebuildResponse{Documents: s.index.Size()})
}

// Analysis handles GET /api/analysis.
func (s *Server) Analysis(w http.ResponseWriter, r *http.Request) {
	report, err := s.analysis.Build(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Usage handles GET /api/usage. The period query parameter selects
// "day" or "month" (default).
func (s *Server) Usage(w http.ResponseWriter, r *http.Request) {
	period := usageuc.PeriodMonth
	if r.URL.Query().Get("period") == "day" {
		period = usageuc.PeriodDay
	}
	writeJSON(w, http.StatusOK, s.usage.GetReport(r.Context(), period))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrSourceUnavailable,
		domain.ErrNotConfigured,
		domain.ErrGenerationFailed,
		domain.ErrEmbeddingQuotaExceeded,
		domain.ErrEmbeddingProviderError,
		domain.ErrVectorDimMismatch,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
