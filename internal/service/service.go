// Package service orchestrates the per-message pipeline:
// authorize, classify, then dispatch to the expense or query path.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/shopspring/decimal"

	"expensebot-go/internal/metrics"
	"expensebot-go/internal/parser"
	"expensebot-go/internal/router"
	"expensebot-go/internal/storage"
)

// Fixed user-visible texts.
const (
	UnauthorizedText = "User not authorized"
	NotExpenseText   = "Not an expense message"
	SaveFailedText   = "Failed to save expense"
	InternalText     = "Failed to process message"
	QueryFailedText  = "Sorry, I encountered an error processing your query."
	HelperText       = "I can track your expenses and answer questions about them. " +
		"Try something like \"Pizza 20 bucks\" or \"How much did I spend on food?\""
)

// Result is the outcome of processing one message.
type Result struct {
	OK      bool
	Message string
	Status  int
}

// Store is the slice of the persistence gateway the orchestration needs.
type Store interface {
	LookupUserID(ctx context.Context, telegramID string) (int64, error)
	AddExpense(ctx context.Context, userID int64, description string, amount decimal.Decimal, category string) bool
}

// Classifier labels a message.
type Classifier interface {
	Classify(ctx context.Context, message string) router.MessageType
}

// Extractor produces a candidate expense or nil.
type Extractor interface {
	Parse(ctx context.Context, message string) *parser.ExpenseInfo
}

// Responder answers a free-text question for a resolved user.
type Responder interface {
	Query(ctx context.Context, userID int64, message string) (string, error)
}

// ExpenseService extracts and persists expenses.
type ExpenseService struct {
	store     Store
	extractor Extractor
	logger    *log.Logger
}

// NewExpenseService creates an ExpenseService.
func NewExpenseService(store Store, extractor Extractor, logger *log.Logger) *ExpenseService {
	if logger == nil {
		logger = log.Default()
	}
	return &ExpenseService{store: store, extractor: extractor, logger: logger}
}

// Process extracts an expense from the message and persists it. A message
// that does not extract is not an error: success=false with status 200.
func (s *ExpenseService) Process(ctx context.Context, userID int64, message string) Result {
	info := s.extractor.Parse(ctx, message)
	if info == nil {
		return Result{OK: false, Message: NotExpenseText, Status: http.StatusOK}
	}

	if !s.store.AddExpense(ctx, userID, info.Description, info.Amount, info.Category) {
		return Result{OK: false, Message: SaveFailedText, Status: http.StatusInternalServerError}
	}

	metrics.ExpensesRecorded.WithLabelValues(info.Category).Inc()
	return Result{
		OK:      true,
		Message: fmt.Sprintf("%s expense added ✅", info.Category),
		Status:  http.StatusOK,
	}
}

// QueryService answers questions about recorded expenses.
type QueryService struct {
	responder Responder
	logger    *log.Logger
}

// NewQueryService creates a QueryService.
func NewQueryService(responder Responder, logger *log.Logger) *QueryService {
	if logger == nil {
		logger = log.Default()
	}
	return &QueryService{responder: responder, logger: logger}
}

// Process answers a query for an authorized user.
func (s *QueryService) Process(ctx context.Context, userID int64, message string) Result {
	answer, err := s.responder.Query(ctx, userID, message)
	if err != nil {
		s.logger.Printf("service: query failed for user %d: %v", userID, err)
		return Result{OK: false, Message: QueryFailedText, Status: http.StatusInternalServerError}
	}
	return Result{OK: true, Message: answer, Status: http.StatusOK}
}

// handler processes one classified message for a resolved user.
type handler func(ctx context.Context, userID int64, message string) Result

// Processor runs the full pipeline for one inbound message.
type Processor struct {
	store      Store
	classifier Classifier
	logger     *log.Logger
	dispatch   map[router.MessageType]handler
}

// NewProcessor wires the pipeline. All collaborators are passed explicitly;
// there is no shared module-level state.
func NewProcessor(store Store, classifier Classifier, expenses *ExpenseService, queries *QueryService, logger *log.Logger) *Processor {
	if logger == nil {
		logger = log.Default()
	}
	p := &Processor{store: store, classifier: classifier, logger: logger}
	p.dispatch = map[router.MessageType]handler{
		router.TypeExpense: expenses.Process,
		router.TypeQuery:   queries.Process,
		router.TypeOther:   p.handleOther,
	}
	return p
}

// Process authorizes the sender, classifies the message and dispatches it.
func (p *Processor) Process(ctx context.Context, telegramID, message string) Result {
	userID, err := p.store.LookupUserID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			metrics.MessagesProcessed.WithLabelValues("unauthorized").Inc()
			return Result{OK: false, Message: UnauthorizedText, Status: http.StatusForbidden}
		}
		p.logger.Printf("service: whitelist lookup failed for %s: %v", telegramID, err)
		metrics.MessagesProcessed.WithLabelValues("error").Inc()
		return Result{OK: false, Message: InternalText, Status: http.StatusInternalServerError}
	}

	label := p.classifier.Classify(ctx, message)
	metrics.MessagesProcessed.WithLabelValues(string(label)).Inc()

	h, ok := p.dispatch[label]
	if !ok {
		h = p.handleOther
	}
	return h(ctx, userID, message)
}

func (p *Processor) handleOther(ctx context.Context, userID int64, message string) Result {
	return Result{OK: false, Message: HelperText, Status: http.StatusOK}
}
