// Package agent answers natural-language questions about recorded expenses
// by letting the model drive a bounded tool-calling loop.
package agent

import (
	"context"
	"log"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/shopspring/decimal"

	"expensebot-go/internal/llm"
	"expensebot-go/internal/metrics"
	"expensebot-go/internal/storage"
)

// Apology is returned whenever the model cannot produce an answer.
const Apology = "Sorry, I encountered an error processing your query. Please try again."

const systemPrompt = `You are a helpful expense tracking assistant.

You have access to tools that can query the user's expense data. Use these tools to answer their questions accurately.

When the user asks about spending, categories, or expenses:
1. Use the appropriate tool(s) to get the data
2. Provide a clear, natural language response
3. Include specific numbers and details from the tools

Valid expense categories are: Housing, Transportation, Food, Utilities, Insurance, Medical/Healthcare, Savings, Debt, Education, Entertainment, Other

Be concise but informative. Format currency as $XX.XX.`

// Store is the slice of the persistence gateway the tools read from.
type Store interface {
	TotalByCategory(ctx context.Context, userID int64, category string, days int) (decimal.Decimal, error)
	CategoryBreakdown(ctx context.Context, userID int64, days int) ([]storage.CategoryTotal, error)
	RecentExpenses(ctx context.Context, userID int64, limit int) ([]storage.Expense, error)
	SearchExpenses(ctx context.Context, userID int64, keyword string) ([]storage.Expense, error)
}

const (
	defaultMaxIterations = 5
	defaultQueryTimeout  = 2 * time.Minute
)

// Agent runs the query-answering loop.
type Agent struct {
	llm           *llm.Client
	store         Store
	logger        *log.Logger
	maxIterations int
	queryTimeout  time.Duration
}

// Option configures an Agent.
type Option func(*Agent)

// WithMaxIterations bounds the number of model turns per query.
func WithMaxIterations(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxIterations = n
		}
	}
}

// WithQueryTimeout bounds the overall wall-clock time per query.
func WithQueryTimeout(d time.Duration) Option {
	return func(a *Agent) {
		if d > 0 {
			a.queryTimeout = d
		}
	}
}

// New creates an Agent over the given model client and store.
func New(client *llm.Client, store Store, logger *log.Logger, opts ...Option) *Agent {
	if logger == nil {
		logger = log.Default()
	}
	a := &Agent{
		llm:           client,
		store:         store,
		logger:        logger,
		maxIterations: defaultMaxIterations,
		queryTimeout:  defaultQueryTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Query answers a question about the user's expenses. Model failures and
// loop exhaustion degrade to the fixed apology; a non-nil error means a
// data lookup failed and the caller should report an internal failure.
func (a *Agent) Query(ctx context.Context, userID int64, message string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.queryTimeout)
	defer cancel()

	tools := &toolbox{store: a.store, userID: userID}
	catalog := toolDefinitions()

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: message},
	}

	for i := 0; i < a.maxIterations; i++ {
		resp, err := a.llm.Complete(ctx, openai.ChatCompletionRequest{
			Messages: messages,
			Tools:    catalog,
		})
		if err != nil {
			a.logger.Printf("agent: model call failed: %v", err)
			metrics.ModelCalls.WithLabelValues("agent", "error").Inc()
			return Apology, nil
		}
		metrics.ModelCalls.WithLabelValues("agent", "ok").Inc()

		if len(resp.Choices) == 0 {
			a.logger.Printf("agent: model returned no choices")
			return Apology, nil
		}

		choice := resp.Choices[0].Message
		if len(choice.ToolCalls) == 0 {
			if strings.TrimSpace(choice.Content) == "" {
				a.logger.Printf("agent: model returned an empty answer")
				return Apology, nil
			}
			return choice.Content, nil
		}

		messages = append(messages, choice)
		for _, call := range choice.ToolCalls {
			result, err := tools.execute(ctx, call.Function.Name, call.Function.Arguments)
			if err != nil {
				a.logger.Printf("agent: tool %s failed: %v", call.Function.Name, err)
				return "", err
			}
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				ToolCallID: call.ID,
				Name:       call.Function.Name,
				Content:    result,
			})
		}
	}

	// Loop exhausted without a final answer; treat like any other model failure.
	a.logger.Printf("agent: tool loop exhausted after %d iterations", a.maxIterations)
	return Apology, nil
}
