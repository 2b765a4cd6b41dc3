// Package parser extracts structured expense records from free text.
package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/shopspring/decimal"

	"expensebot-go/internal/llm"
	"expensebot-go/internal/metrics"
	"expensebot-go/internal/money"
)

// Categories is the closed set of expense categories.
var Categories = []string{
	"Housing",
	"Transportation",
	"Food",
	"Utilities",
	"Insurance",
	"Medical/Healthcare",
	"Savings",
	"Debt",
	"Education",
	"Entertainment",
	"Other",
}

// NormalizeCategory collapses any value outside the closed set to "Other".
func NormalizeCategory(category string) string {
	for _, c := range Categories {
		if category == c {
			return category
		}
	}
	return "Other"
}

// ExpenseInfo is a well-formed candidate expense awaiting persistence.
type ExpenseInfo struct {
	Description string
	Amount      decimal.Decimal
	Category    string
}

const promptTemplate = `You are an expense tracking assistant. Analyze user messages to determine if they describe an expense.

If the message is about an expense, extract:
1. A brief description of what was purchased
2. The amount spent (convert any currency words like "bucks", "dollars" to numbers)
3. The most appropriate category from: %s

If the message is NOT about an expense (e.g., greetings, questions, random text), set is_expense to false.

Respond with ONLY a JSON object of this exact shape:
{"is_expense": true|false, "description": "...", "amount": 0.0, "category": "..."}

Examples:
- "Pizza 20 bucks" -> {"is_expense": true, "description": "Pizza", "amount": 20, "category": "Food"}
- "Uber to work 15.50" -> {"is_expense": true, "description": "Uber to work", "amount": 15.50, "category": "Transportation"}
- "Paid rent 800 dollars" -> {"is_expense": true, "description": "Rent payment", "amount": 800, "category": "Housing"}
- "Hello!" -> {"is_expense": false, "description": "", "amount": 0, "category": ""}
- "How are you?" -> {"is_expense": false, "description": "", "amount": 0, "category": ""}`

// Parser extracts expense records from message text via the model.
type Parser struct {
	llm    *llm.Client
	logger *log.Logger
}

// NewParser creates a Parser over the given model client.
func NewParser(client *llm.Client, logger *log.Logger) *Parser {
	if logger == nil {
		logger = log.Default()
	}
	return &Parser{llm: client, logger: logger}
}

type extractReply struct {
	IsExpense   bool            `json:"is_expense"`
	Description string          `json:"description"`
	Amount      json.RawMessage `json:"amount"`
	Category    string          `json:"category"`
}

// Parse extracts expense information from a message. A nil result means the
// message is not an expense; extraction failures are treated the same way so
// a malformed model reply never errors the user-visible flow. Amounts that
// do not parse to a positive number are also treated as not-an-expense.
func (p *Parser) Parse(ctx context.Context, message string) *ExpenseInfo {
	prompt := fmt.Sprintf(promptTemplate, strings.Join(Categories, ", "))

	resp, err := p.llm.Complete(ctx, openai.ChatCompletionRequest{
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt},
			{Role: openai.ChatMessageRoleUser, Content: message},
		},
	})
	if err != nil {
		p.logger.Printf("parser: extraction call failed: %v", err)
		metrics.ModelCalls.WithLabelValues("parser", "error").Inc()
		return nil
	}
	metrics.ModelCalls.WithLabelValues("parser", "ok").Inc()

	if len(resp.Choices) == 0 {
		p.logger.Printf("parser: extraction returned no choices")
		return nil
	}

	var reply extractReply
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &reply); err != nil {
		p.logger.Printf("parser: unparseable extraction reply %q: %v", content, err)
		return nil
	}

	if !reply.IsExpense {
		return nil
	}

	amount, err := parseAmount(reply.Amount)
	if err != nil {
		p.logger.Printf("parser: rejecting expense with bad amount %s: %v", reply.Amount, err)
		return nil
	}
	if !amount.IsPositive() {
		p.logger.Printf("parser: rejecting expense with non-positive amount %s", amount)
		return nil
	}
	if reply.Description == "" {
		p.logger.Printf("parser: rejecting expense with empty description")
		return nil
	}

	return &ExpenseInfo{
		Description: reply.Description,
		Amount:      amount,
		Category:    NormalizeCategory(reply.Category),
	}
}

// parseAmount coerces the model's amount field, which may arrive as a JSON
// number or a string like "$15.50".
func parseAmount(raw json.RawMessage) (decimal.Decimal, error) {
	if len(raw) == 0 {
		return decimal.Zero, fmt.Errorf("missing amount")
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return money.Parse(n.String())
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return money.Parse(s)
	}

	return decimal.Zero, fmt.Errorf("amount is neither number nor string: %s", raw)
}
