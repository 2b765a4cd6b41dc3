package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"expensebot-go/internal/metrics"
	"expensebot-go/internal/money"
	"expensebot-go/internal/storage"
)

const (
	defaultWindowDays  = 30
	defaultRecentLimit = 10
)

// toolbox executes the four data-lookup tools. Every tool is bound to one
// resolved user id so the model can never read another user's data.
type toolbox struct {
	store  Store
	userID int64
}

// definitions is the tool catalog advertised to the model.
func toolDefinitions() []openai.Tool {
	return []openai.Tool{
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        "get_total_spending",
				Description: "Get the total amount spent in a specific category or overall, over a trailing window of days.",
				Parameters: jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"category": {
							Type:        jsonschema.String,
							Description: "Category name (Food, Transportation, Housing, etc.). Omit for all categories.",
						},
						"days": {
							Type:        jsonschema.Integer,
							Description: "Number of days to look back (default 30).",
						},
					},
				},
			},
		},
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        "get_spending_breakdown",
				Description: "Get a breakdown of spending by category over a trailing window of days.",
				Parameters: jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"days": {
							Type:        jsonschema.Integer,
							Description: "Number of days to look back (default 30).",
						},
					},
				},
			},
		},
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        "get_recent_expenses_list",
				Description: "Get a list of the most recent expenses.",
				Parameters: jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"limit": {
							Type:        jsonschema.Integer,
							Description: "Maximum number of expenses to return (default 10).",
						},
					},
				},
			},
		},
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        "search_expenses_by_keyword",
				Description: "Search for expenses containing a specific keyword in the description.",
				Parameters: jsonschema.Definition{
					Type: jsonschema.Object,
					Properties: map[string]jsonschema.Definition{
						"keyword": {
							Type:        jsonschema.String,
							Description: "The keyword to search for.",
						},
					},
					Required: []string{"keyword"},
				},
			},
		},
	}
}

type toolArgs struct {
	Category string `json:"category"`
	Days     int    `json:"days"`
	Limit    int    `json:"limit"`
	Keyword  string `json:"keyword"`
}

// execute runs one tool call and renders its result as model-readable text.
// Malformed calls produce an error message fed back to the model so it can
// correct itself; a non-nil error means the data lookup itself failed.
func (t *toolbox) execute(ctx context.Context, name, rawArgs string) (string, error) {
	var args toolArgs
	if rawArgs != "" {
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			return fmt.Sprintf("Error: invalid arguments for %s: %v", name, err), nil
		}
	}
	if args.Days <= 0 {
		args.Days = defaultWindowDays
	}
	if args.Limit <= 0 {
		args.Limit = defaultRecentLimit
	}

	metrics.ToolInvocations.WithLabelValues(name).Inc()

	switch name {
	case "get_total_spending":
		return t.totalSpending(ctx, args.Category, args.Days)
	case "get_spending_breakdown":
		return t.spendingBreakdown(ctx, args.Days)
	case "get_recent_expenses_list":
		return t.recentExpenses(ctx, args.Limit)
	case "search_expenses_by_keyword":
		return t.searchExpenses(ctx, args.Keyword)
	default:
		return fmt.Sprintf("Error: unknown tool %q", name), nil
	}
}

func (t *toolbox) totalSpending(ctx context.Context, category string, days int) (string, error) {
	total, err := t.store.TotalByCategory(ctx, t.userID, category, days)
	if err != nil {
		return "", fmt.Errorf("total spending lookup failed: %w", err)
	}

	if category != "" {
		return fmt.Sprintf("Total spent on %s in the last %d days: %s", category, days, money.Format(total)), nil
	}
	return fmt.Sprintf("Total spent across all categories in the last %d days: %s", days, money.Format(total)), nil
}

func (t *toolbox) spendingBreakdown(ctx context.Context, days int) (string, error) {
	breakdown, err := t.store.CategoryBreakdown(ctx, t.userID, days)
	if err != nil {
		return "", fmt.Errorf("breakdown lookup failed: %w", err)
	}

	if len(breakdown) == 0 {
		return fmt.Sprintf("No expenses found in the last %d days.", days), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Spending breakdown for the last %d days:\n", days)
	for _, item := range breakdown {
		fmt.Fprintf(&b, "- %s: %s (%d expenses)\n", item.Category, money.Format(item.Total), item.Count)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func (t *toolbox) recentExpenses(ctx context.Context, limit int) (string, error) {
	expenses, err := t.store.RecentExpenses(ctx, t.userID, limit)
	if err != nil {
		return "", fmt.Errorf("recent expenses lookup failed: %w", err)
	}

	if len(expenses) == 0 {
		return "No expenses found.", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Your %d most recent expenses:\n", len(expenses))
	writeExpenseLines(&b, expenses)
	return strings.TrimRight(b.String(), "\n"), nil
}

func (t *toolbox) searchExpenses(ctx context.Context, keyword string) (string, error) {
	if keyword == "" {
		return "Error: search requires a keyword.", nil
	}

	expenses, err := t.store.SearchExpenses(ctx, t.userID, keyword)
	if err != nil {
		return "", fmt.Errorf("expense search failed: %w", err)
	}

	if len(expenses) == 0 {
		return fmt.Sprintf("No expenses found matching '%s'.", keyword), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d expenses matching '%s':\n", len(expenses), keyword)
	writeExpenseLines(&b, expenses)
	return strings.TrimRight(b.String(), "\n"), nil
}

func writeExpenseLines(b *strings.Builder, expenses []storage.Expense) {
	for _, exp := range expenses {
		fmt.Fprintf(b, "- %s: %s (%s) on %s\n",
			exp.Description, money.Format(exp.Amount), exp.Category, exp.AddedAt.Format("2006-01-02"))
	}
}
