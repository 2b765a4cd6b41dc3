package agent

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolbox_TotalSpending(t *testing.T) {
	store, userID := setupStore(t)
	ctx := context.Background()
	require.True(t, store.AddExpense(ctx, userID, "Pizza", decimal.RequireFromString("20.00"), "Food"))
	require.True(t, store.AddExpense(ctx, userID, "Rent", decimal.NewFromInt(800), "Housing"))

	tb := &toolbox{store: store, userID: userID}

	out, err := tb.execute(ctx, "get_total_spending", `{"category": "Food", "days": 30}`)
	require.NoError(t, err)
	assert.Equal(t, "Total spent on Food in the last 30 days: $20.00", out)

	out, err = tb.execute(ctx, "get_total_spending", `{}`)
	require.NoError(t, err)
	assert.Equal(t, "Total spent across all categories in the last 30 days: $820.00", out)
}

func TestToolbox_SpendingBreakdown(t *testing.T) {
	store, userID := setupStore(t)
	ctx := context.Background()
	require.True(t, store.AddExpense(ctx, userID, "Pizza", decimal.NewFromInt(20), "Food"))

	tb := &toolbox{store: store, userID: userID}

	out, err := tb.execute(ctx, "get_spending_breakdown", `{"days": 30}`)
	require.NoError(t, err)
	assert.Contains(t, out, "Spending breakdown for the last 30 days:")
	assert.Contains(t, out, "- Food: $20.00 (1 expenses)")
}

func TestToolbox_SpendingBreakdown_Empty(t *testing.T) {
	store, userID := setupStore(t)

	tb := &toolbox{store: store, userID: userID}

	out, err := tb.execute(context.Background(), "get_spending_breakdown", `{}`)
	require.NoError(t, err)
	assert.Equal(t, "No expenses found in the last 30 days.", out)
}

func TestToolbox_RecentExpenses(t *testing.T) {
	store, userID := setupStore(t)
	ctx := context.Background()
	require.True(t, store.AddExpense(ctx, userID, "Pizza", decimal.NewFromInt(20), "Food"))
	require.True(t, store.AddExpense(ctx, userID, "Uber", decimal.RequireFromString("15.50"), "Transportation"))

	tb := &toolbox{store: store, userID: userID}

	out, err := tb.execute(ctx, "get_recent_expenses_list", `{"limit": 10}`)
	require.NoError(t, err)
	assert.Contains(t, out, "Your 2 most recent expenses:")
	assert.Contains(t, out, "- Uber: $15.50 (Transportation)")
	assert.Contains(t, out, "- Pizza: $20.00 (Food)")
}

func TestToolbox_SearchExpenses(t *testing.T) {
	store, userID := setupStore(t)
	ctx := context.Background()
	require.True(t, store.AddExpense(ctx, userID, "Pizza margherita", decimal.NewFromInt(20), "Food"))

	tb := &toolbox{store: store, userID: userID}

	out, err := tb.execute(ctx, "search_expenses_by_keyword", `{"keyword": "pizza"}`)
	require.NoError(t, err)
	assert.Contains(t, out, "Found 1 expenses matching 'pizza':")

	out, err = tb.execute(ctx, "search_expenses_by_keyword", `{"keyword": "coffee"}`)
	require.NoError(t, err)
	assert.Equal(t, "No expenses found matching 'coffee'.", out)

	out, err = tb.execute(ctx, "search_expenses_by_keyword", `{}`)
	require.NoError(t, err)
	assert.Contains(t, out, "Error")
}

func TestToolbox_UserScoping(t *testing.T) {
	store, userID := setupStore(t)
	ctx := context.Background()
	otherID, err := store.CreateUser(ctx, "tg-2", "bob")
	require.NoError(t, err)
	require.True(t, store.AddExpense(ctx, userID, "Pizza", decimal.NewFromInt(20), "Food"))

	// Tools bound to the other user never see this data.
	tb := &toolbox{store: store, userID: otherID}

	out, err := tb.execute(ctx, "get_total_spending", `{"category": "Food"}`)
	require.NoError(t, err)
	assert.Equal(t, "Total spent on Food in the last 30 days: $0.00", out)
}

func TestToolbox_MalformedArguments(t *testing.T) {
	store, userID := setupStore(t)

	tb := &toolbox{store: store, userID: userID}

	out, err := tb.execute(context.Background(), "get_total_spending", `{"days": "thirty"`)
	require.NoError(t, err)
	assert.Contains(t, out, "Error")
}
