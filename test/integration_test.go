package test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensebot-go/internal/agent"
	"expensebot-go/internal/llm"
	"expensebot-go/internal/parser"
	"expensebot-go/internal/router"
	"expensebot-go/internal/service"
	"expensebot-go/internal/storage"
)

// scriptedCompleter replays a fixed sequence of model responses in order.
// One message flowing through the pipeline consumes one response per model
// call: classify first, then extraction or the agent loop.
type scriptedCompleter struct {
	responses []openai.ChatCompletionResponse
	requests  []openai.ChatCompletionRequest
}

func (s *scriptedCompleter) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.requests = append(s.requests, req)
	if len(s.responses) == 0 {
		return openai.ChatCompletionResponse{}, errors.New("script exhausted")
	}
	resp := s.responses[0]
	s.responses = s.responses[1:]
	return resp, nil
}

func textResponse(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}},
		},
	}
}

func toolResponse(name, args string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{
				Role: openai.ChatMessageRoleAssistant,
				ToolCalls: []openai.ToolCall{
					{
						ID:       "call-1",
						Type:     openai.ToolTypeFunction,
						Function: openai.FunctionCall{Name: name, Arguments: args},
					},
				},
			}},
		},
	}
}

// setupPipeline wires the full message pipeline over an in-memory database
// and a scripted model, exposed through the HTTP endpoint.
func setupPipeline(t *testing.T, script *scriptedCompleter) (http.Handler, *storage.SQLiteStorage, int64) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := storage.NewSQLiteStorage(db)
	require.NoError(t, store.Migrate(context.Background()))

	userID, err := store.CreateUser(context.Background(), "tg-1", "alice")
	require.NoError(t, err)

	logger := log.New(io.Discard, "", 0)
	client := llm.NewWithCompleter(script, "", 0)

	classifier := router.NewClassifier(client, logger)
	extractor := parser.NewParser(client, logger)
	responder := agent.New(client, store, logger)

	expenses := service.NewExpenseService(store, extractor, logger)
	queries := service.NewQueryService(responder, logger)
	processor := service.NewProcessor(store, classifier, expenses, queries, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/process-message", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			TelegramID string `json:"telegram_id"`
			Message    string `json:"message"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		result := processor.Process(r.Context(), req.TelegramID, req.Message)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(result.Status)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": result.OK, "message": result.Message})
	})
	return mux, store, userID
}

func postMessage(t *testing.T, h http.Handler, telegramID, message string) (int, map[string]any) {
	t.Helper()

	body, err := json.Marshal(map[string]string{"telegram_id": telegramID, "message": message})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/process-message", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp
}

func TestPipeline_ExpenseRecorded(t *testing.T) {
	script := &scriptedCompleter{responses: []openai.ChatCompletionResponse{
		textResponse(`{"message_type": "expense"}`),
		textResponse(`{"is_expense": true, "description": "Pizza", "amount": 20, "category": "Food"}`),
	}}
	h, store, userID := setupPipeline(t, script)

	code, resp := postMessage(t, h, "tg-1", "Pizza 20 bucks")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "Food expense added ✅", resp["message"])

	recent, err := store.RecentExpenses(context.Background(), userID, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "Pizza", recent[0].Description)
	assert.Equal(t, "Food", recent[0].Category)
	assert.Equal(t, "20.00", recent[0].Amount.StringFixed(2))
}

func TestPipeline_QueryAnswered(t *testing.T) {
	script := &scriptedCompleter{responses: []openai.ChatCompletionResponse{
		textResponse(`{"message_type": "expense"}`),
		textResponse(`{"is_expense": true, "description": "Pizza", "amount": 20, "category": "Food"}`),
		textResponse(`{"message_type": "query"}`),
		toolResponse("get_total_spending", `{"category": "Food", "days": 30}`),
		textResponse("You spent $20.00 on Food in the last 30 days."),
	}}
	h, _, _ := setupPipeline(t, script)

	code, resp := postMessage(t, h, "tg-1", "Pizza 20 bucks")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, true, resp["success"])

	code, resp = postMessage(t, h, "tg-1", "How much did I spend on food?")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "You spent $20.00 on Food in the last 30 days.", resp["message"])

	// The tool round trip fed the real stored total back into the model.
	require.Len(t, script.requests, 5)
	last := script.requests[4]
	toolMsg := last.Messages[len(last.Messages)-1]
	assert.Equal(t, openai.ChatMessageRoleTool, toolMsg.Role)
	assert.Contains(t, toolMsg.Content, "$20.00")
}

func TestPipeline_OtherGetsHelperText(t *testing.T) {
	script := &scriptedCompleter{responses: []openai.ChatCompletionResponse{
		textResponse(`{"message_type": "other"}`),
	}}
	h, _, _ := setupPipeline(t, script)

	code, resp := postMessage(t, h, "tg-1", "Hello!")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, service.HelperText, resp["message"])
}

func TestPipeline_UnknownUserRejectedBeforeModel(t *testing.T) {
	script := &scriptedCompleter{}
	h, _, _ := setupPipeline(t, script)

	code, resp := postMessage(t, h, "tg-stranger", "Pizza 20 bucks")
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, service.UnauthorizedText, resp["message"])
	assert.Empty(t, script.requests, "unauthorized messages must not reach the model")
}

func TestPipeline_NotAnExpense(t *testing.T) {
	script := &scriptedCompleter{responses: []openai.ChatCompletionResponse{
		textResponse(`{"message_type": "expense"}`),
		textResponse(`{"is_expense": false, "description": "", "amount": 0, "category": ""}`),
	}}
	h, store, userID := setupPipeline(t, script)

	code, resp := postMessage(t, h, "tg-1", "thinking about pizza")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, service.NotExpenseText, resp["message"])

	recent, err := store.RecentExpenses(context.Background(), userID, 10)
	require.NoError(t, err)
	assert.Empty(t, recent)
}
