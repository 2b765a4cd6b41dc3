// Package router classifies incoming messages so the orchestration layer
// can dispatch them to the right handler.
package router

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"expensebot-go/internal/llm"
	"expensebot-go/internal/metrics"
)

// MessageType is the closed set of classification labels.
type MessageType string

const (
	TypeExpense MessageType = "expense"
	TypeQuery   MessageType = "query"
	TypeOther   MessageType = "other"
)

const classifyPrompt = `You are a message classifier for an expense tracking bot.

Classify the message into ONE of these categories:

1. "expense" - User is reporting an expense
   Examples: "Pizza 20 bucks", "Uber to work 15.50", "Paid rent 800 dollars"

2. "query" - User is asking about their expenses
   Examples: "How much did I spend on food?", "Show my expenses", "What's my total spending?"

3. "other" - Greetings, questions, or unrelated messages
   Examples: "Hello", "How are you?", "What can you do?"

Respond with ONLY a JSON object: {"message_type": "expense|query|other"}

IMPORTANT: Return ONLY the JSON object, no additional text.`

// Classifier labels raw message text as expense, query or other.
type Classifier struct {
	llm    *llm.Client
	logger *log.Logger
}

// NewClassifier creates a Classifier over the given model client.
func NewClassifier(client *llm.Client, logger *log.Logger) *Classifier {
	if logger == nil {
		logger = log.Default()
	}
	return &Classifier{llm: client, logger: logger}
}

type classifyReply struct {
	MessageType string `json:"message_type"`
}

// Classify labels a message. The label is purely advisory routing: any model
// failure, unparseable reply or out-of-set label defaults to TypeOther so
// classification never fails the request.
func (c *Classifier) Classify(ctx context.Context, message string) MessageType {
	resp, err := c.llm.Complete(ctx, openai.ChatCompletionRequest{
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: classifyPrompt},
			{Role: openai.ChatMessageRoleUser, Content: message},
		},
	})
	if err != nil {
		c.logger.Printf("router: classification call failed: %v", err)
		metrics.ModelCalls.WithLabelValues("classifier", "error").Inc()
		return TypeOther
	}
	metrics.ModelCalls.WithLabelValues("classifier", "ok").Inc()

	if len(resp.Choices) == 0 {
		c.logger.Printf("router: classification returned no choices")
		return TypeOther
	}

	var reply classifyReply
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &reply); err != nil {
		c.logger.Printf("router: unparseable classification reply %q: %v", content, err)
		return TypeOther
	}

	switch MessageType(reply.MessageType) {
	case TypeExpense, TypeQuery, TypeOther:
		return MessageType(reply.MessageType)
	default:
		c.logger.Printf("router: invalid message_type %q, defaulting to other", reply.MessageType)
		return TypeOther
	}
}
