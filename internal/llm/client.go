// Package llm provides the chat-completion client shared by the message
// classifier, the expense extractor and the query agent.
package llm

import (
	"context"
	"math"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// ChatCompleter is the slice of the OpenAI client the pipeline needs.
// *openai.Client satisfies it; tests substitute scripted fakes.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client wraps a ChatCompleter with the model name and per-call timeout
// every component uses. The backend guarantees no timeout of its own, so
// one is imposed around every call.
type Client struct {
	api     ChatCompleter
	model   string
	timeout time.Duration
}

const (
	defaultModel   = openai.GPT3Dot5Turbo
	defaultTimeout = 30 * time.Second
)

// New creates a Client talking to the real OpenAI API.
func New(apiKey, model string, timeout time.Duration) *Client {
	return NewWithCompleter(openai.NewClient(apiKey), model, timeout)
}

// NewWithCompleter creates a Client over any ChatCompleter.
func NewWithCompleter(api ChatCompleter, model string, timeout time.Duration) *Client {
	if model == "" {
		model = defaultModel
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{api: api, model: model, timeout: timeout}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Complete submits a chat-completion request with the configured model,
// temperature 0 and the client timeout applied.
func (c *Client) Complete(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req.Model = c.model
	// The request field is omitempty, so a literal 0 never reaches the wire
	// and the backend would fall back to its own default. The library maps
	// this sentinel to an effective 0.
	req.Temperature = math.SmallestNonzeroFloat32
	return c.api.CreateChatCompletion(ctx, req)
}
