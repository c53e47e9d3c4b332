// Package llm wraps the OpenAI-compatible provider API used for chat
// completions and embeddings. Groq exposes the same wire format, so the
// production deployment only changes the base URL.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// ErrProvider indicates the completion/embedding call failed or timed
// out. Retryable with backoff; the failed turn is never recorded.
var ErrProvider = errors.New("llm provider error")

// Params are per-request generation parameters.
type Params struct {
	Temperature float32
	MaxTokens   int
	TopP        float32
}

// DefaultParams are the coach's standard generation settings.
func DefaultParams() Params {
	return Params{Temperature: 0.7, MaxTokens: 1500, TopP: 1}
}

// Config configures the provider client.
type Config struct {
	APIKey     string
	BaseURL    string // e.g. https://api.groq.com/openai/v1
	ChatModel  string
	EmbedModel string
	Timeout    time.Duration // bound on a single provider call
}

// Client is a stateless request/response client for the provider.
type Client struct {
	api        *openai.Client
	chatModel  string
	embedModel string
	timeout    time.Duration
}

// New creates a Client from cfg.
func New(cfg Config) *Client {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		api:        openai.NewClientWithConfig(apiCfg),
		chatModel:  cfg.ChatModel,
		embedModel: cfg.EmbedModel,
		timeout:    timeout,
	}
}

// Complete sends one system+user message pair and returns the assistant
// text. The call is bounded by the configured timeout; callers must not
// hold session locks across it.
func (c *Client) Complete(ctx context.Context, systemPrompt, userMessage string, p Params) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userMessage},
		},
		Temperature: p.Temperature,
		MaxTokens:   p.MaxTokens,
		TopP:        p.TopP,
	})
	if err != nil {
		return "", fmt.Errorf("%w: chat completion: %v", ErrProvider, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response from model", ErrProvider)
	}
	return resp.Choices[0].Message.Content, nil
}

// Embed produces a fixed-length embedding vector for text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(c.embedModel),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: embeddings: %v", ErrProvider, err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: empty embedding response", ErrProvider)
	}
	return resp.Data[0].Embedding, nil
}
