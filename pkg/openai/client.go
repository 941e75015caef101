// Package openai wraps OpenAI-compatible chat completion endpoints
// (OpenRouter, Ollama) behind a small interface.
package openai

import (
	"context"

	"github.com/rotisserie/eris"
	sdk "github.com/sashabaranov/go-openai"
)

// Client defines the chat completion operation used by the extractors.
type Client interface {
	CreateChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// ChatRequest is our own request type for CreateChatCompletion.
type ChatRequest struct {
	Model       string
	Messages    []Message
	Temperature float32
	MaxTokens   int
}

// Message represents a single conversational message.
type Message struct {
	Role    string // "system", "user" or "assistant"
	Content string
}

// ChatResponse is our own response type from CreateChatCompletion.
type ChatResponse struct {
	ID           string
	Model        string
	Content      string
	FinishReason string
	Usage        TokenUsage
}

// TokenUsage tracks token consumption.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
}

// placeholderKey satisfies servers such as Ollama that ignore the key but
// still expect an Authorization header.
const placeholderKey = "ollama"

type sdkClient struct {
	client *sdk.Client
}

// NewClient creates a client for the OpenAI-compatible API at baseURL.
// An empty baseURL targets api.openai.com.
func NewClient(apiKey, baseURL string) Client {
	if apiKey == "" {
		apiKey = placeholderKey
	}
	cfg := sdk.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &sdkClient{client: sdk.NewClientWithConfig(cfg)}
}

func (c *sdkClient) CreateChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	resp, err := c.client.CreateChatCompletion(ctx, sdk.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    toSDKMessages(req.Messages),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, eris.Wrap(err, "openai: create chat completion")
	}
	if len(resp.Choices) == 0 {
		return nil, eris.New("openai: response has no choices")
	}

	return &ChatResponse{
		ID:           resp.ID,
		Model:        resp.Model,
		Content:      resp.Choices[0].Message.Content,
		FinishReason: string(resp.Choices[0].FinishReason),
		Usage: TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}

func toSDKMessages(msgs []Message) []sdk.ChatCompletionMessage {
	out := make([]sdk.ChatCompletionMessage, len(msgs))
	for i, m := range msgs {
		role := m.Role
		switch role {
		case sdk.ChatMessageRoleSystem, sdk.ChatMessageRoleAssistant:
		default:
			role = sdk.ChatMessageRoleUser
		}
		out[i] = sdk.ChatCompletionMessage{Role: role, Content: m.Content}
	}
	return out
}
