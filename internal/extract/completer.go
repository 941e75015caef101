// Package extract derives guest names and topic labels from video metadata
// with language-model calls. Extractors never fail: a failed or unreadable
// call degrades to an empty or default result.
package extract

import (
	"context"

	"github.com/sells-group/podcast-kpi/pkg/anthropic"
	"github.com/sells-group/podcast-kpi/pkg/openai"
)

// Prompt is a single-turn completion request.
type Prompt struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// Completion is the text answer of a Prompt plus its token usage.
type Completion struct {
	Text         string
	Model        string
	InputTokens  int64
	OutputTokens int64
}

// Completer is the capability the extractors need from a language model.
type Completer interface {
	Complete(ctx context.Context, p Prompt) (*Completion, error)
	Model() string
}

type openAICompleter struct {
	client openai.Client
	model  string
}

// NewOpenAICompleter adapts an OpenAI-compatible client (OpenRouter, Ollama).
func NewOpenAICompleter(client openai.Client, model string) Completer {
	return &openAICompleter{client: client, model: model}
}

func (c *openAICompleter) Model() string { return c.model }

func (c *openAICompleter) Complete(ctx context.Context, p Prompt) (*Completion, error) {
	var msgs []openai.Message
	if p.System != "" {
		msgs = append(msgs, openai.Message{Role: "system", Content: p.System})
	}
	msgs = append(msgs, openai.Message{Role: "user", Content: p.User})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: float32(p.Temperature),
		MaxTokens:   p.MaxTokens,
	})
	if err != nil {
		return nil, err
	}
	return &Completion{
		Text:         resp.Content,
		Model:        c.model,
		InputTokens:  int64(resp.Usage.PromptTokens),
		OutputTokens: int64(resp.Usage.CompletionTokens),
	}, nil
}

type anthropicCompleter struct {
	client anthropic.Client
	model  string
}

// NewAnthropicCompleter adapts an Anthropic Messages client.
func NewAnthropicCompleter(client anthropic.Client, model string) Completer {
	return &anthropicCompleter{client: client, model: model}
}

func (c *anthropicCompleter) Model() string { return c.model }

func (c *anthropicCompleter) Complete(ctx context.Context, p Prompt) (*Completion, error) {
	maxTokens := int64(p.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 256
	}
	temp := p.Temperature
	resp, err := c.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       c.model,
		MaxTokens:   maxTokens,
		System:      p.System,
		Messages:    []anthropic.Message{{Role: "user", Content: p.User}},
		Temperature: &temp,
	})
	if err != nil {
		return nil, err
	}
	return &Completion{
		Text:         resp.Text(),
		Model:        c.model,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}, nil
}

// Usage accumulates call counts and token usage across an extraction pass.
type Usage struct {
	Calls        int
	Failures     int
	InputTokens  int64
	OutputTokens int64
}

func (u *Usage) record(c *Completion, err error) {
	u.Calls++
	if err != nil {
		u.Failures++
		return
	}
	u.InputTokens += c.InputTokens
	u.OutputTokens += c.OutputTokens
}
