package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIChat talks to any OpenAI-compatible chat completion endpoint,
// Groq included.
type OpenAIChat struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAIChat creates a client for model. An empty baseURL uses OpenAI's.
func NewOpenAIChat(apiKey, baseURL, model string, timeout time.Duration) *OpenAIChat {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &OpenAIChat{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		timeout: timeout,
	}
}

func (o *OpenAIChat) Complete(ctx context.Context, prompt string) (*Completion, error) {
	ctx, cancel := withTimeout(ctx, o.timeout)
	defer cancel()

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion (%s): %w", o.model, err)
	}

	completion := &Completion{Raw: resp}
	if len(resp.Choices) > 0 {
		completion.Text = resp.Choices[0].Message.Content
	}
	return completion, nil
}
