package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/codebuildervaibhav/call-analyzer/internal/config"
)

// ChatModel sends a single-turn user prompt to a hosted model.
type ChatModel interface {
	Complete(ctx context.Context, prompt string) (*Completion, error)
}

// Completion is a model reply. Raw holds the provider response as returned
// by the SDK.
type Completion struct {
	Text string
	Raw  any
}

// Render returns the reply text, or the raw response when the model sent no
// usable text.
func (c *Completion) Render() string {
	if c == nil {
		return ""
	}
	if strings.TrimSpace(c.Text) != "" {
		return c.Text
	}
	if c.Raw == nil {
		return ""
	}
	b, err := json.MarshalIndent(c.Raw, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", c.Raw)
	}
	return string(b)
}

// New builds the chat model selected by cfg.Provider.
func New(ctx context.Context, cfg config.LLMConfig) (ChatModel, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second

	switch cfg.Provider {
	case config.ProviderGroq, config.ProviderOpenAI:
		return NewOpenAIChat(cfg.APIKey, cfg.BaseURL, cfg.Model, timeout), nil
	case config.ProviderGemini:
		return NewGeminiChat(ctx, cfg.APIKey, cfg.Model, timeout)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
