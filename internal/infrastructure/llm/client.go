// Package llm adapts hosted language models used by the assistant.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bizdesk/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Provider names accepted in assistant.provider
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// ErrEmptyAnswer is returned when the model produced no text
var ErrEmptyAnswer = errors.New("llm: empty response")

// Client completes a single prompt
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Provider() string
}

// NewClient builds the client for the configured provider
func NewClient(ctx context.Context, cfg config.AssistantConfig, logger *zap.Logger) (Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm: api key is required")
	}

	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI:
		return NewOpenAIClient(cfg.APIKey, cfg.Model, cfg.Timeout, logger), nil
	case ProviderGemini:
		return NewGeminiClient(ctx, cfg.APIKey, cfg.Model, cfg.Timeout, logger)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}

// withTimeout bounds a model call; zero keeps the caller's deadline
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
