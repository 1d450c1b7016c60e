package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GeminiClient answers prompts through the Gemini API
type GeminiClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewGeminiClient creates a new GeminiClient against the Gemini developer API
func NewGeminiClient(ctx context.Context, apiKey, model string, timeout time.Duration, logger *zap.Logger) (*GeminiClient, error) {
	return newGeminiClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}, model, timeout, logger)
}

func newGeminiClient(ctx context.Context, cc *genai.ClientConfig, model string, timeout time.Duration, logger *zap.Logger) (*GeminiClient, error) {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiClient{
		client:  client,
		model:   model,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Complete sends the prompt as a single user turn
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate error: %w", err)
	}

	answer := strings.TrimSpace(result.Text())
	if answer == "" {
		return "", ErrEmptyAnswer
	}

	c.logger.Debug("Gemini response received",
		zap.String("model", c.model),
		zap.Duration("latency", time.Since(start)))
	return answer, nil
}

// Provider returns the provider name
func (c *GeminiClient) Provider() string {
	return ProviderGemini
}
