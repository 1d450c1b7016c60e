package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"go.uber.org/zap"
)

// OpenAIClient answers prompts through the OpenAI Responses API
type OpenAIClient struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewOpenAIClient creates a new OpenAIClient. Extra request options are
// appended after the API key (base URL overrides in tests).
func NewOpenAIClient(apiKey, model string, timeout time.Duration, logger *zap.Logger, opts ...option.RequestOption) *OpenAIClient {
	if model == "" {
		model = "gpt-4o-mini"
	}
	client := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &OpenAIClient{
		client:  &client,
		model:   model,
		timeout: timeout,
		logger:  logger,
	}
}

// Complete sends the prompt as a single text input
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.client.Responses.New(ctx, responses.ResponseNewParams{
		Model: shared.ResponsesModel(c.model),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai responses error: %w", err)
	}

	answer := strings.TrimSpace(resp.OutputText())
	if answer == "" {
		return "", ErrEmptyAnswer
	}

	c.logger.Debug("OpenAI response received",
		zap.String("model", c.model),
		zap.Duration("latency", time.Since(start)))
	return answer, nil
}

// Provider returns the provider name
func (c *OpenAIClient) Provider() string {
	return ProviderOpenAI
}
