package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

var ErrNotConfigured = errors.New("llm api key not configured")

var _ llms.Model = (*Model)(nil)

// Model wraps a langchaingo model so call options can be fixed at create time.
type Model struct {
	model   llms.Model
	options []llms.CallOption
}

func NewModel(model llms.Model, options ...llms.CallOption) *Model {
	return &Model{
		model:   model,
		options: options,
	}
}

func (m *Model) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	allOptions := []llms.CallOption{}
	allOptions = append(allOptions, m.options...)
	allOptions = append(allOptions, options...)

	return m.model.GenerateContent(ctx, messages, allOptions...)
}

func (m *Model) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

// Settings describes an OpenAI-compatible chat endpoint.
type Settings struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
}

// NewOpenAICompatible builds a chat model for any OpenAI-compatible endpoint,
// Gemini's included. The configured temperature becomes a default call option.
func NewOpenAICompatible(settings Settings, logger *zap.Logger) (*Model, error) {
	if settings.APIKey == "" {
		return nil, ErrNotConfigured
	}

	opts := []openai.Option{
		openai.WithToken(settings.APIKey),
		openai.WithModel(settings.Model),
	}
	if settings.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(settings.BaseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm client: %w", err)
	}

	logger.Info("Initialized LLM",
		zap.String("model", settings.Model),
		zap.String("base_url", settings.BaseURL))

	return NewModel(client, llms.WithTemperature(settings.Temperature)), nil
}
