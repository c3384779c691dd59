package interpreter

import (
	"context"
	"fmt"

	"github.com/bobby-s-dev/weather-agent/internal/models"
	"github.com/tmc/langchaingo/llms"
)

const locationPrompt = `Extract the city or place name the following weather question is about.
Reply with the place name only, in lowercase, without punctuation.
If no place is mentioned, reply with the single word none.

Question: %s`

// LLMExtractor asks a language model for the place a query mentions.
type LLMExtractor struct {
	model llms.Model
}

func NewLLMExtractor(model llms.Model) *LLMExtractor {
	return &LLMExtractor{model: model}
}

func (e *LLMExtractor) ExtractLocation(ctx context.Context, text string) (string, error) {
	reply, err := llms.GenerateFromSinglePrompt(ctx, e.model, fmt.Sprintf(locationPrompt, text),
		llms.WithTemperature(0))
	if err != nil {
		return "", fmt.Errorf("%w: location extraction: %v", models.ErrUpstream, err)
	}

	location := NormalizeLocation(reply)
	if location == "" {
		return "", models.ErrLocationUnresolved
	}
	return location, nil
}
