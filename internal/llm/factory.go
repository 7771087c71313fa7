package llm

import (
	"context"
	"fmt"
	"strings"
)

type Options struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
}

// NewClient builds the configured provider backend wrapped in the schema
// adapter.
func NewClient(ctx context.Context, opts Options) (Client, error) {
	provider := strings.ToLower(strings.TrimSpace(opts.Provider))
	if provider == "" {
		provider = "gemini"
	}

	switch provider {
	case "gemini":
		gen, err := NewGeminiGenerator(ctx, opts.APIKey, opts.Model)
		if err != nil {
			return nil, err
		}
		return NewAdapter(gen), nil
	case "openai":
		return NewAdapter(NewOpenAIGenerator(opts.APIKey, opts.Model, opts.BaseURL)), nil
	case "anthropic":
		return NewAdapter(NewAnthropicGenerator(opts.APIKey, opts.Model)), nil
	default:
		return nil, fmt.Errorf("unsupported generation provider: %s", opts.Provider)
	}
}
