package llm

import (
	"context"
	"fmt"
	"strings"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// NewProvider builds the provider registered under name.
func NewProvider(ctx context.Context, name, apiKey, model string) (Provider, error) {
	var (
		p   Provider
		err error
	)
	switch strings.ToLower(name) {
	case ProviderGemini:
		p, err = NewGeminiProvider(ctx, apiKey, model)
	case ProviderOpenAI:
		p, err = NewOpenAIProvider(apiKey, model)
	default:
		return nil, fmt.Errorf("unknown model provider %q", name)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}
