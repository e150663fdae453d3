package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiProvider generates text with Google's Gemini API.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a Gemini provider for model.
func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiProvider{client: client, model: model}, nil
}

func (p *GeminiProvider) Model() string {
	return p.model
}

func (p *GeminiProvider) Generate(ctx context.Context, prompt string, opts GenerateOptions) (*Generation, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(opts.Temperature),
		MaxOutputTokens: int32(opts.MaxOutputTokens),
		SafetySettings:  geminiSafety(opts.Safety),
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), config)
	if err != nil {
		return nil, fmt.Errorf("gemini generate failed: %w", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return nil, fmt.Errorf("gemini blocked prompt: %s", resp.PromptFeedback.BlockReason)
		}
		return nil, errors.New("gemini returned an empty response")
	}

	gen := &Generation{Text: text, Model: p.model}
	if resp.UsageMetadata != nil {
		gen.TokensUsed = int(resp.UsageMetadata.TotalTokenCount)
	}
	return gen, nil
}

func geminiSafety(rules []SafetyRule) []*genai.SafetySetting {
	out := make([]*genai.SafetySetting, 0, len(rules))
	for _, r := range rules {
		var category genai.HarmCategory
		switch r.Category {
		case HarmHarassment:
			category = genai.HarmCategoryHarassment
		case HarmHateSpeech:
			category = genai.HarmCategoryHateSpeech
		case HarmSexuallyExplicit:
			category = genai.HarmCategorySexuallyExplicit
		case HarmDangerousContent:
			category = genai.HarmCategoryDangerousContent
		default:
			continue
		}
		out = append(out, &genai.SafetySetting{
			Category:  category,
			Threshold: genai.HarmBlockThresholdBlockMediumAndAbove,
		})
	}
	return out
}
