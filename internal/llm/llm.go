// Package llm sends prompts to a text generation provider with bounded
// retries.
package llm

import (
	"context"
	"errors"
)

// ErrModelUnavailable is returned once every attempt has failed.
var ErrModelUnavailable = errors.New("model unavailable")

type HarmCategory string

const (
	HarmHarassment       HarmCategory = "harassment"
	HarmHateSpeech       HarmCategory = "hate_speech"
	HarmSexuallyExplicit HarmCategory = "sexually_explicit"
	HarmDangerousContent HarmCategory = "dangerous_content"
)

type BlockThreshold string

const BlockMediumAndAbove BlockThreshold = "medium_and_above"

type SafetyRule struct {
	Category  HarmCategory
	Threshold BlockThreshold
}

// DefaultSafety is applied to every request. It is not configurable per
// request.
var DefaultSafety = []SafetyRule{
	{HarmHarassment, BlockMediumAndAbove},
	{HarmHateSpeech, BlockMediumAndAbove},
	{HarmSexuallyExplicit, BlockMediumAndAbove},
	{HarmDangerousContent, BlockMediumAndAbove},
}

// GenerateOptions are per-call generation settings.
type GenerateOptions struct {
	Temperature     float32
	MaxOutputTokens int
	Safety          []SafetyRule
}

// Generation is the raw text a provider returned for one prompt.
type Generation struct {
	Text       string
	TokensUsed int
	Model      string
}

// Provider is one text generation backend.
type Provider interface {
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (*Generation, error)
	Model() string
}
