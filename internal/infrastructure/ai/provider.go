package ai

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrGenerationFailed = errors.New("ai generation failed")
	ErrEmptyResponse    = errors.New("ai returned an empty response")
)

// GenerationParams are optional sampling knobs. Nil means provider default.
type GenerationParams struct {
	Temperature *float64
	MaxTokens   *int
	TopP        *float64
}

type TextRequest struct {
	UserID       string
	SystemPrompt string
	Prompt       string
	Params       GenerationParams
	// JSON asks the model for a single JSON object as output
	JSON bool
}

type ImageRequest struct {
	UserID string
	Prompt string
	Width  int
	Height int
}

// Usage is what one call consumed.
type Usage struct {
	Provider         string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	EstimatedCostUSD decimal.Decimal
	Latency          time.Duration
}

type TextResult struct {
	Content string
	Usage   Usage
}

type ImageResult struct {
	Data     []byte
	MIMEType string
	Usage    Usage
}

// Provider is the AI model boundary. Implementations: Gemini, OpenAI.
type Provider interface {
	Name() string
	GenerateText(ctx context.Context, req TextRequest) (*TextResult, error)
	GenerateImage(ctx context.Context, req ImageRequest) (*ImageResult, error)
}

func float32Ptr(v *float64) *float32 {
	if v == nil {
		return nil
	}
	f := float32(*v)
	return &f
}

func float32Val(v *float64) float32 {
	if v == nil {
		return 0
	}
	return float32(*v)
}

func intVal(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
