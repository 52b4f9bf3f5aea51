package ai

import (
	"context"
	"errors"
	"fmt"

	"storyforge-backend/internal/config"
)

var ErrNotConfigured = errors.New("ai provider is not configured")

// NewFromConfig chọn provider theo AI_PROVIDER. Thiếu API key thì trả
// provider luôn lỗi ErrNotConfigured, để API vẫn khởi động được ở local.
func NewFromConfig(ctx context.Context, cfg config.AIConfig) (Provider, error) {
	pricing, err := NewPricing(cfg.InputPricePer1K, cfg.OutputPricePer1K)
	if err != nil {
		return nil, err
	}

	switch cfg.Provider {
	case providerGemini:
		if cfg.GeminiAPIKey == "" {
			return unavailable{name: providerGemini}, nil
		}
		return NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiImageModel, pricing, cfg.Timeout)
	case providerOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return unavailable{name: providerOpenAI}, nil
		}
		return NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIImageModel, pricing, cfg.Timeout), nil
	}
	return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
}

// Configured cho biết provider có gọi được upstream hay không
func Configured(p Provider) bool {
	_, off := p.(unavailable)
	return !off
}

type unavailable struct {
	name string
}

func (u unavailable) Name() string { return u.name }

func (u unavailable) GenerateText(context.Context, TextRequest) (*TextResult, error) {
	return nil, fmt.Errorf("%s: %w", u.name, ErrNotConfigured)
}

func (u unavailable) GenerateImage(context.Context, ImageRequest) (*ImageResult, error) {
	return nil, fmt.Errorf("%s: %w", u.name, ErrNotConfigured)
}
