package ai

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyforge-backend/internal/config"
)

func TestPricingCost(t *testing.T) {
	p, err := NewPricing("0.001", "0.002")
	require.NoError(t, err)

	// 1500/1000*0.001 + 500/1000*0.002 = 0.0015 + 0.001
	assert.True(t, decimal.RequireFromString("0.0025").Equal(p.Cost(1500, 500)))
	assert.True(t, p.Cost(0, 0).IsZero())
}

func TestNewPricingRejectsGarbage(t *testing.T) {
	_, err := NewPricing("abc", "0.1")
	assert.Error(t, err)
}

func TestFillUsageKeepsProviderCounts(t *testing.T) {
	p, _ := NewPricing("1", "1")
	u := Usage{Model: "gpt-4o-mini", PromptTokens: 10, CompletionTokens: 20}
	fillUsage(&u, p, "ignored", "ignored")

	assert.Equal(t, 30, u.TotalTokens)
	assert.True(t, decimal.RequireFromString("0.03").Equal(u.EstimatedCostUSD))
}

func TestRoughTokens(t *testing.T) {
	assert.Equal(t, 0, roughTokens("   "))
	assert.Equal(t, 4, roughTokens("one two three"))
}

func TestAspectRatio(t *testing.T) {
	assert.Equal(t, "1:1", aspectRatio(0, 0))
	assert.Equal(t, "16:9", aspectRatio(1920, 1080))
	assert.Equal(t, "3:4", aspectRatio(768, 1024))
}

func TestImageSize(t *testing.T) {
	assert.Equal(t, "1792x1024", imageSize(1600, 900))
	assert.Equal(t, "1024x1792", imageSize(900, 1600))
	assert.Equal(t, "1024x1024", imageSize(512, 512))
}

func TestNewFromConfigWithoutKeyIsUnavailable(t *testing.T) {
	p, err := NewFromConfig(context.Background(), config.AIConfig{
		Provider:         "openai",
		InputPricePer1K:  "0.1",
		OutputPricePer1K: "0.2",
	})
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())
	assert.False(t, Configured(p))

	_, err = p.GenerateText(context.Background(), TextRequest{Prompt: "hi"})
	assert.ErrorIs(t, err, ErrNotConfigured)

	p, err = NewFromConfig(context.Background(), config.AIConfig{
		Provider:         "openai",
		OpenAIAPIKey:     "sk-test",
		InputPricePer1K:  "0.1",
		OutputPricePer1K: "0.2",
	})
	require.NoError(t, err)
	assert.True(t, Configured(p))

	_, err = NewFromConfig(context.Background(), config.AIConfig{Provider: "llama", InputPricePer1K: "0", OutputPricePer1K: "0"})
	assert.Error(t, err)
}
