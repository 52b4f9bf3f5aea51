package ai

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"github.com/shopspring/decimal"
)

var thousand = decimal.NewFromInt(1000)

// Pricing holds USD prices per 1K tokens.
type Pricing struct {
	InputPer1K  decimal.Decimal
	OutputPer1K decimal.Decimal
}

func NewPricing(inputPer1K, outputPer1K string) (Pricing, error) {
	in, err := decimal.NewFromString(inputPer1K)
	if err != nil {
		return Pricing{}, fmt.Errorf("invalid input price %q: %w", inputPer1K, err)
	}
	out, err := decimal.NewFromString(outputPer1K)
	if err != nil {
		return Pricing{}, fmt.Errorf("invalid output price %q: %w", outputPer1K, err)
	}
	return Pricing{InputPer1K: in, OutputPer1K: out}, nil
}

// Cost = prompt/1000*in + completion/1000*out, rounded to 8 places
func (p Pricing) Cost(promptTokens, completionTokens int) decimal.Decimal {
	input := decimal.NewFromInt(int64(promptTokens)).Mul(p.InputPer1K).Div(thousand)
	output := decimal.NewFromInt(int64(completionTokens)).Mul(p.OutputPer1K).Div(thousand)
	return input.Add(output).Round(8)
}

// EstimateTokens counts tokens with tiktoken when the provider response
// carries no usage block. Falls back to a word-based guess if no BPE
// encoding can be loaded.
func EstimateTokens(model, text string) int {
	if text == "" {
		return 0
	}
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
	}
	if err == nil {
		return len(enc.Encode(text, nil, nil))
	}
	return roughTokens(text)
}

// roughTokens: ~4 tokens per 3 words
func roughTokens(text string) int {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	return (words*4 + 2) / 3
}

// fillUsage completes prompt/completion counts and computes cost.
func fillUsage(u *Usage, pricing Pricing, prompt, completion string) {
	if u.PromptTokens == 0 {
		u.PromptTokens = EstimateTokens(u.Model, prompt)
	}
	if u.CompletionTokens == 0 {
		u.CompletionTokens = EstimateTokens(u.Model, completion)
	}
	if u.TotalTokens == 0 {
		u.TotalTokens = u.PromptTokens + u.CompletionTokens
	}
	u.EstimatedCostUSD = pricing.Cost(u.PromptTokens, u.CompletionTokens)
}
