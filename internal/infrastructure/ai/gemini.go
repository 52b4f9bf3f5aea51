package ai

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

const providerGemini = "gemini"

type GeminiProvider struct {
	client     *genai.Client
	model      string
	imageModel string
	pricing    Pricing
	timeout    time.Duration
}

var _ Provider = (*GeminiProvider)(nil)

func NewGeminiProvider(ctx context.Context, apiKey, model, imageModel string, pricing Pricing, timeout time.Duration) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client:     client,
		model:      model,
		imageModel: imageModel,
		pricing:    pricing,
		timeout:    timeout,
	}, nil
}

func (g *GeminiProvider) Name() string { return providerGemini }

func (g *GeminiProvider) GenerateText(ctx context.Context, req TextRequest) (*TextResult, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	genConfig := &genai.GenerateContentConfig{
		Temperature: float32Ptr(req.Params.Temperature),
		TopP:        float32Ptr(req.Params.TopP),
	}
	if req.Params.MaxTokens != nil {
		genConfig.MaxOutputTokens = int32(*req.Params.MaxTokens)
	}
	if req.SystemPrompt != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	if req.JSON {
		genConfig.ResponseMIMEType = "application/json"
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)},
		genConfig)
	took := time.Since(start)
	if err != nil {
		observeFailure(providerGemini, g.model, kindText, "error", took)
		log.Error().Err(err).Str("model", g.model).Str("user_id", req.UserID).Msg("Gemini generate failed")
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	text := resp.Text()
	if text == "" {
		observeFailure(providerGemini, g.model, kindText, "error_empty_response", took)
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, ErrEmptyResponse)
	}

	usage := Usage{Provider: providerGemini, Model: g.model, Latency: took}
	if md := resp.UsageMetadata; md != nil {
		usage.PromptTokens = int(md.PromptTokenCount)
		usage.CompletionTokens = int(md.CandidatesTokenCount)
		usage.TotalTokens = int(md.TotalTokenCount)
	}
	fillUsage(&usage, g.pricing, req.SystemPrompt+"\n"+req.Prompt, text)
	observeSuccess(kindText, usage)

	log.Debug().
		Str("model", g.model).
		Int("prompt_tokens", usage.PromptTokens).
		Int("completion_tokens", usage.CompletionTokens).
		Dur("latency", took).
		Msg("Gemini text generated")

	return &TextResult{Content: text, Usage: usage}, nil
}

func (g *GeminiProvider) GenerateImage(ctx context.Context, req ImageRequest) (*ImageResult, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	resp, err := g.client.Models.GenerateImages(ctx, g.imageModel, req.Prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		AspectRatio:    aspectRatio(req.Width, req.Height),
	})
	took := time.Since(start)
	if err != nil {
		observeFailure(providerGemini, g.imageModel, kindImage, "error", took)
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		observeFailure(providerGemini, g.imageModel, kindImage, "error_empty_response", took)
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, ErrEmptyResponse)
	}

	img := resp.GeneratedImages[0].Image
	usage := Usage{Provider: providerGemini, Model: g.imageModel, Latency: took}
	fillUsage(&usage, g.pricing, req.Prompt, "")
	observeSuccess(kindImage, usage)

	return &ImageResult{Data: img.ImageBytes, MIMEType: img.MIMEType, Usage: usage}, nil
}

// aspectRatio picks the Imagen ratio closest to width/height
func aspectRatio(width, height int) string {
	if width <= 0 || height <= 0 {
		return "1:1"
	}
	target := float64(width) / float64(height)
	ratios := []struct {
		name  string
		value float64
	}{
		{"1:1", 1}, {"3:4", 0.75}, {"4:3", 4.0 / 3}, {"9:16", 9.0 / 16}, {"16:9", 16.0 / 9},
	}

	best := ratios[0]
	for _, r := range ratios[1:] {
		if math.Abs(r.value-target) < math.Abs(best.value-target) {
			best = r
		}
	}
	return best.name
}
