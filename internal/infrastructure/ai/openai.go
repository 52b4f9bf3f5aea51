package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	openaigo "github.com/sashabaranov/go-openai"
)

const providerOpenAI = "openai"

type OpenAIProvider struct {
	client     *openaigo.Client
	model      string
	imageModel string
	pricing    Pricing
	timeout    time.Duration
}

var _ Provider = (*OpenAIProvider)(nil)

func NewOpenAIProvider(apiKey, model, imageModel string, pricing Pricing, timeout time.Duration) *OpenAIProvider {
	return &OpenAIProvider{
		client:     openaigo.NewClient(apiKey),
		model:      model,
		imageModel: imageModel,
		pricing:    pricing,
		timeout:    timeout,
	}
}

func (o *OpenAIProvider) Name() string { return providerOpenAI }

func (o *OpenAIProvider) GenerateText(ctx context.Context, req TextRequest) (*TextResult, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	messages := make([]openaigo.ChatCompletionMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, openaigo.ChatCompletionMessage{
			Role:    openaigo.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	messages = append(messages, openaigo.ChatCompletionMessage{
		Role:    openaigo.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	chatReq := openaigo.ChatCompletionRequest{
		Model:       o.model,
		Messages:    messages,
		Temperature: float32Val(req.Params.Temperature),
		MaxTokens:   intVal(req.Params.MaxTokens),
		TopP:        float32Val(req.Params.TopP),
	}
	if req.JSON {
		chatReq.ResponseFormat = &openaigo.ChatCompletionResponseFormat{
			Type: openaigo.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	start := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, chatReq)
	took := time.Since(start)
	if err != nil {
		observeFailure(providerOpenAI, o.model, kindText, "error", took)
		log.Error().Err(err).Str("model", o.model).Str("user_id", req.UserID).Msg("OpenAI chat completion failed")
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		observeFailure(providerOpenAI, o.model, kindText, "error_empty_response", took)
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, ErrEmptyResponse)
	}

	text := resp.Choices[0].Message.Content
	usage := Usage{
		Provider:         providerOpenAI,
		Model:            o.model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
		Latency:          took,
	}
	fillUsage(&usage, o.pricing, req.SystemPrompt+"\n"+req.Prompt, text)
	observeSuccess(kindText, usage)

	return &TextResult{Content: text, Usage: usage}, nil
}

func (o *OpenAIProvider) GenerateImage(ctx context.Context, req ImageRequest) (*ImageResult, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	resp, err := o.client.CreateImage(ctx, openaigo.ImageRequest{
		Prompt:         req.Prompt,
		Model:          o.imageModel,
		N:              1,
		Size:           imageSize(req.Width, req.Height),
		ResponseFormat: openaigo.CreateImageResponseFormatB64JSON,
		User:           req.UserID,
	})
	took := time.Since(start)
	if err != nil {
		observeFailure(providerOpenAI, o.imageModel, kindImage, "error", took)
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		observeFailure(providerOpenAI, o.imageModel, kindImage, "error_empty_response", took)
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, ErrEmptyResponse)
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		observeFailure(providerOpenAI, o.imageModel, kindImage, "error_decode", took)
		return nil, fmt.Errorf("%w: decode image: %v", ErrGenerationFailed, err)
	}

	usage := Usage{Provider: providerOpenAI, Model: o.imageModel, Latency: took}
	fillUsage(&usage, o.pricing, req.Prompt, "")
	observeSuccess(kindImage, usage)

	return &ImageResult{Data: data, MIMEType: "image/png", Usage: usage}, nil
}

// imageSize maps the requested box to the nearest DALL-E size
func imageSize(width, height int) string {
	switch {
	case width > height:
		return openaigo.CreateImageSize1792x1024
	case height > width:
		return openaigo.CreateImageSize1024x1792
	default:
		return openaigo.CreateImageSize1024x1024
	}
}
