package imagegen

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/ARYAN-9099/whatsapp-bot-public/metrics"
	"github.com/sashabaranov/go-openai"
)

// OpenAI generates images with the OpenAI images API.
type OpenAI struct {
	client *openai.Client
	model  string
	size   string
}

// NewOpenAI builds a generator. baseURL may point at any OpenAI-compatible server; empty
// keeps the public API.
func NewOpenAI(apiKey, baseURL, model string) *OpenAI {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if model == "" {
		model = openai.CreateImageModelDallE3
	}
	return &OpenAI{
		client: openai.NewClientWithConfig(config),
		model:  model,
		size:   openai.CreateImageSize1024x1024,
	}
}

// Generate implements Generator.
func (o *OpenAI) Generate(ctx context.Context, prompt string) (image []byte, err error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}
	defer func() { metrics.ObserveUpstream("openai_images", err) }()

	resp, err := o.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          o.model,
		N:              1,
		Size:           o.size,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return nil, fmt.Errorf("openai image generation failed: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, ErrNoImage
	}

	image, err = base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return image, nil
}
