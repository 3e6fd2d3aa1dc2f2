package ai

import (
	"context"
	"fmt"

	"github.com/ARYAN-9099/whatsapp-bot-public/metrics"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
)

// Ask sends prompt to the model and returns the reply formatted for WhatsApp.
func (b *Bot) Ask(ctx context.Context, prompt string) (string, error) {
	logger := b.logger.WithContext(ctx)
	logger.Debug("calling LLM", "model", b.modelName, "promptLength", len(prompt))

	messageHistory := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, b.prompt),
		llms.TextParts(schema.ChatMessageTypeHuman, prompt),
	}

	resp, err := b.llm.GenerateContent(ctx, messageHistory,
		llms.WithCandidateCount(1),
		llms.WithMaxTokens(b.maxTokens),
		llms.WithTemperature(b.temperature))
	if err != nil {
		logger.Error("failed to get LLM response", "error", err.Error())
		metrics.FailedLLMGen.Add(1)
		metrics.ObserveUpstream("llm", err)
		return "", fmt.Errorf("failed to get llm response: %w", err)
	}
	metrics.ObserveUpstream("llm", nil)

	if resp == nil || len(resp.Choices) == 0 {
		logger.Warn("LLM returned no choices")
		metrics.EmptyLLMResponse.Add(1)
		return "", ErrNoResponse
	}

	reply := FormatForWhatsApp(resp.Choices[0].Content)
	if reply == "" {
		logger.Warn("empty response from LLM")
		metrics.EmptyLLMResponse.Add(1)
		return "", ErrNoResponse
	}

	logger.Debug("successful response generation", "responseLength", len(reply))
	metrics.SuccessfulLLMGen.Add(1)
	return reply, nil
}
