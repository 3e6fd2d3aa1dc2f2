package ai

import (
	"fmt"

	"github.com/ARYAN-9099/whatsapp-bot-public/logging"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Config selects the chat endpoint and sampling parameters.
type Config struct {
	BaseURL     string
	Token       string
	Model       string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Bot is a client for the chat model.
type Bot struct {
	llm         llms.Model
	modelName   string
	prompt      string
	temperature float64
	maxTokens   int
	logger      *logging.Logger
}

// Setup creates a Bot talking to an OpenAI-compatible endpoint.
func Setup(cfg Config, logger *logging.Logger) (*Bot, error) {
	if logger == nil {
		logger = logging.Default()
	}

	logger.Info("setting up chat LLM", "model", cfg.Model, "path", cfg.BaseURL)

	var opts []openai.Option
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	// self-hosted OpenAI-compatible servers ignore the key but the client requires one
	token := cfg.Token
	if token == "" {
		token = "none"
	}
	opts = append(opts, openai.WithToken(token))
	if cfg.Model != "" {
		opts = append(opts, openai.WithModel(cfg.Model))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		logger.Error("failed to create OpenAI LLM", "error", err.Error())
		return nil, fmt.Errorf("failed to create OpenAI LLM: %w", err)
	}

	return NewBot(llm, cfg, logger), nil
}

// NewBot wraps an existing model. Zero values in cfg take the package defaults.
func NewBot(llm llms.Model, cfg Config, logger *logging.Logger) *Bot {
	if logger == nil {
		logger = logging.Default()
	}
	b := &Bot{
		llm:         llm,
		modelName:   cfg.Model,
		prompt:      cfg.Prompt,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      logger.Component("ai"),
	}
	if b.prompt == "" {
		b.prompt = DefaultPrompt
	}
	if b.temperature == 0 {
		b.temperature = DefaultTemperature
	}
	if b.maxTokens == 0 {
		b.maxTokens = DefaultMaxTokens
	}
	return b
}
