package summarizer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sashabaranov/go-openai"
)

// Provider names accepted by NewCompleter.
const (
	ProviderOpenRouter = "openrouter"
	ProviderAnthropic  = "anthropic"
)

// OpenRouterBaseURL is the OpenAI-compatible endpoint used by default.
const OpenRouterBaseURL = "https://openrouter.ai/api/v1"

const anthropicMaxTokens = 1024

// Completer sends a single prompt to a language model and returns its reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ProviderConfig holds the settings shared by every provider.
type ProviderConfig struct {
	APIKey      string
	Model       string
	Temperature float64
	// BaseURL overrides the provider endpoint. Empty means the provider default.
	BaseURL    string
	HTTPClient *http.Client
}

// NewCompleter creates a Completer for the named provider.
func NewCompleter(provider string, cfg ProviderConfig) (Completer, error) {
	switch provider {
	case ProviderOpenRouter, "":
		return NewOpenRouter(cfg), nil
	case ProviderAnthropic:
		return NewAnthropic(cfg), nil
	}
	return nil, fmt.Errorf("unknown provider %q", provider)
}

type openAICompleter struct {
	client      *openai.Client
	model       string
	temperature float32
}

// NewOpenRouter creates a Completer backed by an OpenAI-compatible chat
// completions API, OpenRouter unless cfg.BaseURL says otherwise.
func NewOpenRouter(cfg ProviderConfig) Completer {
	config := openai.DefaultConfig(cfg.APIKey)
	config.BaseURL = OpenRouterBaseURL
	if cfg.BaseURL != "" {
		config.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		config.HTTPClient = cfg.HTTPClient
	}
	return &openAICompleter{
		client:      openai.NewClientWithConfig(config),
		model:       cfg.Model,
		temperature: float32(cfg.Temperature),
	}
}

func (o *openAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: o.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("calling chat completions API: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty response from chat completions API")
	}
	return resp.Choices[0].Message.Content, nil
}

type anthropicCompleter struct {
	client      anthropic.Client
	model       string
	temperature float64
}

// NewAnthropic creates a Completer backed by the Anthropic Messages API.
// An OpenRouter-style "anthropic/" prefix on the model name is dropped.
func NewAnthropic(cfg ProviderConfig) Completer {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	return &anthropicCompleter{
		client:      anthropic.NewClient(opts...),
		model:       strings.TrimPrefix(cfg.Model, "anthropic/"),
		temperature: cfg.Temperature,
	}
}

func (a *anthropicCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   anthropicMaxTokens,
		Temperature: anthropic.Float(a.temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("calling Anthropic API: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", errors.New("empty response from Anthropic API")
	}
	return text.String(), nil
}
