package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
	log "github.com/sirupsen/logrus"

	"remsort/internal/identify"
	"remsort/internal/models"
)

// chatClient is the subset of the OpenAI client used here, kept narrow so
// tests can substitute a mock.
type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIBackend identifies recipient departments via an OpenAI-compatible
// chat completion API.
type OpenAIBackend struct {
	client  chatClient
	catalog identify.Catalog
	model   string

	maxRetries int
	timeout    time.Duration
	maxTextLen int
}

// NewOpenAIBackend builds a backend against the given API key. A custom base
// URL allows pointing at any OpenAI-compatible server.
func NewOpenAIBackend(apiKey, baseURL, model string, catalog identify.Catalog, maxRetries int, timeout time.Duration, maxTextLen int) (*OpenAIBackend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai backend: API key is not set")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIBackend{
		client:     openai.NewClientWithConfig(cfg),
		catalog:    catalog,
		model:      model,
		maxRetries: maxRetries,
		timeout:    timeout,
		maxTextLen: maxTextLen,
	}, nil
}

func (b *OpenAIBackend) Name() string { return "openai" }

// Identify asks the model for the recipient department. Transport errors are
// retried up to maxRetries attempts; after that the backend reports no
// opinion rather than an error, so the cascade can continue.
func (b *OpenAIBackend) Identify(ctx context.Context, text string) (identify.Result, error) {
	names := categoryNames(b.catalog)
	prompt := BuildPrompt(names, text, b.maxTextLen)

	var lastErr error
	for attempt := 1; attempt <= b.maxRetries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, b.timeout)
		resp, err := b.client.CreateChatCompletion(attemptCtx, openai.ChatCompletionRequest{
			Model:       b.model,
			Temperature: 0.1,
			MaxTokens:   200,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemInstruction},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
		})
		cancel()
		if err != nil {
			lastErr = err
			log.Warnf("openai attempt %d/%d failed: %v", attempt, b.maxRetries, err)
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("no choices returned")
			log.Warnf("openai attempt %d/%d: empty response", attempt, b.maxRetries)
			continue
		}
		return ParseReply(resp.Choices[0].Message.Content, names), nil
	}

	log.Errorf("openai backend gave up after %d attempts: %v", b.maxRetries, lastErr)
	return identify.NoOpinion(), nil
}

// Suggest proposes a new category for documents nothing registered covers.
func (b *OpenAIBackend) Suggest(ctx context.Context, texts []string) (models.Category, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	resp, err := b.client.CreateChatCompletion(attemptCtx, openai.ChatCompletionRequest{
		Model:       b.model,
		Temperature: 0.3,
		MaxTokens:   200,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: BuildSuggestionPrompt(categoryNames(b.catalog), texts, b.maxTextLen)},
		},
	})
	if err != nil {
		return models.Category{}, fmt.Errorf("suggestion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return models.Category{}, fmt.Errorf("suggestion request returned no choices")
	}
	return ParseSuggestion(resp.Choices[0].Message.Content)
}
