package backend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"remsort/internal/identify"
	"remsort/internal/models"
)

// GeminiBackend identifies recipient departments via the Google Gemini API.
type GeminiBackend struct {
	client  *genai.Client
	catalog identify.Catalog
	model   string

	maxRetries int
	timeout    time.Duration
	maxTextLen int
}

// NewGeminiBackend builds a Gemini-based backend.
func NewGeminiBackend(apiKey, model string, catalog identify.Catalog, maxRetries int, timeout time.Duration, maxTextLen int) (*GeminiBackend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini backend: API key is not set")
	}
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiBackend{
		client:     client,
		catalog:    catalog,
		model:      model,
		maxRetries: maxRetries,
		timeout:    timeout,
		maxTextLen: maxTextLen,
	}, nil
}

func (b *GeminiBackend) Name() string { return "gemini" }

func (b *GeminiBackend) Identify(ctx context.Context, text string) (identify.Result, error) {
	names := categoryNames(b.catalog)
	prompt := BuildPrompt(names, text, b.maxTextLen)

	gm := b.client.GenerativeModel(b.model)
	gm.SetTemperature(0.1)
	gm.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemInstruction)}}

	var lastErr error
	for attempt := 1; attempt <= b.maxRetries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, b.timeout)
		resp, err := gm.GenerateContent(attemptCtx, genai.Text(prompt))
		cancel()
		if err != nil {
			lastErr = err
			log.Warnf("gemini attempt %d/%d failed: %v", attempt, b.maxRetries, err)
			continue
		}
		reply := collectText(resp)
		if reply == "" {
			lastErr = fmt.Errorf("empty response")
			log.Warnf("gemini attempt %d/%d: empty response", attempt, b.maxRetries)
			continue
		}
		return ParseReply(reply, names), nil
	}

	log.Errorf("gemini backend gave up after %d attempts: %v", b.maxRetries, lastErr)
	return identify.NoOpinion(), nil
}

// Suggest proposes a new category for documents nothing registered covers.
func (b *GeminiBackend) Suggest(ctx context.Context, texts []string) (models.Category, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	gm := b.client.GenerativeModel(b.model)
	gm.SetTemperature(0.3)
	gm.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemInstruction)}}

	resp, err := gm.GenerateContent(attemptCtx, genai.Text(BuildSuggestionPrompt(categoryNames(b.catalog), texts, b.maxTextLen)))
	if err != nil {
		return models.Category{}, fmt.Errorf("suggestion request failed: %w", err)
	}
	reply := collectText(resp)
	if reply == "" {
		return models.Category{}, fmt.Errorf("suggestion request returned no text")
	}
	return ParseSuggestion(reply)
}

// Close releases the underlying client connection.
func (b *GeminiBackend) Close() error {
	return b.client.Close()
}

func collectText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
	}
	return strings.TrimSpace(sb.String())
}
