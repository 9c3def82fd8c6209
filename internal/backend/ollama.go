package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"remsort/internal/identify"
	"remsort/internal/models"
)

// OllamaBackend identifies recipient departments via a locally running
// Ollama server using its /api/generate endpoint.
type OllamaBackend struct {
	httpClient *http.Client
	catalog    identify.Catalog
	endpoint   string
	model      string

	maxRetries int
	timeout    time.Duration
	maxTextLen int
}

// NewOllamaBackend builds a backend against an Ollama HTTP endpoint, for
// example http://localhost:11434.
func NewOllamaBackend(endpoint, model string, catalog identify.Catalog, maxRetries int, timeout time.Duration, maxTextLen int) (*OllamaBackend, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("ollama backend: endpoint is not set")
	}
	return &OllamaBackend{
		httpClient: &http.Client{},
		catalog:    catalog,
		endpoint:   endpoint,
		model:      model,
		maxRetries: maxRetries,
		timeout:    timeout,
		maxTextLen: maxTextLen,
	}, nil
}

func (b *OllamaBackend) Name() string { return "ollama" }

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system,omitempty"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

func (b *OllamaBackend) Identify(ctx context.Context, text string) (identify.Result, error) {
	names := categoryNames(b.catalog)
	prompt := BuildPrompt(names, text, b.maxTextLen)

	body, err := json.Marshal(ollamaRequest{
		Model:  b.model,
		Prompt: prompt,
		System: systemInstruction,
		Stream: false,
	})
	if err != nil {
		return identify.NoOpinion(), fmt.Errorf("failed to encode ollama request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= b.maxRetries; attempt++ {
		reply, err := b.generate(ctx, body)
		if err != nil {
			lastErr = err
			log.Warnf("ollama attempt %d/%d failed: %v", attempt, b.maxRetries, err)
			continue
		}
		return ParseReply(reply, names), nil
	}

	log.Errorf("ollama backend gave up after %d attempts: %v", b.maxRetries, lastErr)
	return identify.NoOpinion(), nil
}

// Suggest proposes a new category for documents nothing registered covers.
func (b *OllamaBackend) Suggest(ctx context.Context, texts []string) (models.Category, error) {
	body, err := json.Marshal(ollamaRequest{
		Model:  b.model,
		Prompt: BuildSuggestionPrompt(categoryNames(b.catalog), texts, b.maxTextLen),
		System: systemInstruction,
		Stream: false,
	})
	if err != nil {
		return models.Category{}, fmt.Errorf("failed to encode ollama request: %w", err)
	}
	reply, err := b.generate(ctx, body)
	if err != nil {
		return models.Category{}, fmt.Errorf("suggestion request failed: %w", err)
	}
	return ParseSuggestion(reply)
}

func (b *OllamaBackend) generate(ctx context.Context, body []byte) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, b.endpoint+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, string(snippet))
	}

	var parsed ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode ollama response: %w", err)
	}
	if parsed.Response == "" {
		return "", fmt.Errorf("empty response")
	}
	return parsed.Response, nil
}
