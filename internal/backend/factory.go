package backend

import (
	"fmt"

	"remsort/internal/config"
	"remsort/internal/identify"
)

// NewFactory returns a Factory that builds backends from configuration.
// Construction is deferred until a backend is activated, so missing API keys
// only matter for the backend actually in use.
func NewFactory(cfg *config.Config, catalog identify.Catalog) Factory {
	return func(name string) (Backend, error) {
		b := cfg.Backend
		timeout := cfg.BackendTimeout()
		switch name {
		case "openai":
			return NewOpenAIBackend(b.OpenAI.APIKey, b.OpenAI.BaseURL, b.OpenAI.Model, catalog, b.MaxRetries, timeout, b.MaxTextLength)
		case "gemini":
			return NewGeminiBackend(b.Gemini.APIKey, b.Gemini.Model, catalog, b.MaxRetries, timeout, b.MaxTextLength)
		case "ollama":
			return NewOllamaBackend(b.Ollama.Endpoint, b.Ollama.Model, catalog, b.MaxRetries, timeout, b.MaxTextLength)
		case "embedding":
			return NewEmbeddingBackend(b.Embedding.APIKey, b.Embedding.BaseURL, b.Embedding.Model, catalog, timeout, b.MaxTextLength)
		case "onnx":
			return NewONNXBackend(b.ONNX.ModelPath, b.ONNX.VocabPath, b.ONNX.LibraryPath, catalog, b.ONNX.MaxTokens)
		default:
			return nil, fmt.Errorf("unknown backend %q", name)
		}
	}
}
