package backend

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/sashabaranov/go-openai"
	log "github.com/sirupsen/logrus"

	"remsort/internal/identify"
	"remsort/internal/models"
)

// embeddingClient is the subset of the OpenAI client used for embeddings.
type embeddingClient interface {
	CreateEmbeddings(ctx context.Context, req openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// EmbeddingBackend identifies documents by embedding the text and each
// category description, then picking the category with the highest cosine
// similarity. Category embeddings are cached and recomputed when the
// catalog version changes.
type EmbeddingBackend struct {
	client  embeddingClient
	catalog identify.Catalog
	model   openai.EmbeddingModel

	timeout    time.Duration
	maxTextLen int

	mu         sync.Mutex
	cachedFor  uint64
	categories []models.Category
	vectors    [][]float32
}

// NewEmbeddingBackend builds an embedding-similarity backend.
func NewEmbeddingBackend(apiKey, baseURL, model string, catalog identify.Catalog, timeout time.Duration, maxTextLen int) (*EmbeddingBackend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("embedding backend: API key is not set")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &EmbeddingBackend{
		client:     openai.NewClientWithConfig(cfg),
		catalog:    catalog,
		model:      openai.EmbeddingModel(model),
		timeout:    timeout,
		maxTextLen: maxTextLen,
	}, nil
}

func (b *EmbeddingBackend) Name() string { return "embedding" }

func (b *EmbeddingBackend) Identify(ctx context.Context, text string) (identify.Result, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	cats, vectors, err := b.categoryVectors(attemptCtx)
	if err != nil {
		log.Errorf("embedding backend: category vectors unavailable: %v", err)
		return identify.NoOpinion(), nil
	}
	if len(cats) == 0 {
		return identify.NoOpinion(), nil
	}

	docVec, err := b.embed(attemptCtx, []string{identify.TruncateSentences(text, b.maxTextLen)})
	if err != nil {
		log.Errorf("embedding backend: failed to embed document: %v", err)
		return identify.NoOpinion(), nil
	}

	bestIdx, bestSim := -1, -1.0
	for i, vec := range vectors {
		sim := cosineSimilarity(docVec[0], vec)
		if sim > bestSim {
			bestIdx, bestSim = i, sim
		}
	}
	if bestIdx < 0 {
		return identify.NoOpinion(), nil
	}

	res := identify.Result{
		Category:   cats[bestIdx].Name,
		Confidence: (bestSim + 1) * 50,
		Source:     identify.SourceExternalModel,
		Rationale:  fmt.Sprintf("cosine similarity %.3f against category description", bestSim),
	}
	return res.Normalize(), nil
}

// categoryVectors returns cached category embeddings, refreshing them when
// the catalog has changed since the last call.
func (b *EmbeddingBackend) categoryVectors(ctx context.Context) ([]models.Category, [][]float32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	version := b.catalog.Version()
	if b.vectors != nil && b.cachedFor == version {
		return b.categories, b.vectors, nil
	}

	cats := b.catalog.Categories()
	descriptions := make([]string, len(cats))
	for i, c := range cats {
		kws := c.Keywords
		if len(kws) > 5 {
			kws = kws[:5]
		}
		descriptions[i] = c.Name + ": " + strings.Join(kws, ", ")
	}

	vectors, err := b.embed(ctx, descriptions)
	if err != nil {
		return nil, nil, err
	}

	b.cachedFor = version
	b.categories = cats
	b.vectors = vectors
	return cats, vectors, nil
}

func (b *EmbeddingBackend) embed(ctx context.Context, inputs []string) ([][]float32, error) {
	resp, err := b.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: inputs,
		Model: b.model,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(inputs) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(inputs), len(resp.Data))
	}
	vectors := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return -1
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return -1
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
