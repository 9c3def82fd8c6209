package backend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remsort/internal/identify"
	"remsort/internal/models"
)

type mockChatClient struct {
	mockResponse openai.ChatCompletionResponse
	mockError    error
	calls        int
}

func (m *mockChatClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	m.calls++
	if m.mockError != nil {
		return openai.ChatCompletionResponse{}, m.mockError
	}
	return m.mockResponse, nil
}

type staticCatalog struct {
	cats []models.Category
}

func (s *staticCatalog) Categories() []models.Category { return s.cats }
func (s *staticCatalog) Version() uint64               { return 1 }

func newTestOpenAIBackend(client chatClient) *OpenAIBackend {
	return &OpenAIBackend{
		client: client,
		catalog: &staticCatalog{cats: []models.Category{
			{Name: "Ortopedi", Keywords: []string{"knä"}},
			{Name: "Kardiologi", Keywords: []string{"hjärta"}},
		}},
		model:      "gpt-test",
		maxRetries: 3,
		timeout:    time.Second,
		maxTextLen: 1000,
	}
}

func TestOpenAIIdentifyParsesReply(t *testing.T) {
	client := &mockChatClient{
		mockResponse: openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{
					Content: "Category: Kardiologi\nConfidence: 85%\nRationale: bröstsmärta",
				},
			}},
		},
	}
	b := newTestOpenAIBackend(client)

	res, err := b.Identify(context.Background(), "patient med bröstsmärta")
	require.NoError(t, err)
	assert.Equal(t, "Kardiologi", res.Category)
	assert.Equal(t, 85.0, res.Confidence)
	assert.Equal(t, 1, client.calls)
}

func TestOpenAIIdentifyExhaustsRetries(t *testing.T) {
	client := &mockChatClient{mockError: errors.New("api down")}
	b := newTestOpenAIBackend(client)

	res, err := b.Identify(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, identify.NoOpinion(), res)
	assert.Equal(t, 3, client.calls)
}

func TestOpenAISuggest(t *testing.T) {
	client := &mockChatClient{
		mockResponse: openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{
					Content: "Name: Reumatologi\nKeywords: reumatism, artrit",
				},
			}},
		},
	}
	b := newTestOpenAIBackend(client)

	cat, err := b.Suggest(context.Background(), []string{"ledvärk i flera leder"})
	require.NoError(t, err)
	assert.Equal(t, "Reumatologi", cat.Name)
	assert.Equal(t, []string{"reumatism", "artrit"}, cat.Keywords)
}
