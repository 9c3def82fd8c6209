package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remsort/internal/identify"
	"remsort/internal/models"
)

var parseCategories = []string{"Ortopedi", "Kardiologi", "Neurologi"}

func TestParseReply(t *testing.T) {
	tests := []struct {
		name           string
		reply          string
		wantCategory   string
		wantConfidence float64
	}{
		{
			name:           "well formed",
			reply:          "Category: Kardiologi\nConfidence: 85%\nRationale: chest pain",
			wantCategory:   "Kardiologi",
			wantConfidence: 85,
		},
		{
			name:           "swedish labels",
			reply:          "Verksamhet: Neurologi\nSannolikhet: 72%\nMotivering: misstänkt stroke",
			wantCategory:   "Neurologi",
			wantConfidence: 72,
		},
		{
			name:           "missing confidence defaults",
			reply:          "Category: Ortopedi\nRationale: knee",
			wantCategory:   "Ortopedi",
			wantConfidence: 75,
		},
		{
			name:           "out of range confidence defaults",
			reply:          "Category: Ortopedi\nConfidence: 140%",
			wantCategory:   "Ortopedi",
			wantConfidence: 75,
		},
		{
			name:           "zero confidence coerced to unsure",
			reply:          "Category: Kardiologi\nConfidence: 0%",
			wantCategory:   "Kardiologi",
			wantConfidence: 50,
		},
		{
			name:           "case insensitive category",
			reply:          "Category: kardiologi\nConfidence: 60%",
			wantCategory:   "Kardiologi",
			wantConfidence: 60,
		},
		{
			name:           "misspelled category fuzzy corrected",
			reply:          "Category: Kardiolog\nConfidence: 60%",
			wantCategory:   "Kardiologi",
			wantConfidence: 60,
		},
		{
			name:           "unrecognizable category falls back to first",
			reply:          "Category: zzzzqqq\nConfidence: 60%",
			wantCategory:   "Ortopedi",
			wantConfidence: 60,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ParseReply(tt.reply, parseCategories)
			assert.Equal(t, tt.wantCategory, res.Category)
			assert.Equal(t, tt.wantConfidence, res.Confidence)
			assert.Equal(t, identify.SourceExternalModel, res.Source)
		})
	}
}

func TestParseReplyMissingCategory(t *testing.T) {
	res := ParseReply("Confidence: 90%\nRationale: no idea", parseCategories)
	assert.Equal(t, identify.NoOpinion(), res)
}

func TestParseReplyKeepsRationale(t *testing.T) {
	res := ParseReply("Category: Ortopedi\nConfidence: 80%\nRationale: knäartros nämns", parseCategories)
	assert.Equal(t, "knäartros nämns", res.Rationale)
}

func TestParseSuggestion(t *testing.T) {
	cat, err := ParseSuggestion("Name: Reumatologi\nKeywords: reumatism, ledvärk, artrit")
	require.NoError(t, err)
	assert.Equal(t, "Reumatologi", cat.Name)
	assert.Equal(t, []string{"reumatism", "ledvärk", "artrit"}, cat.Keywords)
}

func TestParseSuggestionIncomplete(t *testing.T) {
	_, err := ParseSuggestion("Name: Reumatologi")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, similarity("abc", "abc"))
	assert.InDelta(t, 0.9, similarity("kardiologi", "kardiolog"), 1e-9)
	assert.Less(t, similarity("zzzzqqq", "ortopedi"), fuzzyCutoff)
}
