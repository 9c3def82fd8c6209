package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"remsort/internal/identify"
	"remsort/internal/models"
)

// stubIdentifier records whether it was consulted and returns a fixed
// result or error.
type stubIdentifier struct {
	result identify.Result
	err    error
	called bool
}

func (s *stubIdentifier) Identify(ctx context.Context, text string) (identify.Result, error) {
	s.called = true
	return s.result, s.err
}

func opinion(category string, confidence float64, source identify.Source) identify.Result {
	return identify.Result{Category: category, Confidence: confidence, Source: source}
}

func TestClassifyExternalAcceptedStopsCascade(t *testing.T) {
	external := &stubIdentifier{result: opinion("Kardiologi", 85, identify.SourceExternalModel)}
	phrases := &stubIdentifier{}
	statistical := &stubIdentifier{}
	keywords := &stubIdentifier{}
	svc := NewClassifyService(external, phrases, statistical, keywords, 70, 70)

	res := svc.Classify(context.Background(), "remiss angående bröstsmärta")
	assert.Equal(t, "Kardiologi", res.Category)
	assert.Equal(t, identify.SourceExternalModel, res.Source)
	assert.False(t, phrases.called)
	assert.False(t, statistical.called)
	assert.False(t, keywords.called)
}

func TestClassifyExternalAtThresholdFallsThrough(t *testing.T) {
	// Acceptance is strictly greater than the threshold.
	external := &stubIdentifier{result: opinion("Kardiologi", 70, identify.SourceExternalModel)}
	phrases := &stubIdentifier{result: opinion("Ortopedi", 95, identify.SourcePhraseMatch)}
	svc := NewClassifyService(external, phrases, &stubIdentifier{}, &stubIdentifier{}, 70, 70)

	res := svc.Classify(context.Background(), "remiss till ortopedi, knä")
	assert.Equal(t, "Ortopedi", res.Category)
	assert.True(t, phrases.called)
}

func TestClassifyNoBackendSkipsSilently(t *testing.T) {
	external := &stubIdentifier{err: models.ErrNoBackend}
	phrases := &stubIdentifier{result: opinion("Neurologi", 95, identify.SourcePhraseMatch)}
	svc := NewClassifyService(external, phrases, &stubIdentifier{}, &stubIdentifier{}, 70, 70)

	res := svc.Classify(context.Background(), "remiss till neurologimottagningen")
	assert.True(t, external.called)
	assert.Equal(t, "Neurologi", res.Category)
}

func TestClassifyExternalErrorContinuesCascade(t *testing.T) {
	external := &stubIdentifier{err: errors.New("connection refused")}
	phrases := &stubIdentifier{result: opinion("Gynekologi", 95, identify.SourcePhraseMatch)}
	svc := NewClassifyService(external, phrases, &stubIdentifier{}, &stubIdentifier{}, 70, 70)

	res := svc.Classify(context.Background(), "remiss till gynekologi")
	assert.Equal(t, "Gynekologi", res.Category)
}

func TestClassifyPhraseOpinionIsTerminal(t *testing.T) {
	// The phrase matcher's answer stands even below the external threshold.
	phrases := &stubIdentifier{result: opinion("Urologi", 90, identify.SourceClinicMatch)}
	statistical := &stubIdentifier{result: opinion("Kardiologi", 99, identify.SourceStatistical)}
	svc := NewClassifyService(nil, phrases, statistical, &stubIdentifier{}, 70, 70)

	res := svc.Classify(context.Background(), "urologimottagningen")
	assert.Equal(t, "Urologi", res.Category)
	assert.False(t, statistical.called)
}

func TestClassifyStatisticalNotTrainedFallsThrough(t *testing.T) {
	statistical := &stubIdentifier{err: models.ErrNotTrained}
	keywords := &stubIdentifier{result: opinion("Dermatologi", 45, identify.SourceKeywordFallback)}
	svc := NewClassifyService(nil, &stubIdentifier{}, statistical, keywords, 70, 70)

	res := svc.Classify(context.Background(), "eksem och psoriasis")
	assert.True(t, statistical.called)
	assert.Equal(t, "Dermatologi", res.Category)
}

func TestClassifyStatisticalBelowAcceptFallsThrough(t *testing.T) {
	statistical := &stubIdentifier{result: opinion("Kirurgi", 60, identify.SourceStatistical)}
	keywords := &stubIdentifier{result: opinion("Kirurgi", 45, identify.SourceKeywordFallback)}
	svc := NewClassifyService(nil, &stubIdentifier{}, statistical, keywords, 70, 70)

	res := svc.Classify(context.Background(), "planerad operation")
	assert.Equal(t, identify.SourceKeywordFallback, res.Source)
	assert.Equal(t, 45.0, res.Confidence)
}

func TestClassifyKeywordResultReturnedEvenWhenUnknown(t *testing.T) {
	keywords := &stubIdentifier{result: identify.NoOpinion()}
	svc := NewClassifyService(nil, &stubIdentifier{}, &stubIdentifier{}, keywords, 70, 70)

	res := svc.Classify(context.Background(), "helt omatchad text")
	assert.Equal(t, identify.Unknown, res.Category)
	assert.Equal(t, 0.0, res.Confidence)
}

func TestClassifyEmptyTextSkipsAllStages(t *testing.T) {
	external := &stubIdentifier{}
	svc := NewClassifyService(external, external, external, external, 70, 70)

	res := svc.Classify(context.Background(), "   \n\t ")
	assert.Equal(t, identify.Unknown, res.Category)
	assert.False(t, external.called)
}

func TestClassifyIdempotent(t *testing.T) {
	keywords := &stubIdentifier{result: opinion("Ortopedi", 60, identify.SourceKeywordFallback)}
	svc := NewClassifyService(nil, &stubIdentifier{}, &stubIdentifier{}, keywords, 70, 70)

	text := "ont i knät och höften"
	first := svc.Classify(context.Background(), text)
	second := svc.Classify(context.Background(), text)
	assert.Equal(t, first, second)
}

func TestClassifyNormalizesMalformedStageResult(t *testing.T) {
	// A stage reporting unknown with nonzero confidence must come out
	// normalized: unknown means zero.
	external := &stubIdentifier{result: identify.Result{Category: identify.Unknown, Confidence: 80}}
	keywords := &stubIdentifier{result: identify.NoOpinion()}
	svc := NewClassifyService(external, nil, nil, keywords, 70, 70)

	res := svc.Classify(context.Background(), "text")
	assert.Equal(t, identify.Unknown, res.Category)
	assert.Equal(t, 0.0, res.Confidence)
}
