package identify

import (
	"context"

	"remsort/internal/models"
)

// Unknown is the sentinel category for "no opinion". A result carrying it
// always carries confidence 0, and vice versa.
const Unknown = "unknown"

// Source identifies which strategy produced a result.
type Source string

const (
	SourcePhraseMatch     Source = "phrase-match"
	SourceClinicMatch     Source = "clinic-match"
	SourceStatistical     Source = "statistical"
	SourceExternalModel   Source = "external-model"
	SourceKeywordFallback Source = "keyword-fallback"
)

// Result is the outcome of one identification attempt. Confidence is a
// 0-100 score; Rationale is free text kept for auditing.
type Result struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Source     Source  `json:"source"`
	Rationale  string  `json:"rationale,omitempty"`
}

// Identifier is the uniform contract every strategy satisfies.
type Identifier interface {
	Identify(ctx context.Context, text string) (Result, error)
}

// Catalog exposes the registered categories to strategies. Version changes
// whenever the category set changes, so cached derivations (embeddings,
// trained category indices) can be invalidated lazily.
type Catalog interface {
	Categories() []models.Category
	Version() uint64
}

// NoOpinion is the canonical "no opinion" result.
func NoOpinion() Result {
	return Result{Category: Unknown, Confidence: 0}
}

// Normalize clamps confidence to [0,100] and enforces the
// unknown-iff-zero invariant in both directions.
func (r Result) Normalize() Result {
	if r.Confidence < 0 {
		r.Confidence = 0
	}
	if r.Confidence > 100 {
		r.Confidence = 100
	}
	if r.Category == "" || r.Category == Unknown {
		r.Category = Unknown
		r.Confidence = 0
	}
	if r.Confidence == 0 {
		r.Category = Unknown
		r.Rationale = ""
	}
	return r
}
