package store

import (
	"context"

	"remsort/internal/models"
)

// CategoryStore persists the category registry (name -> ordered keyword list).
type CategoryStore interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	SaveCategory(ctx context.Context, cat models.Category, position int) error
	DeleteCategory(ctx context.Context, name string) error
}

// UncertainStore is the holding area for documents that did not clear the
// routing threshold.
type UncertainStore interface {
	AddUncertain(ctx context.Context, entry *models.UncertainEntry) error
	GetUncertain(ctx context.Context, id string) (*models.UncertainEntry, error)
	ListUncertain(ctx context.Context, includeCorrected bool) ([]*models.UncertainEntry, error)
	MarkCorrected(ctx context.Context, id, category string) error
}

// TrainingStore accumulates human-confirmed training examples. Examples are
// never pruned; retraining always sees the full correction history.
type TrainingStore interface {
	AddExample(ctx context.Context, ex models.TrainingExample) error
	ListExamples(ctx context.Context) ([]models.TrainingExample, error)
	CountExamples(ctx context.Context) (int, error)
}

// ModelStore persists the trained statistical model as an opaque blob,
// versioned by overwrite-on-save.
type ModelStore interface {
	SaveModel(ctx context.Context, blob []byte) error
	LoadModel(ctx context.Context) ([]byte, error)
}

// Store is the full persistence surface backing the sorter.
type Store interface {
	CategoryStore
	UncertainStore
	TrainingStore
	ModelStore

	Ping(ctx context.Context) error
	Close() error
}
