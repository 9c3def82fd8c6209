package services

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"remsort/internal/backend"
	"remsort/internal/models"
	"remsort/internal/registry"
	"remsort/internal/routing"
	"remsort/internal/store"
)

// Trainer refits the statistical model on the accumulated corrections.
type Trainer interface {
	Train(ctx context.Context, extra []models.TrainingExample) (float64, error)
}

// RetrainScheduler hands retraining off to a background worker. Nil means
// retraining runs inline.
type RetrainScheduler interface {
	ScheduleRetrain(ctx context.Context) error
}

// FeedbackService closes the loop on uncertain documents: operators assign
// the true category, the document moves out of the queue, and the correction
// becomes training data.
type FeedbackService struct {
	registry  *registry.Registry
	uncertain store.UncertainStore
	training  store.TrainingStore
	router    *routing.FileRouter
	trainer   Trainer
	backends  *backend.Manager
	scheduler RetrainScheduler

	// retrainBatchSize triggers a retrain every time the accumulated
	// example count crosses a multiple of it. Zero disables the trigger.
	retrainBatchSize int
}

func NewFeedbackService(reg *registry.Registry, uncertain store.UncertainStore, training store.TrainingStore, router *routing.FileRouter, trainer Trainer, backends *backend.Manager, scheduler RetrainScheduler, retrainBatchSize int) *FeedbackService {
	return &FeedbackService{
		registry:         reg,
		uncertain:        uncertain,
		training:         training,
		router:           router,
		trainer:          trainer,
		backends:         backends,
		scheduler:        scheduler,
		retrainBatchSize: retrainBatchSize,
	}
}

// ListUncertain returns the review queue, oldest first.
func (s *FeedbackService) ListUncertain(ctx context.Context, includeCorrected bool) ([]*models.UncertainEntry, error) {
	return s.uncertain.ListUncertain(ctx, includeCorrected)
}

// Correct assigns the true category to a queued document. The file moves to
// the category folder, the entry is marked corrected, and (text, category)
// joins the training corpus. Validation failures leave everything untouched.
func (s *FeedbackService) Correct(ctx context.Context, id, category string) error {
	canonical, err := s.canonical(category)
	if err != nil {
		return err
	}

	entry, err := s.uncertain.GetUncertain(ctx, id)
	if err != nil {
		return fmt.Errorf("uncertain entry %s: %w", id, err)
	}
	if entry.Corrected {
		return fmt.Errorf("%w: entry %s is already corrected", models.ErrValidation, id)
	}

	if _, err := s.router.Move(entry.Path, canonical); err != nil {
		return err
	}
	if err := s.uncertain.MarkCorrected(ctx, id, canonical); err != nil {
		return err
	}
	if err := s.training.AddExample(ctx, models.TrainingExample{Text: entry.Text, Category: canonical}); err != nil {
		return err
	}
	log.Infof("Corrected %s to %s", id, canonical)

	s.maybeScheduleRetrain(ctx)
	return nil
}

// RetrainFromCorrections refits the statistical model on the synthetic base
// corpus plus every accumulated correction. Returns holdout accuracy.
func (s *FeedbackService) RetrainFromCorrections(ctx context.Context) (float64, error) {
	examples, err := s.training.ListExamples(ctx)
	if err != nil {
		return 0, fmt.Errorf("load training examples: %w", err)
	}
	return s.trainer.Train(ctx, examples)
}

// SuggestCategory asks the active prompt backend to propose a new category
// covering the uncorrected queue. The proposal is informational only; the
// operator decides whether to register it.
func (s *FeedbackService) SuggestCategory(ctx context.Context) (models.Category, error) {
	entries, err := s.uncertain.ListUncertain(ctx, false)
	if err != nil {
		return models.Category{}, err
	}
	if len(entries) == 0 {
		return models.Category{}, fmt.Errorf("%w: uncertain queue is empty", models.ErrNotFound)
	}

	texts := make([]string, 0, len(entries))
	for _, e := range entries {
		texts = append(texts, e.Text)
	}

	suggestion, err := s.backends.Suggest(ctx, texts)
	if err != nil {
		return models.Category{}, err
	}
	if s.registry.Has(suggestion.Name) {
		return models.Category{}, fmt.Errorf("%w: suggested category %q is already registered", models.ErrAlreadyExists, suggestion.Name)
	}
	return suggestion, nil
}

func (s *FeedbackService) canonical(category string) (string, error) {
	for _, cat := range s.registry.Categories() {
		if strings.EqualFold(cat.Name, category) {
			return cat.Name, nil
		}
	}
	return "", fmt.Errorf("category %q: %w", category, models.ErrNotFound)
}

func (s *FeedbackService) maybeScheduleRetrain(ctx context.Context) {
	if s.retrainBatchSize <= 0 {
		return
	}
	count, err := s.training.CountExamples(ctx)
	if err != nil {
		log.Errorf("Could not count training examples: %v", err)
		return
	}
	if count%s.retrainBatchSize != 0 {
		return
	}

	if s.scheduler != nil {
		err := s.scheduler.ScheduleRetrain(ctx)
		if err == nil {
			return
		}
		// The queue may be down (no redis); the correction still has to
		// reach the model, so retrain inline instead.
		log.Errorf("Could not schedule retraining, retraining inline: %v", err)
	}
	if accuracy, err := s.RetrainFromCorrections(ctx); err != nil {
		log.Errorf("Retraining failed: %v", err)
	} else {
		log.Infof("Retrained after %d corrections (holdout accuracy %.2f)", count, accuracy)
	}
}
