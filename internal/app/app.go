package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"remsort/internal/backend"
	"remsort/internal/config"
	"remsort/internal/identify"
	"remsort/internal/ocr"
	"remsort/internal/registry"
	"remsort/internal/routing"
	"remsort/internal/services"
	"remsort/internal/store"
	"remsort/internal/store/sqlite"
	"remsort/internal/tasks"
)

// App wires the sorter's components together. Commands and API handlers
// reach everything through it.
type App struct {
	Config   *config.Config
	Store    store.Store
	Registry *registry.Registry
	Backends *backend.Manager
	Bayes    *identify.BayesClassifier
	Router   *routing.FileRouter

	Classify *services.ClassifyService
	Process  *services.ProcessService
	Feedback *services.FeedbackService

	JobClient *tasks.Client
}

// NewApp initializes storage, the category registry, the identification
// cascade and the services. A configured backend that fails to initialize
// is logged and skipped, never fatal: the cascade degrades to its local
// stages.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	st, err := sqlite.New(ctx, cfg.Paths.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	reg, err := registry.Load(ctx, st, nil)
	if err != nil {
		st.Close()
		return nil, err
	}

	keywords := identify.NewKeywordScorer(reg)
	phrases := identify.NewPhraseMatcher(reg)
	bayes := identify.NewBayesClassifier(reg, st, keywords)
	bayes.MaxTextChars = cfg.Statistical.MaxTextLength

	manager := backend.NewManager(backend.NewFactory(cfg, reg))
	if cfg.Backend.Active != "" {
		if err := manager.Switch(cfg.Backend.Active); err != nil {
			log.WithError(err).Warnf("Backend %q unavailable, continuing without external model", cfg.Backend.Active)
		}
	}

	classify := services.NewClassifyService(manager, phrases, bayes, keywords,
		cfg.Backend.AcceptThreshold, cfg.Statistical.AcceptThreshold)

	router := &routing.FileRouter{
		OutputDir:    cfg.Paths.Output,
		UncertainDir: cfg.Paths.Uncertain,
	}

	process := services.NewProcessService(ocr.PlainText{}, classify, router, st, cfg.Threshold)

	jobClient := tasks.NewClient(cfg.Redis.Address)
	feedback := services.NewFeedbackService(reg, st, st, router, bayes, manager, jobClient, cfg.Feedback.RetrainBatchSize)

	return &App{
		Config:    cfg,
		Store:     st,
		Registry:  reg,
		Backends:  manager,
		Bayes:     bayes,
		Router:    router,
		Classify:  classify,
		Process:   process,
		Feedback:  feedback,
		JobClient: jobClient,
	}, nil
}

// Close releases held resources.
func (a *App) Close() error {
	var firstErr error
	if err := a.JobClient.Close(); err != nil {
		firstErr = err
	}
	if err := a.Backends.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := a.Store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
