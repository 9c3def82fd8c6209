package identify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode"

	log "github.com/sirupsen/logrus"

	"remsort/internal/models"
)

// ModelStore persists the fitted model as an opaque blob, versioned by
// overwrite-on-save.
type ModelStore interface {
	SaveModel(ctx context.Context, blob []byte) error
	LoadModel(ctx context.Context) ([]byte, error)
}

// bayesModel is a multinomial naive Bayes model over lowercased word tokens
// with Laplace smoothing. Small enough to serialize as JSON.
type bayesModel struct {
	Classes     []string                  `json:"classes"`
	ClassDocs   map[string]int            `json:"class_docs"`
	TokenCounts map[string]map[string]int `json:"token_counts"`
	TotalTokens map[string]int            `json:"total_tokens"`
	Vocab       map[string]bool           `json:"vocab"`
	Docs        int                       `json:"docs"`
	TrainedAt   time.Time                 `json:"trained_at"`
}

// BayesClassifier is the trainable strategy independent of any external
// service. Its base corpus is synthetic (generated from category keywords);
// corrected examples are appended on retrain and never pruned.
type BayesClassifier struct {
	catalog  Catalog
	store    ModelStore
	fallback Identifier

	MaxTextChars    int
	HoldoutFraction float64

	// PruneHook filters the accumulated corrections before a fit. Nil keeps
	// every correction ever made.
	PruneHook func([]models.TrainingExample) []models.TrainingExample

	model    atomic.Pointer[bayesModel]
	loadOnce sync.Once
	trainMu  sync.Mutex
}

// NewBayesClassifier creates the classifier. fallback (normally the keyword
// scorer) is consulted when no trained model is available; it may be nil.
func NewBayesClassifier(catalog Catalog, store ModelStore, fallback Identifier) *BayesClassifier {
	return &BayesClassifier{
		catalog:         catalog,
		store:           store,
		fallback:        fallback,
		MaxTextChars:    4000,
		HoldoutFraction: 0.2,
	}
}

// Trained reports whether a fitted model is available (loading it lazily).
func (c *BayesClassifier) Trained(ctx context.Context) bool {
	c.lazyLoad(ctx)
	return c.model.Load() != nil
}

// Train fits the model on the synthetic base corpus plus extra examples,
// holding out a fraction per class for evaluation, and persists the result.
// Returns holdout accuracy. A persistence failure is logged, not fatal: the
// freshly trained model still serves in memory.
func (c *BayesClassifier) Train(ctx context.Context, extra []models.TrainingExample) (float64, error) {
	c.trainMu.Lock()
	defer c.trainMu.Unlock()

	if c.PruneHook != nil {
		extra = c.PruneHook(extra)
	}
	corpus := SyntheticCorpus(c.catalog.Categories())
	corpus = append(corpus, extra...)
	if len(corpus) == 0 {
		return 0, fmt.Errorf("%w: empty training corpus", models.ErrValidation)
	}

	train, holdout := split(corpus, c.HoldoutFraction)
	m := fit(train)

	correct := 0
	for _, ex := range holdout {
		pred, _ := m.predict(tokenize(ex.Text))
		if pred == ex.Category {
			correct++
		}
	}
	accuracy := 1.0
	if len(holdout) > 0 {
		accuracy = float64(correct) / float64(len(holdout))
	}

	c.model.Store(m)
	// Force lazyLoad to a no-op from now on.
	c.loadOnce.Do(func() {})

	blob, err := json.Marshal(m)
	if err == nil {
		err = c.store.SaveModel(ctx, blob)
	}
	if err != nil {
		log.WithError(err).Error("failed to persist statistical model; continuing with in-memory model")
	}

	log.WithFields(log.Fields{
		"examples": len(corpus),
		"classes":  len(m.Classes),
		"accuracy": accuracy,
	}).Info("statistical model trained")
	return accuracy, nil
}

func (c *BayesClassifier) Identify(ctx context.Context, text string) (Result, error) {
	c.lazyLoad(ctx)
	m := c.model.Load()
	if m == nil {
		if c.fallback != nil {
			log.Warn("statistical model not trained, using keyword fallback")
			return c.fallback.Identify(ctx, text)
		}
		return NoOpinion(), models.ErrNotTrained
	}

	tokens := tokenize(TruncateSentences(text, c.MaxTextChars))
	if len(tokens) == 0 {
		return NoOpinion(), nil
	}
	category, probability := m.predict(tokens)
	return Result{
		Category:   category,
		Confidence: probability * 100,
		Source:     SourceStatistical,
	}, nil
}

func (c *BayesClassifier) lazyLoad(ctx context.Context) {
	c.loadOnce.Do(func() {
		blob, err := c.store.LoadModel(ctx)
		if err != nil {
			if !errors.Is(err, models.ErrNotFound) {
				log.WithError(err).Error("failed to load statistical model; running untrained")
			}
			return
		}
		var m bayesModel
		if err := json.Unmarshal(blob, &m); err != nil {
			log.WithError(err).Error("stored statistical model is unreadable; running untrained")
			return
		}
		c.model.Store(&m)
		log.WithField("trained_at", m.TrainedAt).Info("statistical model loaded")
	})
}

func fit(examples []models.TrainingExample) *bayesModel {
	m := &bayesModel{
		ClassDocs:   make(map[string]int),
		TokenCounts: make(map[string]map[string]int),
		TotalTokens: make(map[string]int),
		Vocab:       make(map[string]bool),
		TrainedAt:   time.Now().UTC(),
	}
	for _, ex := range examples {
		if _, ok := m.ClassDocs[ex.Category]; !ok {
			m.Classes = append(m.Classes, ex.Category)
			m.TokenCounts[ex.Category] = make(map[string]int)
		}
		m.ClassDocs[ex.Category]++
		m.Docs++
		for _, tok := range tokenize(ex.Text) {
			m.TokenCounts[ex.Category][tok]++
			m.TotalTokens[ex.Category]++
			m.Vocab[tok] = true
		}
	}
	return m
}

// predict returns the arg-max class and its normalized posterior probability.
func (m *bayesModel) predict(tokens []string) (string, float64) {
	if m.Docs == 0 || len(m.Classes) == 0 {
		return Unknown, 0
	}
	vocabSize := float64(len(m.Vocab))

	logJoint := make([]float64, len(m.Classes))
	for i, class := range m.Classes {
		lp := math.Log(float64(m.ClassDocs[class]) / float64(m.Docs))
		denom := float64(m.TotalTokens[class]) + vocabSize
		for _, tok := range tokens {
			lp += math.Log((float64(m.TokenCounts[class][tok]) + 1) / denom)
		}
		logJoint[i] = lp
	}

	bestIdx := 0
	for i := range logJoint {
		if logJoint[i] > logJoint[bestIdx] {
			bestIdx = i
		}
	}

	// Normalize with log-sum-exp to get a proper posterior.
	maxLog := logJoint[bestIdx]
	sum := 0.0
	for _, lj := range logJoint {
		sum += math.Exp(lj - maxLog)
	}
	return m.Classes[bestIdx], 1.0 / sum
}

// split divides the corpus per class so holdout evaluation sees every
// category. Deterministic: same corpus, same split.
func split(corpus []models.TrainingExample, holdoutFraction float64) (train, holdout []models.TrainingExample) {
	byClass := make(map[string][]models.TrainingExample)
	var order []string
	for _, ex := range corpus {
		if _, ok := byClass[ex.Category]; !ok {
			order = append(order, ex.Category)
		}
		byClass[ex.Category] = append(byClass[ex.Category], ex)
	}

	rng := rand.New(rand.NewSource(42))
	for _, class := range order {
		examples := byClass[class]
		rng.Shuffle(len(examples), func(i, j int) {
			examples[i], examples[j] = examples[j], examples[i]
		})
		n := int(float64(len(examples)) * holdoutFraction)
		if n >= len(examples) {
			n = len(examples) - 1
		}
		holdout = append(holdout, examples[:n]...)
		train = append(train, examples[n:]...)
	}
	return train, holdout
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
