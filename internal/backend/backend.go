package backend

import (
	"context"
	"fmt"
	"io"
	"sync"

	log "github.com/sirupsen/logrus"

	"remsort/internal/identify"
	"remsort/internal/models"
)

// Backend is one interchangeable external-model variant. Implementations
// never let network, timeout or parse errors escape Identify: those yield
// (unknown, 0) and a log entry.
type Backend interface {
	Name() string
	Identify(ctx context.Context, text string) (identify.Result, error)
}

// Suggester is implemented by prompt-based backends that can propose a new
// category for a batch of unroutable documents.
type Suggester interface {
	Suggest(ctx context.Context, texts []string) (models.Category, error)
}

// Factory constructs a backend by name. Construction performs the backend's
// initialization (client setup, model load) and fails fast on bad config.
type Factory func(name string) (Backend, error)

// Manager holds the single active backend. Switch initializes the new
// backend before swapping, and keeps the previous one when that fails, so
// in-flight classifications never observe a half-initialized backend.
// Identify and Suggest hold the read lock for the duration of the call, so
// Switch cannot close a backend that still has a call in flight.
type Manager struct {
	mu      sync.RWMutex
	active  Backend
	factory Factory
}

func NewManager(factory Factory) *Manager {
	return &Manager{factory: factory}
}

// Active returns the active backend's name, or "" when none is configured.
func (m *Manager) Active() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.active == nil {
		return ""
	}
	return m.active.Name()
}

// Switch atomically replaces the active backend. Passing "" deactivates the
// external-model stage entirely.
func (m *Manager) Switch(name string) error {
	var next Backend
	if name != "" {
		b, err := m.factory(name)
		if err != nil {
			log.WithError(err).WithField("backend", name).Error("backend switch failed, keeping previous backend")
			return fmt.Errorf("initialize backend %q: %w", name, err)
		}
		next = b
	}

	// The write lock waits for in-flight Identify/Suggest calls to finish,
	// so the previous backend is idle when it is closed.
	m.mu.Lock()
	prev := m.active
	m.active = next
	if closer, ok := prev.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			log.WithError(err).Warn("failed to close previous backend")
		}
	}
	m.mu.Unlock()

	log.WithField("backend", name).Info("active backend switched")
	return nil
}

// Identify delegates to the active backend. models.ErrNoBackend signals
// "stage not configured" to the cascade.
func (m *Manager) Identify(ctx context.Context, text string) (identify.Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.active == nil {
		return identify.NoOpinion(), models.ErrNoBackend
	}
	return m.active.Identify(ctx, text)
}

// Suggest asks the active backend for a new category proposal. Backends
// without prompt access (local models, embeddings) cannot suggest.
func (m *Manager) Suggest(ctx context.Context, texts []string) (models.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.active == nil {
		return models.Category{}, models.ErrNoBackend
	}
	s, ok := m.active.(Suggester)
	if !ok {
		return models.Category{}, fmt.Errorf("%w: backend %q cannot suggest categories", models.ErrValidation, m.active.Name())
	}
	return s.Suggest(ctx, texts)
}

// Close releases the active backend, if any.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if closer, ok := m.active.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
