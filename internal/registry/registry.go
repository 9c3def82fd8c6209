package registry

import (
	"context"
	"fmt"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"remsort/internal/models"
)

// DefaultCategories seeds an empty registry with the standard specialty
// set and keyword lists.
var DefaultCategories = []models.Category{
	{Name: "Ortopedi", Keywords: []string{"ortopedi", "ortopedisk", "led", "leder", "knä", "höft", "rygg", "ryggrad"}},
	{Name: "Kirurgi", Keywords: []string{"kirurgi", "kirurgisk", "operation", "operera", "kirurg", "snitt"}},
	{Name: "Kardiologi", Keywords: []string{"kardiologi", "kardiologisk", "hjärta", "hjärt", "kardiak", "arytmi"}},
	{Name: "Neurologi", Keywords: []string{"neurologi", "neurologisk", "hjärna", "hjärn", "nerv", "neurolog"}},
	{Name: "Gastroenterologi", Keywords: []string{"gastroenterologi", "gastroenterologisk", "mage", "mag", "tarm", "lever"}},
	{Name: "Endokrinologi", Keywords: []string{"endokrinologi", "endokrinologisk", "diabetes", "socker", "glukos", "insulin"}},
	{Name: "Dermatologi", Keywords: []string{"dermatologi", "dermatologisk", "hud", "eksem", "psoriasis", "akne"}},
	{Name: "Urologi", Keywords: []string{"urologi", "urologisk", "urin", "urinblåsa", "prostata", "njure"}},
	{Name: "Gynekologi", Keywords: []string{"gynekologi", "gynekologisk", "gynekolog", "livmoder", "äggstockar", "menstruation"}},
	{Name: "Oftalmologi", Keywords: []string{"oftalmologi", "oftalmologisk", "öga", "ögon", "syn", "katarakt"}},
	{Name: "Otorinolaryngologi", Keywords: []string{"otorinolaryngologi", "ent", "öra", "näsa", "hals", "tonsillit"}},
}

// Store is the persistence surface the registry needs.
type Store interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	SaveCategory(ctx context.Context, cat models.Category, position int) error
	DeleteCategory(ctx context.Context, name string) error
}

// Registry is the single source of truth for the valid category set.
// Reads are concurrent; writes bump the version so components holding
// per-category caches re-derive lazily.
type Registry struct {
	mu      sync.RWMutex
	cats    []models.Category
	version uint64
	store   Store
}

// Load builds a registry from the store, seeding it with seed (or
// DefaultCategories when seed is nil) if the store holds no categories yet.
func Load(ctx context.Context, store Store, seed []models.Category) (*Registry, error) {
	cats, err := store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	if len(cats) == 0 {
		if seed == nil {
			seed = DefaultCategories
		}
		for i, cat := range seed {
			if err := store.SaveCategory(ctx, cat, i); err != nil {
				return nil, fmt.Errorf("seed category %q: %w", cat.Name, err)
			}
		}
		cats = seed
		log.WithField("count", len(cats)).Info("seeded category registry")
	}
	return &Registry{cats: cats, version: 1, store: store}, nil
}

// Categories returns a copy of the registered categories in registration
// order. Implements identify.Catalog.
func (r *Registry) Categories() []models.Category {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Category, len(r.cats))
	copy(out, r.cats)
	return out
}

// Version implements identify.Catalog.
func (r *Registry) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// Names returns the category names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.cats))
	for i, cat := range r.cats {
		names[i] = cat.Name
	}
	return names
}

func (r *Registry) Get(name string) (models.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, cat := range r.cats {
		if cat.Name == name {
			return cat, nil
		}
	}
	return models.Category{}, fmt.Errorf("category %q: %w", name, models.ErrNotFound)
}

// Has reports whether name is registered, ignoring case.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, cat := range r.cats {
		if strings.EqualFold(cat.Name, name) {
			return true
		}
	}
	return false
}

// Add registers a new category. An empty keyword list is a validation
// error with no side effect.
func (r *Registry) Add(ctx context.Context, name string, keywords []string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: category name is empty", models.ErrValidation)
	}
	if len(keywords) == 0 {
		return fmt.Errorf("%w: category %q needs at least one keyword", models.ErrValidation, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cat := range r.cats {
		if strings.EqualFold(cat.Name, name) {
			return fmt.Errorf("category %q: %w", name, models.ErrAlreadyExists)
		}
	}
	cat := models.Category{Name: name, Keywords: keywords}
	if err := r.store.SaveCategory(ctx, cat, len(r.cats)); err != nil {
		return fmt.Errorf("persist category %q: %w", name, err)
	}
	r.cats = append(r.cats, cat)
	r.version++
	log.WithField("category", name).Info("category added")
	return nil
}

// Remove deletes a category and returns it, so the caller can reassign any
// documents previously routed to it to the uncertain queue.
func (r *Registry) Remove(ctx context.Context, name string) (models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, cat := range r.cats {
		if cat.Name == name {
			if err := r.store.DeleteCategory(ctx, name); err != nil {
				return models.Category{}, fmt.Errorf("delete category %q: %w", name, err)
			}
			r.cats = append(r.cats[:i], r.cats[i+1:]...)
			// Compact stored positions so the next Add lands after every
			// surviving category and reloads keep registration order.
			for j := i; j < len(r.cats); j++ {
				if err := r.store.SaveCategory(ctx, r.cats[j], j); err != nil {
					return models.Category{}, fmt.Errorf("reposition category %q: %w", r.cats[j].Name, err)
				}
			}
			r.version++
			log.WithField("category", name).Info("category removed")
			return cat, nil
		}
	}
	return models.Category{}, fmt.Errorf("category %q: %w", name, models.ErrNotFound)
}
