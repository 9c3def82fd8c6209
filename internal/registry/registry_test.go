package registry

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remsort/internal/models"
)

type storedCategory struct {
	cat      models.Category
	position int
}

// fakeStore mirrors the sqlite store's contract: categories are keyed by
// name, upserts overwrite keywords and position, and listing sorts by the
// persisted position.
type fakeStore struct {
	entries []storedCategory
	saveErr error
	deleted []string
}

func newFakeStore(cats ...models.Category) *fakeStore {
	f := &fakeStore{}
	for i, cat := range cats {
		f.entries = append(f.entries, storedCategory{cat: cat, position: i})
	}
	return f
}

func (f *fakeStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	sorted := make([]storedCategory, len(f.entries))
	copy(sorted, f.entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].position < sorted[j].position })
	var cats []models.Category
	for _, e := range sorted {
		cats = append(cats, e.cat)
	}
	return cats, nil
}

func (f *fakeStore) SaveCategory(ctx context.Context, cat models.Category, position int) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	for i, e := range f.entries {
		if e.cat.Name == cat.Name {
			f.entries[i] = storedCategory{cat: cat, position: position}
			return nil
		}
	}
	f.entries = append(f.entries, storedCategory{cat: cat, position: position})
	return nil
}

func (f *fakeStore) DeleteCategory(ctx context.Context, name string) error {
	f.deleted = append(f.deleted, name)
	for i, e := range f.entries {
		if e.cat.Name == name {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return nil
		}
	}
	return nil
}

func TestLoadSeedsEmptyStore(t *testing.T) {
	st := newFakeStore()
	reg, err := Load(context.Background(), st, nil)
	require.NoError(t, err)

	assert.Len(t, st.entries, len(DefaultCategories))
	assert.Equal(t, "Ortopedi", reg.Names()[0])
	assert.Equal(t, uint64(1), reg.Version())
}

func TestLoadKeepsExistingCategories(t *testing.T) {
	st := newFakeStore(models.Category{Name: "Onkologi", Keywords: []string{"tumör"}})
	reg, err := Load(context.Background(), st, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"Onkologi"}, reg.Names())
	// No seeding happened.
	assert.Len(t, st.entries, 1)
}

func TestAddBumpsVersionAndPersists(t *testing.T) {
	st := newFakeStore(models.Category{Name: "Ortopedi", Keywords: []string{"knä"}})
	reg, err := Load(context.Background(), st, nil)
	require.NoError(t, err)

	require.NoError(t, reg.Add(context.Background(), "Reumatologi", []string{"artrit", "reumatism"}))
	assert.Equal(t, uint64(2), reg.Version())
	assert.Equal(t, []string{"Ortopedi", "Reumatologi"}, reg.Names())
	assert.Len(t, st.entries, 2)

	cat, err := reg.Get("Reumatologi")
	require.NoError(t, err)
	assert.Equal(t, []string{"artrit", "reumatism"}, cat.Keywords)
}

func TestAddValidation(t *testing.T) {
	st := newFakeStore(models.Category{Name: "Ortopedi", Keywords: []string{"knä"}})
	reg, err := Load(context.Background(), st, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, reg.Add(context.Background(), "  ", []string{"x"}), models.ErrValidation)
	assert.ErrorIs(t, reg.Add(context.Background(), "Radiologi", nil), models.ErrValidation)
	assert.ErrorIs(t, reg.Add(context.Background(), "ortopedi", []string{"x"}), models.ErrAlreadyExists)
	assert.Equal(t, uint64(1), reg.Version())
}

func TestAddPersistFailureLeavesRegistryUnchanged(t *testing.T) {
	st := newFakeStore(models.Category{Name: "Ortopedi", Keywords: []string{"knä"}})
	reg, err := Load(context.Background(), st, nil)
	require.NoError(t, err)

	st.saveErr = errors.New("disk full")
	require.Error(t, reg.Add(context.Background(), "Radiologi", []string{"röntgen"}))
	assert.Equal(t, []string{"Ortopedi"}, reg.Names())
	assert.Equal(t, uint64(1), reg.Version())
}

func TestRemoveReturnsCategory(t *testing.T) {
	st := newFakeStore(
		models.Category{Name: "Ortopedi", Keywords: []string{"knä"}},
		models.Category{Name: "Kardiologi", Keywords: []string{"hjärta"}},
	)
	reg, err := Load(context.Background(), st, nil)
	require.NoError(t, err)

	removed, err := reg.Remove(context.Background(), "Ortopedi")
	require.NoError(t, err)
	assert.Equal(t, "Ortopedi", removed.Name)
	assert.Equal(t, []string{"knä"}, removed.Keywords)
	assert.Equal(t, []string{"Kardiologi"}, reg.Names())
	assert.Equal(t, uint64(2), reg.Version())
	assert.Equal(t, []string{"Ortopedi"}, st.deleted)

	_, err = reg.Remove(context.Background(), "Ortopedi")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestReloadKeepsRegistrationOrderAfterRemoveAndAdd(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore(
		models.Category{Name: "Ortopedi", Keywords: []string{"knä"}},
		models.Category{Name: "Kardiologi", Keywords: []string{"hjärta"}},
		models.Category{Name: "Neurologi", Keywords: []string{"nerv"}},
		models.Category{Name: "Urologi", Keywords: []string{"njure"}},
	)
	reg, err := Load(ctx, st, nil)
	require.NoError(t, err)

	_, err = reg.Remove(ctx, "Ortopedi")
	require.NoError(t, err)
	_, err = reg.Remove(ctx, "Kardiologi")
	require.NoError(t, err)
	require.NoError(t, reg.Add(ctx, "Reumatologi", []string{"artrit"}))
	assert.Equal(t, []string{"Neurologi", "Urologi", "Reumatologi"}, reg.Names())

	// A restart must see the same order, or first-registered tie-breaks in
	// the scorers change classification outcomes.
	reloaded, err := Load(ctx, st, nil)
	require.NoError(t, err)
	assert.Equal(t, reg.Names(), reloaded.Names())
}

func TestHasIgnoresCase(t *testing.T) {
	st := newFakeStore(models.Category{Name: "Kardiologi", Keywords: []string{"hjärta"}})
	reg, err := Load(context.Background(), st, nil)
	require.NoError(t, err)

	assert.True(t, reg.Has("kardiologi"))
	assert.True(t, reg.Has("KARDIOLOGI"))
	assert.False(t, reg.Has("Radiologi"))
}

func TestCategoriesReturnsCopy(t *testing.T) {
	st := newFakeStore(models.Category{Name: "Kardiologi", Keywords: []string{"hjärta"}})
	reg, err := Load(context.Background(), st, nil)
	require.NoError(t, err)

	cats := reg.Categories()
	cats[0].Name = "mutated"
	assert.Equal(t, "Kardiologi", reg.Categories()[0].Name)
}
