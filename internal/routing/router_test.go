package routing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remsort/internal/identify"
	"remsort/internal/models"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name string
		res  identify.Result
		want Decision
	}{
		{"above threshold", identify.Result{Category: "Kardiologi", Confidence: 85}, Decision{Accepted: true, Destination: "Kardiologi"}},
		{"exactly at threshold", identify.Result{Category: "Kardiologi", Confidence: 70}, Decision{Accepted: true, Destination: "Kardiologi"}},
		{"below threshold", identify.Result{Category: "Kardiologi", Confidence: 69.9}, Decision{}},
		{"unknown", identify.Result{Category: identify.Unknown, Confidence: 0}, Decision{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.res, 70))
		})
	}
}

func newTestRouter(t *testing.T) *FileRouter {
	t.Helper()
	root := t.TempDir()
	return &FileRouter{
		OutputDir:    filepath.Join(root, "sorted"),
		UncertainDir: filepath.Join(root, "uncertain"),
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestRouteAcceptedCopiesToCategoryDir(t *testing.T) {
	r := newTestRouter(t)
	src := filepath.Join(t.TempDir(), "remiss.txt")
	writeFile(t, src, "innehåll")

	dst, err := r.Route(src, Decision{Accepted: true, Destination: "Ortopedi"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(r.OutputDir, "Ortopedi", "remiss.txt"), dst)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "innehåll", string(data))
	// The source stays in place.
	assert.FileExists(t, src)
}

func TestRouteRejectedGoesToUncertainDir(t *testing.T) {
	r := newTestRouter(t)
	src := filepath.Join(t.TempDir(), "oklar.txt")
	writeFile(t, src, "x")

	dst, err := r.Route(src, Decision{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(r.UncertainDir, "oklar.txt"), dst)
	assert.FileExists(t, dst)
}

func TestWriteSidecarContent(t *testing.T) {
	r := newTestRouter(t)
	doc := filepath.Join(t.TempDir(), "remiss.txt")
	writeFile(t, doc, "x")

	fields := models.DocumentFields{PersonalNumber: "19850312-1234", ReferralDate: "2024-03-15"}
	require.NoError(t, r.WriteSidecar(doc, "Kardiologi", fields))

	data, err := os.ReadFile(filepath.Join(filepath.Dir(doc), "remiss.dat"))
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "Verksamhet: Kardiologi\n")
	assert.Contains(t, content, "Personnummer: 19850312-1234\n")
	assert.Contains(t, content, "Remissdatum: 2024-03-15\n")
	assert.Contains(t, content, "Skapad: ")
}

func TestWriteSidecarSkippedWhenFieldsMissing(t *testing.T) {
	r := newTestRouter(t)
	doc := filepath.Join(t.TempDir(), "remiss.txt")
	writeFile(t, doc, "x")

	require.NoError(t, r.WriteSidecar(doc, "Kardiologi", models.DocumentFields{PersonalNumber: "19850312-1234"}))
	assert.NoFileExists(t, filepath.Join(filepath.Dir(doc), "remiss.dat"))

	require.NoError(t, r.WriteSidecar(doc, "Kardiologi", models.DocumentFields{ReferralDate: "2024-03-15"}))
	assert.NoFileExists(t, filepath.Join(filepath.Dir(doc), "remiss.dat"))
}

func TestMoveRelocatesDocumentAndRewritesSidecar(t *testing.T) {
	r := newTestRouter(t)

	doc := filepath.Join(r.UncertainDir, "remiss.txt")
	writeFile(t, doc, "innehåll")
	writeFile(t, filepath.Join(r.UncertainDir, "remiss.dat"),
		"Verksamhet: unknown\nPersonnummer: 19850312-1234\nRemissdatum: 2024-03-15\nSkapad: 2024-03-15 10:00:00\n")

	dst, err := r.Move(doc, "Neurologi")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(r.OutputDir, "Neurologi", "remiss.txt"), dst)
	assert.NoFileExists(t, doc)
	assert.FileExists(t, dst)

	data, err := os.ReadFile(filepath.Join(r.OutputDir, "Neurologi", "remiss.dat"))
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "Verksamhet: Neurologi\n")
	assert.Contains(t, content, "Personnummer: 19850312-1234\n")
	assert.NoFileExists(t, filepath.Join(r.UncertainDir, "remiss.dat"))
}

func TestMoveWithoutSidecar(t *testing.T) {
	r := newTestRouter(t)
	doc := filepath.Join(r.UncertainDir, "remiss.txt")
	writeFile(t, doc, "x")

	dst, err := r.Move(doc, "Neurologi")
	require.NoError(t, err)
	assert.FileExists(t, dst)
	assert.NoFileExists(t, filepath.Join(r.OutputDir, "Neurologi", "remiss.dat"))
}
