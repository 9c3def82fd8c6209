package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"remsort/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS categories (
	name     TEXT PRIMARY KEY,
	keywords TEXT NOT NULL,
	position INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS uncertain (
	id                 TEXT PRIMARY KEY,
	path               TEXT NOT NULL,
	text               TEXT NOT NULL,
	category           TEXT NOT NULL,
	confidence         REAL NOT NULL,
	source             TEXT NOT NULL,
	corrected          INTEGER NOT NULL DEFAULT 0,
	corrected_category TEXT NOT NULL DEFAULT '',
	created_at         TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS training_examples (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	text       TEXT NOT NULL,
	category   TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS model (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	blob       BLOB NOT NULL,
	trained_at TIMESTAMP NOT NULL
);
`

// StoreImpl implements store.Store on a local SQLite database.
type StoreImpl struct {
	db *sql.DB
}

func New(ctx context.Context, path string) (*StoreImpl, error) {
	if path == "" {
		return nil, errors.New("database path cannot be empty")
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &StoreImpl{db: db}, nil
}

func (s *StoreImpl) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }
func (s *StoreImpl) Close() error                   { return s.db.Close() }

// --- Categories ---

func (s *StoreImpl) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, keywords FROM categories ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []models.Category
	for rows.Next() {
		var cat models.Category
		var keywordsJSON string
		if err := rows.Scan(&cat.Name, &keywordsJSON); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		if err := json.Unmarshal([]byte(keywordsJSON), &cat.Keywords); err != nil {
			return nil, fmt.Errorf("decode keywords for %q: %w", cat.Name, err)
		}
		cats = append(cats, cat)
	}
	return cats, rows.Err()
}

func (s *StoreImpl) SaveCategory(ctx context.Context, cat models.Category, position int) error {
	keywordsJSON, err := json.Marshal(cat.Keywords)
	if err != nil {
		return fmt.Errorf("encode keywords: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO categories (name, keywords, position) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET keywords = excluded.keywords, position = excluded.position`,
		cat.Name, string(keywordsJSON), position,
	)
	if err != nil {
		return fmt.Errorf("save category %q: %w", cat.Name, err)
	}
	return nil
}

func (s *StoreImpl) DeleteCategory(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete category %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// --- Uncertain queue ---

func (s *StoreImpl) AddUncertain(ctx context.Context, entry *models.UncertainEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO uncertain (id, path, text, category, confidence, source, corrected, corrected_category, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, 0, '', ?)`,
		entry.ID, entry.Path, entry.Text, entry.Category, entry.Confidence, entry.Source, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("add uncertain entry: %w", err)
	}
	return nil
}

func (s *StoreImpl) GetUncertain(ctx context.Context, id string) (*models.UncertainEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, path, text, category, confidence, source, corrected, corrected_category, created_at
		 FROM uncertain WHERE id = ?`, id)
	entry, err := scanUncertain(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	return entry, err
}

func (s *StoreImpl) ListUncertain(ctx context.Context, includeCorrected bool) ([]*models.UncertainEntry, error) {
	query := `SELECT id, path, text, category, confidence, source, corrected, corrected_category, created_at
	          FROM uncertain`
	if !includeCorrected {
		query += ` WHERE corrected = 0`
	}
	query += ` ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list uncertain entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.UncertainEntry
	for rows.Next() {
		entry, err := scanUncertain(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *StoreImpl) MarkCorrected(ctx context.Context, id, category string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE uncertain SET corrected = 1, corrected_category = ? WHERE id = ?`, category, id)
	if err != nil {
		return fmt.Errorf("mark corrected: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanUncertain(row scannable) (*models.UncertainEntry, error) {
	var entry models.UncertainEntry
	err := row.Scan(
		&entry.ID, &entry.Path, &entry.Text, &entry.Category, &entry.Confidence,
		&entry.Source, &entry.Corrected, &entry.CorrectedCategory, &entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// --- Training examples ---

func (s *StoreImpl) AddExample(ctx context.Context, ex models.TrainingExample) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO training_examples (text, category, created_at) VALUES (?, ?, ?)`,
		ex.Text, ex.Category, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("add training example: %w", err)
	}
	return nil
}

func (s *StoreImpl) ListExamples(ctx context.Context) ([]models.TrainingExample, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT text, category FROM training_examples ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list training examples: %w", err)
	}
	defer rows.Close()

	var examples []models.TrainingExample
	for rows.Next() {
		var ex models.TrainingExample
		if err := rows.Scan(&ex.Text, &ex.Category); err != nil {
			return nil, fmt.Errorf("scan training example: %w", err)
		}
		examples = append(examples, ex)
	}
	return examples, rows.Err()
}

func (s *StoreImpl) CountExamples(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM training_examples`).Scan(&n)
	return n, err
}

// --- Model blob ---

func (s *StoreImpl) SaveModel(ctx context.Context, blob []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO model (id, blob, trained_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET blob = excluded.blob, trained_at = excluded.trained_at`,
		blob, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save model: %w", err)
	}
	return nil
}

func (s *StoreImpl) LoadModel(ctx context.Context) ([]byte, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT blob FROM model WHERE id = 1`).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	return blob, nil
}
