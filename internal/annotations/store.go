// Package annotations persists user-confirmed candidate features.
//
// The storage layout mirrors the original single-page client: one entry
// under a fixed key holding the JSON-encoded annotation array in insertion
// order. Here the keyed store is a SQLite table instead of browser local
// storage, which keeps exports and restarts durable without changing the
// shape of the persisted state.
package annotations

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/embiggeneye/crater-etl/internal/domain"
)

// StorageKey is the fixed key the annotation array lives under.
const StorageKey = "embiggen.annotations.v1"

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

// Store is the persistent annotation store. All operations read, modify,
// and rewrite the whole array under StorageKey; the mutex serializes that
// read-modify-write cycle against concurrent API calls.
type Store struct {
	db *sqlx.DB
	mu sync.Mutex
}

// Open opens (creating if needed) the SQLite database at path.
func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close() //nolint:errcheck // open failed, close is best effort
		return nil, fmt.Errorf("create annotations schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Accept stores an annotation for the feature unless one with the same ID
// already exists. Returns true when a new annotation was created — at most
// one annotation per feature ID ever exists.
func (s *Store) Accept(ctx context.Context, ann domain.Annotation) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	for i := range list {
		if list[i].ID == ann.ID {
			return false, nil
		}
	}
	list = append(list, ann)
	return true, s.save(ctx, list)
}

// SetComment attaches a comment to an existing annotation, matched by
// feature ID and mutated in place. Returns false when no annotation with
// that ID exists.
func (s *Store) SetComment(ctx context.Context, id, comment string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	for i := range list {
		if list[i].ID == id {
			list[i].Comment = comment
			return true, s.save(ctx, list)
		}
	}
	return false, nil
}

// Delete removes the annotation with the given feature ID. Returns false
// when none existed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	for i := range list {
		if list[i].ID == id {
			list = append(list[:i], list[i+1:]...)
			return true, s.save(ctx, list)
		}
	}
	return false, nil
}

// List returns all annotations in insertion order.
func (s *Store) List(ctx context.Context) ([]domain.Annotation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// ExportGeoJSON renders the stored annotations as a FeatureCollection.
func (s *Store) ExportGeoJSON(ctx context.Context) (domain.GeoJSONFeatureCollection, error) {
	list, err := s.List(ctx)
	if err != nil {
		return domain.GeoJSONFeatureCollection{}, err
	}
	return domain.AnnotationsToGeoJSON(list), nil
}

// load reads and decodes the annotation array. An absent row yields an
// empty list; so does an unparseable value, because legacy or corrupted
// entries must not break the store.
func (s *Store) load(ctx context.Context) ([]domain.Annotation, error) {
	var raw string
	err := s.db.GetContext(ctx, &raw, `SELECT value FROM kv WHERE key = ?`, StorageKey)
	if errors.Is(err, sql.ErrNoRows) {
		return []domain.Annotation{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load annotations: %w", err)
	}

	var list []domain.Annotation
	if err := json.Unmarshal([]byte(raw), &list); err != nil || list == nil {
		return []domain.Annotation{}, nil
	}
	return list, nil
}

func (s *Store) save(ctx context.Context, list []domain.Annotation) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode annotations: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, StorageKey, string(data))
	if err != nil {
		return fmt.Errorf("save annotations: %w", err)
	}
	return nil
}
