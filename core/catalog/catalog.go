// Package catalog persists index records and shared-title terms in
// SQLite, and moves whole catalogs in and out as xz-compressed JSON
// bundles.
package catalog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"

	"github.com/sifria/mareh/core/errors"
	"github.com/sifria/mareh/core/index"
	"github.com/sifria/mareh/core/library"
	"github.com/sifria/mareh/core/sqlite"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS indices (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL UNIQUE,
	record      TEXT NOT NULL,
	schema_hash TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS terms (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	record     TEXT NOT NULL,
	updated_at TEXT NOT NULL
);`

// Store is a SQLite-backed catalog of records and terms.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the catalog database at path.
func Open(path string) (*Store, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init catalog schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// PutIndex upserts a record, keyed by title. A record without an ID is
// assigned one.
func (s *Store) PutIndex(rec *index.Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", rec.Title, err)
	}
	hash := blake3.Sum256(data)
	_, err = s.db.Exec(`
		INSERT INTO indices (id, title, record, schema_hash, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(title) DO UPDATE SET
			record = excluded.record,
			schema_hash = excluded.schema_hash,
			updated_at = excluded.updated_at`,
		rec.ID, rec.Title, string(data), fmt.Sprintf("%x", hash[:]), now())
	if err != nil {
		return fmt.Errorf("store record %s: %w", rec.Title, err)
	}
	return nil
}

// GetIndex loads the record stored under title.
func (s *Store) GetIndex(title string) (*index.Record, error) {
	var data string
	err := s.db.QueryRow(`SELECT record FROM indices WHERE title = ?`, title).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, &errors.BookNameError{Title: title}
	}
	if err != nil {
		return nil, fmt.Errorf("load record %s: %w", title, err)
	}
	return decodeRecord(data, title)
}

// SchemaHash returns the stored schema hash for title, used to detect
// whether a record changed without decoding it.
func (s *Store) SchemaHash(title string) (string, error) {
	var hash string
	err := s.db.QueryRow(`SELECT schema_hash FROM indices WHERE title = ?`, title).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", &errors.BookNameError{Title: title}
	}
	if err != nil {
		return "", fmt.Errorf("load schema hash %s: %w", title, err)
	}
	return hash, nil
}

// ListIndices loads every stored record, ordered by title.
func (s *Store) ListIndices() ([]*index.Record, error) {
	rows, err := s.db.Query(`SELECT title, record FROM indices ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var out []*index.Record
	for rows.Next() {
		var title, data string
		if err := rows.Scan(&title, &data); err != nil {
			return nil, err
		}
		rec, err := decodeRecord(data, title)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DeleteIndex removes the record stored under title.
func (s *Store) DeleteIndex(title string) error {
	res, err := s.db.Exec(`DELETE FROM indices WHERE title = ?`, title)
	if err != nil {
		return fmt.Errorf("delete record %s: %w", title, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &errors.BookNameError{Title: title}
	}
	return nil
}

// PutTerm upserts a shared-title term, keyed by name.
func (s *Store) PutTerm(t *index.Term) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal term %s: %w", t.Name, err)
	}
	_, err = s.db.Exec(`
		INSERT INTO terms (id, name, record, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			record = excluded.record,
			updated_at = excluded.updated_at`,
		t.ID, t.Name, string(data), now())
	if err != nil {
		return fmt.Errorf("store term %s: %w", t.Name, err)
	}
	return nil
}

// ListTerms loads every stored term, ordered by name.
func (s *Store) ListTerms() ([]*index.Term, error) {
	rows, err := s.db.Query(`SELECT name, record FROM terms ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list terms: %w", err)
	}
	defer rows.Close()

	var out []*index.Term
	for rows.Next() {
		var name, data string
		if err := rows.Scan(&name, &data); err != nil {
			return nil, err
		}
		var t index.Term
		if err := json.Unmarshal([]byte(data), &t); err != nil {
			return nil, fmt.Errorf("decode term %s: %w", name, err)
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

// LoadLibrary populates lib from the store: terms first, then records.
func (s *Store) LoadLibrary(lib *library.Library) error {
	terms, err := s.ListTerms()
	if err != nil {
		return err
	}
	for _, t := range terms {
		lib.AddTerm(t)
	}
	records, err := s.ListIndices()
	if err != nil {
		return err
	}
	for _, rec := range records {
		if _, err := lib.AddIndex(rec); err != nil {
			return fmt.Errorf("load %s: %w", rec.Title, err)
		}
	}
	return nil
}

// SaveLibrary writes every term and plain index in lib to the store.
// Synthesized commentaries are not persisted.
func (s *Store) SaveLibrary(lib *library.Library) error {
	for _, t := range lib.Terms() {
		if err := s.PutTerm(t); err != nil {
			return err
		}
	}
	for _, title := range lib.TextTitles() {
		entry, err := lib.GetIndex(title)
		if err != nil {
			return err
		}
		idx, ok := entry.(*index.Index)
		if !ok {
			continue
		}
		if err := s.PutIndex(idx.Record()); err != nil {
			return err
		}
	}
	return nil
}

// Bundle is the portable interchange form of a catalog.
type Bundle struct {
	Version   int             `json:"version"`
	CreatedAt time.Time       `json:"createdAt"`
	Terms     []*index.Term   `json:"terms,omitempty"`
	Indices   []*index.Record `json:"indices"`
}

// BundleVersion is the current interchange format version.
const BundleVersion = 1

// Export writes the whole catalog to w as an xz-compressed JSON bundle.
func (s *Store) Export(w io.Writer) error {
	terms, err := s.ListTerms()
	if err != nil {
		return err
	}
	records, err := s.ListIndices()
	if err != nil {
		return err
	}
	bundle := &Bundle{
		Version:   BundleVersion,
		CreatedAt: time.Now().UTC(),
		Terms:     terms,
		Indices:   records,
	}

	zw, err := xz.NewWriter(w)
	if err != nil {
		return fmt.Errorf("create xz writer: %w", err)
	}
	if err := json.NewEncoder(zw).Encode(bundle); err != nil {
		zw.Close()
		return fmt.Errorf("encode bundle: %w", err)
	}
	return zw.Close()
}

// Import reads an xz-compressed JSON bundle from r and upserts its
// contents.
func (s *Store) Import(r io.Reader) (*Bundle, error) {
	zr, err := xz.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xz reader: %w", err)
	}
	var bundle Bundle
	if err := json.NewDecoder(zr).Decode(&bundle); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}
	if bundle.Version != BundleVersion {
		return nil, fmt.Errorf("unsupported bundle version %d", bundle.Version)
	}
	for _, t := range bundle.Terms {
		if err := s.PutTerm(t); err != nil {
			return nil, err
		}
	}
	for _, rec := range bundle.Indices {
		if err := s.PutIndex(rec); err != nil {
			return nil, err
		}
	}
	return &bundle, nil
}

// ExportFile writes the catalog bundle to path.
func (s *Store) ExportFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := s.Export(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ImportFile reads a catalog bundle from path.
func (s *Store) ImportFile(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return s.Import(f)
}

func decodeRecord(data, title string) (*index.Record, error) {
	var rec index.Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", title, err)
	}
	return &rec, nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
