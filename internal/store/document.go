package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/rlowe/countback/internal/model"
)

// documentKey is the row key for the single tracker document. The table is
// plain key-value so a future second document (e.g. an import staging copy)
// costs nothing, but today exactly one row exists.
const documentKey = "tracker"

// StorageError marks a persistence failure. Mutations are memory-first:
// callers keep the updated in-memory document and surface the error as a
// non-fatal notification instead of rolling back.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// DocumentStore persists the whole tracker document as one JSON value.
// Load and Save are whole-document: there are no partial writes.
type DocumentStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewDocumentStore(db *sql.DB, logger *slog.Logger) *DocumentStore {
	return &DocumentStore{db: db, logger: logger}
}

// Load reads the stored document. An absent row yields the empty document.
// Malformed individual records are skipped during decoding; only an
// unreadable row or undecodable top-level value is an error.
func (s *DocumentStore) Load() (model.Document, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM documents WHERE key = ?`, documentKey).Scan(&value)
	if err == sql.ErrNoRows {
		return model.EmptyDocument(), nil
	}
	if err != nil {
		return model.EmptyDocument(), &StorageError{Op: "load", Err: err}
	}

	doc, err := model.DecodeDocument([]byte(value), s.logger)
	if err != nil {
		return model.EmptyDocument(), &StorageError{Op: "decode", Err: err}
	}
	return doc, nil
}

// Save replaces the stored document.
func (s *DocumentStore) Save(doc model.Document) error {
	data, err := doc.Encode()
	if err != nil {
		return &StorageError{Op: "encode", Err: err}
	}

	_, err = s.db.Exec(
		`INSERT INTO documents (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		documentKey, string(data), time.Now().UTC(),
	)
	if err != nil {
		return &StorageError{Op: "save", Err: err}
	}
	return nil
}
