// Package local provides a flat, persistent storage backend on SQLite.
//
// Every file lives in a single namespace: its row key is the store's prefix
// followed by the file name, so listing the root means scanning all keys
// that start with the prefix. Paths must be exactly one segment long.
package local

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/filedock/internal/apperr"
	"github.com/starford/filedock/internal/models"
	"github.com/starford/filedock/internal/storage"
)

// DefaultPrefix is the namespace used when none is configured.
const DefaultPrefix = "_fileSystem"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS files (
	key        TEXT PRIMARY KEY,
	content    TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Store implements storage.Backend on a SQLite table.
type Store struct {
	conn   *sql.DB
	prefix string
}

var _ storage.Backend = (*Store)(nil)

// Open opens (or creates) the database at dsn and applies the schema.
func Open(dsn, prefix string) (*Store, error) {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("local: open db: %w", err)
	}
	if dsn == ":memory:" {
		// Every pooled connection would otherwise see its own empty database.
		conn.SetMaxOpenConns(1)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("local: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("local: apply schema: %w", err)
	}
	return &Store{conn: conn, prefix: prefix}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Describe names the backend for logs.
func (s *Store) Describe() string { return "local" }

// Prefix returns the namespace prefix of this store.
func (s *Store) Prefix() string { return s.prefix }

// GetAccess checks that the database accepts writes. The check row is
// written inside a transaction that is always rolled back.
func (s *Store) GetAccess(ctx context.Context) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("local: %w: %v", apperr.ErrAccessDenied, err)
	}
	defer tx.Rollback()
	check := s.prefix + "\x00access"
	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO files (key, content) VALUES (?, ?)`, check, check); err != nil {
		return fmt.Errorf("local: %w: %v", apperr.ErrAccessDenied, err)
	}
	return nil
}

// ReadFolder lists every file in the namespace. Only the root exists.
func (s *Store) ReadFolder(ctx context.Context, path models.Path) ([]models.Entry, error) {
	if !path.IsRoot() {
		return nil, fmt.Errorf("local: %w: flat store has no folder %s", apperr.ErrInvalidPath, path)
	}
	rows, err := s.conn.QueryContext(ctx,
		`SELECT key, updated_at FROM files WHERE instr(key, ?) = 1 ORDER BY key`, s.prefix)
	if err != nil {
		return nil, fmt.Errorf("local: list: %w", err)
	}
	defer rows.Close()

	entries := []models.Entry{}
	for rows.Next() {
		var key string
		var updated time.Time
		if err := rows.Scan(&key, &updated); err != nil {
			return nil, fmt.Errorf("local: scan: %w", err)
		}
		entries = append(entries, models.Entry{
			Name: key[len(s.prefix):],
			Type: models.EntryFile,
			Meta: map[string]any{"modified": updated.UTC().Format(time.RFC3339)},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("local: list: %w", err)
	}
	return entries, nil
}

func (s *Store) key(path models.Path) (string, error) {
	if len(path) != 1 {
		return "", fmt.Errorf("local: %w: %s must be a single file name", apperr.ErrInvalidPath, path)
	}
	if err := storage.CheckFilePath("local", path); err != nil {
		return "", err
	}
	return s.prefix + path[0], nil
}

// ReadFile returns the content stored under the file's key.
func (s *Store) ReadFile(ctx context.Context, path models.Path) (string, error) {
	key, err := s.key(path)
	if err != nil {
		return "", err
	}
	var content string
	err = s.conn.QueryRowContext(ctx, `SELECT content FROM files WHERE key = ?`, key).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("local: %w: %s", apperr.ErrNotFound, path)
	}
	if err != nil {
		return "", fmt.Errorf("local: read %s: %w", path, err)
	}
	return content, nil
}

// WriteFile upserts the file's row in a single statement.
func (s *Store) WriteFile(ctx context.Context, path models.Path, content string) error {
	key, err := s.key(path)
	if err != nil {
		return err
	}
	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO files (key, content, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at`,
		key, content)
	if err != nil {
		return fmt.Errorf("local: %w: %s: %v", apperr.ErrWriteFailed, path, err)
	}
	return nil
}
