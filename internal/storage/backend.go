// Package storage defines the capability every storage backend offers to
// the file dialog.
package storage

import (
	"context"
	"fmt"

	"github.com/starford/filedock/internal/apperr"
	"github.com/starford/filedock/internal/models"
)

// Backend is the four-operation contract shared by every storage provider.
// Each call returns exactly one outcome: a value, or an error wrapping one
// of the apperr kinds.
type Backend interface {
	// GetAccess establishes whatever the backend needs before use. It is
	// idempotent: once access is established it returns immediately.
	GetAccess(ctx context.Context) error
	// ReadFolder lists the folder at path in backend-defined order.
	ReadFolder(ctx context.Context, path models.Path) ([]models.Entry, error)
	// ReadFile returns the full text of the file at path.
	ReadFile(ctx context.Context, path models.Path) (string, error)
	// WriteFile creates or silently overwrites the file at path. Either the
	// new content is stored or the previous content is left untouched.
	WriteFile(ctx context.Context, path models.Path, content string) error
}

// Describer is implemented by backends that can name themselves for logs.
type Describer interface {
	Describe() string
}

// Describe returns a short label for b.
func Describe(b Backend) string {
	if b == nil {
		return "none"
	}
	if d, ok := b.(Describer); ok {
		return d.Describe()
	}
	return fmt.Sprintf("%T", b)
}

// WithParentEntry prepends the ".." row to listings below the root.
func WithParentEntry(path models.Path, entries []models.Entry) []models.Entry {
	if path.IsRoot() {
		return entries
	}
	out := make([]models.Entry, 0, len(entries)+1)
	out = append(out, models.ParentEntry())
	return append(out, entries...)
}

// CheckPath rejects paths containing segments that cannot be stored.
func CheckPath(pkg string, path models.Path) error {
	if !path.Valid() {
		return fmt.Errorf("%s: %w: %s", pkg, apperr.ErrInvalidPath, path)
	}
	return nil
}

// CheckFilePath rejects the root and malformed paths as file locations.
func CheckFilePath(pkg string, path models.Path) error {
	if path.IsRoot() {
		return fmt.Errorf("%s: %w: root is not a file", pkg, apperr.ErrInvalidPath)
	}
	return CheckPath(pkg, path)
}
