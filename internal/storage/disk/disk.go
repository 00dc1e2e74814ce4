// Package disk provides a hierarchical storage backend on a local directory.
package disk

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/starford/filedock/internal/apperr"
	"github.com/starford/filedock/internal/checksum"
	"github.com/starford/filedock/internal/models"
	"github.com/starford/filedock/internal/storage"
)

// TempPattern names in-flight writes; listings skip matching files.
const TempPattern = ".filedock-tmp-*"

// FS implements storage.Backend on the local file system.
type FS struct {
	root string // absolute path to the storage directory
}

var _ storage.Backend = (*FS)(nil)

// New creates a backend rooted at the given directory.
// The directory must already exist.
func New(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("disk: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("disk: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("disk: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute storage directory.
func (f *FS) Root() string { return f.root }

// Describe names the backend for logs.
func (f *FS) Describe() string { return "disk" }

// GetAccess checks that the root directory is still there.
func (f *FS) GetAccess(context.Context) error {
	info, err := os.Stat(f.root)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("disk: %w: root %s unavailable", apperr.ErrAccessDenied, f.root)
	}
	return nil
}

// safePath maps path onto the root and rejects anything that escapes it.
func (f *FS) safePath(path models.Path) (string, error) {
	if err := storage.CheckPath("disk", path); err != nil {
		return "", err
	}
	if path.IsRoot() {
		return f.root, nil
	}
	abs := filepath.Join(append([]string{f.root}, path...)...)
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("disk: %w: path escapes root: %s", apperr.ErrInvalidPath, path)
	}
	return abs, nil
}

// ReadFolder lists the directory at path in name order, ".." first below
// the root. File entries carry size, modification time and checksum.
func (f *FS) ReadFolder(_ context.Context, path models.Path) ([]models.Entry, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return nil, err
	}
	dirents, err := os.ReadDir(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || isNotDir(abs) {
			return nil, fmt.Errorf("disk: %w: %s", apperr.ErrNotFound, path)
		}
		return nil, fmt.Errorf("disk: read dir %s: %w", path, err)
	}

	entries := make([]models.Entry, 0, len(dirents))
	for _, d := range dirents {
		if matched, _ := filepath.Match(TempPattern, d.Name()); matched {
			continue
		}
		info, err := os.Stat(filepath.Join(abs, d.Name()))
		if err != nil {
			continue
		}
		switch {
		case info.IsDir():
			entries = append(entries, models.Entry{Name: d.Name(), Type: models.EntryFolder})
		case info.Mode().IsRegular():
			meta := map[string]any{
				"size":     info.Size(),
				"modified": info.ModTime().UTC().Format(time.RFC3339),
			}
			if data, err := os.ReadFile(filepath.Join(abs, d.Name())); err == nil {
				meta["checksum"] = checksum.Bytes(data)
			}
			entries = append(entries, models.Entry{Name: d.Name(), Type: models.EntryFile, Meta: meta})
		}
	}
	return storage.WithParentEntry(path, entries), nil
}

func isNotDir(abs string) bool {
	info, err := os.Stat(abs)
	return err == nil && !info.IsDir()
}

// ReadFile returns the text of the file at path.
func (f *FS) ReadFile(_ context.Context, path models.Path) (string, error) {
	if err := storage.CheckFilePath("disk", path); err != nil {
		return "", err
	}
	abs, err := f.safePath(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil || !info.Mode().IsRegular() {
		return "", fmt.Errorf("disk: %w: %s", apperr.ErrNotFound, path)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return "", fmt.Errorf("disk: read %s: %w", path, err)
	}
	return string(data), nil
}

// WriteFile atomically writes content: tmp file → fsync → rename.
// The parent directory must already exist.
func (f *FS) WriteFile(_ context.Context, path models.Path, content string) error {
	if err := storage.CheckFilePath("disk", path); err != nil {
		return err
	}
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return fmt.Errorf("disk: %w: parent of %s", apperr.ErrNotFound, path)
	}
	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		return fmt.Errorf("disk: %w: %s is a folder", apperr.ErrWriteFailed, path)
	}

	tmp, err := os.CreateTemp(dir, TempPattern)
	if err != nil {
		return fmt.Errorf("disk: %w: create temp: %v", apperr.ErrWriteFailed, err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.WriteString(content); err != nil {
		return fmt.Errorf("disk: %w: write temp: %v", apperr.ErrWriteFailed, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("disk: %w: fsync: %v", apperr.ErrWriteFailed, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("disk: %w: close temp: %v", apperr.ErrWriteFailed, err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("disk: %w: rename: %v", apperr.ErrWriteFailed, err)
	}
	success = true
	return nil
}
