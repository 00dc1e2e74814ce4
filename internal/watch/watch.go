// Package watch reports changes made to a disk backend's directory by
// other processes, so open dialogs can refresh their listings.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/filedock/internal/models"
	"github.com/starford/filedock/internal/storage/disk"
)

// EventCallback is called for every change below the root.
// kind is one of "created", "updated", "deleted"; path is a storage path
// such as "/docs/b.txt".
type EventCallback func(kind string, path string)

// Watch starts an fsnotify watcher on root and reports changes until ctx is
// cancelled. New directories created at runtime are added to the watch
// list. In-flight temp files of atomic writes are not reported.
func Watch(ctx context.Context, root string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	report := func(kind, absPath string) {
		rel, relErr := filepath.Rel(root, absPath)
		if relErr != nil || outside(rel) {
			return
		}
		path := models.ParsePath(filepath.ToSlash(rel)).String()
		logger.Debug("watcher: change", slog.String("path", path), slog.String("op", kind))
		if cb != nil {
			cb(kind, path)
		}
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name
			if isTemp(absPath) {
				continue
			}

			// --- Handle new directories: add to watcher ---
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", absPath))
					}
					report("created", absPath)
					continue
				}
			}

			switch {
			case ev.Op&fsnotify.Create != 0:
				report("created", absPath)
			case ev.Op&fsnotify.Write != 0:
				report("updated", absPath)
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				// fsnotify fires Rename on the OLD path only; the new path
				// arrives as a separate Create.
				report("deleted", absPath)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// outside reports whether a root-relative path escapes the root. Names
// that merely start with ".." (such as "..notes") are inside.
func outside(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func isTemp(absPath string) bool {
	matched, _ := filepath.Match(disk.TempPattern, filepath.Base(absPath))
	return matched
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
