package host

import (
	"context"
	"log/slog"

	"github.com/starford/filedock/internal/models"
	"github.com/starford/filedock/internal/storage"
)

// OpenHandle is the result of a successful Open: a file path bound to the
// backend it was chosen from. It can be read and written any number of
// times.
type OpenHandle struct {
	path    models.Path
	backend storage.Backend
	logger  *slog.Logger
}

// Path returns a copy of the chosen file's path.
func (h *OpenHandle) Path() models.Path { return h.path.Clone() }

// Get reads the file.
func (h *OpenHandle) Get(ctx context.Context) (string, error) {
	return h.backend.ReadFile(ctx, h.path.Clone())
}

// Update overwrites the file.
func (h *OpenHandle) Update(ctx context.Context, content string) error {
	return h.backend.WriteFile(ctx, h.path.Clone(), content)
}

// GetAsync reads the file on a new goroutine.
func (h *OpenHandle) GetAsync(onSuccess func(string), onFailure func(error)) {
	if onSuccess == nil {
		onSuccess = func(content string) {
			h.logger.Debug("host: file read", slog.String("path", h.path.String()), slog.Int("bytes", len(content)))
		}
	}
	onFailure = debugFailure(h.logger, h.path, onFailure)
	go func() {
		content, err := h.Get(context.Background())
		if err != nil {
			onFailure(err)
			return
		}
		onSuccess(content)
	}()
}

// UpdateAsync writes the file on a new goroutine.
func (h *OpenHandle) UpdateAsync(content string, onSuccess func(), onFailure func(error)) {
	updateAsync(h.logger, h.path, h.Update, content, onSuccess, onFailure)
}

// SaveHandle is the result of a successful Save: a destination path bound
// to the backend it was chosen from.
type SaveHandle struct {
	path    models.Path
	backend storage.Backend
	logger  *slog.Logger
}

// Path returns a copy of the destination path.
func (h *SaveHandle) Path() models.Path { return h.path.Clone() }

// Update writes content to the destination, silently replacing it.
func (h *SaveHandle) Update(ctx context.Context, content string) error {
	return h.backend.WriteFile(ctx, h.path.Clone(), content)
}

// UpdateAsync writes content on a new goroutine.
func (h *SaveHandle) UpdateAsync(content string, onSuccess func(), onFailure func(error)) {
	updateAsync(h.logger, h.path, h.Update, content, onSuccess, onFailure)
}

func updateAsync(logger *slog.Logger, path models.Path, update func(context.Context, string) error,
	content string, onSuccess func(), onFailure func(error)) {
	if onSuccess == nil {
		onSuccess = func() {
			logger.Debug("host: file written", slog.String("path", path.String()))
		}
	}
	onFailure = debugFailure(logger, path, onFailure)
	go func() {
		if err := update(context.Background(), content); err != nil {
			onFailure(err)
			return
		}
		onSuccess()
	}()
}

func debugFailure(logger *slog.Logger, path models.Path, fn func(error)) func(error) {
	if fn != nil {
		return fn
	}
	return func(err error) {
		logger.Debug("host: file operation failed",
			slog.String("path", path.String()), slog.String("error", err.Error()))
	}
}
