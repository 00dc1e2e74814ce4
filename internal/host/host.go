// Package host implements the controller side of the file dialog protocol.
//
// A Controller owns the active storage backend and runs one dialog session
// at a time. Each session drives a Surface (the isolated dialog UI) through
// an explicit navigate → list → await loop. Every loop iteration installs a
// new generation; messages and listings that belong to an older generation
// are dropped.
package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/starford/filedock/internal/apperr"
	"github.com/starford/filedock/internal/channel"
	"github.com/starford/filedock/internal/frame"
	"github.com/starford/filedock/internal/models"
	"github.com/starford/filedock/internal/storage"
)

// Surface is an isolated dialog UI the controller can drive.
type Surface interface {
	// Load (re)loads the UI and returns once it has announced readiness.
	Load(ctx context.Context) error
	// Port is the host end of the UI's channel; valid after Load.
	Port() channel.Port
	Show()
	Hide()
}

// SurfaceFactory creates the surface a controller uses when the caller
// does not supply one.
type SurfaceFactory func() Surface

var errSuperseded = errors.New("superseded by a newer dialog")

// Controller runs File Open and File Save dialogs against a backend.
type Controller struct {
	logger   *slog.Logger
	factory  SurfaceFactory
	remember bool

	mu      sync.Mutex
	backend storage.Backend
	// backendGen changes with every SetStorageBackend; sessions record it
	// so a remembered path is only kept for the backend it was browsed on.
	backendGen uint64
	gen        uint64
	active     *session
	owned      Surface
	lastPath   models.Path
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSurfaceFactory replaces the default in-process frame surface.
func WithSurfaceFactory(f SurfaceFactory) Option {
	return func(c *Controller) {
		if f != nil {
			c.factory = f
		}
	}
}

// WithRememberLastFolder makes each new dialog start in the folder where
// the previous one ended instead of at the root.
func WithRememberLastFolder(remember bool) Option {
	return func(c *Controller) { c.remember = remember }
}

// New creates a controller for backend.
func New(backend storage.Backend, opts ...Option) *Controller {
	c := &Controller{logger: slog.Default(), backend: backend}
	for _, opt := range opts {
		opt(c)
	}
	if c.factory == nil {
		logger := c.logger
		c.factory = func() Surface { return frame.New(frame.WithLogger(logger)) }
	}
	return c
}

// SetStorageBackend switches the backend used by subsequent dialogs.
// Handles already resolved keep the backend they were created with.
func (c *Controller) SetStorageBackend(b storage.Backend) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.backend = b
	c.backendGen++
	c.lastPath = nil
	c.logger.Info("host: storage backend set", slog.String("backend", storage.Describe(b)))
}

// Backend returns the current backend.
func (c *Controller) Backend() storage.Backend {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.backend
}

// Surface returns the controller-owned surface, creating it on first use.
func (c *Controller) Surface() Surface {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.owned == nil {
		c.owned = c.factory()
	}
	return c.owned
}

// OpenFile shows an Open dialog and returns a handle for the chosen file.
// A nil surface means the controller's own surface, which it shows and
// hides itself. Cancellation fails with apperr.ErrUserCancelled.
func (c *Controller) OpenFile(ctx context.Context, surface Surface) (*OpenHandle, error) {
	b, path, err := c.run(ctx, models.ModeOpen, surface)
	if err != nil {
		return nil, err
	}
	return &OpenHandle{path: path, backend: b, logger: c.logger}, nil
}

// SaveFile shows a Save dialog and returns a handle for the destination.
func (c *Controller) SaveFile(ctx context.Context, surface Surface) (*SaveHandle, error) {
	b, path, err := c.run(ctx, models.ModeSave, surface)
	if err != nil {
		return nil, err
	}
	return &SaveHandle{path: path, backend: b, logger: c.logger}, nil
}

// OpenFileAsync runs OpenFile on its own goroutine and reports through
// exactly one of the continuations. Nil continuations log instead.
func (c *Controller) OpenFileAsync(onSuccess func(*OpenHandle), onFailure func(error), surface Surface) {
	if onSuccess == nil {
		onSuccess = func(h *OpenHandle) {
			c.logger.Debug("host: open resolved", slog.String("path", h.Path().String()))
		}
	}
	onFailure = c.failureOrDebug(onFailure)
	go func() {
		h, err := c.OpenFile(context.Background(), surface)
		if err != nil {
			onFailure(err)
			return
		}
		onSuccess(h)
	}()
}

// SaveFileAsync runs SaveFile on its own goroutine.
func (c *Controller) SaveFileAsync(onSuccess func(*SaveHandle), onFailure func(error), surface Surface) {
	if onSuccess == nil {
		onSuccess = func(h *SaveHandle) {
			c.logger.Debug("host: save resolved", slog.String("path", h.Path().String()))
		}
	}
	onFailure = c.failureOrDebug(onFailure)
	go func() {
		h, err := c.SaveFile(context.Background(), surface)
		if err != nil {
			onFailure(err)
			return
		}
		onSuccess(h)
	}()
}

func (c *Controller) failureOrDebug(fn func(error)) func(error) {
	if fn != nil {
		return fn
	}
	return func(err error) {
		c.logger.Debug("host: dialog failed",
			slog.String("kind", apperr.Kind(err)), slog.String("error", err.Error()))
	}
}

// run starts a session, superseding any pending one, and blocks until it
// resolves.
func (c *Controller) run(ctx context.Context, mode models.Mode, surface Surface) (storage.Backend, models.Path, error) {
	owned := surface == nil
	if owned {
		surface = c.Surface()
	}
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	c.mu.Lock()
	if c.backend == nil {
		c.mu.Unlock()
		return nil, nil, fmt.Errorf("host: %w: no storage backend", apperr.ErrAccessDenied)
	}
	prev := c.active
	if prev != nil {
		prev.cancel(errSuperseded)
	}
	s := &session{
		id:         uuid.NewString(),
		c:          c,
		mode:       mode,
		surface:    surface,
		owned:      owned,
		backend:    c.backend,
		backendGen: c.backendGen,
		cancel:     cancel,
		path:       models.Path{},
		done:       make(chan struct{}),
	}
	if c.remember {
		s.path = c.lastPath.Clone()
	}
	c.active = s
	c.mu.Unlock()

	defer c.release(s)
	// The superseded session must stop reading the shared port first.
	if prev != nil {
		select {
		case <-prev.done:
		case <-ctx.Done():
			return nil, nil, s.cancelled(ctx)
		}
	}
	path, err := s.run(ctx)
	return s.backend, path, err
}

// install starts a new generation for s. It fails once s is superseded.
func (c *Controller) install(s *session) (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != s {
		return 0, false
	}
	c.gen++
	return c.gen, true
}

// current reports whether seq is the live generation.
func (c *Controller) current(seq uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen == seq
}

func (c *Controller) release(s *session) {
	defer close(s.done)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.remember && c.backendGen == s.backendGen {
		c.lastPath = s.path.Clone()
	}
	if c.active == s {
		c.active = nil
	}
}
