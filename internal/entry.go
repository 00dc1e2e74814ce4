// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/filedock/internal/api"
	"github.com/starford/filedock/internal/host"
	"github.com/starford/filedock/internal/sse"
	"github.com/starford/filedock/internal/storage"
	"github.com/starford/filedock/internal/storage/disk"
	"github.com/starford/filedock/internal/watch"
	"github.com/starford/filedock/internal/web"
)

// server holds the components the HTTP handler is assembled from.
type server struct {
	cfg        *Config
	logger     *slog.Logger
	backend    storage.Backend
	broker     *sse.Broker
	surface    *web.Surface
	controller *host.Controller
}

func newServer(cfg *Config, backend storage.Backend, logger *slog.Logger) *server {
	broker := sse.NewBroker(cfg.Dialog.Throttle)
	surface := web.New(broker,
		web.WithLogger(logger),
		web.WithInboxSize(cfg.Dialog.InboxSize),
	)
	controller := host.New(backend,
		host.WithLogger(logger),
		host.WithRememberLastFolder(cfg.Dialog.RememberLastFolder),
		host.WithSurfaceFactory(func() host.Surface { return surface }),
	)
	return &server{
		cfg:        cfg,
		logger:     logger,
		backend:    backend,
		broker:     broker,
		surface:    surface,
		controller: controller,
	}
}

// handler builds the chi router: health checks, the /api tree and the
// dialog websocket.
func (s *server) handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := s.backend.GetAccess(req.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", api.NewRouter(api.RouterConfig{
		Backend:     s.backend,
		Dialogs:     s.controller,
		AuthEnabled: s.cfg.Auth.AuthEnabled(),
		Token:       s.cfg.Auth.Token,
		Notify:      s.broker.PublishStorageEvent,
		Events:      s.broker,
	}))

	// Browser dialogs authenticate like the page that embeds them.
	r.Group(func(r chi.Router) {
		r.Use(api.AuthMiddleware(s.cfg.Auth.AuthEnabled(), s.cfg.Auth.Token))
		r.Get("/dialog/ws", s.surface.ServeHTTP)
	})

	return r
}

func (s *server) close() {
	_ = s.surface.Close()
	s.broker.Close()
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	logger := app.logger
	if logger == nil {
		// Initialize structured JSON logger.
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
		slog.SetDefault(logger)
	}

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("storage_backend", cfg.Storage.Backend),
		slog.Bool("remember_last_folder", cfg.Dialog.RememberLastFolder),
		slog.String("log_level", cfg.App.LogLevel.String()))

	backend := app.backend
	if backend == nil {
		b, closer, err := OpenBackend(cfg.Storage, logger)
		if err != nil {
			return err
		}
		defer closer.Close()
		backend = b
	}

	srv := newServer(cfg, backend, logger)
	defer srv.close()

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: srv.handler(),
	}

	logger.Info("Server starting...",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("backend", storage.Describe(backend)))

	g, gCtx := errgroup.WithContext(ctx)

	// Announce changes made to the disk root by other processes.
	if fs, ok := backend.(*disk.FS); ok && cfg.Storage.Disk.Watch {
		g.Go(func() error {
			if err := watch.Watch(gCtx, fs.Root(), logger, srv.broker.PublishStorageEvent); err != nil {
				logger.Warn("watcher disabled", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
