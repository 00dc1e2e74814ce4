package internal

import (
	"log/slog"

	"github.com/starford/filedock/internal/storage"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config  *Config
	logger  *slog.Logger
	backend storage.Backend
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithLogger replaces the JSON stdout logger Run builds from the config.
func WithLogger(l *slog.Logger) Option {
	return func(a *application) {
		a.logger = l
	}
}

// WithBackend serves b instead of the backend named in the config.
func WithBackend(b storage.Backend) Option {
	return func(a *application) {
		a.backend = b
	}
}
