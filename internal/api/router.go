package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/filedock/internal/storage"
)

// RouterConfig collects what NewRouter mounts.
type RouterConfig struct {
	Backend     storage.Backend
	Dialogs     Dialogs // nil disables /dialog
	AuthEnabled bool
	Token       string
	// Notify, if non-nil, is told about writes made through the API.
	Notify Notifier
	// Events, if non-nil, is mounted at GET /events inside the auth group.
	Events http.Handler
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(cfg.AuthEnabled, cfg.Token))

	r.Mount("/storage", storageRoutes(NewStorageHandler(cfg.Backend, cfg.Notify)))

	if cfg.Dialogs != nil {
		dh := NewDialogHandler(cfg.Dialogs)
		r.Post("/dialog/open", dh.Open)
		r.Post("/dialog/save", dh.Save)
	}

	// SSE endpoint (protected by same auth middleware).
	if cfg.Events != nil {
		r.Get("/events", cfg.Events.ServeHTTP)
	}

	return r
}

// NewStorageRouter serves only the storage service, for mounting at
// /api/storage.
func NewStorageRouter(backend storage.Backend, authEnabled bool, token string) chi.Router {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))
	r.Mount("/", storageRoutes(NewStorageHandler(backend, nil)))
	return r
}

func storageRoutes(h *StorageHandler) chi.Router {
	r := chi.NewRouter()
	r.Get("/folders", h.ListRoot)
	r.Get("/folders/*", h.ListFolder)
	r.Get("/files/*", h.GetFile)
	r.Put("/files/*", h.PutFile)
	return r
}
