package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/starford/filedock/internal/checksum"
	"github.com/starford/filedock/internal/models"
	"github.com/starford/filedock/internal/storage"
)

// maxBody caps request bodies.
const maxBody = 10 << 20

// Notifier is told about successful writes, e.g. to publish SSE events.
type Notifier func(kind, path string)

// StorageHandler serves a storage.Backend over HTTP.
type StorageHandler struct {
	backend storage.Backend
	notify  Notifier
}

// NewStorageHandler creates a handler over backend. notify may be nil.
func NewStorageHandler(backend storage.Backend, notify Notifier) *StorageHandler {
	return &StorageHandler{backend: backend, notify: notify}
}

// storagePath extracts the backend path from the URL (everything after
// /folders/ or /files/). Segments arrive escaped when the client had to
// escape reserved characters.
func storagePath(r *http.Request) models.Path {
	raw := chi.URLParam(r, "*")
	if r.URL.RawPath != "" {
		if decoded, err := url.PathUnescape(raw); err == nil {
			raw = decoded
		}
	}
	return models.ParsePath(raw)
}

// ListFolder handles GET /api/storage/folders/*.
//
//	@Summary		List a folder
//	@Tags			storage
//	@Produce		json
//	@Param			path	path		string	false	"Folder path"
//	@Success		200		{object}	FolderResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/storage/folders/{path} [get]
func (h *StorageHandler) ListFolder(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, storagePath(r))
}

// ListRoot handles GET /api/storage/folders.
func (h *StorageHandler) ListRoot(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, models.Path{})
}

func (h *StorageHandler) list(w http.ResponseWriter, r *http.Request, path models.Path) {
	entries, err := h.backend.ReadFolder(r.Context(), path)
	if err != nil {
		writeError(w, err, slog.String("op", "list"), slog.String("path", path.String()))
		return
	}
	if entries == nil {
		entries = []models.Entry{}
	}
	writeJSON(w, http.StatusOK, FolderResponse{Path: path.String(), Entries: entries})
}

// GetFile handles GET /api/storage/files/*.
//
//	@Summary		Read a file
//	@Tags			storage
//	@Produce		json
//	@Param			path	path		string	true	"File path"
//	@Success		200		{object}	FileResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/storage/files/{path} [get]
func (h *StorageHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	path := storagePath(r)
	content, err := h.backend.ReadFile(r.Context(), path)
	if err != nil {
		writeError(w, err, slog.String("op", "read"), slog.String("path", path.String()))
		return
	}
	writeJSON(w, http.StatusOK, FileResponse{
		Path:     path.String(),
		Content:  content,
		Checksum: checksum.Of(content),
	})
}

// PutFile handles PUT /api/storage/files/*. Existing files are replaced.
//
//	@Summary		Write a file
//	@Tags			storage
//	@Accept			json
//	@Produce		json
//	@Param			path	path		string			true	"File path"
//	@Param			body	body		WriteRequest	true	"New content"
//	@Success		200		{object}	WriteResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		500		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/storage/files/{path} [put]
func (h *StorageHandler) PutFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	path := storagePath(r)
	var req WriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body", "invalid_request"))
		return
	}
	if err := h.backend.WriteFile(r.Context(), path, req.Content); err != nil {
		writeError(w, err, slog.String("op", "write"), slog.String("path", path.String()))
		return
	}
	if h.notify != nil {
		h.notify("updated", path.String())
	}
	writeJSON(w, http.StatusOK, WriteResponse{
		Path:     path.String(),
		Checksum: checksum.Of(req.Content),
	})
}
