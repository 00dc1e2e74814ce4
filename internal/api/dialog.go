package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/starford/filedock/internal/checksum"
	"github.com/starford/filedock/internal/host"
)

// Dialogs runs file dialogs; *host.Controller implements it.
type Dialogs interface {
	OpenFile(ctx context.Context, surface host.Surface) (*host.OpenHandle, error)
	SaveFile(ctx context.Context, surface host.Surface) (*host.SaveHandle, error)
}

// DialogHandler exposes the host dialogs to the application over HTTP.
// Requests block until the user resolves the dialog in the browser.
type DialogHandler struct {
	dialogs Dialogs
}

// NewDialogHandler creates a handler over dialogs.
func NewDialogHandler(dialogs Dialogs) *DialogHandler {
	return &DialogHandler{dialogs: dialogs}
}

// Open handles POST /api/dialog/open.
//
//	@Summary		Run a File > Open dialog and return the chosen file
//	@Tags			dialog
//	@Produce		json
//	@Success		200	{object}	OpenDialogResponse
//	@Failure		409	{object}	errResponse	"User cancelled"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/dialog/open [post]
func (h *DialogHandler) Open(w http.ResponseWriter, r *http.Request) {
	handle, err := h.dialogs.OpenFile(r.Context(), nil)
	if err != nil {
		writeError(w, err, slog.String("op", "dialog.open"))
		return
	}
	content, err := handle.Get(r.Context())
	if err != nil {
		writeError(w, err, slog.String("op", "dialog.open"), slog.String("path", handle.Path().String()))
		return
	}
	writeJSON(w, http.StatusOK, OpenDialogResponse{
		Path:     handle.Path().String(),
		Content:  content,
		Checksum: checksum.Of(content),
	})
}

// Save handles POST /api/dialog/save.
//
//	@Summary		Run a File > Save dialog and write the content there
//	@Tags			dialog
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SaveDialogRequest	true	"Content to save"
//	@Success		200		{object}	WriteResponse
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse	"User cancelled"
//	@Security		BearerAuth
//	@Router			/dialog/save [post]
func (h *DialogHandler) Save(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	var req SaveDialogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body", "invalid_request"))
		return
	}
	handle, err := h.dialogs.SaveFile(r.Context(), nil)
	if err != nil {
		writeError(w, err, slog.String("op", "dialog.save"))
		return
	}
	if err := handle.Update(r.Context(), req.Content); err != nil {
		writeError(w, err, slog.String("op", "dialog.save"), slog.String("path", handle.Path().String()))
		return
	}
	writeJSON(w, http.StatusOK, WriteResponse{
		Path:     handle.Path().String(),
		Checksum: checksum.Of(req.Content),
	})
}
