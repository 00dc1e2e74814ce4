package api

import "github.com/starford/filedock/internal/models"

// FolderResponse is a folder listing in backend order.
type FolderResponse struct {
	Path    string         `json:"path" example:"/docs" validate:"required"`
	Entries []models.Entry `json:"entries" validate:"required"`
}

// FileResponse is the content of one file.
type FileResponse struct {
	Path     string `json:"path" example:"/docs/b.txt" validate:"required"`
	Content  string `json:"content" example:"world"`
	Checksum string `json:"checksum" example:"486ea462..." validate:"required"`
}

// WriteRequest is the request body for writing a file.
type WriteRequest struct {
	Content string `json:"content" example:"# Hello\nWorld"`
}

// WriteResponse is returned after a successful write.
type WriteResponse struct {
	Path     string `json:"path" example:"/notes" validate:"required"`
	Checksum string `json:"checksum" example:"2d711642..." validate:"required"`
}

// OpenDialogResponse is the file chosen in an Open dialog.
type OpenDialogResponse = FileResponse

// SaveDialogRequest is the content to write where the user chooses.
type SaveDialogRequest = WriteRequest
