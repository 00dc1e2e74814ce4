package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/starford/filedock/internal/apperr"
	"github.com/starford/filedock/internal/models"
)

type folderResponse struct {
	Entries []models.Entry `json:"entries"`
}

type fileResponse struct {
	Content  string `json:"content"`
	Checksum string `json:"checksum"`
}

type writeRequest struct {
	Content string `json:"content"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// maxResponse caps how much of a response body is read.
const maxResponse = 32 << 20

func (b *Backend) call(ctx context.Context, method string, u *url.URL, in, out any) error {
	token, err := b.bearer()
	if err != nil {
		return err
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("remote: encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("remote: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.http.Do(req)
	if err != nil {
		return fmt.Errorf("remote: %s %s: %w", method, u.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponse))
	if err != nil {
		return fmt.Errorf("remote: read response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return statusError(resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("remote: decode response: %w", err)
	}
	return nil
}

// statusError maps a service status onto the error taxonomy. The response
// body only contributes its message text.
func statusError(status int, body []byte) error {
	var er errorResponse
	_ = json.Unmarshal(body, &er)
	msg := er.Error
	if msg == "" {
		msg = http.StatusText(status)
	}
	if sentinel := apperr.FromKind(er.Kind); sentinel != nil && !errors.Is(sentinel, apperr.ErrUserCancelled) {
		return fmt.Errorf("remote: %w: %s", sentinel, msg)
	}
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("remote: %w: %s", apperr.ErrAccessDenied, msg)
	case http.StatusNotFound:
		return fmt.Errorf("remote: %w: %s", apperr.ErrNotFound, msg)
	case http.StatusBadRequest:
		return fmt.Errorf("remote: %w: %s", apperr.ErrInvalidPath, msg)
	default:
		return fmt.Errorf("remote: unexpected status %d: %s", status, msg)
	}
}
