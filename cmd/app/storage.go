package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/starford/filedock/internal/checksum"
	"github.com/starford/filedock/internal/models"
	"github.com/starford/filedock/internal/storage"
)

func listFolder(ctx context.Context, b storage.Backend, path models.Path, w io.Writer) error {
	entries, err := b.ReadFolder(ctx, path)
	if err != nil {
		return err
	}
	for _, e := range entries {
		name := e.Name
		if e.IsFolder() {
			name += "/"
		}
		if _, err := fmt.Fprintln(w, name); err != nil {
			return err
		}
	}
	return nil
}

func catFile(ctx context.Context, b storage.Backend, path models.Path, w io.Writer) error {
	content, err := b.ReadFile(ctx, path)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, content)
	return err
}

func putFile(ctx context.Context, b storage.Backend, path models.Path, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	if err := b.WriteFile(ctx, path, string(data)); err != nil {
		return err
	}
	slog.Info("file written", slog.String("path", path.String()), slog.String("checksum", checksum.Bytes(data)))
	return nil
}
