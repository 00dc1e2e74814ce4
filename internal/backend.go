package internal

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/starford/filedock/internal/storage"
	"github.com/starford/filedock/internal/storage/disk"
	"github.com/starford/filedock/internal/storage/local"
	"github.com/starford/filedock/internal/storage/memory"
	"github.com/starford/filedock/internal/storage/remote"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenBackend builds the backend selected by cfg. The returned closer
// releases its resources (the SQLite handle for local).
func OpenBackend(cfg StorageConfig, logger *slog.Logger) (storage.Backend, io.Closer, error) {
	switch cfg.Backend {
	case BackendMemory:
		if cfg.Memory.Seed == "" {
			return memory.New(memory.NewFolder()), nopCloser{}, nil
		}
		data, err := os.ReadFile(cfg.Memory.Seed)
		if err != nil {
			return nil, nil, fmt.Errorf("read memory seed: %w", err)
		}
		b, err := memory.Load(data)
		if err != nil {
			return nil, nil, fmt.Errorf("load memory seed %s: %w", cfg.Memory.Seed, err)
		}
		return b, nopCloser{}, nil

	case BackendLocal:
		s, err := local.Open(cfg.Local.DSN, cfg.Local.Prefix)
		if err != nil {
			return nil, nil, fmt.Errorf("open local store: %w", err)
		}
		return s, s, nil

	case BackendDisk:
		if err := os.MkdirAll(cfg.Disk.Root, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create disk root: %w", err)
		}
		fs, err := disk.New(cfg.Disk.Root)
		if err != nil {
			return nil, nil, fmt.Errorf("init disk storage: %w", err)
		}
		return fs, nopCloser{}, nil

	case BackendRemote:
		b, err := remote.New(remote.Config{
			BaseURL:    cfg.Remote.BaseURL,
			ClientID:   cfg.Remote.ClientID,
			HTTPClient: &http.Client{Timeout: cfg.Remote.Timeout},
			Logger:     logger,
		}, remote.NewTokenLogin(cfg.Remote.Token))
		if err != nil {
			return nil, nil, fmt.Errorf("init remote storage: %w", err)
		}
		return b, nopCloser{}, nil
	}
	return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}
