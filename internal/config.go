package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/filedock/internal/storage/local"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Storage backends.
const (
	BackendMemory = "memory"
	BackendLocal  = "local"
	BackendDisk   = "disk"
	BackendRemote = "remote"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Storage StorageConfig     `yaml:"storage"`
	Auth    AuthConfig        `yaml:"auth"`
	Dialog  DialogConfig      `yaml:"dialog"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	return c.Dialog.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StorageConfig selects the backend dialogs and the storage service use.
// Only the block matching Backend is validated.
type StorageConfig struct {
	Backend string              `yaml:"backend"`
	Memory  MemoryStorageConfig `yaml:"memory"`
	Local   LocalStorageConfig  `yaml:"local"`
	Disk    DiskStorageConfig   `yaml:"disk"`
	Remote  RemoteStorageConfig `yaml:"remote"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required,
			validation.In(BackendMemory, BackendLocal, BackendDisk, BackendRemote)),
	); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	var err error
	switch c.Backend {
	case BackendLocal:
		err = c.Local.Validate()
	case BackendDisk:
		err = c.Disk.Validate()
	case BackendRemote:
		err = c.Remote.Validate()
	}
	if err != nil {
		return fmt.Errorf("storage.%s: %w", c.Backend, err)
	}
	return nil
}

// MemoryStorageConfig seeds the in-memory tree. Seed is an optional JSON or
// YAML file in the folder/contents format; without it the tree is empty.
type MemoryStorageConfig struct {
	Seed string `yaml:"seed"`
}

// LocalStorageConfig holds the SQLite flat store settings.
type LocalStorageConfig struct {
	DSN    string `yaml:"dsn"`
	Prefix string `yaml:"prefix"`
}

// Validate validates the local storage configuration.
func (c *LocalStorageConfig) Validate() error {
	if c.Prefix == "" {
		c.Prefix = local.DefaultPrefix
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.DSN, validation.Required),
	)
}

// DiskStorageConfig holds the directory served by the disk backend.
type DiskStorageConfig struct {
	Root string `yaml:"root"`
	// Watch enables the fsnotify watcher that announces external changes.
	Watch bool `yaml:"watch"`
}

// Validate validates the disk storage configuration.
func (c *DiskStorageConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
	)
}

// RemoteStorageConfig points the remote backend at another filedock
// storage service. Token is handed over by the headless login surface.
type RemoteStorageConfig struct {
	BaseURL  string        `yaml:"base_url"`
	ClientID string        `yaml:"client_id"`
	Token    string        `yaml:"token"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Validate validates the remote storage configuration.
func (c *RemoteStorageConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required, is.URL),
		validation.Field(&c.ClientID, validation.Required),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

// AuthConfig holds authentication configuration for the HTTP API.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled".
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// DialogConfig tunes the host controller and its browser surface.
type DialogConfig struct {
	// RememberLastFolder starts each dialog where the previous one ended.
	RememberLastFolder bool `yaml:"remember_last_folder"`
	// InboxSize bounds the websocket port buffer.
	InboxSize int `yaml:"inbox_size"`
	// Throttle is the minimum interval between storage.changed events.
	Throttle time.Duration `yaml:"throttle"`
}

// Validate validates the dialog configuration.
func (c *DialogConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.InboxSize, validation.Required, validation.Min(1), validation.Max(4096)),
		validation.Field(&c.Throttle, validation.Min(time.Duration(0))),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Storage: StorageConfig{
			Backend: BackendMemory,
			Local: LocalStorageConfig{
				DSN:    "./filedock.db",
				Prefix: local.DefaultPrefix,
			},
			Disk: DiskStorageConfig{
				Root:  "./files",
				Watch: true,
			},
			Remote: RemoteStorageConfig{
				ClientID: "filedock",
				Timeout:  30 * time.Second,
			},
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Dialog: DialogConfig{
			InboxSize: 64,
			Throttle:  2 * time.Second,
		},
	}
}
