// Package remote provides an account-based storage backend. Access is
// granted by a login surface over a channel.Port; afterwards every
// operation is an HTTP call to a filedock storage service.
package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/starford/filedock/internal/apperr"
	"github.com/starford/filedock/internal/channel"
	"github.com/starford/filedock/internal/models"
	"github.com/starford/filedock/internal/protocol"
	"github.com/starford/filedock/internal/storage"
)

// Config holds what the backend needs to reach the storage service.
type Config struct {
	BaseURL  string
	ClientID string
	// HTTPClient defaults to a client with a 30s timeout.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// LoginSurface is the out-of-band authentication UI. Open returns a port
// that receives setClientID and answers with a single dialogLogin.
type LoginSurface interface {
	Open(ctx context.Context) (channel.Port, error)
	Close() error
}

// Backend implements storage.Backend against a remote storage service.
type Backend struct {
	base     *url.URL
	clientID string
	login    LoginSurface
	http     *http.Client
	logger   *slog.Logger

	flight singleflight.Group
	mu     sync.RWMutex
	token  string
	ready  bool

	loginMu  sync.Mutex
	attempt  *loginAttempt
	attempts uint64
}

// loginAttempt is one shared login flow. It runs on its own context,
// cancelled when the last caller waiting on it gives up.
type loginAttempt struct {
	key     string
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

var _ storage.Backend = (*Backend)(nil)

// New creates a backend for cfg. No network or login activity happens until
// GetAccess.
func New(cfg Config, login LoginSurface) (*Backend, error) {
	if login == nil {
		return nil, errors.New("remote: login surface is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("remote: invalid base url %q", cfg.BaseURL)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{base: base, clientID: cfg.ClientID, login: login, http: hc, logger: logger}, nil
}

// Describe names the backend for logs.
func (b *Backend) Describe() string { return "remote" }

// GetAccess runs the login flow once. Concurrent callers share a single
// flow; later calls return immediately. Each caller waits on its own ctx:
// one caller giving up does not fail the others.
func (b *Backend) GetAccess(ctx context.Context) error {
	if b.authorized() {
		return nil
	}
	a := b.joinLogin(ctx)
	defer b.leaveLogin(a)

	ch := b.flight.DoChan(a.key, func() (any, error) {
		if b.authorized() {
			return nil, nil
		}
		token, err := b.runLogin(a.ctx)
		if err != nil {
			return nil, err
		}
		b.mu.Lock()
		b.token, b.ready = token, true
		b.mu.Unlock()
		b.logger.Info("remote: access granted", slog.String("base_url", b.base.String()))
		return nil, nil
	})
	select {
	case r := <-ch:
		return r.Err
	case <-ctx.Done():
		return fmt.Errorf("remote: %w: %v", apperr.ErrAccessDenied, context.Cause(ctx))
	}
}

func (b *Backend) joinLogin(ctx context.Context) *loginAttempt {
	b.loginMu.Lock()
	defer b.loginMu.Unlock()
	if b.attempt == nil {
		b.attempts++
		lctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		b.attempt = &loginAttempt{
			key:    fmt.Sprintf("access-%d", b.attempts),
			ctx:    lctx,
			cancel: cancel,
		}
	}
	b.attempt.waiters++
	return b.attempt
}

func (b *Backend) leaveLogin(a *loginAttempt) {
	b.loginMu.Lock()
	defer b.loginMu.Unlock()
	a.waiters--
	if a.waiters > 0 {
		return
	}
	a.cancel()
	if b.attempt == a {
		b.attempt = nil
	}
}

func (b *Backend) authorized() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ready
}

func (b *Backend) runLogin(ctx context.Context) (string, error) {
	port, err := b.login.Open(ctx)
	if err != nil {
		return "", fmt.Errorf("remote: %w: open login surface: %v", apperr.ErrAccessDenied, err)
	}
	defer func() {
		if err := b.login.Close(); err != nil {
			b.logger.Warn("remote: close login surface", slog.String("error", err.Error()))
		}
	}()

	if err := port.Send(protocol.SetClientID{ClientID: b.clientID}); err != nil {
		return "", fmt.Errorf("remote: %w: %v", apperr.ErrAccessDenied, err)
	}
	for {
		select {
		case msg := <-port.Receive():
			login, ok := msg.(protocol.DialogLogin)
			if !ok {
				b.logger.Debug("remote: ignoring login message", slog.String("type", string(msg.Kind())))
				continue
			}
			if login.AccessToken == "" {
				reason := login.Error
				if reason == "" {
					reason = "no access token"
				}
				return "", fmt.Errorf("remote: %w: %s", apperr.ErrAccessDenied, reason)
			}
			return login.AccessToken, nil
		case <-port.Done():
			return "", fmt.Errorf("remote: %w: login surface closed", apperr.ErrAccessDenied)
		case <-ctx.Done():
			return "", fmt.Errorf("remote: %w: %v", apperr.ErrAccessDenied, ctx.Err())
		}
	}
}

func (b *Backend) bearer() (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.ready {
		return "", fmt.Errorf("remote: %w: access not established", apperr.ErrAccessDenied)
	}
	return b.token, nil
}

// ReadFolder lists the remote folder at path.
func (b *Backend) ReadFolder(ctx context.Context, path models.Path) ([]models.Entry, error) {
	if err := storage.CheckPath("remote", path); err != nil {
		return nil, err
	}
	var out folderResponse
	if err := b.call(ctx, http.MethodGet, b.endpoint("folders", path), nil, &out); err != nil {
		return nil, err
	}
	if out.Entries == nil {
		out.Entries = []models.Entry{}
	}
	return out.Entries, nil
}

// ReadFile downloads the text of the remote file at path.
func (b *Backend) ReadFile(ctx context.Context, path models.Path) (string, error) {
	if err := storage.CheckFilePath("remote", path); err != nil {
		return "", err
	}
	var out fileResponse
	if err := b.call(ctx, http.MethodGet, b.endpoint("files", path), nil, &out); err != nil {
		return "", err
	}
	return out.Content, nil
}

// WriteFile uploads content to path in a single request.
func (b *Backend) WriteFile(ctx context.Context, path models.Path, content string) error {
	if err := storage.CheckFilePath("remote", path); err != nil {
		return err
	}
	err := b.call(ctx, http.MethodPut, b.endpoint("files", path), writeRequest{Content: content}, nil)
	if err == nil {
		return nil
	}
	// Transport failures and unexpected statuses both count as a failed write.
	if errors.Is(err, apperr.ErrAccessDenied) || errors.Is(err, apperr.ErrNotFound) || errors.Is(err, apperr.ErrInvalidPath) {
		return err
	}
	return fmt.Errorf("remote: %w: %v", apperr.ErrWriteFailed, err)
}

// endpoint builds /api/storage/<resource>/<escaped segments>.
func (b *Backend) endpoint(resource string, path models.Path) *url.URL {
	elems := make([]string, 0, len(path)+3)
	elems = append(elems, "api", "storage", resource)
	for _, seg := range path {
		elems = append(elems, url.PathEscape(seg))
	}
	return b.base.JoinPath(elems...)
}
