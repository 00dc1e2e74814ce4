// Package web provides a dialog surface for browser clients. The dialog UI
// connects over a websocket; visibility changes are announced through the
// SSE broker so the page can open and close its dialog.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/starford/filedock/internal/channel"
	"github.com/starford/filedock/internal/protocol"
)

// loadTimeout bounds how long a fresh connection may take to send loaded.
const loadTimeout = 10 * time.Second

// Publisher receives visibility changes.
type Publisher interface {
	PublishDialogEvent(id string, visible bool)
}

// Surface is a host.Surface whose UI is a remote browser peer.
// Only one connection is attached at a time; a newer one replaces it.
type Surface struct {
	id       string
	events   Publisher
	logger   *slog.Logger
	chanOpts []channel.Option
	upgrader websocket.Upgrader

	mu       sync.Mutex
	port     channel.Port
	attached chan struct{}
	visible  bool
}

// Option configures a Surface.
type Option func(*Surface)

// WithLogger sets the surface logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Surface) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithInboxSize sets the websocket port buffer size.
func WithInboxSize(n int) Option {
	return func(s *Surface) { s.chanOpts = append(s.chanOpts, channel.WithInboxSize(n)) }
}

// WithCheckOrigin overrides the websocket origin check.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(s *Surface) { s.upgrader.CheckOrigin = fn }
}

// New creates a surface. events may be nil.
func New(events Publisher, opts ...Option) *Surface {
	s := &Surface{
		id:       uuid.NewString(),
		events:   events,
		logger:   slog.Default(),
		attached: make(chan struct{}),
		upgrader: websocket.Upgrader{ReadBufferSize: 4096, WriteBufferSize: 4096},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.chanOpts = append(s.chanOpts, channel.WithLogger(s.logger))
	return s
}

// ID identifies the surface in SSE events.
func (s *Surface) ID() string { return s.id }

// ServeHTTP upgrades a dialog connection (GET /dialog/ws). The connection
// is attached once the page sends loaded.
func (s *Surface) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("web: websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	port := channel.NewWebSocket(conn, s.chanOpts...)
	connID := uuid.NewString()
	s.logger.Debug("web: dialog connected", slog.String("conn", connID), slog.String("remote", r.RemoteAddr))
	go s.awaitLoaded(port, connID)
}

func (s *Surface) awaitLoaded(port channel.Port, connID string) {
	timer := time.NewTimer(loadTimeout)
	defer timer.Stop()
	for {
		select {
		case msg := <-port.Receive():
			if msg.Kind() == protocol.KindLoaded {
				s.attach(port, connID)
				return
			}
			s.logger.Debug("web: message before loaded", slog.String("conn", connID), slog.String("type", string(msg.Kind())))
		case <-port.Done():
			return
		case <-timer.C:
			s.logger.Warn("web: dialog never loaded", slog.String("conn", connID))
			_ = port.Close()
			return
		}
	}
}

func (s *Surface) attach(port channel.Port, connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port != nil {
		_ = s.port.Close()
	}
	s.port = port
	close(s.attached)
	s.attached = make(chan struct{})
	s.logger.Info("web: dialog attached", slog.String("surface", s.id), slog.String("conn", connID))
}

// Load returns once a loaded dialog connection is attached. A live
// connection is reused.
func (s *Surface) Load(ctx context.Context) error {
	for {
		s.mu.Lock()
		port, attached := s.port, s.attached
		s.mu.Unlock()
		if port != nil && alive(port) {
			return nil
		}
		select {
		case <-attached:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func alive(p channel.Port) bool {
	select {
	case <-p.Done():
		return false
	default:
		return true
	}
}

// Port returns the attached connection.
func (s *Surface) Port() channel.Port {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

// Connected reports whether a live dialog connection is attached.
func (s *Surface) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port != nil && alive(s.port)
}

// Show announces dialog.shown.
func (s *Surface) Show() { s.setVisible(true) }

// Hide announces dialog.hidden.
func (s *Surface) Hide() { s.setVisible(false) }

// Visible reports the last Show/Hide.
func (s *Surface) Visible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}

func (s *Surface) setVisible(v bool) {
	s.mu.Lock()
	changed := s.visible != v
	s.visible = v
	s.mu.Unlock()
	if changed && s.events != nil {
		s.events.PublishDialogEvent(s.id, v)
	}
}

// Close drops the attached connection.
func (s *Surface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}
