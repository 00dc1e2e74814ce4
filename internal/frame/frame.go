// Package frame provides the in-process dialog surface: a dialog.Dialog
// running on its own goroutine behind a channel.Pipe.
package frame

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/starford/filedock/internal/channel"
	"github.com/starford/filedock/internal/dialog"
	"github.com/starford/filedock/internal/protocol"
)

// Frame is a dialog surface whose UI lives in the same process.
// Each Load replaces the UI with a fresh dialog instance.
type Frame struct {
	opts options

	mu      sync.Mutex
	port    channel.Port
	dialog  *dialog.Dialog
	stop    context.CancelFunc
	ready   chan struct{}
	visible bool
}

type options struct {
	logger    *slog.Logger
	inboxSize int
	onVisible func(visible bool)
}

// Option configures a Frame.
type Option func(*options)

// WithLogger sets the logger shared by the frame and its dialog.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithInboxSize sets the pipe buffer size.
func WithInboxSize(n int) Option {
	return func(o *options) { o.inboxSize = n }
}

// WithVisibilityHook is called on every Show and Hide.
func WithVisibilityHook(fn func(visible bool)) Option {
	return func(o *options) { o.onVisible = fn }
}

// New creates an unloaded frame.
func New(opts ...Option) *Frame {
	o := options{logger: slog.Default(), inboxSize: channel.DefaultInboxSize}
	for _, opt := range opts {
		opt(&o)
	}
	return &Frame{opts: o, ready: make(chan struct{})}
}

// Load starts a fresh dialog and waits until it announces readiness.
func (f *Frame) Load(ctx context.Context) error {
	host, ui := channel.Pipe(channel.WithInboxSize(f.opts.inboxSize), channel.WithLogger(f.opts.logger))
	d := dialog.New(ui, f.opts.logger)
	runCtx, stop := context.WithCancel(context.Background())

	f.mu.Lock()
	f.closeLocked()
	f.port, f.dialog, f.stop = host, d, stop
	ready := make(chan struct{})
	f.ready = ready
	f.mu.Unlock()

	go func() {
		if err := d.Run(runCtx); err != nil && runCtx.Err() == nil {
			f.opts.logger.Warn("frame: dialog stopped", slog.String("error", err.Error()))
		}
	}()

	for {
		select {
		case msg := <-host.Receive():
			if msg.Kind() == protocol.KindLoaded {
				close(ready)
				return nil
			}
			f.opts.logger.Debug("frame: message before load", slog.String("type", string(msg.Kind())))
		case <-host.Done():
			return fmt.Errorf("frame: closed while loading")
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Port returns the host end of the current dialog's pipe.
func (f *Frame) Port() channel.Port {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.port
}

// Dialog returns the current dialog instance, nil before the first Load.
func (f *Frame) Dialog() *dialog.Dialog {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dialog
}

// Ready returns a channel closed once the current dialog has loaded.
func (f *Frame) Ready() <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ready
}

// Show makes the frame visible.
func (f *Frame) Show() { f.setVisible(true) }

// Hide makes the frame invisible.
func (f *Frame) Hide() { f.setVisible(false) }

// Visible reports whether the frame is shown.
func (f *Frame) Visible() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.visible
}

func (f *Frame) setVisible(v bool) {
	f.mu.Lock()
	f.visible = v
	hook := f.opts.onVisible
	f.mu.Unlock()
	if hook != nil {
		hook(v)
	}
}

// Close stops the current dialog.
func (f *Frame) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeLocked()
	return nil
}

func (f *Frame) closeLocked() {
	if f.stop != nil {
		f.stop()
		f.stop = nil
	}
	if f.port != nil {
		_ = f.port.Close()
	}
}
