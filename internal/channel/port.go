// Package channel implements the asynchronous, best-effort transports that
// connect the host controller to dialog and login surfaces.
//
// A Port never shares memory with its peer: every message is encoded on
// send and decoded (and validated) on receipt. Delivery is fire-and-forget;
// when the receiving inbox is full the message is dropped and logged.
package channel

import (
	"errors"
	"log/slog"

	"github.com/starford/filedock/internal/protocol"
)

// ErrClosed is returned when sending on a closed port.
var ErrClosed = errors.New("channel: port closed")

// DefaultInboxSize is the number of undelivered messages a port buffers.
const DefaultInboxSize = 64

// Port is one end of a cross-context connection.
type Port interface {
	// Send encodes msg and hands it to the transport without waiting for
	// the peer to process it.
	Send(msg protocol.Message) error
	// Receive returns the inbox of decoded messages from the peer.
	Receive() <-chan protocol.Message
	// Done is closed once the connection is gone.
	Done() <-chan struct{}
	// Close tears down the connection for both ends.
	Close() error
}

type options struct {
	inboxSize int
	logger    *slog.Logger
}

// Option configures a transport.
type Option func(*options)

// WithInboxSize sets the inbox buffer size.
func WithInboxSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.inboxSize = n
		}
	}
}

// WithLogger sets the logger used for dropped and malformed messages.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{inboxSize: DefaultInboxSize, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// deliver performs a non-blocking hand-off to inbox.
func deliver(inbox chan protocol.Message, done <-chan struct{}, msg protocol.Message, logger *slog.Logger) error {
	select {
	case <-done:
		return ErrClosed
	default:
	}
	select {
	case inbox <- msg:
	default:
		logger.Warn("channel: inbox full, message dropped", slog.String("type", string(msg.Kind())))
	}
	return nil
}
