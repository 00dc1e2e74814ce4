package channel

import (
	"log/slog"
	"sync"

	"github.com/starford/filedock/internal/protocol"
)

type pipe struct {
	done      chan struct{}
	closeOnce sync.Once
	logger    *slog.Logger
}

type pipeEnd struct {
	p     *pipe
	inbox chan protocol.Message
	peer  *pipeEnd
}

// Pipe returns the two ends of an in-process connection. Messages sent on
// one end arrive, re-decoded from their wire form, on the other.
func Pipe(opts ...Option) (Port, Port) {
	o := buildOptions(opts)
	p := &pipe{done: make(chan struct{}), logger: o.logger}
	a := &pipeEnd{p: p, inbox: make(chan protocol.Message, o.inboxSize)}
	b := &pipeEnd{p: p, inbox: make(chan protocol.Message, o.inboxSize)}
	a.peer, b.peer = b, a
	return a, b
}

func (e *pipeEnd) Send(msg protocol.Message) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	decoded, err := protocol.Decode(data)
	if err != nil {
		e.p.logger.Warn("channel: rejected frame", slog.String("error", err.Error()))
		return nil
	}
	return deliver(e.peer.inbox, e.p.done, decoded, e.p.logger)
}

func (e *pipeEnd) Receive() <-chan protocol.Message {
	return e.inbox
}

func (e *pipeEnd) Done() <-chan struct{} {
	return e.p.done
}

func (e *pipeEnd) Close() error {
	e.p.closeOnce.Do(func() { close(e.p.done) })
	return nil
}
