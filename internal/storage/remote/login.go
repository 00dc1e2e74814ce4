package remote

import (
	"context"
	"sync"

	"github.com/starford/filedock/internal/channel"
	"github.com/starford/filedock/internal/protocol"
)

// TokenLogin is a headless LoginSurface for service accounts: it answers
// the setClientID request with a preconfigured token. An empty token
// answers with a login error.
type TokenLogin struct {
	token string

	mu   sync.Mutex
	port channel.Port
}

// NewTokenLogin returns a login surface that grants token.
func NewTokenLogin(token string) *TokenLogin {
	return &TokenLogin{token: token}
}

// Open starts the surface and returns the host's end of its port.
func (l *TokenLogin) Open(context.Context) (channel.Port, error) {
	host, surface := channel.Pipe()
	l.mu.Lock()
	l.port = host
	l.mu.Unlock()

	go func() {
		for {
			select {
			case msg := <-surface.Receive():
				if _, ok := msg.(protocol.SetClientID); !ok {
					continue
				}
				reply := protocol.DialogLogin{AccessToken: l.token}
				if l.token == "" {
					reply.Error = "no token configured"
				}
				_ = surface.Send(reply)
				return
			case <-surface.Done():
				return
			}
		}
	}()
	return host, nil
}

// Close tears the surface down.
func (l *TokenLogin) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.port == nil {
		return nil
	}
	err := l.port.Close()
	l.port = nil
	return err
}
