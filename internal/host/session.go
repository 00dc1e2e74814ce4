package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/starford/filedock/internal/apperr"
	"github.com/starford/filedock/internal/channel"
	"github.com/starford/filedock/internal/models"
	"github.com/starford/filedock/internal/protocol"
	"github.com/starford/filedock/internal/storage"
)

// session is one OpenFile/SaveFile invocation chain. Its path is the
// navigation state; nothing outside the session mutates it.
type session struct {
	id      string
	c       *Controller
	mode    models.Mode
	surface Surface
	owned   bool
	backend storage.Backend
	// backendGen is the controller's backend generation at session start.
	backendGen uint64
	cancel     context.CancelCauseFunc
	path       models.Path
	shown      bool
	// done is closed once the session has stopped using its surface.
	done chan struct{}
}

type listing struct {
	entries []models.Entry
	err     error
}

// step is what ends one loop iteration.
type step int

const (
	stepBrowse step = iota
	stepCommit
	stepFail
)

func (s *session) log() *slog.Logger {
	return s.c.logger.With(slog.String("session", s.id), slog.String("mode", string(s.mode)))
}

func (s *session) run(ctx context.Context) (models.Path, error) {
	logger := s.log()
	logger.Debug("host: session started", slog.String("backend", storage.Describe(s.backend)))

	if err := s.surface.Load(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, s.cancelled(ctx)
		}
		return nil, fmt.Errorf("host: load surface: %w", err)
	}
	if err := s.backend.GetAccess(ctx); err != nil {
		logger.Warn("host: access failed", slog.String("error", err.Error()))
		return nil, err
	}
	port := s.surface.Port()

	for {
		seq, ok := s.c.install(s)
		if !ok {
			return nil, s.cancelled(ctx)
		}
		next, result, err := s.iterate(ctx, port, seq)
		switch next {
		case stepBrowse:
			continue
		case stepCommit:
			s.hide()
			logger.Info("host: dialog resolved", slog.String("path", result.String()))
			return result, nil
		default:
			s.hide()
			return nil, err
		}
	}
}

// iterate shows the current folder and waits for the user's next intent.
func (s *session) iterate(ctx context.Context, port channel.Port, seq uint64) (step, models.Path, error) {
	logger := s.log()

	if err := port.Send(protocol.SetDialogType{Mode: s.mode, Seq: seq}); err != nil {
		return stepFail, nil, fmt.Errorf("host: %w: surface unreachable: %v", apperr.ErrUserCancelled, err)
	}

	iterCtx, stop := context.WithCancel(ctx)
	defer stop()
	results := make(chan listing, 1)
	go func(path models.Path) {
		entries, err := s.backend.ReadFolder(iterCtx, path)
		results <- listing{entries: entries, err: err}
	}(s.path.Clone())

	// Browsing refreshes the listing; the surface is shown once.
	if s.owned && !s.shown {
		s.surface.Show()
		s.shown = true
	}

	for {
		select {
		case r := <-results:
			results = nil
			if r.err != nil {
				logger.Warn("host: listing failed",
					slog.String("path", s.path.String()), slog.String("error", r.err.Error()))
				return stepFail, nil, r.err
			}
			if !s.c.current(seq) {
				logger.Debug("host: late listing dropped", slog.Uint64("seq", seq))
				continue
			}
			if err := port.Send(protocol.ShowList{Entries: r.entries, Seq: seq}); err != nil {
				return stepFail, nil, fmt.Errorf("host: %w: surface unreachable: %v", apperr.ErrUserCancelled, err)
			}

		case msg := <-port.Receive():
			if sq, ok := msg.(protocol.Sequenced); ok && sq.Sequence() != seq {
				logger.Debug("host: stale message dropped",
					slog.String("type", string(msg.Kind())),
					slog.Uint64("seq", sq.Sequence()), slog.Uint64("current", seq))
				continue
			}
			switch m := msg.(type) {
			case protocol.DialogBrowse:
				s.path = s.path.Navigate(m.Target)
				logger.Debug("host: browse", slog.String("path", s.path.String()))
				return stepBrowse, nil, nil
			case protocol.DialogOpen:
				if s.mode == models.ModeOpen {
					return stepCommit, s.path.Join(m.Name), nil
				}
			case protocol.DialogSave:
				if s.mode == models.ModeSave {
					return stepCommit, s.path.Join(m.Name), nil
				}
			case protocol.Loaded:
				continue
			}
			logger.Debug("host: dialog cancelled", slog.String("type", string(msg.Kind())))
			return stepFail, nil, fmt.Errorf("host: %w", apperr.ErrUserCancelled)

		case <-port.Done():
			return stepFail, nil, fmt.Errorf("host: %w: surface closed", apperr.ErrUserCancelled)

		case <-ctx.Done():
			return stepFail, nil, s.cancelled(ctx)
		}
	}
}

// hide hides an owned surface, unless a newer session has taken it over.
func (s *session) hide() {
	if s.owned && !s.superseded() {
		s.surface.Hide()
	}
}

func (s *session) superseded() bool {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	return s.c.active != s
}

func (s *session) cancelled(ctx context.Context) error {
	cause := context.Cause(ctx)
	if errors.Is(cause, errSuperseded) {
		return fmt.Errorf("host: %w: %v", apperr.ErrUserCancelled, errSuperseded)
	}
	return fmt.Errorf("host: %w: %w", apperr.ErrUserCancelled, cause)
}
