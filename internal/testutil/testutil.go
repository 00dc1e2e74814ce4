// Package testutil provides shared test helpers: scenario backends, a
// scripted dialog surface, and polling utilities.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/starford/filedock/internal/channel"
	"github.com/starford/filedock/internal/protocol"
	"github.com/starford/filedock/internal/storage/disk"
	"github.com/starford/filedock/internal/storage/local"
	"github.com/starford/filedock/internal/storage/memory"
)

// Timeout bounds every blocking wait in tests.
const Timeout = 5 * time.Second

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// ScenarioTree returns an in-memory backend holding a.txt = "hello" and
// docs/b.txt = "world".
func ScenarioTree() *memory.Backend {
	return memory.New(memory.NewFolder().
		Add("a.txt", memory.NewFile("hello")).
		Add("docs", memory.NewFolder().Add("b.txt", memory.NewFile("world"))))
}

// TestLocal opens a flat SQLite backend in a temp directory that is
// cleaned up with the test.
func TestLocal(t *testing.T) *local.Store {
	t.Helper()
	s, err := local.Open(filepath.Join(t.TempDir(), "filedock.db"), local.DefaultPrefix)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestDisk creates a disk backend on a temp directory.
func TestDisk(t *testing.T) (string, *disk.FS) {
	t.Helper()
	dir := t.TempDir()
	fs, err := disk.New(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, fs
}

// Surface is a dialog surface whose UI side is played by the test.
// Messages cross it in wire form, like a real transport.
type Surface struct {
	toHost chan protocol.Message
	toUI   chan protocol.Message
	done   chan struct{}
	once   sync.Once

	shows atomic.Int32
	hides atomic.Int32
}

// NewSurface returns a loaded scripted surface.
func NewSurface(t *testing.T) *Surface {
	t.Helper()
	s := &Surface{
		toHost: make(chan protocol.Message, channel.DefaultInboxSize),
		toUI:   make(chan protocol.Message, channel.DefaultInboxSize),
		done:   make(chan struct{}),
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// Load is a no-op: the test plays the UI.
func (s *Surface) Load(context.Context) error { return nil }

// Port returns the host end.
func (s *Surface) Port() channel.Port { return s }

// Show records a show.
func (s *Surface) Show() { s.shows.Add(1) }

// Hide records a hide.
func (s *Surface) Hide() { s.hides.Add(1) }

// Shows reports how often Show was called.
func (s *Surface) Shows() int { return int(s.shows.Load()) }

// Hides reports how often Hide was called.
func (s *Surface) Hides() int { return int(s.hides.Load()) }

// Send implements channel.Port for the host side.
func (s *Surface) Send(msg protocol.Message) error {
	return s.push(s.toUI, msg)
}

// Receive implements channel.Port for the host side.
func (s *Surface) Receive() <-chan protocol.Message { return s.toHost }

// Done implements channel.Port.
func (s *Surface) Done() <-chan struct{} { return s.done }

// Close implements channel.Port.
func (s *Surface) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}

func (s *Surface) push(to chan protocol.Message, msg protocol.Message) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	return s.pushRaw(to, data)
}

func (s *Surface) pushRaw(to chan protocol.Message, data []byte) error {
	msg, err := protocol.Decode(data)
	if err != nil {
		return err
	}
	select {
	case <-s.done:
		return channel.ErrClosed
	case to <- msg:
		return nil
	}
}

// Pending reports whether the host has sent a message not yet consumed.
func (s *Surface) Pending() bool {
	return len(s.toUI) > 0
}

// Expect returns the next message the host sent to the UI.
func (s *Surface) Expect(t *testing.T) protocol.Message {
	t.Helper()
	select {
	case msg := <-s.toUI:
		return msg
	case <-time.After(Timeout):
		t.Fatal("timed out waiting for host message")
		return nil
	}
}

// Listing consumes one setDialogType/showList pair and returns the listing.
func (s *Surface) Listing(t *testing.T) protocol.ShowList {
	t.Helper()
	msg := s.Expect(t)
	set, ok := msg.(protocol.SetDialogType)
	if !ok {
		t.Fatalf("expected setDialogType, got %#v", msg)
	}
	msg = s.Expect(t)
	list, ok := msg.(protocol.ShowList)
	if !ok {
		t.Fatalf("expected showList, got %#v", msg)
	}
	if list.Seq != set.Seq {
		t.Fatalf("showList seq %d does not match setDialogType seq %d", list.Seq, set.Seq)
	}
	return list
}

// Reply delivers msg to the host as if the UI had sent it.
func (s *Surface) Reply(t *testing.T, msg protocol.Message) {
	t.Helper()
	if err := s.push(s.toHost, msg); err != nil {
		t.Fatalf("reply %s: %v", msg.Kind(), err)
	}
}

// ReplyRaw delivers a raw wire frame to the host.
func (s *Surface) ReplyRaw(t *testing.T, frame string) {
	t.Helper()
	if err := s.pushRaw(s.toHost, []byte(frame)); err != nil {
		t.Fatalf("reply raw: %v", err)
	}
}

// Recv waits for the next message on p.
func Recv(t *testing.T, p channel.Port) protocol.Message {
	t.Helper()
	select {
	case msg := <-p.Receive():
		return msg
	case <-time.After(Timeout):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

// Eventually polls fn every tick until it returns true or timeout elapses.
func Eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}
