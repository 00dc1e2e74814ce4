package web

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/starford/filedock/internal/channel"
	"github.com/starford/filedock/internal/dialog"
	"github.com/starford/filedock/internal/host"
	"github.com/starford/filedock/internal/models"
	"github.com/starford/filedock/internal/testutil"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) PublishDialogEvent(id string, visible bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if visible {
		r.events = append(r.events, "shown")
	} else {
		r.events = append(r.events, "hidden")
	}
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// connectDialog plays the browser: it dials the surface and runs a dialog
// on the client end of the websocket.
func connectDialog(t *testing.T, srvURL string) *dialog.Dialog {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srvURL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	port := channel.NewWebSocket(conn, channel.WithLogger(testutil.Logger()))
	d := dialog.New(port, testutil.Logger())
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = d.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		_ = port.Close()
	})
	return d
}

func TestLoadWaitsForLoadedConnection(t *testing.T) {
	s := New(nil, WithLogger(testutil.Logger()))
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	t.Cleanup(func() { _ = s.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	if err := s.Load(ctx); err == nil {
		t.Fatal("Load succeeded without a connection")
	}
	cancel()

	connectDialog(t, srv.URL)
	ctx, cancel = context.WithTimeout(context.Background(), testutil.Timeout)
	defer cancel()
	if err := s.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !s.Connected() || s.Port() == nil {
		t.Fatal("no port attached after Load")
	}
}

func TestBrowserDialogEndToEnd(t *testing.T) {
	events := &recorder{}
	s := New(events, WithLogger(testutil.Logger()))
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	t.Cleanup(func() { _ = s.Close() })

	c := host.New(testutil.ScenarioTree(),
		host.WithLogger(testutil.Logger()),
		host.WithSurfaceFactory(func() host.Surface { return s }))

	type result struct {
		h   *host.OpenHandle
		err error
	}
	res := make(chan result, 1)
	go func() {
		h, err := c.OpenFile(context.Background(), nil)
		res <- result{h, err}
	}()

	d := connectDialog(t, srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), testutil.Timeout)
	defer cancel()

	if _, err := d.Await(ctx, func(st dialog.State) bool { return len(st.Entries) == 2 }); err != nil {
		t.Fatalf("root listing: %v", err)
	}
	if err := d.Activate(1); err != nil {
		t.Fatalf("Activate(docs): %v", err)
	}
	if _, err := d.Await(ctx, func(st dialog.State) bool {
		return len(st.Entries) == 2 && st.Entries[0].Name == models.ParentMarker
	}); err != nil {
		t.Fatalf("docs listing: %v", err)
	}
	if err := d.Activate(1); err != nil {
		t.Fatalf("Activate(b.txt): %v", err)
	}

	var r result
	select {
	case r = <-res:
	case <-time.After(testutil.Timeout):
		t.Fatal("dialog never resolved")
	}
	if r.err != nil {
		t.Fatalf("OpenFile: %v", r.err)
	}
	if got := r.h.Path().String(); got != "/docs/b.txt" {
		t.Fatalf("path = %s", got)
	}

	got := events.snapshot()
	if len(got) != 2 || got[0] != "shown" || got[1] != "hidden" {
		t.Errorf("events = %v, want [shown hidden]", got)
	}
}

func TestNewerConnectionReplacesOlder(t *testing.T) {
	s := New(nil, WithLogger(testutil.Logger()))
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	t.Cleanup(func() { _ = s.Close() })
	ctx, cancel := context.WithTimeout(context.Background(), testutil.Timeout)
	defer cancel()

	connectDialog(t, srv.URL)
	if err := s.Load(ctx); err != nil {
		t.Fatal(err)
	}
	first := s.Port()

	connectDialog(t, srv.URL)
	testutil.Eventually(t, testutil.Timeout, 10*time.Millisecond, func() bool {
		return s.Port() != first
	}, "second connection never attached")
	select {
	case <-first.Done():
	case <-time.After(testutil.Timeout):
		t.Error("replaced connection still open")
	}
}
