package sse

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: "file.created", Data: map[string]string{"path": "/a.md"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: file.created") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"path":"/a.md"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

// drain collects every message already queued on ch.
func drain(ch chan []byte) []string {
	var out []string
	for {
		select {
		case msg := <-ch:
			out = append(out, string(msg))
		default:
			return out
		}
	}
}

func TestPublishStorageEvent_RefreshThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// First event should trigger storage.changed.
	b.PublishStorageEvent("created", "/a.md")
	// Second event immediately should NOT trigger another storage.changed.
	b.PublishStorageEvent("updated", "/b.md")

	time.Sleep(50 * time.Millisecond)
	refreshCount := 0
	fileCount := 0
	for _, s := range drain(ch) {
		if strings.Contains(s, "storage.changed") {
			refreshCount++
		} else {
			fileCount++
		}
	}

	if fileCount != 2 {
		t.Errorf("file events = %d, want 2", fileCount)
	}
	if refreshCount != 1 {
		t.Errorf("storage.changed events = %d, want 1 (throttled)", refreshCount)
	}
}

func TestPublishStorageEvent_TrailingRefreshCarriesFolders(t *testing.T) {
	b := NewBroker(200 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishStorageEvent("created", "/a.md")
	time.Sleep(20 * time.Millisecond)
	b.PublishStorageEvent("updated", "/docs/b.md")
	b.PublishStorageEvent("deleted", "/docs/c.md")
	b.PublishStorageEvent("created", "/notes/d.md")

	deadline := time.After(2 * time.Second)
	var refreshes []string
	for len(refreshes) < 2 {
		select {
		case msg := <-ch:
			if s := string(msg); strings.Contains(s, "event: storage.changed") {
				refreshes = append(refreshes, s)
			}
		case <-deadline:
			t.Fatalf("got %d storage.changed events, want 2", len(refreshes))
		}
	}

	if !strings.Contains(refreshes[0], `"folders":["/"]`) {
		t.Errorf("leading refresh = %q, want root folder", refreshes[0])
	}
	if !strings.Contains(refreshes[1], `"folders":["/docs","/notes"]`) {
		t.Errorf("trailing refresh = %q, want /docs and /notes", refreshes[1])
	}

	time.Sleep(300 * time.Millisecond)
	for _, s := range drain(ch) {
		if strings.Contains(s, "storage.changed") {
			t.Errorf("unexpected extra refresh %q", s)
		}
	}
}

func TestPublishStorageEvent_FileData(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishStorageEvent("moved", "/ignored.md")
	b.PublishStorageEvent("deleted", "docs//old.md")

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: file.deleted") {
			t.Fatalf("first event = %q, want file.deleted", s)
		}
		if !strings.Contains(s, `"path":"/docs/old.md"`) || !strings.Contains(s, `"folder":"/docs"`) {
			t.Errorf("file data = %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for file event")
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	// Start handler in background.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	// Give handler time to subscribe.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.Publish(Event{Type: "file.updated", Data: map[string]string{"path": "/x.md"}})
	time.Sleep(50 * time.Millisecond)

	// Cancel context to disconnect.
	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: file.updated") {
		t.Errorf("handler output missing event: %q", body)
	}

	// Client should be cleaned up.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Fill buffer (capacity 64) and then one more should not block.
	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: "test", Data: map[string]string{"i": "x"}})
	}
	// If we reach here without deadlock, the test passes.
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// Should be safe no-op after close.
	b.Publish(Event{Type: "file.updated", Data: map[string]string{"path": "/x.md"}})
	b.PublishStorageEvent("updated", "/x.md")
	b.PublishDialogEvent("frame", true)
}

func TestPublishDialogEvent(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishDialogEvent("abc", true)
	b.PublishDialogEvent("abc", false)

	for _, want := range []string{"event: dialog.shown", "event: dialog.hidden"} {
		select {
		case msg := <-ch:
			s := string(msg)
			if !strings.Contains(s, want) || !strings.Contains(s, `"surface":"abc"`) {
				t.Errorf("got %q, want %s", s, want)
			}
			visible := want == "event: dialog.shown"
			if !strings.Contains(s, fmt.Sprintf(`"visible":%t`, visible)) {
				t.Errorf("got %q, want visible=%t", s, visible)
			}
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for %s", want)
		}
	}
}
