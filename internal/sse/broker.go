// Package sse implements a Server-Sent Events broker that tells browser
// clients about dialog visibility and storage changes.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"sync/atomic"
	"time"

	"github.com/starford/filedock/internal/models"
)

// Event represents an SSE event to broadcast. Data is encoded as JSON.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Event types.
const (
	EventDialogShown    = "dialog.shown"
	EventDialogHidden   = "dialog.hidden"
	EventFileCreated    = "file.created"
	EventFileUpdated    = "file.updated"
	EventFileDeleted    = "file.deleted"
	EventStorageChanged = "storage.changed"
)

// DialogData is the payload of dialog.shown and dialog.hidden.
type DialogData struct {
	Surface string `json:"surface"`
	Visible bool   `json:"visible"`
}

// FileData is the payload of file.* events. Folder is the listing that
// now shows different entries.
type FileData struct {
	Path   string `json:"path"`
	Folder string `json:"folder"`
}

// StorageData is the payload of storage.changed: every folder touched
// since the previous storage.changed, sorted.
type StorageData struct {
	Folders []string `json:"folders"`
}

var fileEvents = map[string]string{
	"created": EventFileCreated,
	"updated": EventFileUpdated,
	"deleted": EventFileDeleted,
}

type storageEventReq struct {
	kind string
	path string
}

// Broker manages SSE client connections and broadcasts events.
//
// Concurrency model: a single internal event loop (goroutine) owns mutable state
// (clients, the refresh throttle and the folders awaiting a refresh). Public
// methods communicate with this loop through channels, so no mutexes are required.
type Broker struct {
	refreshMin time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	storageCh     chan storageEventReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a new SSE broker. storage.changed is emitted at most
// once per throttle interval; changes arriving inside the interval are
// folded into one trailing storage.changed.
func NewBroker(throttle time.Duration) *Broker {
	if throttle <= 0 {
		throttle = 2 * time.Second
	}

	b := &Broker{
		refreshMin:    throttle,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		storageCh:     make(chan storageEventReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var lastRefresh time.Time
	pending := make(map[string]struct{})
	var timer *time.Timer
	var flush <-chan time.Time

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		msg := fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload)
		raw := []byte(msg)

		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Client buffer full; skip to avoid blocking broker loop.
			}
		}
	}

	refresh := func(now time.Time) {
		folders := make([]string, 0, len(pending))
		for f := range pending {
			folders = append(folders, f)
		}
		slices.Sort(folders)
		clear(pending)
		lastRefresh = now
		broadcast(Event{Type: EventStorageChanged, Data: StorageData{Folders: folders}})
	}

	for {
		select {
		case <-b.stopCh:
			if timer != nil {
				timer.Stop()
			}
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.storageCh:
			typ, ok := fileEvents[req.kind]
			if !ok {
				continue
			}
			path := models.ParsePath(req.path)
			folder, _ := path.Parent()
			broadcast(Event{Type: typ, Data: FileData{Path: path.String(), Folder: folder.String()}})
			pending[folder.String()] = struct{}{}

			now := time.Now()
			if timer != nil {
				continue
			}
			if wait := b.refreshMin - now.Sub(lastRefresh); wait > 0 {
				timer = time.NewTimer(wait)
				flush = timer.C
				continue
			}
			refresh(now)

		case now := <-flush:
			timer, flush = nil, nil
			refresh(now)

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishStorageEvent publishes a file change and a throttled
// storage.changed event that tells open dialogs to refresh. kind is
// "created", "updated" or "deleted"; other kinds are ignored.
func (b *Broker) PublishStorageEvent(kind, path string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.storageCh <- storageEventReq{kind: kind, path: path}:
	case <-b.stopped:
	}
}

// PublishDialogEvent announces that the dialog surface id was shown or
// hidden.
func (b *Broker) PublishDialogEvent(id string, visible bool) {
	typ := EventDialogHidden
	if visible {
		typ = EventDialogShown
	}
	b.Publish(Event{Type: typ, Data: DialogData{Surface: id, Visible: visible}})
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
