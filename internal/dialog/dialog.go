// Package dialog implements the File Open/Save dialog UI as a state machine
// that talks to its host only through a channel.Port.
//
// Rendering is left to whoever drives the Dialog: a terminal, a test, or a
// browser peer that mirrors Snapshot. The Dialog owns the protocol-visible
// behaviour: which messages each user action emits and how inbound host
// messages change what is shown.
package dialog

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/starford/filedock/internal/channel"
	"github.com/starford/filedock/internal/models"
	"github.com/starford/filedock/internal/protocol"
)

// Errors returned by user actions that emit nothing.
var (
	ErrFinished        = errors.New("dialog: already committed or cancelled")
	ErrNoMode          = errors.New("dialog: mode not set")
	ErrOutOfRange      = errors.New("dialog: entry index out of range")
	ErrNothingSelected = errors.New("dialog: nothing selected")
	ErrInvalidName     = errors.New("dialog: invalid file name")
	ErrNoMatch         = errors.New("dialog: no entry matches")
)

// NoSelection is the Selected value when no entry is selected.
const NoSelection = -1

// State is what a renderer needs to draw the dialog.
type State struct {
	Mode     models.Mode
	Entries  []models.Entry
	Selected int
	Name     string
	Seq      uint64
	Done     bool
}

// Selection returns the selected entry, if any.
func (s State) Selection() (models.Entry, bool) {
	if s.Selected < 0 || s.Selected >= len(s.Entries) {
		return models.Entry{}, false
	}
	return s.Entries[s.Selected], true
}

// Dialog is one dialog UI instance.
type Dialog struct {
	port   channel.Port
	logger *slog.Logger

	mu      sync.Mutex
	state   State
	changed chan struct{}
}

// New creates a dialog bound to port. A nil logger means slog.Default().
func New(port channel.Port, logger *slog.Logger) *Dialog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dialog{
		port:    port,
		logger:  logger,
		state:   State{Selected: NoSelection},
		changed: make(chan struct{}),
	}
}

// Run announces readiness and applies host messages until ctx is done or
// the port closes.
func (d *Dialog) Run(ctx context.Context) error {
	if err := d.port.Send(protocol.Loaded{}); err != nil {
		return err
	}
	for {
		select {
		case msg := <-d.port.Receive():
			d.apply(msg)
		case <-d.port.Done():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (d *Dialog) apply(msg protocol.Message) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch m := msg.(type) {
	case protocol.SetDialogType:
		d.state.Mode = m.Mode
		d.state.Selected = NoSelection
		d.state.Name = ""
		d.state.Seq = m.Seq
		d.state.Done = false
	case protocol.ShowList:
		if m.Seq != 0 && m.Seq < d.state.Seq {
			d.logger.Debug("dialog: stale listing dropped",
				slog.Uint64("seq", m.Seq), slog.Uint64("current", d.state.Seq))
			return
		}
		d.state.Entries = append([]models.Entry(nil), m.Entries...)
		d.state.Selected = NoSelection
		if m.Seq != 0 {
			d.state.Seq = m.Seq
		}
	case protocol.Unknown:
		d.logger.Warn("dialog: unknown message", slog.String("type", m.Type))
		return
	default:
		d.logger.Debug("dialog: ignoring message", slog.String("type", string(msg.Kind())))
		return
	}
	d.notifyLocked()
}

func (d *Dialog) notifyLocked() {
	close(d.changed)
	d.changed = make(chan struct{})
}

// Snapshot returns a copy of the current state.
func (d *Dialog) Snapshot() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshotLocked()
}

func (d *Dialog) snapshotLocked() State {
	s := d.state
	s.Entries = append([]models.Entry(nil), d.state.Entries...)
	return s
}

// Await blocks until cond holds for the current state, returning that state.
func (d *Dialog) Await(ctx context.Context, cond func(State) bool) (State, error) {
	for {
		d.mu.Lock()
		s := d.snapshotLocked()
		ch := d.changed
		d.mu.Unlock()
		if cond(s) {
			return s, nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return s, ctx.Err()
		}
	}
}

// Select makes entry i the selection (single activation). The name field
// follows the selection so Save can reuse an existing name.
func (d *Dialog) Select(i int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state.Done {
		return ErrFinished
	}
	return d.selectLocked(i)
}

func (d *Dialog) selectLocked(i int) error {
	if i < 0 || i >= len(d.state.Entries) {
		return ErrOutOfRange
	}
	d.state.Selected = i
	d.state.Name = d.state.Entries[i].Name
	d.notifyLocked()
	return nil
}

// Activate handles a double activation of entry i: folders are browsed
// into, files are committed as if the primary action were invoked.
func (d *Dialog) Activate(i int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state.Done {
		return ErrFinished
	}
	if i < 0 || i >= len(d.state.Entries) {
		return ErrOutOfRange
	}
	e := d.state.Entries[i]
	if e.IsFolder() {
		return d.browseLocked(e.Name)
	}
	if err := d.selectLocked(i); err != nil {
		return err
	}
	return d.primaryLocked()
}

// Up asks the host for the parent folder.
func (d *Dialog) Up() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state.Done {
		return ErrFinished
	}
	if d.state.Mode == "" {
		return ErrNoMode
	}
	return d.browseLocked(models.ParentMarker)
}

func (d *Dialog) browseLocked(target string) error {
	if err := d.port.Send(protocol.DialogBrowse{Target: target, Seq: d.state.Seq}); err != nil {
		return err
	}
	d.state.Selected = NoSelection
	d.notifyLocked()
	return nil
}

// SetName edits the file name field.
func (d *Dialog) SetName(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state.Done {
		return ErrFinished
	}
	d.state.Name = name
	d.notifyLocked()
	return nil
}

// Primary invokes the Open or Save button.
func (d *Dialog) Primary() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state.Done {
		return ErrFinished
	}
	return d.primaryLocked()
}

func (d *Dialog) primaryLocked() error {
	var msg protocol.HostBound
	switch d.state.Mode {
	case models.ModeOpen:
		sel, ok := d.state.Selection()
		if !ok {
			return ErrNothingSelected
		}
		msg = protocol.DialogOpen{Name: sel.Name, Seq: d.state.Seq}
	case models.ModeSave:
		name := d.state.Name
		if name == "" {
			if sel, ok := d.state.Selection(); ok {
				name = sel.Name
			}
		}
		if name == "" {
			return ErrNothingSelected
		}
		if !models.ValidSegment(name) {
			return ErrInvalidName
		}
		msg = protocol.DialogSave{Name: name, Seq: d.state.Seq}
	default:
		return ErrNoMode
	}
	if err := d.port.Send(msg); err != nil {
		return err
	}
	d.state.Done = true
	d.notifyLocked()
	return nil
}

// Cancel invokes the Cancel button.
func (d *Dialog) Cancel() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state.Done {
		return ErrFinished
	}
	if d.state.Mode == "" {
		return ErrNoMode
	}
	if err := d.port.Send(protocol.DialogCancel{Seq: d.state.Seq}); err != nil {
		return err
	}
	d.state.Done = true
	d.notifyLocked()
	return nil
}

// Find selects the entry whose name best matches query (type-ahead).
// The parent entry never matches.
func (d *Dialog) Find(query string) (models.Entry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state.Done {
		return models.Entry{}, ErrFinished
	}
	names := make([]string, 0, len(d.state.Entries))
	index := make(map[string]int, len(d.state.Entries))
	for i, e := range d.state.Entries {
		if e.Name == models.ParentMarker {
			continue
		}
		if _, dup := index[e.Name]; !dup {
			index[e.Name] = i
			names = append(names, e.Name)
		}
	}
	ranks := fuzzy.RankFindNormalizedFold(query, names)
	if len(ranks) == 0 {
		return models.Entry{}, ErrNoMatch
	}
	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].Distance != ranks[j].Distance {
			return ranks[i].Distance < ranks[j].Distance
		}
		return index[ranks[i].Target] < index[ranks[j].Target]
	})
	i := index[ranks[0].Target]
	if err := d.selectLocked(i); err != nil {
		return models.Entry{}, err
	}
	return d.state.Entries[i], nil
}
