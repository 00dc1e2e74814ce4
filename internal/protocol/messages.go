// Package protocol defines the messages exchanged between the host
// controller, the dialog UI and login surfaces.
//
// Every message is a distinct Go type. On the wire a message travels as an
// Envelope whose Type field is the discriminant and whose Payload holds the
// type's JSON form. Payloads are validated when decoded, so a peer never
// acts on a malformed message.
package protocol

import (
	"github.com/starford/filedock/internal/models"
)

// Kind is the wire discriminant of a message.
type Kind string

// Message kinds.
const (
	KindSetDialogType Kind = "setDialogType"
	KindShowList      Kind = "showList"
	KindLoaded        Kind = "loaded"
	KindDialogBrowse  Kind = "dialogBrowse"
	KindDialogOpen    Kind = "dialogOpen"
	KindDialogSave    Kind = "dialogSave"
	KindDialogCancel  Kind = "dialogCancel"
	KindSetClientID   Kind = "setClientID"
	KindDialogLogin   Kind = "dialogLogin"
)

// Message is implemented by every protocol message.
type Message interface {
	Kind() Kind
}

// UIBound messages travel from the host to a dialog or login surface.
type UIBound interface {
	Message
	uiBound()
}

// HostBound messages travel from a dialog or login surface to the host.
type HostBound interface {
	Message
	hostBound()
}

// Sequenced is implemented by messages that carry the generation of the
// listing they were produced for. Generations start at 1; the host drops
// any sequenced message, including one with a zero sequence, that does not
// carry the live generation.
type Sequenced interface {
	Message
	Sequence() uint64
}

// SetDialogType configures the dialog mode and starts a new generation.
type SetDialogType struct {
	Mode models.Mode `json:"mode"`
	Seq  uint64      `json:"seq,omitempty"`
}

// ShowList replaces the listing shown by the dialog.
type ShowList struct {
	Entries []models.Entry `json:"entries"`
	Seq     uint64         `json:"seq,omitempty"`
}

// Loaded announces that a surface is ready to receive messages.
type Loaded struct{}

// DialogBrowse asks the host to navigate into Target, or up on "..".
type DialogBrowse struct {
	Target string `json:"target"`
	Seq    uint64 `json:"seq,omitempty"`
}

// DialogOpen commits an Open on Name in the current folder.
type DialogOpen struct {
	Name string `json:"name"`
	Seq  uint64 `json:"seq,omitempty"`
}

// DialogSave commits a Save on Name in the current folder.
type DialogSave struct {
	Name string `json:"name"`
	Seq  uint64 `json:"seq,omitempty"`
}

// DialogCancel closes the dialog without a choice.
type DialogCancel struct {
	Seq uint64 `json:"seq,omitempty"`
}

// SetClientID tells a login surface which application is asking for access.
type SetClientID struct {
	ClientID string `json:"clientId"`
}

// DialogLogin reports the outcome of a login surface. An empty AccessToken
// means the login failed; Error may explain why.
type DialogLogin struct {
	AccessToken string `json:"accessToken,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Unknown is what an unrecognised discriminant decodes to.
type Unknown struct {
	Type    string `json:"-"`
	Payload []byte `json:"-"`
}

func (SetDialogType) Kind() Kind { return KindSetDialogType }
func (ShowList) Kind() Kind      { return KindShowList }
func (Loaded) Kind() Kind        { return KindLoaded }
func (DialogBrowse) Kind() Kind  { return KindDialogBrowse }
func (DialogOpen) Kind() Kind    { return KindDialogOpen }
func (DialogSave) Kind() Kind    { return KindDialogSave }
func (DialogCancel) Kind() Kind  { return KindDialogCancel }
func (SetClientID) Kind() Kind   { return KindSetClientID }
func (DialogLogin) Kind() Kind   { return KindDialogLogin }
func (u Unknown) Kind() Kind     { return Kind(u.Type) }

func (SetDialogType) uiBound() {}
func (ShowList) uiBound()      {}
func (SetClientID) uiBound()   {}
func (Unknown) uiBound()       {}

func (Loaded) hostBound()       {}
func (DialogBrowse) hostBound() {}
func (DialogOpen) hostBound()   {}
func (DialogSave) hostBound()   {}
func (DialogCancel) hostBound() {}
func (DialogLogin) hostBound()  {}
func (Unknown) hostBound()      {}

func (m SetDialogType) Sequence() uint64 { return m.Seq }
func (m ShowList) Sequence() uint64      { return m.Seq }
func (m DialogBrowse) Sequence() uint64  { return m.Seq }
func (m DialogOpen) Sequence() uint64    { return m.Seq }
func (m DialogSave) Sequence() uint64    { return m.Seq }
func (m DialogCancel) Sequence() uint64  { return m.Seq }
